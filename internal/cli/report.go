package cli

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/acksell/localmirror/internal/mirror"
)

// reportDoc is the YAML shape of a run summary.
type reportDoc struct {
	GeneratedAt time.Time                `yaml:"generatedAt"`
	Kinds       map[string][]reportEntry `yaml:"kinds"`
}

type reportEntry struct {
	Name   string      `yaml:"name"`
	Status string      `yaml:"status"`
	Error  string      `yaml:"error,omitempty"`
	Copy   *reportCopy `yaml:"copy,omitempty"`
}

type reportCopy struct {
	Skipped bool   `yaml:"skipped,omitempty"`
	Scanned int    `yaml:"scanned,omitempty"`
	Written int    `yaml:"written,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

func writeReport(path string, results mirror.Results) error {
	doc := reportDoc{
		GeneratedAt: time.Now().UTC(),
		Kinds:       make(map[string][]reportEntry, len(results)),
	}
	for kind, outcomes := range results {
		entries := make([]reportEntry, 0, len(outcomes))
		for _, oc := range outcomes {
			e := reportEntry{Name: oc.Name, Status: string(oc.Status)}
			if oc.Err != nil {
				e.Error = oc.Err.Error()
			}
			if oc.Copy != nil {
				e.Copy = &reportCopy{
					Skipped: oc.Copy.Skipped,
					Scanned: oc.Copy.Scanned,
					Written: oc.Copy.Written,
				}
				if oc.Copy.Err != nil {
					e.Copy.Error = oc.Copy.Err.Error()
				}
			}
			entries = append(entries, e)
		}
		doc.Kinds[string(kind)] = entries
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
