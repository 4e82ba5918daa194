package mirror

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Status is the terminal state of one migrated resource instance.
type Status string

const (
	StatusCreated       Status = "created"
	StatusAlreadyExists Status = "already-exists"
	StatusSkipped       Status = "skipped-by-filter"
	StatusFailed        Status = "failed"
)

// Outcome records the result of attempting to mirror one resource
// instance. Outcomes are never mutated after creation.
type Outcome struct {
	Kind   Kind
	Name   string
	Status Status
	Err    error

	// Copy is set when a data-copy pipeline ran (or was explicitly
	// skipped) for this instance. Copy failure is independent of the
	// creation status: a created resource may carry a failed copy.
	Copy *CopyOutcome
}

// CopyOutcome records the result of the data-copy pipeline for one
// stateful resource instance.
type CopyOutcome struct {
	Skipped bool
	Scanned int
	Written int
	Err     error
}

func created(kind Kind, name string) Outcome {
	return Outcome{Kind: kind, Name: name, Status: StatusCreated}
}

func alreadyExists(kind Kind, name string) Outcome {
	return Outcome{Kind: kind, Name: name, Status: StatusAlreadyExists}
}

func skipped(kind Kind, name string) Outcome {
	return Outcome{Kind: kind, Name: name, Status: StatusSkipped}
}

func failed(kind Kind, name string, err error) Outcome {
	return Outcome{Kind: kind, Name: name, Status: StatusFailed, Err: err}
}

// kindFailure records a failure that aborted a whole kind, such as the
// initial list call failing. It aborts only that kind's migration.
func kindFailure(kind Kind, err error) Outcome {
	return Outcome{Kind: kind, Status: StatusFailed, Err: err}
}

// logOutcome writes one structured log line per processed instance.
func logOutcome(log logrus.FieldLogger, oc Outcome) {
	entry := log.WithFields(logrus.Fields{
		"kind":   oc.Kind,
		"name":   oc.Name,
		"status": oc.Status,
	})
	if oc.Err != nil {
		entry.WithError(oc.Err).Error("migration failed")
		return
	}
	entry.Info("migrated")
}

// Results is the run-level outcome map, one slice per migrated kind.
type Results map[Kind][]Outcome

// Tally counts outcomes per status for one kind's slice.
func Tally(outcomes []Outcome) map[Status]int {
	counts := make(map[Status]int)
	for _, oc := range outcomes {
		counts[oc.Status]++
	}
	return counts
}

// Failed returns every failed outcome across all kinds.
func (r Results) Failed() []Outcome {
	var out []Outcome
	for _, outcomes := range r {
		for _, oc := range outcomes {
			if oc.Status == StatusFailed {
				out = append(out, oc)
			}
		}
	}
	return out
}

func (oc Outcome) String() string {
	if oc.Err != nil {
		return fmt.Sprintf("%s/%s: %s (%v)", oc.Kind, oc.Name, oc.Status, oc.Err)
	}
	return fmt.Sprintf("%s/%s: %s", oc.Kind, oc.Name, oc.Status)
}
