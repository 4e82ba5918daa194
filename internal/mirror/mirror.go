package mirror

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Runner is the migration orchestrator: it verifies source credentials
// once, then fans out one task per requested kind on a bounded pool.
// Kinds never abort each other; every task runs to completion and the
// full outcome map is returned regardless of individual failures.
type Runner struct {
	registry Registry
	sts      STSAPI
	workers  int
	log      logrus.FieldLogger
}

func NewRunner(registry Registry, sourceSTS STSAPI, workers int, log logrus.FieldLogger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{registry: registry, sts: sourceSTS, workers: workers, log: log}
}

// Run migrates every requested kind. Unrecognized kinds are warned about
// and not started. A credential failure aborts the whole run before any
// task starts; it is the only run-level error.
func (r *Runner) Run(ctx context.Context, kinds []Kind, req Request) (Results, error) {
	if _, err := r.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}); err != nil {
		return nil, fmt.Errorf("verifying source credentials: %w", err)
	}

	results := make(Results)
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(r.workers)

	seen := make(map[Kind]bool)
	for _, kind := range kinds {
		if seen[kind] {
			continue
		}
		seen[kind] = true

		m, ok := r.registry[kind]
		if !ok {
			r.log.WithField("kind", kind).Warn("unknown resource kind, not started")
			continue
		}
		g.Go(func() error {
			r.log.WithField("kind", kind).Info("migration task started")
			outcomes := m.Migrate(ctx, req)
			mu.Lock()
			results[kind] = outcomes
			mu.Unlock()
			r.log.WithField("kind", kind).Info("migration task finished")
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
