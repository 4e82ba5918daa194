// Package mirror implements the migration engine: per-kind resource
// migrators that translate live AWS resource descriptors into creation
// requests against a local, API-compatible emulator, plus the orchestrator
// that runs them concurrently.
package mirror

import "context"

// Kind identifies one category of mirrored resource.
type Kind string

const (
	KindBuckets     Kind = "buckets"
	KindFunctions   Kind = "functions"
	KindQueues      Kind = "queues"
	KindTables      Kind = "tables"
	KindUserPools   Kind = "userpools"
	KindDBInstances Kind = "dbinstances"
)

// AllKinds returns every supported kind in a stable order.
func AllKinds() []Kind {
	return []Kind{
		KindBuckets,
		KindFunctions,
		KindQueues,
		KindTables,
		KindUserPools,
		KindDBInstances,
	}
}

// ParseKind maps a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for _, k := range AllKinds() {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Request carries the per-run inputs shared by every migrator. It is
// constructed once per orchestrator invocation and read-only afterwards.
type Request struct {
	// Filter limits migration to instances whose name matches.
	Filter Filter

	// CopyData enables the data-copy pipelines for stateful kinds. This is
	// a pre-run decision; migrators never prompt.
	CopyData bool
}

// Migrator mirrors every instance of one resource kind from the source
// account into the target emulator. Implementations own the full
// list/translate/create/copy sequence for their kind and must never panic
// on a single bad instance: per-instance failures become Outcomes.
type Migrator interface {
	Kind() Kind
	Migrate(ctx context.Context, req Request) []Outcome
}

// Registry maps each kind to its migrator. Adding a resource kind means
// adding one Migrator implementation and registering it here.
type Registry map[Kind]Migrator

// NewRegistry builds a registry from the given migrators.
func NewRegistry(ms ...Migrator) Registry {
	r := make(Registry, len(ms))
	for _, m := range ms {
		r[m.Kind()] = m
	}
	return r
}
