package mirror

import (
	"context"
	"fmt"
)

// ensureCreated runs the exists-then-create sequence for one target
// resource. The existence check always happens before the create call, so
// re-running a migration with the same inputs never duplicates resources.
//
// exists must return (false, nil) for a clean "not found" and a non-nil
// error for anything else; the guard does not guess on transient faults.
// A conflict from create is still mapped to already-exists, as a backstop
// against concurrent runs racing on the same identifier.
func ensureCreated(ctx context.Context, kind Kind, name string,
	exists func(context.Context) (bool, error),
	create func(context.Context) error,
) Outcome {
	ok, err := exists(ctx)
	if err != nil {
		return failed(kind, name, fmt.Errorf("existence check: %w", err))
	}
	if ok {
		return alreadyExists(kind, name)
	}
	if err := create(ctx); err != nil {
		if isConflict(err) {
			return alreadyExists(kind, name)
		}
		return failed(kind, name, fmt.Errorf("create: %w", err))
	}
	return created(kind, name)
}
