package fleet

import (
	"errors"
	"fmt"

	"github.com/ukydev/fleet-dispatch/internal/db"
)

var (
	// ErrResourceUnavailable means the driver or vehicle was claimed by
	// someone else between read and write. Recoverable: re-list and retry.
	ErrResourceUnavailable = errors.New("resource unavailable")

	// ErrPreconditionFailed means a start was attempted without both
	// assignments in place. User-correctable.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidTransition means a lifecycle operation was called from a
	// state that forbids it. Usage error, surfaced and logged.
	ErrInvalidTransition = errors.New("invalid trip status transition")

	// ErrNoPersonnelAvailable means maintenance dispatch found an empty
	// roster. The vehicle is left unflagged; the operator retries later.
	ErrNoPersonnelAvailable = errors.New("no maintenance personnel available")

	// ErrStoreUnavailable wraps transport or backing-store failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr classifies a store failure, keeping the operation name and
// resource id for the log without leaking store internals to callers.
// Not-found passes through so the API layer can map it to 404.
func storeErr(op string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
