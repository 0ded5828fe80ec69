package sentinel

import "errors"

// Sentinel errors for storage facts. Counter and ledger stores return these
// (optionally wrapped) so the allocator can decide between retrying, failing
// fast, and reporting exhaustion:
//   - ErrNotFound: no counter or ledger row exists for the partition
//   - ErrConflict: a uniqueness constraint rejected the write
//   - ErrExhausted: the counter already sits at the partition's capacity
//   - ErrUnavailable: the backing store is temporarily unreachable
//
// For bad caller input use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExhausted   = errors.New("exhausted")
	ErrUnavailable = errors.New("unavailable")
)

// IsTransient reports whether err is worth retrying at the storage layer.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrConflict)
}
