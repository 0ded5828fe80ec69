package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCategory is a programming error: categories are a closed,
	// reviewed set and callers must only send known ones.
	ErrInvalidCategory = errors.New("invalid category")
	// ErrMissingRegion means the caller did not supply a region.
	ErrMissingRegion = errors.New("region is required")
	// ErrSequenceExhausted means a partition reached its capacity.
	ErrSequenceExhausted = errors.New("sequence exhausted")
	// ErrAllocationConflict means retries ran out under contention.
	ErrAllocationConflict = errors.New("allocation conflict")
	// ErrMalformedIdentifier means a string is not a valid identifier.
	ErrMalformedIdentifier = errors.New("malformed identifier")
)

// ExhaustedError reports the partition that ran out of sequence numbers.
type ExhaustedError struct {
	Key PartitionKey
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("sequence exhausted for partition %s (capacity %d)", e.Key, e.Key.Capacity())
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrSequenceExhausted
}

// Malformed wraps ErrMalformedIdentifier with the reason for rejection.
func Malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedIdentifier, reason)
}
