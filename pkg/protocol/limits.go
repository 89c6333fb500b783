package protocol

import (
	"errors"
	"fmt"
)

// ErrBoundViolation is matched (via errors.Is) by every *BoundError.
var ErrBoundViolation = errors.New("protocol: count exceeds bound")

// BoundError reports a decoded or encoded count that exceeds its
// validated maximum. It is distinct from truncation so callers can tell a
// hostile or corrupt count from a short frame.
type BoundError struct {
	Field string
	Count uint64
	Max   uint64
}

// Error implements the error interface.
func (e *BoundError) Error() string {
	return fmt.Sprintf("protocol: %s count %d exceeds bound %d", e.Field, e.Count, e.Max)
}

// Is makes errors.Is(err, ErrBoundViolation) true for bound errors.
func (e *BoundError) Is(target error) bool {
	return target == ErrBoundViolation
}

// CheckCount validates count against max. It must run before count is
// used to size an allocation or bound a loop.
func CheckCount(field string, count, max uint64) error {
	if count > max {
		return &BoundError{Field: field, Count: count, Max: max}
	}
	return nil
}

// MaxBitsValue returns the largest value representable in width bits.
func MaxBitsValue(width int) uint64 {
	checkWidth(width)
	return 1<<uint(width) - 1
}

// BitmaskBytes returns the number of bytes needed to hold one bit per row,
// rounded up.
func BitmaskBytes(rows uint64) uint64 {
	return rows/8 + min(rows%8, 1)
}
