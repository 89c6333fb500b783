package schema

import (
	"fmt"

	"github.com/vango-dev/gamewire/pkg/protocol"
)

// BitField is any integer type small enough to travel in a bit field.
type BitField interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32
}

// BitsOf writes or reads a typed value (usually an enum) as a width-bit
// field. Negative values never fit and fail on encode.
func BitsOf[T BitField](s *Stream, v *T, width int) {
	if s.err != nil {
		return
	}
	var raw uint32
	if !s.Reading() {
		if *v < 0 {
			s.Fail(fmt.Errorf("%w: negative value %d", ErrFieldOverflow, *v))
			return
		}
		raw = uint32(*v)
	}
	s.Bits(&raw, width)
	if s.Reading() && s.err == nil {
		*v = T(raw)
	}
}

// Present writes or reads the presence bit of an optional field. On write
// the bit is p != nil; on read a set bit allocates a zero value so the
// schema can fill the payload later under the same `if *p != nil` test.
func Present[T any](s *Stream, p **T) bool {
	if s.err != nil {
		return false
	}
	set := *p != nil
	s.Bit(&set)
	if s.err != nil {
		return false
	}
	if s.Reading() {
		if set {
			*p = new(T)
		} else {
			*p = nil
		}
	}
	return set
}

// Count writes or reads the element count of a repeated field as a
// width-bit integer and sizes items to match. The count is validated
// against max (and the width's own ceiling) before any allocation; a
// decoded count over the bound fails with a *protocol.BoundError.
func Count[T any](s *Stream, items *[]T, field string, width int, max uint64) int {
	if s.err != nil {
		return 0
	}
	limit := protocol.MaxBitsValue(width)
	if max < limit {
		limit = max
	}

	if !s.Reading() {
		n := uint64(len(*items))
		if err := protocol.CheckCount(field, n, limit); err != nil {
			s.Fail(err)
			return 0
		}
		s.enc.WriteBits(uint32(n), width)
		return int(n)
	}

	raw, err := s.dec.ReadBits(width)
	if err != nil {
		s.Fail(err)
		return 0
	}
	if err := protocol.CheckCount(field, uint64(raw), limit); err != nil {
		s.Fail(err)
		return 0
	}
	*items = sized[T](int(raw))
	return int(raw)
}

// ByteCount is Count for byte-aligned uint32 counts.
func ByteCount[T any](s *Stream, items *[]T, field string, max uint64) int {
	if s.err != nil {
		return 0
	}
	if !s.Reading() {
		n := uint64(len(*items))
		if err := protocol.CheckCount(field, n, max); err != nil {
			s.Fail(err)
			return 0
		}
		s.enc.WriteUint32(uint32(n))
		return int(n)
	}

	raw, err := s.dec.ReadUint32()
	if err != nil {
		s.Fail(err)
		return 0
	}
	if err := protocol.CheckCount(field, uint64(raw), max); err != nil {
		s.Fail(err)
		return 0
	}
	*items = sized[T](int(raw))
	return int(raw)
}

// sized returns a slice of n zero elements, or nil when n is zero so that
// an empty decoded collection compares equal to an unset one.
func sized[T any](n int) []T {
	if n == 0 {
		return nil
	}
	return make([]T, n)
}

// Each serializes every element of items with fn, in order.
func Each[T any](s *Stream, items []T, fn func(s *Stream, item *T)) {
	for i := range items {
		if s.err != nil {
			return
		}
		fn(s, &items[i])
	}
}

// EachNested serializes every element of a composite slice with Nested.
func EachNested[T any, P interface {
	*T
	Composite
}](s *Stream, items []T) {
	for i := range items {
		if s.err != nil {
			return
		}
		s.Nested(P(&items[i]))
	}
}

// StringLength writes or reads the byte length of a string as a width-bit
// field and returns it. Pass the result to Stream.String once the owning
// bit group has been flushed.
func StringLength(s *Stream, str string, width int) uint32 {
	n := uint32(len(str))
	s.Bits(&n, width)
	if s.err != nil {
		return 0
	}
	return n
}

// Encode serializes c into a fresh buffer. The final bit group is flushed;
// nothing else is appended.
func Encode(c Composite) ([]byte, error) {
	e := protocol.NewEncoder()
	s := NewWriter(e)
	c.Serialize(s)
	s.Flush()
	if s.err != nil {
		return nil, s.err
	}
	return e.Bytes(), nil
}

// Decode deserializes data into c. Any error, including unread trailing
// bytes, means c holds no usable value.
func Decode(data []byte, c Composite, limits Limits) error {
	d := protocol.NewDecoder(data)
	s := NewReader(d, limits)
	c.Serialize(s)
	if s.err != nil {
		return s.err
	}
	if !d.EOF() {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, d.Remaining())
	}
	return nil
}
