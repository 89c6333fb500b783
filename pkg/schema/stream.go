package schema

import (
	"errors"
	"fmt"
	"math"

	"github.com/vango-dev/gamewire/pkg/protocol"
)

// Schema errors.
var (
	// ErrFieldOverflow is returned on encode when a value does not fit the
	// bit width its schema declares.
	ErrFieldOverflow = errors.New("schema: value does not fit field width")

	// ErrLengthMismatch is returned on encode when a payload does not match
	// the length announced earlier in the message.
	ErrLengthMismatch = errors.New("schema: payload length does not match announced length")

	// ErrTrailingData is returned when a decode finishes with unread bytes.
	ErrTrailingData = errors.New("schema: unread bytes after message")

	// ErrMissingLimit is returned when a schema asks for a reference bound
	// the decoder was not given.
	ErrMissingLimit = errors.New("schema: reference limit not configured")
)

// Composite is a value that describes its own wire layout. Serialize is
// called once per direction; the Stream decides whether each verb writes
// the field or reads into it.
type Composite interface {
	Serialize(s *Stream)
}

// Limits supplies maxima derived from reference data. Bound is called at
// every validation so a reloaded table takes effect on the next message.
type Limits interface {
	Bound(table string) (uint64, bool)
}

// StaticLimits is a fixed set of reference bounds.
type StaticLimits map[string]uint64

// Bound implements Limits.
func (l StaticLimits) Bound(table string) (uint64, bool) {
	v, ok := l[table]
	return v, ok
}

// LimitsFunc adapts a function to the Limits interface.
type LimitsFunc func(table string) (uint64, bool)

// Bound implements Limits.
func (f LimitsFunc) Bound(table string) (uint64, bool) {
	return f(table)
}

// Stream is one direction of one message: it wraps either an Encoder or a
// Decoder. The first error is kept and every later verb becomes a no-op, so
// schemas are written without per-field error checks.
type Stream struct {
	enc    *protocol.Encoder
	dec    *protocol.Decoder
	limits Limits
	err    error
}

// NewWriter returns a stream that serializes into e.
func NewWriter(e *protocol.Encoder) *Stream {
	return &Stream{enc: e}
}

// NewReader returns a stream that deserializes from d. limits may be nil
// when no decoded schema consults reference data.
func NewReader(d *protocol.Decoder, limits Limits) *Stream {
	return &Stream{dec: d, limits: limits}
}

// Reading reports whether the stream decodes.
func (s *Stream) Reading() bool {
	return s.dec != nil
}

// Err returns the first error hit by the stream.
func (s *Stream) Err() error {
	return s.err
}

// Fail records err unless an earlier error is already recorded.
func (s *Stream) Fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

// Bound returns the current reference maximum for table. On the write side
// no reference data is consulted and the bound is math.MaxInt32.
func (s *Stream) Bound(table string) uint64 {
	if !s.Reading() {
		return math.MaxInt32
	}
	if s.limits != nil {
		if v, ok := s.limits.Bound(table); ok {
			return v
		}
	}
	s.Fail(fmt.Errorf("%w: %s", ErrMissingLimit, table))
	return 0
}

// Bit writes or reads one bit of the current bit group.
func (s *Stream) Bit(v *bool) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteBit(*v)
		return
	}
	b, err := s.dec.ReadBit()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = b
}

// Bits writes or reads an unsigned integer of width bits.
func (s *Stream) Bits(v *uint32, width int) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		if uint64(*v) > protocol.MaxBitsValue(width) {
			s.Fail(fmt.Errorf("%w: %d in %d bits", ErrFieldOverflow, *v, width))
			return
		}
		s.enc.WriteBits(*v, width)
		return
	}
	b, err := s.dec.ReadBits(width)
	if err != nil {
		s.Fail(err)
		return
	}
	*v = b
}

// Flush ends the current bit group.
func (s *Stream) Flush() {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.FlushBits()
		return
	}
	s.dec.ResetBitPos()
}

// Nested serializes a composite value in place and closes its bit group
// before control returns to the parent.
func (s *Stream) Nested(c Composite) {
	if s.err != nil {
		return
	}
	c.Serialize(s)
	s.Flush()
}

// Uint8 writes or reads a byte-aligned uint8.
func (s *Stream) Uint8(v *uint8) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteUint8(*v)
		return
	}
	r, err := s.dec.ReadUint8()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Uint16 writes or reads a byte-aligned uint16.
func (s *Stream) Uint16(v *uint16) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteUint16(*v)
		return
	}
	r, err := s.dec.ReadUint16()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Uint32 writes or reads a byte-aligned uint32.
func (s *Stream) Uint32(v *uint32) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteUint32(*v)
		return
	}
	r, err := s.dec.ReadUint32()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Uint64 writes or reads a byte-aligned uint64.
func (s *Stream) Uint64(v *uint64) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteUint64(*v)
		return
	}
	r, err := s.dec.ReadUint64()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Int8 writes or reads a byte-aligned int8.
func (s *Stream) Int8(v *int8) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteInt8(*v)
		return
	}
	r, err := s.dec.ReadInt8()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Int16 writes or reads a byte-aligned int16.
func (s *Stream) Int16(v *int16) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteInt16(*v)
		return
	}
	r, err := s.dec.ReadInt16()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Int32 writes or reads a byte-aligned int32.
func (s *Stream) Int32(v *int32) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteInt32(*v)
		return
	}
	r, err := s.dec.ReadInt32()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Int64 writes or reads a byte-aligned int64.
func (s *Stream) Int64(v *int64) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteInt64(*v)
		return
	}
	r, err := s.dec.ReadInt64()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Float32 writes or reads a byte-aligned float32.
func (s *Stream) Float32(v *float32) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteFloat32(*v)
		return
	}
	r, err := s.dec.ReadFloat32()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Float64 writes or reads a byte-aligned float64.
func (s *Stream) Float64(v *float64) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WriteFloat64(*v)
		return
	}
	r, err := s.dec.ReadFloat64()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// PackedUint64 writes or reads a packed 64-bit identifier.
func (s *Stream) PackedUint64(v *uint64) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WritePackedUint64(*v)
		return
	}
	r, err := s.dec.ReadPackedUint64()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// PackedGUID writes or reads a packed 128-bit identifier.
func (s *Stream) PackedGUID(v *protocol.GUID) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		s.enc.WritePackedGUID(*v)
		return
	}
	r, err := s.dec.ReadPackedGUID()
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// String writes or reads n raw bytes of v. n comes from StringLength in
// the owning bit group.
func (s *Stream) String(v *string, n uint32) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		if uint32(len(*v)) != n {
			s.Fail(fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(*v), n))
			return
		}
		s.enc.WriteString(*v)
		return
	}
	r, err := s.dec.ReadString(int(n))
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// CString writes or reads a zero-terminated string of at most max bytes.
func (s *Stream) CString(v *string, max int) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		if len(*v) > max {
			s.Fail(&protocol.BoundError{Field: "cstring", Count: uint64(len(*v)), Max: uint64(max)})
			return
		}
		s.enc.WriteCString(*v)
		return
	}
	r, err := s.dec.ReadCString(max)
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Bytes writes or reads a raw block of n bytes.
func (s *Stream) Bytes(v *[]byte, n int) {
	if s.err != nil {
		return
	}
	if s.enc != nil {
		if len(*v) != n {
			s.Fail(fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(*v), n))
			return
		}
		s.enc.WriteBytes(*v)
		return
	}
	r, err := s.dec.ReadBytes(n)
	if err != nil {
		s.Fail(err)
		return
	}
	*v = r
}

// Section serializes fill into a separately built buffer and splices the
// result into the stream. The inner layout starts on a byte boundary and
// ends with its own flush. On the read side fill reads the section in place.
func (s *Stream) Section(fill func(s *Stream)) {
	if s.err != nil {
		return
	}
	if s.enc == nil {
		s.Flush()
		fill(s)
		s.Flush()
		return
	}
	inner := NewWriter(protocol.NewEncoderWithCap(64))
	fill(inner)
	if inner.err != nil {
		s.Fail(inner.err)
		return
	}
	s.enc.WriteBuffer(inner.enc)
}
