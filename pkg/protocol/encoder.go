package protocol

import (
	"encoding/binary"
	"math"
)

// Encoder is a bitstream writer that appends to an internal buffer.
//
// Bit-level writes (WriteBit, WriteBits) fill the current bit-group byte;
// every byte-aligned write flushes the pending bit group first, so a byte
// primitive never lands in the middle of a bit byte.
//
// An Encoder belongs to a single message and must not be shared between
// goroutines.
type Encoder struct {
	buf []byte
	bit bitCursor
}

// NewEncoder creates a new encoder with a default initial capacity.
func NewEncoder() *Encoder {
	return NewEncoderWithCap(256)
}

// NewEncoderWithCap creates a new encoder with the specified initial capacity.
func NewEncoderWithCap(cap int) *Encoder {
	return &Encoder{
		buf: make([]byte, 0, cap),
		bit: newBitCursor(),
	}
}

// Reset resets the encoder to empty state, reusing the underlying buffer.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.bit = newBitCursor()
}

// Bytes returns the encoded bytes. A partially filled bit byte is included
// with its unused bits zero. The returned slice is valid until the next call
// to Reset or any Write method.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes currently encoded, counting a partially
// filled bit byte as one byte.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// BitPos returns the number of bits used in the current bit-group byte, or
// 0 when the encoder is byte aligned.
func (e *Encoder) BitPos() int {
	if !e.bit.open() {
		return 0
	}
	return int(e.bit.pos)
}

// WriteBit appends a single bit to the current bit group.
func (e *Encoder) WriteBit(v bool) {
	if e.bit.exhausted() {
		e.buf = append(e.buf, 0)
		e.bit.start()
	}
	mask := e.bit.advance()
	if v {
		e.buf[len(e.buf)-1] |= mask
	}
}

// WriteBits appends the low width bits of v, most significant bit first.
// width must be between 1 and 32.
func (e *Encoder) WriteBits(v uint32, width int) {
	checkWidth(width)
	for i := width - 1; i >= 0; i-- {
		e.WriteBit(v>>uint(i)&1 == 1)
	}
}

// FlushBits terminates the current bit group. The rest of the open byte is
// left as zero padding and the next write starts on a byte boundary.
func (e *Encoder) FlushBits() {
	e.bit.close()
}

// WriteByte appends a single byte. It implements io.ByteWriter; the
// error is always nil.
func (e *Encoder) WriteByte(b byte) error {
	e.FlushBits()
	e.buf = append(e.buf, b)
	return nil
}

// WriteBytes appends raw bytes.
func (e *Encoder) WriteBytes(b []byte) {
	e.FlushBits()
	e.buf = append(e.buf, b...)
}

// WriteBuffer splices the complete contents of other into e. Pending bits of
// other are included as a padded byte.
func (e *Encoder) WriteBuffer(other *Encoder) {
	e.WriteBytes(other.buf)
}

// WriteString appends the raw UTF-8 bytes of s. The length is not written;
// schemas carry it in an earlier bit-packed field.
func (e *Encoder) WriteString(s string) {
	e.FlushBits()
	e.buf = append(e.buf, s...)
}

// WriteCString appends s followed by a zero terminator.
func (e *Encoder) WriteCString(s string) {
	e.FlushBits()
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
}

// WriteUint8 appends a uint8.
func (e *Encoder) WriteUint8(v uint8) {
	e.WriteByte(v)
}

// WriteUint16 appends a uint16 in little-endian byte order.
func (e *Encoder) WriteUint16(v uint16) {
	e.FlushBits()
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

// WriteUint32 appends a uint32 in little-endian byte order.
func (e *Encoder) WriteUint32(v uint32) {
	e.FlushBits()
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// WriteUint64 appends a uint64 in little-endian byte order.
func (e *Encoder) WriteUint64(v uint64) {
	e.FlushBits()
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// WriteInt8 appends an int8.
func (e *Encoder) WriteInt8(v int8) {
	e.WriteByte(byte(v))
}

// WriteInt16 appends an int16 in little-endian byte order.
func (e *Encoder) WriteInt16(v int16) {
	e.WriteUint16(uint16(v))
}

// WriteInt32 appends an int32 in little-endian byte order.
func (e *Encoder) WriteInt32(v int32) {
	e.WriteUint32(uint32(v))
}

// WriteInt64 appends an int64 in little-endian byte order.
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteFloat32 appends a float32 in IEEE 754 format (little-endian).
func (e *Encoder) WriteFloat32(v float32) {
	e.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 appends a float64 in IEEE 754 format (little-endian).
func (e *Encoder) WriteFloat64(v float64) {
	e.WriteUint64(math.Float64bits(v))
}
