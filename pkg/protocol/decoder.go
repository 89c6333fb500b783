package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Allocation limits to prevent DoS attacks via malicious length prefixes.
const (
	// DefaultMaxAllocation is the default maximum allocation size (4MB).
	// No single string or byte block in a game message comes close.
	DefaultMaxAllocation = 4 * 1024 * 1024
)

// Common decoding errors.
var (
	// ErrTruncated is returned when a read needs more bytes or bits than
	// remain in the buffer. It wraps io.ErrUnexpectedEOF.
	ErrTruncated = fmt.Errorf("protocol: truncated input: %w", io.ErrUnexpectedEOF)

	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
)

// Decoder is a bitstream reader over a byte buffer.
//
// Bit-level reads consume the current bit-group byte; every byte-aligned
// read first discards whatever is left of that byte. A failed read never
// yields a partial value.
type Decoder struct {
	buf []byte
	pos int
	cur byte
	bit bitCursor
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf, bit: newBitCursor()}
}

// Remaining returns the number of unread bytes. A partially consumed bit
// byte is not counted.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current byte read position.
func (d *Decoder) Position() int {
	return d.pos
}

// ReadBit reads a single bit from the current bit group.
func (d *Decoder) ReadBit() (bool, error) {
	if d.bit.exhausted() {
		if d.pos >= len(d.buf) {
			return false, ErrTruncated
		}
		d.cur = d.buf[d.pos]
		d.pos++
		d.bit.start()
	}
	return d.cur&d.bit.advance() != 0, nil
}

// HasBit reads a single bit and reports whether it was set. An exhausted
// buffer reads as false; use ReadBit when truncation must be detected.
func (d *Decoder) HasBit() bool {
	v, err := d.ReadBit()
	return err == nil && v
}

// ReadBits reads an unsigned integer of width bits, most significant bit
// first. width must be between 1 and 32.
func (d *Decoder) ReadBits(width int) (uint32, error) {
	checkWidth(width)

	// Snapshot so a short read does not move the cursor.
	pos, cur, bit := d.pos, d.cur, d.bit

	var v uint32
	for i := 0; i < width; i++ {
		b, err := d.ReadBit()
		if err != nil {
			d.pos, d.cur, d.bit = pos, cur, bit
			return 0, err
		}
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v, nil
}

// ResetBitPos terminates the current bit group, discarding its unread bits.
func (d *Decoder) ResetBitPos() {
	d.bit.close()
}

// take returns the next n bytes after aligning to a byte boundary.
func (d *Decoder) take(n int) ([]byte, error) {
	d.ResetBitPos()
	if n < 0 || n > len(d.buf)-d.pos {
		return nil, ErrTruncated
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads exactly n bytes and returns a copy (safe to retain).
// Returns ErrAllocationTooLarge if n exceeds DefaultMaxAllocation.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	if n > DefaultMaxAllocation {
		return nil, ErrAllocationTooLarge
	}
	b, err := d.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadString reads n raw UTF-8 bytes. The length comes from an earlier
// bit-packed field, so it is bounds checked before any allocation.
func (d *Decoder) ReadString(n int) (string, error) {
	if n > DefaultMaxAllocation {
		return "", ErrAllocationTooLarge
	}
	b, err := d.take(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCString reads a zero-terminated string of at most max bytes, not
// counting the terminator. A missing terminator within the remaining input
// is truncation; a string longer than max is ErrAllocationTooLarge.
func (d *Decoder) ReadCString(max int) (string, error) {
	d.ResetBitPos()
	rest := d.buf[d.pos:]
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		if len(rest) > max {
			return "", ErrAllocationTooLarge
		}
		return "", ErrTruncated
	}
	if i > max {
		return "", ErrAllocationTooLarge
	}
	d.pos += i + 1
	return string(rest[:i]), nil
}

// ReadUint8 reads a uint8.
func (d *Decoder) ReadUint8() (uint8, error) {
	return d.ReadByte()
}

// ReadUint16 reads a uint16 in little-endian byte order.
func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32 reads a uint32 in little-endian byte order.
func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64 reads a uint64 in little-endian byte order.
func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt8 reads an int8.
func (d *Decoder) ReadInt8() (int8, error) {
	v, err := d.ReadByte()
	return int8(v), err
}

// ReadInt16 reads an int16 in little-endian byte order.
func (d *Decoder) ReadInt16() (int16, error) {
	v, err := d.ReadUint16()
	return int16(v), err
}

// ReadInt32 reads an int32 in little-endian byte order.
func (d *Decoder) ReadInt32() (int32, error) {
	v, err := d.ReadUint32()
	return int32(v), err
}

// ReadInt64 reads an int64 in little-endian byte order.
func (d *Decoder) ReadInt64() (int64, error) {
	v, err := d.ReadUint64()
	return int64(v), err
}

// ReadFloat32 reads a float32 in IEEE 754 format (little-endian).
func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a float64 in IEEE 754 format (little-endian).
func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}
