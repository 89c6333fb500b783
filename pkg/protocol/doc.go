// Package protocol implements the bitstream substrate of the game wire format.
//
// Every client and server message is built from the same few primitives:
// sub-byte bit groups, byte-aligned little-endian scalars, raw strings whose
// length travels in an earlier bit field, and packed identifiers. The wire
// format carries no tags, so writer and reader must issue the exact same
// sequence of operations.
//
// # Bit Groups
//
// A bit group is a run of WriteBit/WriteBits calls. Bits fill a byte from
// bit 0 upward; multi-bit fields are emitted most significant bit first.
// The group ends with FlushBits (ResetBitPos on the read side) or with the
// next byte-aligned operation, which flushes implicitly:
//
//	e := NewEncoder()
//	e.WriteBit(true)   // presence bit -> bit 0
//	e.WriteBit(true)   // bit 1
//	e.WriteBit(false)  // bit 2
//	e.FlushBits()      // 0x03
//	e.WriteUint32(42)  // 2A 00 00 00
//
// # Packed Identifiers
//
// 64-bit identifiers are written as one presence mask byte followed by the
// non-zero bytes in ascending order. 128-bit GUIDs use one mask per half:
//
//	[low mask][high mask][low bytes...][high bytes...]
//
// # Framing
//
// Frame wraps a payload with a 6-byte header (length, opcode) for the
// transport layer:
//
//	[Length: uint32 LE][Opcode: uint16 LE][Payload...]
//
// # Errors
//
// Reads past the end return ErrTruncated. Counts that exceed a validated
// maximum return a *BoundError matching ErrBoundViolation. Neither is
// recoverable for the message being decoded.
package protocol
