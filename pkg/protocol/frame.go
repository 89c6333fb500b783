package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frame constants.
const (
	// FrameHeaderSize is the size of the frame header in bytes.
	FrameHeaderSize = 6

	// MaxPayloadSize is the largest payload a frame may carry (1MB).
	MaxPayloadSize = 1 << 20
)

// Opcode identifies the message schema a payload was encoded with.
type Opcode uint16

// String returns the opcode in the hex form used by packet logs.
func (op Opcode) String() string {
	return fmt.Sprintf("0x%04X", uint16(op))
}

// Frame errors.
var (
	ErrFrameTooLarge = errors.New("protocol: frame payload too large")

	// ErrFrameLength is returned when a buffer holds bytes past the
	// payload its header declares.
	ErrFrameLength = errors.New("protocol: bytes after frame payload")
)

// Frame is one opcode-tagged message payload.
//
// Wire format (6 bytes header + variable payload):
//
//	┌───────────────────────────────┬───────────────┐
//	│ Payload Length                │ Opcode        │
//	│ (4 bytes, little-endian)      │ (2 bytes, LE) │
//	└───────────────────────────────┴───────────────┘
//	│                                               │
//	│  Payload (variable length)                    │
//	│                                               │
//	└───────────────────────────────────────────────┘
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// Encode encodes the frame to bytes including the header.
func (f *Frame) Encode() []byte {
	e := NewEncoderWithCap(FrameHeaderSize + len(f.Payload))
	f.EncodeTo(e)
	return e.Bytes()
}

// EncodeTo encodes the frame using the provided encoder.
func (f *Frame) EncodeTo(e *Encoder) {
	e.WriteUint32(uint32(len(f.Payload)))
	e.WriteUint16(uint16(f.Opcode))
	e.WriteBytes(f.Payload)
}

// DecodeFrameHeader decodes just the frame header, returning opcode and
// payload length.
func DecodeFrameHeader(data []byte) (Opcode, int, error) {
	if len(data) < FrameHeaderSize {
		return 0, 0, ErrTruncated
	}
	length := binary.LittleEndian.Uint32(data[0:4])
	if length > MaxPayloadSize {
		return 0, 0, ErrFrameTooLarge
	}
	return Opcode(binary.LittleEndian.Uint16(data[4:6])), int(length), nil
}

// DecodeFrame decodes exactly one frame from bytes. Bytes past the
// declared payload are rejected with ErrFrameLength; use ReadFrame for a
// stream of frames.
func DecodeFrame(data []byte) (*Frame, error) {
	op, length, err := DecodeFrameHeader(data)
	if err != nil {
		return nil, err
	}
	if len(data) < FrameHeaderSize+length {
		return nil, ErrTruncated
	}
	if len(data) > FrameHeaderSize+length {
		return nil, ErrFrameLength
	}

	payload := make([]byte, length)
	copy(payload, data[FrameHeaderSize:FrameHeaderSize+length])

	return &Frame{Opcode: op, Payload: payload}, nil
}

// ReadFrame reads a complete frame from an io.Reader. It returns io.EOF
// when r is exhausted on a frame boundary and ErrTruncated when r ends
// inside a frame.
func ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, FrameHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}

	op, length, err := DecodeFrameHeader(header)
	if err != nil {
		return nil, err
	}

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, ErrTruncated
			}
			return nil, err
		}
	}

	return &Frame{Opcode: op, Payload: payload}, nil
}

// WriteFrame writes a complete frame to an io.Writer.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}

// NewFrame creates a new frame with the given opcode and payload.
func NewFrame(op Opcode, payload []byte) *Frame {
	return &Frame{Opcode: op, Payload: payload}
}
