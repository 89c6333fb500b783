package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFrameEncodeDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   Frame
		wantLen int // expected total length including header
	}{
		{
			name:    "empty_payload",
			frame:   Frame{Opcode: 0x0001, Payload: []byte{}},
			wantLen: FrameHeaderSize,
		},
		{
			name:    "with_payload",
			frame:   Frame{Opcode: 0x34C1, Payload: []byte{0x01, 0x02, 0x03}},
			wantLen: FrameHeaderSize + 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			encoded := tc.frame.Encode()
			if len(encoded) != tc.wantLen {
				t.Errorf("Encode() length = %d, want %d", len(encoded), tc.wantLen)
			}

			e := NewEncoder()
			tc.frame.EncodeTo(e)
			if !bytes.Equal(e.Bytes(), encoded) {
				t.Errorf("EncodeTo() = % x, want % x", e.Bytes(), encoded)
			}

			decoded, err := DecodeFrame(encoded)
			if err != nil {
				t.Fatalf("DecodeFrame() error = %v", err)
			}
			if decoded.Opcode != tc.frame.Opcode {
				t.Errorf("Decoded opcode = %v, want %v", decoded.Opcode, tc.frame.Opcode)
			}
			if !bytes.Equal(decoded.Payload, tc.frame.Payload) {
				t.Errorf("Decoded payload = % x, want % x", decoded.Payload, tc.frame.Payload)
			}
		})
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	f := NewFrame(0x1234, []byte{0xAA, 0xBB})
	want := []byte{0x02, 0x00, 0x00, 0x00, 0x34, 0x12, 0xAA, 0xBB}
	if got := f.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() = % x, want % x", got, want)
	}
	if s := Opcode(0x1234).String(); s != "0x1234" {
		t.Errorf("Opcode.String() = %q", s)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	if _, err := DecodeFrame([]byte{0x01, 0x00}); !errors.Is(err, ErrTruncated) {
		t.Errorf("short header = %v, want ErrTruncated", err)
	}

	short := NewFrame(1, []byte{1, 2, 3}).Encode()
	if _, err := DecodeFrame(short[:len(short)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("short payload = %v, want ErrTruncated", err)
	}

	huge := []byte{0xFF, 0xFF, 0xFF, 0x7F, 0x01, 0x00}
	if _, err := DecodeFrame(huge); err != ErrFrameTooLarge {
		t.Errorf("oversized length = %v, want ErrFrameTooLarge", err)
	}

	long := append(NewFrame(1, []byte{1, 2, 3}).Encode(), 0xEE)
	if _, err := DecodeFrame(long); err != ErrFrameLength {
		t.Errorf("trailing byte = %v, want ErrFrameLength", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	full := NewFrame(0x0010, []byte("payload")).Encode()
	for _, n := range []int{1, FrameHeaderSize - 1, FrameHeaderSize, len(full) - 1} {
		_, err := ReadFrame(bytes.NewReader(full[:n]))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("ReadFrame(%d of %d bytes) = %v, want ErrTruncated", n, len(full), err)
		}
	}
	if _, err := ReadFrame(bytes.NewReader(nil)); err != io.EOF {
		t.Errorf("ReadFrame(empty) = %v, want io.EOF", err)
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	frames := []*Frame{
		NewFrame(0x0010, []byte("first")),
		NewFrame(0x0020, nil),
		NewFrame(0x0030, []byte{0x00, 0x01}),
	}
	for _, f := range frames {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}

	for _, want := range frames {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame() error = %v", err)
		}
		if got.Opcode != want.Opcode || !bytes.Equal(got.Payload, want.Payload) {
			t.Errorf("ReadFrame() = %+v, want %+v", got, want)
		}
	}

	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame() at end = %v, want io.EOF", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	f := NewFrame(1, make([]byte, MaxPayloadSize+1))
	if err := WriteFrame(io.Discard, f); err != ErrFrameTooLarge {
		t.Errorf("WriteFrame() = %v, want ErrFrameTooLarge", err)
	}
}
