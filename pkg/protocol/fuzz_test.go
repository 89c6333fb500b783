package protocol

import (
	"testing"
)

// FuzzReadBits tests that decoding arbitrary bytes doesn't panic.
func FuzzReadBits(f *testing.F) {
	f.Add([]byte{0x00}, uint8(1))
	f.Add([]byte{0xFF, 0x01}, uint8(9))
	f.Add([]byte{0x55, 0xAA, 0x55, 0xAA}, uint8(32))

	f.Fuzz(func(t *testing.T, data []byte, width uint8) {
		w := int(width%32) + 1
		d := NewDecoder(data)
		for {
			if _, err := d.ReadBits(w); err != nil {
				return
			}
		}
	})
}

// FuzzPackedUint64 checks the canonical round trip for any value.
func FuzzPackedUint64(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(uint64(0xFF00FF00FF00FF00))

	f.Fuzz(func(t *testing.T, v uint64) {
		e := NewEncoder()
		e.WritePackedUint64(v)
		if e.Len() != PackedUint64Size(v) {
			t.Fatalf("len %d != PackedUint64Size %d", e.Len(), PackedUint64Size(v))
		}
		got, err := NewDecoder(e.Bytes()).ReadPackedUint64()
		if err != nil || got != v {
			t.Fatalf("round trip %#x -> %#x, %v", v, got, err)
		}
	})
}

// FuzzReadPackedGUID tests that decoding arbitrary bytes doesn't panic.
func FuzzReadPackedGUID(f *testing.F) {
	e := NewEncoder()
	e.WritePackedGUID(GUID{Low: 0x1234, High: 0x0800000000000000})
	f.Add(e.Bytes())
	f.Add([]byte{0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _ = NewDecoder(data).ReadPackedGUID()
	})
}

// FuzzDecodeFrame tests that decoding arbitrary bytes doesn't panic.
func FuzzDecodeFrame(f *testing.F) {
	f.Add(NewFrame(0x0001, []byte{0x01, 0x02}).Encode())
	f.Add(NewFrame(0x34C1, []byte("test")).Encode())

	f.Fuzz(func(t *testing.T, data []byte) {
		// Should not panic
		_, _ = DecodeFrame(data)
	})
}
