package protocol

import "math/bits"

// GUID is a 128-bit entity identifier made of two 64-bit halves.
type GUID struct {
	Low  uint64
	High uint64
}

// IsEmpty reports whether both halves are zero.
func (g GUID) IsEmpty() bool {
	return g.Low == 0 && g.High == 0
}

// packMask returns the presence mask of v: bit i is set iff byte i of the
// little-endian representation of v is non-zero.
func packMask(v uint64) byte {
	var mask byte
	for i := 0; i < 8; i++ {
		if byte(v>>(8*uint(i))) != 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// appendPacked appends the non-zero bytes of v selected by mask.
func appendPacked(buf []byte, v uint64, mask byte) []byte {
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			buf = append(buf, byte(v>>(8*uint(i))))
		}
	}
	return buf
}

// PackedUint64Size returns the encoded size of v in bytes, mask included.
func PackedUint64Size(v uint64) int {
	return 1 + bits.OnesCount8(packMask(v))
}

// PackedGUIDSize returns the encoded size of g in bytes, both masks included.
func PackedGUIDSize(g GUID) int {
	return PackedUint64Size(g.Low) + PackedUint64Size(g.High)
}

// WritePackedUint64 appends v as a presence mask byte followed by its
// non-zero bytes in ascending order. Zero encodes to the single byte 0x00.
func (e *Encoder) WritePackedUint64(v uint64) {
	e.FlushBits()
	mask := packMask(v)
	e.buf = append(e.buf, mask)
	e.buf = appendPacked(e.buf, v, mask)
}

// WritePackedGUID appends g as the low mask, the high mask, the packed low
// bytes and the packed high bytes.
func (e *Encoder) WritePackedGUID(g GUID) {
	e.FlushBits()
	lowMask, highMask := packMask(g.Low), packMask(g.High)
	e.buf = append(e.buf, lowMask, highMask)
	e.buf = appendPacked(e.buf, g.Low, lowMask)
	e.buf = appendPacked(e.buf, g.High, highMask)
}

// readPacked reads the bytes announced by mask. The announced byte count is
// checked against the remaining input before anything is consumed.
func (d *Decoder) readPacked(mask byte) (uint64, error) {
	b, err := d.take(bits.OnesCount8(mask))
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		if mask&(1<<uint(i)) != 0 {
			v |= uint64(b[0]) << (8 * uint(i))
			b = b[1:]
		}
	}
	return v, nil
}

// ReadPackedUint64 reads a value written by WritePackedUint64.
func (d *Decoder) ReadPackedUint64() (uint64, error) {
	start := d.pos
	mask, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	v, err := d.readPacked(mask)
	if err != nil {
		d.pos = start
		return 0, err
	}
	return v, nil
}

// ReadPackedGUID reads a value written by WritePackedGUID.
func (d *Decoder) ReadPackedGUID() (GUID, error) {
	start := d.pos
	masks, err := d.take(2)
	if err != nil {
		return GUID{}, err
	}
	low, err := d.readPacked(masks[0])
	if err != nil {
		d.pos = start
		return GUID{}, err
	}
	high, err := d.readPacked(masks[1])
	if err != nil {
		d.pos = start
		return GUID{}, err
	}
	return GUID{Low: low, High: high}, nil
}
