package protocol

// bitsPerByte is the number of bit slots in one bit-group byte.
const bitsPerByte = 8

// bitCursor tracks the position inside the current bit-group byte.
//
// pos is the index of the next bit slot (0-7). A value of bitsPerByte means
// no bit byte is open: the next bit operation starts a fresh byte and the
// next byte-aligned operation needs no padding.
type bitCursor struct {
	pos uint8
}

func newBitCursor() bitCursor {
	return bitCursor{pos: bitsPerByte}
}

// open reports whether a partially consumed bit byte is pending.
func (c *bitCursor) open() bool {
	return c.pos < bitsPerByte
}

// exhausted reports whether the current bit byte has no free slot left.
func (c *bitCursor) exhausted() bool {
	return c.pos >= bitsPerByte
}

// start positions the cursor at slot 0 of a fresh byte.
func (c *bitCursor) start() {
	c.pos = 0
}

// advance returns the mask for the current slot and moves to the next one.
func (c *bitCursor) advance() byte {
	mask := byte(1) << c.pos
	c.pos++
	return mask
}

// close abandons the remaining slots of the current byte.
func (c *bitCursor) close() {
	c.pos = bitsPerByte
}

// checkWidth panics on bit-field widths outside 1..32. Widths are fixed by
// message schemas, so a bad width is a programming error, not input error.
func checkWidth(width int) {
	if width < 1 || width > 32 {
		panic("protocol: bit field width out of range 1..32")
	}
}
