package cog

// readByteOperand fetches the next byte of the instruction stream and
// advances the PC within the hub address space.
func (c *Interpreted) readByteOperand() uint32 {
	v := uint32(c.hub.DirectReadByte(c.pc))
	c.pc = (c.pc + 1) & MaxHubAddress
	return v
}

// readPackedUnsigned reads a 1-2 byte unsigned operand. A set high bit
// on the first byte selects the two-byte form: the remaining 15 bits
// are the big-endian concatenation of both bytes.
func (c *Interpreted) readPackedUnsigned() uint32 {
	v := c.readByteOperand()
	if v&0x80 != 0 {
		v = ((v << 8) | c.readByteOperand()) & 0x7FFF
	}
	return v
}

// readPackedSigned reads a 1-2 byte signed operand with the same shape
// as readPackedUnsigned, sign-extended from 7 bits (one-byte form) or
// 15 bits (two-byte form).
func (c *Interpreted) readPackedSigned() int32 {
	v := c.readByteOperand()
	if v&0x80 == 0 {
		return int32(v<<25) >> 25
	}
	v = ((v << 8) | c.readByteOperand()) & 0x7FFF
	return int32(v<<17) >> 17
}

// addBranch applies a signed branch offset to the PC.
func (c *Interpreted) addBranch(offset int32) {
	c.pc = (c.pc + uint32(offset)) & MaxHubAddress
}
