package cog

// stepCogInit launches another cog. With the interpreter flag armed (by
// opcode 0x15) it lays down an interpreter init block just below the
// adjusted stack pointer, copies the boot arguments from it upward and
// targets the interpreter ROM entry; otherwise it forwards a native boot request. Either way
// the assembled opcode goes to the hub, which owns cog allocation.
func (c *Interpreted) stepCogInit(push bool) {
	var code uint32

	if c.interpreterFlag {
		c.interpreterFlag = false

		sp := c.PopLong() + 8 // host-reserved header
		descriptor := c.PopLong()
		argCount := descriptor >> 8
		function := descriptor & 0xFF
		sp = (sp + 3) &^ 3

		functionCode := c.objectFrame + function*4
		offset := uint32(c.hub.DirectReadWord(functionCode))
		functStack := sp + uint32(c.hub.DirectReadWord(functionCode+2)) + argCount*4

		c.hub.DirectWriteWord(sp-8, uint16(c.objectFrame))
		c.hub.DirectWriteWord(sp-6, uint16(c.variableFrame))
		c.hub.DirectWriteWord(sp-4, uint16(c.objectFrame+offset))
		c.hub.DirectWriteWord(sp-2, uint16(functStack+4))

		for i := argCount; i > 0; i-- {
			c.hub.DirectWriteLong(sp+(i-1)*4, c.PopLong())
		}

		code = ((InterpreterEntry & 0xFFFC) << 2) | (sp << 16)
		code |= cogField(c.PopLong())
	} else {
		param := c.PopLong()
		entry := c.PopLong()
		code = ((entry & 0xFFFC) << 2) | ((param & 0xFFFC) << 16)
		code |= cogField(c.PopLong())
	}

	var carry, zero bool
	result := c.hub.HubOp(c, HubOpCogInit, code, &carry, &zero)
	if push {
		c.PushLong(result)
	}
}

// cogField encodes a requested cog id: an explicit id below 8, or the
// first-free bit otherwise.
func cogField(id uint32) uint32 {
	if id < 8 {
		return id
	}
	return 0x8
}
