package cog

// The value stack lives in hub RAM and grows upward from the current
// frame; StackFrame always addresses the next free byte. Longs carry
// data values, words carry the saved frame pointers of a call record.
// Pairing pushes with pops is the bytecode stream's responsibility.

// PushLong pushes a 32-bit value and advances StackFrame by 4.
func (c *Interpreted) PushLong(v uint32) {
	c.hub.DirectWriteLong(c.stackFrame, v)
	c.stackFrame += 4
}

// PopLong retreats StackFrame by 4 and returns the value there.
func (c *Interpreted) PopLong() uint32 {
	c.stackFrame -= 4
	return c.hub.DirectReadLong(c.stackFrame)
}

// PushWord pushes a 16-bit value and advances StackFrame by 2.
func (c *Interpreted) PushWord(v uint16) {
	c.hub.DirectWriteWord(c.stackFrame, v)
	c.stackFrame += 2
}

// PopWord retreats StackFrame by 2 and returns the value there.
func (c *Interpreted) PopWord() uint16 {
	c.stackFrame -= 2
	return c.hub.DirectReadWord(c.stackFrame)
}

// popSigned pops a long as a two's-complement signed value.
func (c *Interpreted) popSigned() int32 {
	return int32(c.PopLong())
}

// callStackPush records a return-type mask or saved-PC slot address.
func (c *Interpreted) callStackPush(v uint32) {
	c.callStack = append(c.callStack, v)
}

// callStackPop removes the most recent entry. ok is false on underflow,
// which terminates the cog.
func (c *Interpreted) callStackPop() (v uint32, ok bool) {
	if len(c.callStack) == 0 {
		return 0, false
	}
	v = c.callStack[len(c.callStack)-1]
	c.callStack = c.callStack[:len(c.callStack)-1]
	return v, true
}

// returnFromSub unwinds call frames. Each iteration drops the current
// locals, pops the return-type mask and restores the four saved frame
// words. An abort keeps walking until it reaches a frame whose mask has
// the trap bit set; underflow stops the cog. A frame whose mask wants a
// return value receives it as a pushed long.
func (c *Interpreted) returnFromSub(value uint32, abort bool) {
	for {
		c.stackFrame = c.localFrame

		mask, ok := c.callStackPop()
		if !ok {
			c.stop()
			return
		}
		trapAbort := mask&0x2 != 0
		wantReturn := mask&0x1 == 0

		c.pc = uint32(c.PopWord())
		c.localFrame = uint32(c.PopWord())
		c.variableFrame = uint32(c.PopWord())
		c.objectFrame = uint32(c.PopWord())

		if abort && !trapAbort {
			continue
		}
		if wantReturn {
			c.PushLong(value)
		}
		return
	}
}
