package cog

// stepSpecialOp dispatches the 0x00-0x3F opcode range: frame and call
// management, branches, CASE/LOOKUP ladders, block intrinsics, waits,
// locks, clock control, COGINIT, aborts, returns and literals.
func (c *Interpreted) stepSpecialOp(op uint32) {
	switch op {
	case 0x00, 0x01, 0x02, 0x03: // frame prep
		c.prepareFrame(op & 0x3)

	case 0x04: // unconditional branch
		c.addBranch(c.readPackedSigned())

	case 0x05, 0x06, 0x07: // call / call-object / call-object-indexed
		c.stepCall(op)

	case 0x08: // loop start
		value := c.popSigned()
		branch := c.readPackedSigned()
		if value <= 0 {
			c.addBranch(branch)
		} else {
			c.PushLong(uint32(value))
		}

	case 0x09: // loop continue
		value := c.popSigned() - 1
		branch := c.readPackedSigned()
		if value > 0 {
			c.addBranch(branch)
			c.PushLong(uint32(value))
		}

	case 0x0A: // jump if zero
		value := c.PopLong()
		branch := c.readPackedSigned()
		if value == 0 {
			c.addBranch(branch)
		}

	case 0x0B: // jump if not zero
		value := c.PopLong()
		branch := c.readPackedSigned()
		if value != 0 {
			c.addBranch(branch)
		}

	case 0x0C: // case done
		c.PopLong() // case selector
		c.pc = (c.objectFrame + c.PopLong()) & MaxHubAddress

	case 0x0D: // value case
		equal := c.PopLong()
		value := c.PopLong()
		branch := c.readPackedSigned()
		if equal == value {
			c.addBranch(branch)
		}
		c.PushLong(value)

	case 0x0E: // range case
		max := c.popSigned()
		min := c.popSigned()
		value := c.popSigned()
		branch := c.readPackedSigned()
		if min > max {
			min, max = max, min
		}
		if value >= min && value <= max {
			c.addBranch(branch)
		}
		c.PushLong(uint32(value))

	case 0x0F: // look done: search exhausted
		c.PopLong() // key
		c.PopLong() // jump
		c.PopLong() // base
		c.PushLong(allOnes)

	case 0x10, 0x11, 0x12, 0x13: // lookup/lookdown ladders
		c.stepLookOp(op)

	case 0x14: // undefined in this bytecode table
		c.logf("cog: undefined opcode %#02x at PC=%#04x", op, c.pc)

	case 0x15: // mark interpreted
		c.interpreterFlag = true

	case 0x16: // strsize
		addr := c.PopLong() & MaxHubAddress
		var count uint32
		for addr+count <= MaxHubAddress && c.hub.DirectReadByte(addr+count) != 0 {
			count++
		}
		c.PushLong(count)

	case 0x17: // strcomp
		b := c.PopLong() & MaxHubAddress
		a := c.PopLong() & MaxHubAddress
		result := allOnes
		for {
			ca := c.hub.DirectReadByte(a)
			cb := c.hub.DirectReadByte(b)
			if ca != cb {
				result = 0
				break
			}
			if ca == 0 {
				break
			}
			a = (a + 1) & MaxHubAddress
			b = (b + 1) & MaxHubAddress
		}
		c.PushLong(result)

	case 0x18, 0x19, 0x1A: // byte/word/long fill
		c.stepFill(op - 0x18)

	case 0x1C, 0x1D, 0x1E: // byte/word/long move
		c.stepMove(op - 0x1C)

	case 0x1B, 0x1F: // waitpeq / waitpne
		c.port = c.PopLong() & 1
		c.maskValue = c.PopLong()
		c.targetValue = c.PopLong()
		if op == 0x1B {
			c.state = StateWaitPEQ
		} else {
			c.state = StateWaitPNE
		}

	case 0x20: // clkset
		freq := c.PopLong()
		c.hub.DirectWriteLong(0, freq)
		mode := c.PopLong()
		c.hub.DirectWriteByte(4, uint8(mode))
		c.hub.SetClockMode(uint8(mode))

	case 0x21: // cogstop
		c.hub.Stop(c.PopLong() & 0x7)

	case 0x22: // lockret
		c.hub.LockReturn(c.PopLong())

	case 0x23: // waitcnt
		c.targetValue = c.PopLong()
		c.state = StateWaitCNT

	case 0x24, 0x25, 0x26: // indexed special-purpose register
		c.stepIndexedRegisterOp(op)

	case 0x27: // waitvid
		c.pixelsValue = c.PopLong()
		c.colorsValue = c.PopLong()
		c.state = StateWaitVID

	case 0x28, 0x29, 0x2A, 0x2B, 0x2C, 0x2D, 0x2E, 0x2F:
		c.stepHubOp(op)

	case 0x30: // abort, default return value
		c.returnFromSub(c.hub.DirectReadLong(c.localFrame), true)

	case 0x31: // abort with value
		c.returnFromSub(c.PopLong(), true)

	case 0x32: // return, default return value
		c.returnFromSub(c.hub.DirectReadLong(c.localFrame), false)

	case 0x33: // return with value
		c.returnFromSub(c.PopLong(), false)

	case 0x34:
		c.PushLong(allOnes)
	case 0x35:
		c.PushLong(0)
	case 0x36:
		c.PushLong(1)

	case 0x37: // packed literal
		c.PushLong(packedLiteral(c.readByteOperand()))

	case 0x38, 0x39, 0x3A, 0x3B: // 1-4 byte literal, big-endian
		n := op - 0x37
		var v uint32
		for i := uint32(0); i < n; i++ {
			v = (v << 8) | c.readByteOperand()
		}
		c.PushLong(v)

	case 0x3C: // undefined in this bytecode table
		c.logf("cog: undefined opcode %#02x at PC=%#04x", op, c.pc)

	case 0x3D, 0x3E, 0x3F:
		c.stepCogRegisterOp(op)
	}
}

// prepareFrame pushes a new call record: the return-type mask goes to
// the side call stack, the caller's frame words to the hub stack, then
// the saved-PC slot address is noted and a placeholder PC word plus a
// zero default-return long complete the record.
func (c *Interpreted) prepareFrame(mask uint32) {
	c.callStackPush(mask)
	c.PushWord(uint16(c.objectFrame))
	c.PushWord(uint16(c.variableFrame))
	c.PushWord(uint16(c.localFrame))
	c.callStackPush(c.stackFrame)
	c.PushWord(0)
	c.PushLong(0)
}

// stepCall completes a call begun by frame prep. The object variants
// first rebase ObjectFrame/VariableFrame through the object table, then
// all three resolve the function table entry, link the frame and adjust
// the stack for the callee's locals.
func (c *Interpreted) stepCall(op uint32) {
	if op == 0x06 || op == 0x07 {
		objectCode := c.objectFrame + c.readByteOperand()*4
		if op == 0x07 {
			objectCode += c.PopLong() * 4
		}
		c.objectFrame += uint32(c.hub.DirectReadWord(objectCode))
		c.variableFrame += uint32(c.hub.DirectReadWord(objectCode + 2))
	}

	functionCode := c.objectFrame + c.readByteOperand()*4

	slot, ok := c.callStackPop()
	if !ok {
		c.stop()
		return
	}
	c.localFrame = slot + 2
	c.hub.DirectWriteWord(slot, uint16(c.pc))

	c.pc = (c.objectFrame + uint32(c.hub.DirectReadWord(functionCode))) & MaxHubAddress
	c.stackFrame += uint32(c.hub.DirectReadWord(functionCode + 2))
}

// stepLookOp walks a LOOKUP/LOOKDOWN ladder. The stack carries
// (base, jump, key) under each entry; a hit jumps to ObjectFrame+jump
// with the result pushed, a miss pushes the advanced state back. LOOKUP
// walks the key down toward the base; LOOKDOWN walks the base up past
// each entry. The range variants consume a whole range per entry.
func (c *Interpreted) stepLookOp(op uint32) {
	switch op {
	case 0x10: // lookup value
		value := c.PopLong()
		key := c.PopLong()
		jump := c.PopLong()
		base := c.PopLong()
		if key == base {
			c.pc = (c.objectFrame + jump) & MaxHubAddress
			c.PushLong(value)
		} else {
			c.PushLong(base)
			c.PushLong(jump)
			c.PushLong(key - 1)
		}

	case 0x11: // lookdown value
		value := c.PopLong()
		key := c.PopLong()
		jump := c.PopLong()
		base := c.PopLong()
		if value == key {
			c.pc = (c.objectFrame + jump) & MaxHubAddress
			c.PushLong(base)
		} else {
			c.PushLong(base + 1)
			c.PushLong(jump)
			c.PushLong(key)
		}

	case 0x12: // lookup range
		top := c.popSigned()
		bottom := c.popSigned()
		key := c.PopLong()
		jump := c.PopLong()
		base := c.PopLong()
		span := rangeSpan(bottom, top)
		offset := key - base
		if offset < span {
			var result int32
			if bottom <= top {
				result = bottom + int32(offset)
			} else {
				result = bottom - int32(offset)
			}
			c.pc = (c.objectFrame + jump) & MaxHubAddress
			c.PushLong(uint32(result))
		} else {
			c.PushLong(base)
			c.PushLong(jump)
			c.PushLong(key - span)
		}

	case 0x13: // lookdown range
		top := c.popSigned()
		bottom := c.popSigned()
		key := c.popSigned()
		jump := c.PopLong()
		base := c.PopLong()
		span := rangeSpan(bottom, top)
		lo, hi := bottom, top
		if lo > hi {
			lo, hi = hi, lo
		}
		if key >= lo && key <= hi {
			offset := key - bottom
			if offset < 0 {
				offset = -offset
			}
			c.pc = (c.objectFrame + jump) & MaxHubAddress
			c.PushLong(base + uint32(offset))
		} else {
			c.PushLong(base + span)
			c.PushLong(jump)
			c.PushLong(uint32(key))
		}
	}
}

// rangeSpan counts the entries a bottom..top range covers.
func rangeSpan(bottom, top int32) uint32 {
	if bottom > top {
		bottom, top = top, bottom
	}
	return uint32(top-bottom) + 1
}

// stepFill pops (count, value, dest) and fills count elements of the
// given size (log2 width) starting at dest.
func (c *Interpreted) stepFill(size uint32) {
	count := c.popSigned()
	value := c.PopLong()
	dest := c.PopLong()
	for i := int32(0); i < count; i++ {
		c.writeSized(dest+uint32(i)<<size, size, value)
	}
}

// stepMove pops (count, src, dest) and copies count elements of the
// given size from src to dest, ascending.
func (c *Interpreted) stepMove(size uint32) {
	count := c.popSigned()
	src := c.PopLong()
	dest := c.PopLong()
	for i := int32(0); i < count; i++ {
		offset := uint32(i) << size
		c.writeSized(dest+offset, size, c.readSized(src+offset, size))
	}
}

// stepIndexedRegisterOp handles SPR read/write/using (0x24-0x26). An
// index outside the special-register window is a silent no-op that
// still consumes the index; the data operand of write/using stays on
// the stack in that case, matching the source behavior.
func (c *Interpreted) stepIndexedRegisterOp(op uint32) {
	index := c.PopLong() & 0x1F
	if index >= 16 {
		return
	}
	reg := 0x1F0 + index

	switch op {
	case 0x24:
		c.PushLong(c.ReadCogRegister(reg))
	case 0x25:
		c.WriteCogRegister(reg, c.PopLong())
	case 0x26:
		c.WriteCogRegister(reg, c.inplaceUsingOp(c.ReadCogRegister(reg)))
	}
}

// stepHubOp handles COGINIT/LOCKNEW/LOCKSET/LOCKCLR, in push-result
// (0x28-0x2B) and discard (0x2C-0x2F) variants.
func (c *Interpreted) stepHubOp(op uint32) {
	push := op < 0x2C

	switch op & 0x3 {
	case 0: // coginit
		c.stepCogInit(push)
	case 1: // locknew
		id := c.hub.NewLock()
		if push {
			c.PushLong(id)
		}
	case 2: // lockset
		previous := c.hub.LockSet(c.PopLong(), true)
		if push {
			c.PushLong(boolValue(previous))
		}
	case 3: // lockclr
		previous := c.hub.LockSet(c.PopLong(), false)
		if push {
			c.PushLong(boolValue(previous))
		}
	}
}

// packedLiteral decodes the 0x37 literal: rotate 2 left by the low five
// bits, then optionally decrement (bit 5) and complement (bit 6).
func packedLiteral(v uint32) uint32 {
	result := uint32(2) << (v & 0x1F)
	result |= 2 >> (32 - (v & 0x1F))
	if v&0x20 != 0 {
		result--
	}
	if v&0x40 != 0 {
		result = ^result
	}
	return result
}
