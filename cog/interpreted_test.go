package cog_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Sh1nyAnd3o3/gear-emu/cog"
)

var _ = Describe("Cog state machine", func() {
	var (
		h *testHub
		c *cog.Interpreted
	)

	BeforeEach(func() {
		h = newTestHub()
	})

	Describe("boot", func() {
		const initFrame = 0x0080

		BeforeEach(func() {
			h.DirectWriteWord(initFrame-8, 0x0010) // object base
			h.DirectWriteWord(initFrame-6, 0x0200) // variable base
			h.DirectWriteWord(initFrame-4, 0x0300) // initial PC
			h.DirectWriteWord(initFrame-2, 0x0404) // stack top + 4
			c = cog.NewInterpreted(h, cog.WithPAR(initFrame))
		})

		It("should read the init block and pace 48 boot ticks", func() {
			Expect(c.State()).To(Equal(cog.StateBootInterpreter))

			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitInterpreter))
			Expect(c.ObjectFrame()).To(Equal(uint32(0x0010)))
			Expect(c.VariableFrame()).To(Equal(uint32(0x0200)))
			Expect(c.PC()).To(Equal(uint32(0x0300)))
			Expect(c.StackFrame()).To(Equal(uint32(0x0400)))
			Expect(c.LocalFrame()).To(Equal(uint32(initFrame - 4)))

			for i := 0; i < 48; i++ {
				Expect(c.State()).To(Equal(cog.StateWaitInterpreter))
				c.DoInstruction()
			}
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
		})

		It("should leave the abort sentinel and a cleared return slot", func() {
			c.DoInstruction()
			Expect(h.DirectReadLong(initFrame - 8)).To(Equal(uint32(0xFFFFFFFF)))
			Expect(h.DirectReadLong(initFrame - 4)).To(Equal(uint32(0)))
		})

		It("should record the init pointer in INITCOGID", func() {
			c.DoInstruction()
			Expect(c.ReadCogRegister(cog.RegINITCOGID)).To(Equal(uint32(initFrame - 4)))
		})
	})

	Describe("pacing", func() {
		It("should wait 32 ticks after each executed opcode", func() {
			c = newTestCog(h)
			load(h, codeBase, 0x36, 0x36)

			c.DoInstruction() // executes push 1
			Expect(c.State()).To(Equal(cog.StateWaitInterpreter))
			Expect(c.InstructionCount()).To(Equal(uint64(1)))

			for i := 0; i < 32; i++ {
				Expect(c.State()).To(Equal(cog.StateWaitInterpreter))
				c.DoInstruction()
			}
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))

			c.DoInstruction()
			Expect(c.InstructionCount()).To(Equal(uint64(2)))
		})

		It("should no-op while stopped", func() {
			c = newTestCog(h)
			c.SetState(cog.StateStopped)
			load(h, codeBase, 0x36)
			c.DoInstruction()
			Expect(c.InstructionCount()).To(BeZero())
			Expect(c.PC()).To(Equal(uint32(codeBase)))
		})
	})

	Describe("pin waits", func() {
		// push target, mask, port; WAITPEQ.
		waitCode := func(op byte, target, mask, port uint32) []byte {
			code := append(pushLiteral(target), pushLiteral(mask)...)
			code = append(code, pushLiteral(port)...)
			return append(code, op)
		}

		It("should enter WAIT_PEQ and resume when the pins match", func() {
			c = newTestCog(h)
			load(h, codeBase, waitCode(0x1B, 0xA, 0xF, 0)...)
			run(c, 4)
			Expect(c.State()).To(Equal(cog.StateWaitPEQ))
			pc := c.PC()

			h.ina = 0x3 // no match
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitPEQ))

			h.ina = 0x1A // masked value matches 0xA
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
			Expect(c.PC()).To(Equal(pc))
		})

		It("should enter WAIT_PNE and resume when the pins differ", func() {
			c = newTestCog(h)
			load(h, codeBase, waitCode(0x1F, 0xA, 0xF, 0)...)
			h.ina = 0xA
			run(c, 4)
			Expect(c.State()).To(Equal(cog.StateWaitPNE))

			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitPNE))

			h.ina = 0xB
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
		})

		It("should watch bus B when the port selector is 1", func() {
			c = newTestCog(h)
			load(h, codeBase, waitCode(0x1B, 0x1, 0x1, 1)...)
			run(c, 4)

			h.ina = 0x1 // wrong bus
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitPEQ))

			h.inb = 0x1
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
		})
	})

	Describe("counter wait", func() {
		It("should resume on exact counter equality", func() {
			c = newTestCog(h)
			code := append(pushLiteral(100), 0x23)
			load(h, codeBase, code...)
			run(c, 2)
			Expect(c.State()).To(Equal(cog.StateWaitCNT))

			h.counter = 99
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitCNT))

			h.counter = 101 // passed the target: equality only
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitCNT))

			h.counter = 100
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
		})
	})

	Describe("video wait", func() {
		It("should latch colors and pixels and wait for delivery", func() {
			c = newTestCog(h)
			code := append(pushLiteral(0x00FF00FF), pushLiteral(0x12345678)...)
			code = append(code, 0x27)
			load(h, codeBase, code...)
			run(c, 3)
			Expect(c.State()).To(Equal(cog.StateWaitVID))

			// Ticks do not leave WAIT_VID.
			c.DoInstruction()
			Expect(c.State()).To(Equal(cog.StateWaitVID))

			colors, pixels := c.GetVideoData()
			Expect(colors).To(Equal(uint32(0x00FF00FF)))
			Expect(pixels).To(Equal(uint32(0x12345678)))
			Expect(c.State()).To(Equal(cog.StateExecInterpreter))
			Expect(c.FrameFlag()).To(Equal(cog.FrameHit))
		})

		It("should record a miss when no cog is waiting", func() {
			c = newTestCog(h)
			colors, pixels := c.GetVideoData()
			Expect(colors).To(BeZero())
			Expect(pixels).To(BeZero())
			Expect(c.FrameFlag()).To(Equal(cog.FrameMiss))
		})
	})

	Describe("breakpoint cursor", func() {
		It("should report when the PC reaches the breakpoint", func() {
			c = cog.NewInterpreted(h, cog.WithBreakpoint(codeBase+1))
			c.SetFrames(0, 0, 0, stackBase)
			c.SetPC(codeBase)
			c.SetState(cog.StateExecInterpreter)
			load(h, codeBase, 0x36, 0x36)

			Expect(c.DoInstruction()).To(BeTrue())
		})

		It("should stay quiet with no breakpoint set", func() {
			c = newTestCog(h)
			load(h, codeBase, 0x36)
			Expect(c.DoInstruction()).To(BeFalse())
		})
	})

	Describe("COGINIT", func() {
		It("should assemble a native boot request", func() {
			c = newTestCog(h)
			h.hubOpResult = 5
			// push id, entry, param; COGINIT_RET pops param first.
			code := append(pushLiteral(3), pushLiteral(0x7000)...)
			code = append(code, pushLiteral(0x7F00)...)
			code = append(code, 0x28)
			load(h, codeBase, code...)
			run(c, 4)

			Expect(h.hubOps).To(HaveLen(1))
			Expect(h.hubOps[0].op).To(Equal(uint32(cog.HubOpCogInit)))
			expected := ((uint32(0x7000) & 0xFFFC) << 2) | ((uint32(0x7F00) & 0xFFFC) << 16) | 3
			Expect(h.hubOps[0].operand).To(Equal(expected))
			Expect(c.PopLong()).To(Equal(uint32(5)))
		})

		It("should request the first free slot for an out-of-range id", func() {
			c = newTestCog(h)
			code := append(pushLiteral(8), pushLiteral(0x7000)...)
			code = append(code, pushLiteral(0x7F00)...)
			code = append(code, 0x2C)
			load(h, codeBase, code...)
			run(c, 4)

			Expect(h.hubOps[0].operand & 0xF).To(Equal(uint32(0x8)))
			Expect(c.StackFrame()).To(Equal(uint32(stackBase)))
		})

		It("should lay down an interpreter init block when marked", func() {
			c = newTestCog(h)
			c.SetFrames(0x0010, 0x0200, 0, stackBase)
			// Function 2: offset 0x90, locals delta 8.
			h.DirectWriteWord(0x0010+2*4, 0x90)
			h.DirectWriteWord(0x0010+2*4+2, 8)

			// push id, then args (2), then descriptor, then stack ptr.
			code := []byte{0x15}                        // mark interpreted
			code = append(code, pushLiteral(7)...)      // cog id >= 8 handled too; use 7
			code = append(code, pushLiteral(0xAA)...)   // arg 1
			code = append(code, pushLiteral(0xBB)...)   // arg 2
			code = append(code, pushLiteral(0x202)...)  // descriptor: 2 args, function 2
			code = append(code, pushLiteral(0x2FF4)...) // stack pointer
			code = append(code, 0x2C)                   // COGINIT
			load(h, codeBase, code...)
			run(c, 7)

			// SP: 0x2FF4 + 8 header, aligned -> 0x2FFC.
			sp := uint32(0x2FFC)
			Expect(h.DirectReadWord(sp - 8)).To(Equal(uint16(0x0010)))
			Expect(h.DirectReadWord(sp - 6)).To(Equal(uint16(0x0200)))
			Expect(h.DirectReadWord(sp - 4)).To(Equal(uint16(0x0010 + 0x90)))
			// funct stack: sp + delta + 2 args * 4, stored plus 4.
			Expect(h.DirectReadWord(sp - 2)).To(Equal(uint16(sp + 8 + 8 + 4)))

			// Arguments in pushed order above the block.
			Expect(h.DirectReadLong(sp)).To(Equal(uint32(0xAA)))
			Expect(h.DirectReadLong(sp + 4)).To(Equal(uint32(0xBB)))

			Expect(h.hubOps).To(HaveLen(1))
			operand := h.hubOps[0].operand
			Expect(operand & 0xF).To(Equal(uint32(7)))
			Expect((operand >> 2) & 0xFFFC).To(Equal(cog.InterpreterEntry))
			Expect((operand >> 16) & 0xFFFC).To(Equal(sp))
		})
	})

	Describe("mark interpreted", func() {
		It("should be consumed by the next COGINIT", func() {
			c = newTestCog(h)
			c.SetFrames(0x0010, 0, 0, stackBase)
			h.DirectWriteWord(0x0010, 0x40)
			h.DirectWriteWord(0x0012, 0)

			code := []byte{0x15}
			code = append(code, pushLiteral(8)...)      // cog id: first free
			code = append(code, pushLiteral(0)...)      // descriptor: fn 0, no args
			code = append(code, pushLiteral(0x2FF8)...) // stack pointer
			code = append(code, 0x2C)
			// A second COGINIT goes down the native path.
			code = append(code, pushLiteral(8)...)
			code = append(code, pushLiteral(0x7000)...)
			code = append(code, pushLiteral(0x7F00)...)
			code = append(code, 0x2C)
			load(h, codeBase, code...)
			run(c, 9)

			Expect(h.hubOps).To(HaveLen(2))
			Expect((h.hubOps[0].operand >> 2) & 0xFFFC).To(Equal(cog.InterpreterEntry))
			Expect((h.hubOps[1].operand >> 2) & 0xFFFC).To(Equal(uint32(0x7000)))
		})
	})
})
