package hub_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Sh1nyAnd3o3/gear-emu/cog"
	"github.com/Sh1nyAnd3o3/gear-emu/hub"
	"github.com/Sh1nyAnd3o3/gear-emu/loader"
)

// buildImage assembles a loadable image around a bytecode body placed
// at PBASE, with the stack region at 0x0400.
func buildImage(bytecode []byte) *loader.Program {
	const (
		pbase = 0x0010
		dbase = 0x0400
	)
	vbase := pbase + len(bytecode)

	img := make([]byte, pbase+len(bytecode))
	putLong := func(off int, v uint32) {
		img[off] = byte(v)
		img[off+1] = byte(v >> 8)
		img[off+2] = byte(v >> 16)
		img[off+3] = byte(v >> 24)
	}
	putWord := func(off int, v uint16) {
		img[off] = byte(v)
		img[off+1] = byte(v >> 8)
	}

	putLong(0, 80_000_000)
	img[4] = 0x6F
	putWord(6, pbase)
	putWord(8, uint16(vbase))
	putWord(10, dbase)
	putWord(12, pbase) // PCURR: execution starts at the body
	putWord(14, dbase+8)
	copy(img[pbase:], bytecode)
	img[5] = loader.ChecksumFor(img)

	prog, err := loader.LoadBytes(img)
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("BootProgram", func() {
	var h *hub.Hub

	BeforeEach(func() {
		h = hub.New(hub.WithLogger(func(string, ...interface{}) {}))
	})

	It("should install the image and boot cog 0", func() {
		prog := buildImage([]byte{0x32})
		c := h.BootProgram(prog)

		Expect(h.Cog(0)).To(Equal(c))
		Expect(c.State()).To(Equal(cog.StateBootInterpreter))
		Expect(h.DirectReadLong(0)).To(Equal(uint32(80_000_000)))

		// The init block sits below DBASE.
		Expect(h.DirectReadWord(0x0400 - 8)).To(Equal(uint16(0x0010)))
		Expect(h.DirectReadWord(0x0400 - 4)).To(Equal(uint16(0x0010)))
	})

	It("should run a program to completion and stop the cog", func() {
		// push 7; push 5; ADD; push $2000; write long; return.
		prog := buildImage([]byte{
			0x38, 0x07,
			0x38, 0x05,
			0xEC,
			0x39, 0x20, 0x00,
			0xC1,
			0x32,
		})
		h.BootProgram(prog)

		ticks := h.RunTicks(10_000)

		Expect(h.Idle()).To(BeTrue())
		Expect(ticks).To(BeNumerically("<", 10_000))
		Expect(h.DirectReadLong(0x2000)).To(Equal(uint32(12)))
	})

	It("should produce the division sentinel end to end", func() {
		// push 100; push 0; DIV; push $2000; write long; return.
		prog := buildImage([]byte{
			0x38, 0x64,
			0x35,
			0xF6,
			0x39, 0x20, 0x00,
			0xC1,
			0x32,
		})
		h.BootProgram(prog)
		h.RunTicks(10_000)

		Expect(h.DirectReadLong(0x2000)).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("should long-fill a region end to end", func() {
		// push $1000; push 0; push 4; LONGFILL; return.
		prog := buildImage([]byte{
			0x39, 0x10, 0x00,
			0x35,
			0x38, 0x04,
			0x1A,
			0x32,
		})
		h.BootProgram(prog)
		// Pre-soil the region through the ROM-protected writer.
		for addr := uint32(0x1000); addr < 0x1010; addr += 4 {
			h.DirectWriteLong(addr, 0xDEADBEEF)
		}
		h.RunTicks(10_000)

		for addr := uint32(0x1000); addr < 0x1010; addr += 4 {
			Expect(h.DirectReadLong(addr)).To(Equal(uint32(0)), "addr %#04x", addr)
		}
	})

	It("should pace instructions against the hub counter", func() {
		prog := buildImage([]byte{0x36, 0x32}) // push 1; return
		c := h.BootProgram(prog)

		// Boot tick + 48 boot waits, then the first opcode executes.
		for i := 0; i < 49; i++ {
			h.Step()
		}
		Expect(c.InstructionCount()).To(BeZero())
		h.Step()
		Expect(c.InstructionCount()).To(Equal(uint64(1)))
	})

	It("should deliver video frames through the hub", func() {
		// push colors; push pixels; WAITVID; return.
		prog := buildImage([]byte{
			0x3B, 0x00, 0xFF, 0x00, 0xFF,
			0x38, 0x10,
			0x27,
			0x32,
		})
		c := h.BootProgram(prog)
		h.RunTicks(200)
		Expect(c.State()).To(Equal(cog.StateWaitVID))

		colors, pixels := h.GetVideoData(0)
		Expect(colors).To(Equal(uint32(0x00FF00FF)))
		Expect(pixels).To(Equal(uint32(0x10)))
		Expect(c.State()).To(Equal(cog.StateExecInterpreter))
	})
})
