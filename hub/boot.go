package hub

import (
	"github.com/Sh1nyAnd3o3/gear-emu/cog"
	"github.com/Sh1nyAnd3o3/gear-emu/loader"
)

// BootProgram installs a parsed image at address zero, lays down the
// interpreter init block below DBASE and boots cog 0 interpreted with
// PAR pointing at it. The started cog is returned.
func (h *Hub) BootProgram(p *loader.Program) *cog.Interpreted {
	for i, b := range p.Image {
		h.DirectWriteByte(uint32(i), b)
	}

	dbase := uint32(p.DBase)
	h.DirectWriteWord(dbase-8, p.PBase)
	h.DirectWriteWord(dbase-6, p.VBase)
	h.DirectWriteWord(dbase-4, p.PCurr)
	h.DirectWriteWord(dbase-2, p.DCurr+4)

	c := cog.NewInterpreted(h,
		cog.WithPAR(dbase),
		cog.WithLogger(h.logf),
	)
	h.cogs[0] = c
	return c
}
