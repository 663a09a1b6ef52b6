package cog

// CogMemorySize is the number of longs in cog-local register space.
const CogMemorySize = 0x200

// Symbolic cog register indices. PAR through VSCL are the silicon's
// special-purpose registers at the top of cog space; COGID and
// INITCOGID are emulator-side pseudo registers below them.
const (
	RegCOGID     = 0x1E9
	RegINITCOGID = 0x1EF
	RegPAR       = 0x1F0
	RegCNT       = 0x1F1
	RegINA       = 0x1F2
	RegINB       = 0x1F3
	RegOUTA      = 0x1F4
	RegOUTB      = 0x1F5
	RegDIRA      = 0x1F6
	RegDIRB      = 0x1F7
	RegCTRA      = 0x1F8
	RegCTRB      = 0x1F9
	RegFRQA      = 0x1FA
	RegFRQB      = 0x1FB
	RegPHSA      = 0x1FC
	RegPHSB      = 0x1FD
	RegVCFG      = 0x1FE
	RegVSCL      = 0x1FF
)

// ReadCogRegister reads a long from cog space. CNT, INA, INB and COGID
// are sourced live from the hub; everything else comes from the
// register array.
func (c *Interpreted) ReadCogRegister(addr uint32) uint32 {
	switch addr & (CogMemorySize - 1) {
	case RegCNT:
		return uint32(c.hub.Counter())
	case RegINA:
		return c.hub.INA()
	case RegINB:
		return c.hub.INB()
	case RegCOGID:
		return c.hub.CogID(c)
	}
	return c.regs[addr&(CogMemorySize-1)]
}

// WriteCogRegister writes a long into cog space. Writes to the live
// registers land in the array but reads keep bypassing it.
func (c *Interpreted) WriteCogRegister(addr uint32, v uint32) {
	c.regs[addr&(CogMemorySize-1)] = v
}
