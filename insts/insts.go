// Package insts provides SPIN bytecode metadata and disassembly.
//
// The interpreter itself decodes opcodes inline; this package exists
// for the tooling around it — trace output, listings, diagnostics.
//
// Usage:
//
//	d := insts.NewDisassembler()
//	inst, next := d.Decode(fetch, 0x0010)
//	fmt.Printf("%04X %s %s\n", inst.Addr, inst.Mnemonic, inst.Operand)
package insts

// Family classifies an opcode byte by its top bits.
type Family int

const (
	// FamilySpecial covers 0x00-0x3F.
	FamilySpecial Family = iota
	// FamilyFastAccess covers the packed VAR/LOC ops 0x40-0x7F.
	FamilyFastAccess
	// FamilyMaskedAccess covers the bit-sliced memory ops 0x80-0xDF.
	FamilyMaskedAccess
	// FamilyMath covers the stack math ops 0xE0-0xFF.
	FamilyMath
)

// FamilyOf returns the opcode family of op.
func FamilyOf(op byte) Family {
	switch {
	case op >= 0xE0:
		return FamilyMath
	case op >= 0x80:
		return FamilyMaskedAccess
	case op >= 0x40:
		return FamilyFastAccess
	}
	return FamilySpecial
}

// operand kinds consumed from the instruction stream.
type operandKind int

const (
	opdNone          operandKind = iota
	opdBranch                    // packed signed offset
	opdFunc                      // function index byte
	opdObjFunc                   // object index byte + function index byte
	opdPackedLiteral             // 0x37 encoding byte
	opdBytes1                    // big-endian literal bytes
	opdBytes2
	opdBytes3
	opdBytes4
	opdRegister // cog-register sub-byte, possibly followed by USING
)

// MathNames holds mnemonics for the 32 math operators, indexed by the
// operator code. They are shared by the 0xE0 family and the USING
// second byte.
var MathNames = [0x20]string{
	"ROR", "ROL", "SHR", "SHL", "MIN", "MAX", "NEG", "BIT_NOT",
	"AND", "ABS", "OR", "XOR", "ADD", "SUB", "SAR", "REV",
	"LOG_AND", "ENCODE", "LOG_OR", "DECODE", "MPY", "MPY_HI", "DIV", "MOD",
	"SQRT", "LT", "GT", "NE", "EQ", "LE", "GE", "LOG_NOT",
}

type specialInfo struct {
	name    string
	operand operandKind
}

// specialTable describes the 0x00-0x3F opcodes.
var specialTable = [0x40]specialInfo{
	0x00: {"FRAME_RETURN", opdNone},
	0x01: {"FRAME_NORETURN", opdNone},
	0x02: {"FRAME_ABORT", opdNone},
	0x03: {"FRAME_TRASHABORT", opdNone},
	0x04: {"BRANCH", opdBranch},
	0x05: {"CALL", opdFunc},
	0x06: {"CALLOBJ", opdObjFunc},
	0x07: {"CALLOBJX", opdObjFunc},
	0x08: {"LOOP_START", opdBranch},
	0x09: {"LOOP_CONTINUE", opdBranch},
	0x0A: {"JUMP_IF_FALSE", opdBranch},
	0x0B: {"JUMP_IF_TRUE", opdBranch},
	0x0C: {"CASE_DONE", opdNone},
	0x0D: {"CASE_VALUE", opdBranch},
	0x0E: {"CASE_RANGE", opdBranch},
	0x0F: {"LOOK_DONE", opdNone},
	0x10: {"LOOKUP_VALUE", opdNone},
	0x11: {"LOOKDOWN_VALUE", opdNone},
	0x12: {"LOOKUP_RANGE", opdNone},
	0x13: {"LOOKDOWN_RANGE", opdNone},
	0x14: {"QUIT", opdNone},
	0x15: {"MARK_INTERPRETED", opdNone},
	0x16: {"STRSIZE", opdNone},
	0x17: {"STRCOMP", opdNone},
	0x18: {"BYTEFILL", opdNone},
	0x19: {"WORDFILL", opdNone},
	0x1A: {"LONGFILL", opdNone},
	0x1B: {"WAITPEQ", opdNone},
	0x1C: {"BYTEMOVE", opdNone},
	0x1D: {"WORDMOVE", opdNone},
	0x1E: {"LONGMOVE", opdNone},
	0x1F: {"WAITPNE", opdNone},
	0x20: {"CLKSET", opdNone},
	0x21: {"COGSTOP", opdNone},
	0x22: {"LOCKRET", opdNone},
	0x23: {"WAITCNT", opdNone},
	0x24: {"SPR_READ", opdNone},
	0x25: {"SPR_WRITE", opdNone},
	0x26: {"SPR_USING", opdNone},
	0x27: {"WAITVID", opdNone},
	0x28: {"COGINIT_RET", opdNone},
	0x29: {"LOCKNEW_RET", opdNone},
	0x2A: {"LOCKSET_RET", opdNone},
	0x2B: {"LOCKCLR_RET", opdNone},
	0x2C: {"COGINIT", opdNone},
	0x2D: {"LOCKNEW", opdNone},
	0x2E: {"LOCKSET", opdNone},
	0x2F: {"LOCKCLR", opdNone},
	0x30: {"ABORT", opdNone},
	0x31: {"ABORT_VALUE", opdNone},
	0x32: {"RETURN", opdNone},
	0x33: {"RETURN_VALUE", opdNone},
	0x34: {"PUSH_NEG1", opdNone},
	0x35: {"PUSH_0", opdNone},
	0x36: {"PUSH_1", opdNone},
	0x37: {"PUSH_PACKED", opdPackedLiteral},
	0x38: {"PUSH_BYTE", opdBytes1},
	0x39: {"PUSH_WORD", opdBytes2},
	0x3A: {"PUSH_MID", opdBytes3},
	0x3B: {"PUSH_LONG", opdBytes4},
	0x3C: {"UNDEFINED", opdNone},
	0x3D: {"REG_BIT", opdRegister},
	0x3E: {"REG_RANGE", opdRegister},
	0x3F: {"REG", opdRegister},
}

var sizeNames = [3]string{"BYTE", "WORD", "LONG"}
var baseNames = [4]string{"MAIN", "OBJ", "VAR", "LOC"}
var actionNames = [4]string{"PUSH", "POP", "USING", "REF"}

// SpecialName returns the mnemonic for a 0x00-0x3F opcode.
func SpecialName(op byte) string {
	if int(op) < len(specialTable) {
		return specialTable[op].name
	}
	return "UNDEFINED"
}
