package insts

import (
	"fmt"
	"strings"
)

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	// Addr is the address of the opcode byte.
	Addr uint32
	// Bytes holds the opcode and every operand byte it consumed.
	Bytes []byte
	// Mnemonic names the operation.
	Mnemonic string
	// Operand renders the inline operands, empty when there are none.
	Operand string
}

// Disassembler decodes SPIN bytecode into Instructions. It consumes
// packed operands exactly as the interpreter does, so a listing stays
// aligned with execution.
type Disassembler struct{}

// NewDisassembler creates a Disassembler.
func NewDisassembler() *Disassembler {
	return &Disassembler{}
}

// cursor walks the instruction stream through a fetch callback,
// recording consumed bytes.
type cursor struct {
	fetch func(addr uint32) byte
	addr  uint32
	bytes []byte
}

func (cu *cursor) next() uint32 {
	b := cu.fetch(cu.addr)
	cu.addr = (cu.addr + 1) & 0xFFFF
	cu.bytes = append(cu.bytes, b)
	return uint32(b)
}

func (cu *cursor) packedSigned() int32 {
	v := cu.next()
	if v&0x80 == 0 {
		return int32(v<<25) >> 25
	}
	v = ((v << 8) | cu.next()) & 0x7FFF
	return int32(v<<17) >> 17
}

func (cu *cursor) packedUnsigned() uint32 {
	v := cu.next()
	if v&0x80 != 0 {
		v = ((v << 8) | cu.next()) & 0x7FFF
	}
	return v
}

// Decode decodes one instruction at addr, reading bytes through fetch.
// It returns the instruction and the address of the next one.
func (d *Disassembler) Decode(fetch func(addr uint32) byte, addr uint32) (Instruction, uint32) {
	cu := &cursor{fetch: fetch, addr: addr}
	op := cu.next()

	var mnemonic, operand string
	switch {
	case op >= 0xE0:
		mnemonic = MathNames[op-0xE0]
	case op >= 0x80:
		mnemonic, operand = decodeMasked(cu, op)
	case op >= 0x40:
		mnemonic, operand = decodeFast(cu, op)
	default:
		mnemonic, operand = decodeSpecial(cu, op)
	}

	return Instruction{
		Addr:     addr,
		Bytes:    cu.bytes,
		Mnemonic: mnemonic,
		Operand:  operand,
	}, cu.addr
}

// Listing renders a columnar listing of data as loaded at origin.
func (d *Disassembler) Listing(data []byte, origin uint32) string {
	fetch := func(addr uint32) byte {
		i := int(addr) - int(origin)
		if i < 0 || i >= len(data) {
			return 0
		}
		return data[i]
	}

	var sb strings.Builder
	addr := origin
	for int(addr)-int(origin) < len(data) {
		inst, next := d.Decode(fetch, addr)
		hex := make([]string, len(inst.Bytes))
		for i, b := range inst.Bytes {
			hex[i] = fmt.Sprintf("%02X", b)
		}
		line := fmt.Sprintf("%04X  %-12s %s", inst.Addr, strings.Join(hex, " "), inst.Mnemonic)
		if inst.Operand != "" {
			line += " " + inst.Operand
		}
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteByte('\n')
		addr = next
	}
	return sb.String()
}

func decodeMasked(cu *cursor, op uint32) (string, string) {
	size := (op >> 5) & 3
	base := (op >> 2) & 3
	action := op & 3

	name := sizeNames[size] + "_" + baseNames[base]
	if op&0x10 != 0 {
		name += "_INDEXED"
	}
	name += "_" + actionNames[action]

	var operand string
	if base != 0 {
		operand = fmt.Sprintf("$%X", cu.packedUnsigned())
	}
	if action == 2 {
		operand = joinOperands(operand, decodeUsing(cu))
	}
	return name, operand
}

func decodeFast(cu *cursor, op uint32) (string, string) {
	base := "VAR"
	if op&0x20 != 0 {
		base = "LOC"
	}
	action := op & 3
	name := "FAST_" + base + "_" + actionNames[action]
	operand := fmt.Sprintf("$%X", ((op>>2)&7)*4)
	if action == 2 {
		operand = joinOperands(operand, decodeUsing(cu))
	}
	return name, operand
}

func decodeSpecial(cu *cursor, op uint32) (string, string) {
	info := specialTable[op]
	switch info.operand {
	case opdBranch:
		return info.name, fmt.Sprintf("%d", cu.packedSigned())
	case opdFunc:
		return info.name, fmt.Sprintf("#%d", cu.next())
	case opdObjFunc:
		obj := cu.next()
		fn := cu.next()
		return info.name, fmt.Sprintf("#%d.%d", obj, fn)
	case opdPackedLiteral:
		return info.name, fmt.Sprintf("$%02X", cu.next())
	case opdBytes1, opdBytes2, opdBytes3, opdBytes4:
		n := int(info.operand-opdBytes1) + 1
		var v uint32
		for i := 0; i < n; i++ {
			v = (v << 8) | cu.next()
		}
		return info.name, fmt.Sprintf("$%X", v)
	case opdRegister:
		sub := cu.next()
		operand := fmt.Sprintf("$%03X", 0x1E0+(sub&0x1F))
		if sub>>5 == 6 {
			operand = joinOperands(operand, decodeUsing(cu))
		}
		return info.name, operand
	}
	return info.name, ""
}

// decodeUsing renders the second byte of a USING operation, including
// the trailing branch of the REPEAT sub-operators.
func decodeUsing(cu *cursor) string {
	u := cu.next()
	name := usingName(u & 0x7F)
	if u&0x80 != 0 {
		name += ",PUSH"
	}
	switch u & 0x7F {
	case 0x02, 0x06:
		name += fmt.Sprintf(",%d", cu.packedSigned())
	}
	return name
}

func usingName(u uint32) string {
	switch {
	case u >= 0x60:
		return MathNames[u-0x60] + "_SWAP"
	case u >= 0x40:
		return MathNames[u-0x40]
	case u >= 0x20 && u&1 == 0:
		variant := [4]string{"PRE_INC", "POST_INC", "PRE_DEC", "POST_DEC"}[(u>>3)&3]
		width := [4]string{"BIT", "BYTE", "WORD", "LONG"}[(u>>1)&3]
		return variant + "_" + width
	}
	switch u {
	case 0x00:
		return "COPY"
	case 0x02:
		return "REPEAT"
	case 0x06:
		return "REPEAT_STEP"
	case 0x08:
		return "RANDOM_FWD"
	case 0x0C:
		return "RANDOM_REV"
	case 0x10:
		return "EXTEND_8"
	case 0x14:
		return "EXTEND_16"
	case 0x18:
		return "BIT_CLEAR"
	case 0x1C:
		return "BIT_SET"
	}
	return "UNDEFINED"
}

func joinOperands(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
