package insts

// Decoder decodes RV32I machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

var defaultDecoder = NewDecoder()

// Decode decodes a 32-bit machine word with the package decoder.
func Decode(word uint32) *Instruction {
	return defaultDecoder.Decode(word)
}

// Decode decodes a 32-bit RV32I machine word. It never fails: a word whose
// opcode is not part of RV32I decodes with FormatUnknown and OpUnknown, and
// rejecting it is left to the executor.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{
		Opcode: uint8(word & 0x7F),
		Rd:     uint8((word >> 7) & 0x1F),
		Funct3: uint8((word >> 12) & 0x7),
		Rs1:    uint8((word >> 15) & 0x1F),
		Rs2:    uint8((word >> 20) & 0x1F),
		Funct7: uint8((word >> 25) & 0x7F),
		Raw:    word,
	}

	inst.Format = FormatOf(inst.Opcode)
	inst.Op = d.resolve(inst)

	return inst
}

// FormatOf returns the encoding format used by a major opcode.
func FormatOf(opcode uint8) Format {
	switch opcode {
	case OpcodeOp:
		return FormatR
	case OpcodeOpImm, OpcodeLoad, OpcodeJALR, OpcodeSystem:
		return FormatI
	case OpcodeStore:
		return FormatS
	case OpcodeBranch:
		return FormatB
	case OpcodeLUI, OpcodeAUIPC:
		return FormatU
	case OpcodeJAL:
		return FormatJ
	default:
		return FormatUnknown
	}
}

// resolve maps the decoded fields onto an operation in the mnemonic table.
func (d *Decoder) resolve(inst *Instruction) Op {
	switch inst.Format {
	case FormatUnknown:
		return OpUnknown
	case FormatU, FormatJ:
		return opByKey[specKey(inst.Opcode, 0, 0)]
	}

	if inst.Opcode == OpcodeSystem {
		if inst.Rd != 0 || inst.Rs1 != 0 || inst.Funct3 != 0 {
			return OpUnknown
		}
		switch inst.Raw >> 20 {
		case 0:
			return OpECALL
		case 1:
			return OpEBREAK
		}
		return OpUnknown
	}

	funct7 := uint8(0)
	if inst.Format == FormatR || isShiftImm(inst.Opcode, inst.Funct3) {
		funct7 = inst.Funct7
	}

	return opByKey[specKey(inst.Opcode, inst.Funct3, funct7)]
}

// ImmI returns the sign-extended 12-bit I-type immediate.
func (inst *Instruction) ImmI() int32 {
	return int32(SignExtend(inst.Raw>>20, 12))
}

// ImmS returns the sign-extended 12-bit S-type immediate.
func (inst *Instruction) ImmS() int32 {
	imm := (inst.Raw>>25)<<5 | (inst.Raw>>7)&0x1F
	return int32(SignExtend(imm, 12))
}

// ImmB returns the sign-extended 13-bit B-type branch offset. Bit 0 is
// always zero.
func (inst *Instruction) ImmB() int32 {
	imm := ((inst.Raw>>31)&0x1)<<12 | // imm[12]
		((inst.Raw>>7)&0x1)<<11 | // imm[11]
		((inst.Raw>>25)&0x3F)<<5 | // imm[10:5]
		((inst.Raw>>8)&0xF)<<1 // imm[4:1]
	return int32(SignExtend(imm, 13))
}

// ImmU returns the sign-extended 20-bit U-type immediate field, unshifted.
func (inst *Instruction) ImmU() int32 {
	return int32(SignExtend(inst.Raw>>12, 20))
}

// UpperImm returns the U-type immediate in bits [31:12] with the low 12
// bits cleared, as LUI writes it.
func (inst *Instruction) UpperImm() uint32 {
	return inst.Raw & 0xFFFFF000
}

// ImmJ returns the sign-extended 21-bit J-type jump offset. Bit 0 is always
// zero.
func (inst *Instruction) ImmJ() int32 {
	imm := ((inst.Raw>>31)&0x1)<<20 | // imm[20]
		((inst.Raw>>12)&0xFF)<<12 | // imm[19:12]
		((inst.Raw>>20)&0x1)<<11 | // imm[11]
		((inst.Raw>>21)&0x3FF)<<1 // imm[10:1]
	return int32(SignExtend(imm, 21))
}

// Imm returns the immediate carried by the instruction's format, or 0 for
// R-type and unknown formats.
func (inst *Instruction) Imm() int32 {
	switch inst.Format {
	case FormatI:
		return inst.ImmI()
	case FormatS:
		return inst.ImmS()
	case FormatB:
		return inst.ImmB()
	case FormatU:
		return inst.ImmU()
	case FormatJ:
		return inst.ImmJ()
	default:
		return 0
	}
}

// Shamt returns the 5-bit shift amount of a shift-immediate instruction.
func (inst *Instruction) Shamt() uint32 {
	return uint32(inst.Rs2)
}

// Fields returns the fields carried by the instruction's format. Fields
// outside the format are left zero, so Decode(Encode(f, x)).Fields() == x
// for any x that only sets fields of format f.
func (inst *Instruction) Fields() Fields {
	f := Fields{Opcode: inst.Opcode}

	switch inst.Format {
	case FormatI:
		f.Rd, f.Funct3, f.Rs1, f.Imm = inst.Rd, inst.Funct3, inst.Rs1, inst.ImmI()
	case FormatS:
		f.Funct3, f.Rs1, f.Rs2, f.Imm = inst.Funct3, inst.Rs1, inst.Rs2, inst.ImmS()
	case FormatB:
		f.Funct3, f.Rs1, f.Rs2, f.Imm = inst.Funct3, inst.Rs1, inst.Rs2, inst.ImmB()
	case FormatU:
		f.Rd, f.Imm = inst.Rd, inst.ImmU()
	case FormatJ:
		f.Rd, f.Imm = inst.Rd, inst.ImmJ()
	default:
		f.Rd, f.Funct3, f.Rs1, f.Rs2, f.Funct7 = inst.Rd, inst.Funct3, inst.Rs1, inst.Rs2, inst.Funct7
	}

	return f
}
