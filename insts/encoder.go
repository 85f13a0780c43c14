package insts

// SignExtend extends a value occupying the low bits bits of value to 32 bits.
// If bit (bits-1) is set, every higher bit is filled with 1.
func SignExtend(value uint32, bits uint) uint32 {
	if bits == 0 || bits >= 32 {
		return value
	}
	mask := uint32(1)<<bits - 1
	if value&(1<<(bits-1)) != 0 {
		return value | ^mask
	}
	return value
}

// Encode packs fields into a 32-bit machine word using the bit layout of
// format. Every field is masked to its width, so Encode never fails.
// FormatUnknown is packed with the R-type layout.
func Encode(format Format, f Fields) uint32 {
	opcode := uint32(f.Opcode) & 0x7F
	rd := uint32(f.Rd) & 0x1F
	funct3 := uint32(f.Funct3) & 0x7
	rs1 := uint32(f.Rs1) & 0x1F
	rs2 := uint32(f.Rs2) & 0x1F
	funct7 := uint32(f.Funct7) & 0x7F
	imm := uint32(f.Imm)

	switch format {
	case FormatI:
		return (imm&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
	case FormatS:
		return ((imm>>5)&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 |
			(imm&0x1F)<<7 | opcode
	case FormatB:
		return ((imm>>12)&0x1)<<31 | // imm[12]
			((imm>>5)&0x3F)<<25 | // imm[10:5]
			rs2<<20 | rs1<<15 | funct3<<12 |
			((imm>>1)&0xF)<<8 | // imm[4:1]
			((imm>>11)&0x1)<<7 | // imm[11]
			opcode
	case FormatU:
		return (imm&0xFFFFF)<<12 | rd<<7 | opcode
	case FormatJ:
		return ((imm>>20)&0x1)<<31 | // imm[20]
			((imm>>1)&0x3FF)<<21 | // imm[10:1]
			((imm>>11)&0x1)<<20 | // imm[11]
			((imm>>12)&0xFF)<<12 | // imm[19:12]
			rd<<7 | opcode
	default:
		return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
	}
}

// EncodeOp encodes op with the given registers and immediate, taking the
// opcode, funct3 and funct7 from the mnemonic table. Shift-immediate
// operations place funct7 above the 5-bit shift amount.
func EncodeOp(op Op, rd, rs1, rs2 uint8, imm int32) uint32 {
	spec, ok := specByOp[op]
	if !ok {
		return 0
	}

	if spec.IsShiftImm() {
		imm = int32(spec.Funct7)<<5 | imm&0x1F
	}

	return Encode(spec.Format, Fields{
		Opcode: spec.Opcode,
		Rd:     rd,
		Funct3: spec.Funct3,
		Rs1:    rs1,
		Rs2:    rs2,
		Funct7: spec.Funct7,
		Imm:    imm,
	})
}
