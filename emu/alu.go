package emu

import "github.com/sarchlab/rv32sim/insts"

// ALU implements RV32I arithmetic, logic, shift and compare operations.
// All arithmetic wraps at 32 bits.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Compute evaluates an ALU operation on two operands. Register-register and
// register-immediate forms of the same operation share one result. ok is
// false for operations that are not ALU operations.
func Compute(op insts.Op, a, b uint32) (result uint32, ok bool) {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return a + b, true
	case insts.OpSUB:
		return a - b, true
	case insts.OpSLL, insts.OpSLLI:
		return a << (b & 0x1F), true
	case insts.OpSRL, insts.OpSRLI:
		return a >> (b & 0x1F), true
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(a) >> (b & 0x1F)), true
	case insts.OpSLT, insts.OpSLTI:
		return boolToWord(int32(a) < int32(b)), true
	case insts.OpSLTU, insts.OpSLTIU:
		return boolToWord(a < b), true
	case insts.OpXOR, insts.OpXORI:
		return a ^ b, true
	case insts.OpOR, insts.OpORI:
		return a | b, true
	case insts.OpAND, insts.OpANDI:
		return a & b, true
	default:
		return 0, false
	}
}

// ExecuteOp executes an R-type instruction: rd = rs1 op rs2.
func (a *ALU) ExecuteOp(inst *insts.Instruction) error {
	result, ok := Compute(inst.Op, a.regFile.ReadReg(inst.Rs1), a.regFile.ReadReg(inst.Rs2))
	if !ok {
		return ErrUnsupportedInstruction
	}

	a.regFile.WriteReg(inst.Rd, result)
	return nil
}

// ExecuteOpImm executes an I-type ALU instruction: rd = rs1 op imm. The
// immediate is sign-extended; SLTIU compares it as unsigned after
// extension, and shifts use the 5-bit shift amount.
func (a *ALU) ExecuteOpImm(inst *insts.Instruction) error {
	operand := uint32(inst.ImmI())
	switch inst.Op {
	case insts.OpSLLI, insts.OpSRLI, insts.OpSRAI:
		operand = inst.Shamt()
	}

	result, ok := Compute(inst.Op, a.regFile.ReadReg(inst.Rs1), operand)
	if !ok {
		return ErrUnsupportedInstruction
	}

	a.regFile.WriteReg(inst.Rd, result)
	return nil
}

// LUI loads the upper immediate: rd = imm[31:12] << 12.
func (a *ALU) LUI(rd uint8, upper uint32) {
	a.regFile.WriteReg(rd, upper)
}

// AUIPC adds the upper immediate to the PC: rd = pc + (imm[31:12] << 12).
func (a *ALU) AUIPC(rd uint8, pc, upper uint32) {
	a.regFile.WriteReg(rd, pc+upper)
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
