package emu

import "github.com/sarchlab/rv32sim/insts"

// BranchUnit implements RV32I conditional branches and jumps.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// CheckCondition evaluates the condition of a branch operation on two
// register values.
func CheckCondition(op insts.Op, a, b uint32) (taken, ok bool) {
	switch op {
	case insts.OpBEQ:
		return a == b, true
	case insts.OpBNE:
		return a != b, true
	case insts.OpBLT:
		return int32(a) < int32(b), true
	case insts.OpBGE:
		return int32(a) >= int32(b), true
	case insts.OpBLTU:
		return a < b, true
	case insts.OpBGEU:
		return a >= b, true
	default:
		return false, false
	}
}

// Branch evaluates a conditional branch and moves the PC to the target if
// taken or to the next instruction otherwise.
func (b *BranchUnit) Branch(inst *insts.Instruction) (taken bool, err error) {
	taken, ok := CheckCondition(inst.Op, b.regFile.ReadReg(inst.Rs1), b.regFile.ReadReg(inst.Rs2))
	if !ok {
		return false, ErrUnsupportedInstruction
	}

	if taken {
		b.regFile.PC += uint32(inst.ImmB())
	} else {
		b.regFile.PC += 4
	}

	return taken, nil
}

// JAL saves PC+4 to rd and jumps PC-relative.
func (b *BranchUnit) JAL(inst *insts.Instruction) {
	link := b.regFile.PC + 4
	b.regFile.WriteReg(inst.Rd, link)
	b.regFile.PC += uint32(inst.ImmJ())
}

// JALR saves PC+4 to rd and jumps to (rs1 + imm) with bit 0 cleared. rs1 is
// read before rd is written, so rd may equal rs1.
func (b *BranchUnit) JALR(inst *insts.Instruction) {
	target := (b.regFile.ReadReg(inst.Rs1) + uint32(inst.ImmI())) &^ 1
	b.regFile.WriteReg(inst.Rd, b.regFile.PC+4)
	b.regFile.PC = target
}
