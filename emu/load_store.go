package emu

import "github.com/sarchlab/rv32sim/insts"

// LoadStoreUnit implements RV32I load and store operations.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		memory:  memory,
	}
}

// EffectiveAddress returns rs1 + sign-extended offset for a load or store.
func (lsu *LoadStoreUnit) EffectiveAddress(inst *insts.Instruction) uint32 {
	return lsu.regFile.ReadReg(inst.Rs1) + uint32(inst.Imm())
}

// Load executes LB, LH, LW, LBU or LHU. Signed variants sign-extend to 32
// bits; unsigned variants zero-extend. On error rd is left unchanged.
func (lsu *LoadStoreUnit) Load(inst *insts.Instruction, addr uint32) error {
	var (
		size   uint32
		signed bool
	)

	switch inst.Op {
	case insts.OpLB:
		size, signed = 1, true
	case insts.OpLH:
		size, signed = 2, true
	case insts.OpLW:
		size = 4
	case insts.OpLBU:
		size = 1
	case insts.OpLHU:
		size = 2
	default:
		return ErrUnsupportedInstruction
	}

	value, err := lsu.memory.Read(addr, size)
	if err != nil {
		return err
	}

	if signed {
		value = insts.SignExtend(value, uint(size*8))
	}

	lsu.regFile.WriteReg(inst.Rd, value)
	return nil
}

// Store executes SB, SH or SW, writing the low bytes of rs2.
func (lsu *LoadStoreUnit) Store(inst *insts.Instruction, addr uint32) error {
	var size uint32

	switch inst.Op {
	case insts.OpSB:
		size = 1
	case insts.OpSH:
		size = 2
	case insts.OpSW:
		size = 4
	default:
		return ErrUnsupportedInstruction
	}

	return lsu.memory.Write(addr, size, lsu.regFile.ReadReg(inst.Rs2))
}
