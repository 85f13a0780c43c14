// Package latency provides the simulated machine configuration and the
// per-instruction base latency model.
//
// Base latencies are charged once per executed instruction. Cache hit and
// miss charges are added separately by the emulator.
package latency

import (
	"github.com/sarchlab/rv32sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *Config
}

// NewTable creates a new latency table with default values.
func NewTable() *Table {
	return &Table{
		config: DefaultConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom configuration.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the base execution latency in cycles for the given
// instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch {
	case t.IsLoadOp(inst):
		return t.config.LoadLatency
	case t.IsStoreOp(inst):
		return t.config.StoreLatency
	case t.IsBranchOp(inst):
		return t.config.BranchLatency
	case t.IsJumpOp(inst):
		return t.config.JumpLatency
	case inst.Op != insts.OpUnknown:
		return t.config.ALULatency
	default:
		return 1
	}
}

// IsMemoryOp returns true if the instruction accesses data memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpLB, insts.OpLH, insts.OpLW, insts.OpLBU, insts.OpLHU:
		return true
	default:
		return false
	}
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpSB, insts.OpSH, insts.OpSW:
		return true
	default:
		return false
	}
}

// IsBranchOp returns true if the instruction is a conditional branch.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE, insts.OpBLTU, insts.OpBGEU:
		return true
	default:
		return false
	}
}

// IsJumpOp returns true if the instruction is an unconditional jump.
func (t *Table) IsJumpOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpJAL || inst.Op == insts.OpJALR
}

// Config returns the current configuration.
func (t *Table) Config() *Config {
	return t.config
}
