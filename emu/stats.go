package emu

// Stats holds the performance counters of a run. Every counter only grows
// until the next Load.
type Stats struct {
	Instructions       uint64 `json:"instructions"`
	Cycles             uint64 `json:"cycles"`
	Branches           uint64 `json:"branches"`
	BranchesTaken      uint64 `json:"branches_taken"`
	MemoryAccessCycles uint64 `json:"memory_access_cycles"`
}

// CPI returns cycles per instruction, or 0 before the first instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// BranchTakenRate returns the fraction of conditional branches taken.
func (s Stats) BranchTakenRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.BranchesTaken) / float64(s.Branches)
}
