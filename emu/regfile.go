// Package emu provides functional RV32I emulation.
package emu

// NumRegs is the number of integer registers.
const NumRegs = 32

// RegFile represents the RV32I register file: 32 general-purpose
// registers and the program counter.
type RegFile struct {
	// X holds registers x0-x31. X[0] is kept at zero by WriteReg.
	X [NumRegs]uint32

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a register value. Register 0 and out-of-range indices
// read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegs {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a value to a register. Writes to register 0 are
// discarded.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegs {
		return
	}
	r.X[reg] = value
}

// Reset clears every register and the PC.
func (r *RegFile) Reset() {
	*r = RegFile{}
}
