package insts

import (
	"strconv"
	"strings"
)

// NumRegisters is the number of integer registers.
const NumRegisters = 32

// abiNames holds the calling-convention name of each register.
var abiNames = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var registerIndex = map[string]uint8{"fp": 8}

func init() {
	for i, name := range abiNames {
		registerIndex[name] = uint8(i)
		registerIndex["x"+strconv.Itoa(i)] = uint8(i)
	}
}

// RegisterIndex maps a register name (x0-x31 or an ABI name such as a0,
// sp or fp) to its index.
func RegisterIndex(name string) (uint8, bool) {
	idx, ok := registerIndex[strings.ToLower(name)]
	return idx, ok
}

// RegisterName returns the ABI name of a register index.
func RegisterName(idx uint8) string {
	if int(idx) < NumRegisters {
		return abiNames[idx]
	}
	return "x?"
}
