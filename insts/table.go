package insts

import "strings"

// Spec describes how one mnemonic is encoded.
type Spec struct {
	Mnemonic string
	Op       Op
	Format   Format
	Opcode   uint8
	Funct3   uint8
	Funct7   uint8
}

// IsShiftImm reports whether s is SLLI, SRLI or SRAI, whose
// immediate field carries funct7 above a 5-bit shift amount.
func (s Spec) IsShiftImm() bool {
	return isShiftImm(s.Opcode, s.Funct3)
}

// IsLoad reports whether s reads memory.
func (s Spec) IsLoad() bool {
	return s.Opcode == OpcodeLoad
}

// specs is the RV32I base instruction table.
var specs = []Spec{
	// R-type ALU
	{"add", OpADD, FormatR, OpcodeOp, 0b000, Funct7Base},
	{"sub", OpSUB, FormatR, OpcodeOp, 0b000, Funct7Alt},
	{"sll", OpSLL, FormatR, OpcodeOp, 0b001, Funct7Base},
	{"slt", OpSLT, FormatR, OpcodeOp, 0b010, Funct7Base},
	{"sltu", OpSLTU, FormatR, OpcodeOp, 0b011, Funct7Base},
	{"xor", OpXOR, FormatR, OpcodeOp, 0b100, Funct7Base},
	{"srl", OpSRL, FormatR, OpcodeOp, 0b101, Funct7Base},
	{"sra", OpSRA, FormatR, OpcodeOp, 0b101, Funct7Alt},
	{"or", OpOR, FormatR, OpcodeOp, 0b110, Funct7Base},
	{"and", OpAND, FormatR, OpcodeOp, 0b111, Funct7Base},

	// I-type ALU
	{"addi", OpADDI, FormatI, OpcodeOpImm, 0b000, 0},
	{"slti", OpSLTI, FormatI, OpcodeOpImm, 0b010, 0},
	{"sltiu", OpSLTIU, FormatI, OpcodeOpImm, 0b011, 0},
	{"xori", OpXORI, FormatI, OpcodeOpImm, 0b100, 0},
	{"ori", OpORI, FormatI, OpcodeOpImm, 0b110, 0},
	{"andi", OpANDI, FormatI, OpcodeOpImm, 0b111, 0},
	{"slli", OpSLLI, FormatI, OpcodeOpImm, 0b001, Funct7Base},
	{"srli", OpSRLI, FormatI, OpcodeOpImm, 0b101, Funct7Base},
	{"srai", OpSRAI, FormatI, OpcodeOpImm, 0b101, Funct7Alt},

	// Loads
	{"lb", OpLB, FormatI, OpcodeLoad, 0b000, 0},
	{"lh", OpLH, FormatI, OpcodeLoad, 0b001, 0},
	{"lw", OpLW, FormatI, OpcodeLoad, 0b010, 0},
	{"lbu", OpLBU, FormatI, OpcodeLoad, 0b100, 0},
	{"lhu", OpLHU, FormatI, OpcodeLoad, 0b101, 0},

	// Stores
	{"sb", OpSB, FormatS, OpcodeStore, 0b000, 0},
	{"sh", OpSH, FormatS, OpcodeStore, 0b001, 0},
	{"sw", OpSW, FormatS, OpcodeStore, 0b010, 0},

	// Branches
	{"beq", OpBEQ, FormatB, OpcodeBranch, 0b000, 0},
	{"bne", OpBNE, FormatB, OpcodeBranch, 0b001, 0},
	{"blt", OpBLT, FormatB, OpcodeBranch, 0b100, 0},
	{"bge", OpBGE, FormatB, OpcodeBranch, 0b101, 0},
	{"bltu", OpBLTU, FormatB, OpcodeBranch, 0b110, 0},
	{"bgeu", OpBGEU, FormatB, OpcodeBranch, 0b111, 0},

	// Jumps and upper immediates
	{"jal", OpJAL, FormatJ, OpcodeJAL, 0, 0},
	{"jalr", OpJALR, FormatI, OpcodeJALR, 0b000, 0},
	{"lui", OpLUI, FormatU, OpcodeLUI, 0, 0},
	{"auipc", OpAUIPC, FormatU, OpcodeAUIPC, 0, 0},

	// System
	{"ecall", OpECALL, FormatI, OpcodeSystem, 0, 0},
	{"ebreak", OpEBREAK, FormatI, OpcodeSystem, 0, 0},
}

var (
	specByMnemonic = make(map[string]Spec, len(specs))
	specByOp       = make(map[Op]Spec, len(specs))
	opByKey        = make(map[uint32]Op, len(specs))
)

func init() {
	for _, s := range specs {
		specByMnemonic[s.Mnemonic] = s
		specByOp[s.Op] = s

		if s.Opcode == OpcodeSystem {
			continue
		}

		funct3, funct7 := s.Funct3, uint8(0)
		switch {
		case s.Format == FormatU || s.Format == FormatJ:
			funct3 = 0
		case s.Format == FormatR || s.IsShiftImm():
			funct7 = s.Funct7
		}
		opByKey[specKey(s.Opcode, funct3, funct7)] = s.Op
	}
}

// specKey packs the opcode, funct3 and funct7 bits that identify an
// operation into a single map key.
func specKey(opcode, funct3, funct7 uint8) uint32 {
	return uint32(opcode) | uint32(funct3)<<7 | uint32(funct7)<<10
}

func isShiftImm(opcode, funct3 uint8) bool {
	return opcode == OpcodeOpImm && (funct3 == 0b001 || funct3 == 0b101)
}

// Lookup returns the encoding spec of a mnemonic. Lookup is case
// insensitive.
func Lookup(mnemonic string) (Spec, bool) {
	s, ok := specByMnemonic[strings.ToLower(mnemonic)]
	return s, ok
}

// SpecOf returns the encoding spec of an operation.
func SpecOf(op Op) (Spec, bool) {
	s, ok := specByOp[op]
	return s, ok
}

// Specs returns a copy of the full mnemonic table.
func Specs() []Spec {
	return append([]Spec(nil), specs...)
}
