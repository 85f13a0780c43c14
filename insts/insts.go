// Package insts provides RV32I instruction definitions, encoding and decoding.
//
// This package converts between 32-bit RV32I machine words and structured
// instruction representations. It supports the six base encoding formats:
//   - R-type: register-register ALU operations (ADD, SUB, SLL, ...)
//   - I-type: immediate ALU operations, loads, JALR, ECALL/EBREAK
//   - S-type: stores
//   - B-type: conditional branches
//   - U-type: LUI, AUIPC
//   - J-type: JAL
//
// Usage:
//
//	inst := insts.Decode(0x00500093) // addi ra, zero, 5
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Imm())
//
//	word := insts.Encode(insts.FormatI, insts.Fields{
//		Opcode: insts.OpcodeOpImm, Rd: 1, Imm: 5,
//	})
package insts

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR              // funct7 rs2 rs1 funct3 rd opcode
	FormatI              // imm[11:0] rs1 funct3 rd opcode
	FormatS              // imm[11:5] rs2 rs1 funct3 imm[4:0] opcode
	FormatB              // imm[12|10:5] rs2 rs1 funct3 imm[4:1|11] opcode
	FormatU              // imm[31:12] rd opcode
	FormatJ              // imm[20|10:1|11|19:12] rd opcode
)

var formatNames = [...]string{"?", "R", "I", "S", "B", "U", "J"}

// String returns the single-letter name of the format.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "?"
}

// Major opcodes (bits [6:0]).
const (
	OpcodeLoad   uint8 = 0b0000011
	OpcodeOpImm  uint8 = 0b0010011
	OpcodeAUIPC  uint8 = 0b0010111
	OpcodeStore  uint8 = 0b0100011
	OpcodeOp     uint8 = 0b0110011
	OpcodeLUI    uint8 = 0b0110111
	OpcodeBranch uint8 = 0b1100011
	OpcodeJALR   uint8 = 0b1100111
	OpcodeJAL    uint8 = 0b1101111
	OpcodeSystem uint8 = 0b1110011
)

// Funct7 values that select alternate R-type operations.
const (
	Funct7Base uint8 = 0b0000000
	Funct7Alt  uint8 = 0b0100000 // SUB, SRA, SRAI
)

// Op represents a resolved RV32I operation.
type Op uint16

// RV32I operations.
const (
	OpUnknown Op = iota
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU
	OpSB
	OpSH
	OpSW
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU
	OpJAL
	OpJALR
	OpLUI
	OpAUIPC
	OpECALL
	OpEBREAK
)

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if spec, ok := specByOp[op]; ok {
		return spec.Mnemonic
	}
	return "unknown"
}

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Op     Op     // Resolved operation, OpUnknown if not in RV32I
	Format Format // Encoding format selected by the opcode

	Opcode uint8  // bits [6:0]
	Rd     uint8  // bits [11:7]
	Funct3 uint8  // bits [14:12]
	Rs1    uint8  // bits [19:15]
	Rs2    uint8  // bits [24:20]
	Funct7 uint8  // bits [31:25]
	Raw    uint32 // The undecoded machine word
}

// Fields holds the encodable fields of an instruction. Fields that a format
// does not carry are ignored by Encode and zero after Decode.
type Fields struct {
	Opcode uint8
	Rd     uint8
	Funct3 uint8
	Rs1    uint8
	Rs2    uint8
	Funct7 uint8
	Imm    int32
}
