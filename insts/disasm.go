package insts

import "fmt"

// Disassemble renders a machine word as assembler text. pc is the address
// of the word and is used to print branch and jump targets. Words that do
// not decode to an RV32I operation render as a .word directive.
func Disassemble(word, pc uint32) string {
	return Decode(word).Text(pc)
}

// Text renders the instruction as assembler text at address pc.
func (inst *Instruction) Text(pc uint32) string {
	rd := RegisterName(inst.Rd)
	rs1 := RegisterName(inst.Rs1)
	rs2 := RegisterName(inst.Rs2)
	op := inst.Op.String()

	switch inst.Op {
	case OpUnknown:
		return fmt.Sprintf(".word 0x%08x", inst.Raw)
	case OpECALL, OpEBREAK:
		return op
	case OpSLLI, OpSRLI, OpSRAI:
		return fmt.Sprintf("%s %s, %s, %d", op, rd, rs1, inst.Shamt())
	case OpLUI, OpAUIPC:
		return fmt.Sprintf("%s %s, 0x%x", op, rd, inst.UpperImm()>>12)
	case OpJAL:
		return fmt.Sprintf("%s %s, 0x%x", op, rd, pc+uint32(inst.ImmJ()))
	case OpJALR:
		return fmt.Sprintf("%s %s, %d(%s)", op, rd, inst.ImmI(), rs1)
	}

	switch inst.Format {
	case FormatR:
		return fmt.Sprintf("%s %s, %s, %s", op, rd, rs1, rs2)
	case FormatS:
		return fmt.Sprintf("%s %s, %d(%s)", op, rs2, inst.ImmS(), rs1)
	case FormatB:
		return fmt.Sprintf("%s %s, %s, 0x%x", op, rs1, rs2, pc+uint32(inst.ImmB()))
	case FormatI:
		if inst.Opcode == OpcodeLoad {
			return fmt.Sprintf("%s %s, %d(%s)", op, rd, inst.ImmI(), rs1)
		}
		return fmt.Sprintf("%s %s, %s, %d", op, rd, rs1, inst.ImmI())
	}

	return fmt.Sprintf(".word 0x%08x", inst.Raw)
}
