package asm

import (
	"errors"
	"math"
	"strconv"
)

// pseudoFunc expands a pseudo-instruction into real instructions. The
// number of descriptors returned must not depend on label addresses.
type pseudoFunc func(ev *evaluator, ops []string) ([]Descriptor, error)

var pseudos = map[string]pseudoFunc{
	"nop": alias("addi", 0, "x0", "x0", "0"),
	"li":  li,
	"la":  la,
	"mv":  alias("addi", 2, "$0", "$1", "0"),
	"not": alias("xori", 2, "$0", "$1", "-1"),
	"neg": alias("sub", 2, "$0", "x0", "$1"),

	"seqz": alias("sltiu", 2, "$0", "$1", "1"),
	"snez": alias("sltu", 2, "$0", "x0", "$1"),

	"j":    alias("jal", 1, "x0", "$0"),
	"jr":   alias("jalr", 1, "x0", "$0", "0"),
	"ret":  alias("jalr", 0, "x0", "ra", "0"),
	"call": alias("jal", 1, "ra", "$0"),

	"beqz": alias("beq", 2, "$0", "x0", "$1"),
	"bnez": alias("bne", 2, "$0", "x0", "$1"),
	"blez": alias("bge", 2, "x0", "$0", "$1"),
	"bgez": alias("bge", 2, "$0", "x0", "$1"),
	"bltz": alias("blt", 2, "$0", "x0", "$1"),
	"bgtz": alias("blt", 2, "x0", "$0", "$1"),
	"bgt":  alias("blt", 3, "$1", "$0", "$2"),
	"ble":  alias("bge", 3, "$1", "$0", "$2"),
	"bgtu": alias("bltu", 3, "$1", "$0", "$2"),
	"bleu": alias("bgeu", 3, "$1", "$0", "$2"),
}

// alias maps a pseudo-instruction with n operands onto one real
// instruction. "$i" in args stands for the i-th operand.
func alias(mnemonic string, n int, args ...string) pseudoFunc {
	return func(_ *evaluator, ops []string) ([]Descriptor, error) {
		if len(ops) != n {
			return nil, ErrOperandCount
		}

		operands := make([]string, len(args))
		for i, arg := range args {
			if len(arg) == 2 && arg[0] == '$' {
				arg = ops[arg[1]-'0']
			}
			operands[i] = arg
		}

		return one(mnemonic, operands...)
	}
}

func one(mnemonic string, ops ...string) ([]Descriptor, error) {
	d, err := instruction(mnemonic, ops...)
	if err != nil {
		return nil, err
	}
	return []Descriptor{d}, nil
}

// li loads a 32-bit constant: one addi when it fits 12 bits, otherwise lui
// followed by an addi only when the low part is non-zero. An operand that
// is not yet known falls back to the fixed-size la sequence.
func li(ev *evaluator, ops []string) ([]Descriptor, error) {
	if len(ops) != 2 {
		return nil, ErrOperandCount
	}

	value, err := ev.eval(ops[1])
	var missing ErrLabelMissing
	if errors.As(err, &missing) {
		return la(ev, ops)
	}
	if err != nil {
		return nil, err
	}

	if value < math.MinInt32 || value > math.MaxUint32 {
		return nil, &ErrImmediateRange{
			Value: value,
			Bits:  32,
			Min:   math.MinInt32,
			Max:   math.MaxUint32,
		}
	}
	value = int64(int32(uint32(value)))

	if value >= rangeI.min && value <= rangeI.max {
		return one("addi", ops[0], "x0", itoa(value))
	}

	upper, err := one("lui", ops[0], itoa(hi(value)))
	if err != nil {
		return nil, err
	}

	lower := lo(value)
	if lower == 0 {
		return upper, nil
	}

	addi, err := one("addi", ops[0], ops[0], itoa(lower))
	if err != nil {
		return nil, err
	}

	return append(upper, addi...), nil
}

// la always emits lui+addi so its size is fixed before labels resolve.
func la(_ *evaluator, ops []string) ([]Descriptor, error) {
	if len(ops) != 2 {
		return nil, ErrOperandCount
	}

	upper, err := one("lui", ops[0], "%hi("+ops[1]+")")
	if err != nil {
		return nil, err
	}

	addi, err := one("addi", ops[0], ops[0], "%lo("+ops[1]+")")
	if err != nil {
		return nil, err
	}

	return append(upper, addi...), nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
