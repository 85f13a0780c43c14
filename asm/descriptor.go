package asm

import (
	"strings"

	"github.com/sarchlab/rv32sim/insts"
)

// ImmKind selects how a descriptor's immediate is resolved in pass 2.
type ImmKind uint8

const (
	ImmNone   ImmKind = iota
	ImmValue          // the expression value itself
	ImmTarget         // label: target - pc; anything else: a literal offset
)

// Descriptor is one real instruction produced by expanding a source line.
// Registers are resolved in pass 1; the immediate stays as text until all
// labels are known.
type Descriptor struct {
	Op   insts.Op
	Rd   uint8
	Rs1  uint8
	Rs2  uint8
	Imm  string
	Kind ImmKind
}

// immRange is the accepted range of one immediate field.
type immRange struct {
	bits     int
	min, max int64
	even     bool
}

var (
	rangeI     = immRange{bits: 12, min: -2048, max: 2047}
	rangeShamt = immRange{bits: 5, min: 0, max: 31}
	rangeB     = immRange{bits: 13, min: -4096, max: 4094, even: true}
	rangeJ     = immRange{bits: 21, min: -1 << 20, max: 1<<20 - 2, even: true}
	rangeU     = immRange{bits: 20, min: -1 << 19, max: 1<<20 - 1}
)

func (r immRange) check(value int64) error {
	if value < r.min || value > r.max || r.even && value&1 != 0 {
		return &ErrImmediateRange{
			Value: value,
			Bits:  r.bits,
			Min:   r.min,
			Max:   r.max,
			Even:  r.even,
		}
	}
	return nil
}

func rangeOf(spec insts.Spec) immRange {
	switch {
	case spec.IsShiftImm():
		return rangeShamt
	case spec.Format == insts.FormatB:
		return rangeB
	case spec.Format == insts.FormatJ:
		return rangeJ
	case spec.Format == insts.FormatU:
		return rangeU
	default:
		return rangeI
	}
}

// instruction builds the descriptor for a real mnemonic.
func instruction(mnemonic string, ops ...string) (d Descriptor, err error) {
	spec, ok := insts.Lookup(mnemonic)
	if !ok {
		err = ErrMnemonicInvalid
		return
	}
	d.Op = spec.Op

	regs := func(dst ...*uint8) error {
		for i, p := range dst {
			if *p, err = register(ops[i]); err != nil {
				return err
			}
		}
		return nil
	}

	need := func(n int) error {
		if len(ops) != n {
			return ErrOperandCount
		}
		return nil
	}

	switch {
	case spec.Opcode == insts.OpcodeSystem:
		if err = need(0); err == nil && spec.Op == insts.OpEBREAK {
			d.Imm, d.Kind = "1", ImmValue
		}
	case spec.Format == insts.FormatR:
		if err = need(3); err == nil {
			err = regs(&d.Rd, &d.Rs1, &d.Rs2)
		}
	case spec.Op == insts.OpJALR:
		err = jalrOperands(&d, ops)
	case spec.IsLoad():
		if err = need(2); err == nil {
			if err = regs(&d.Rd); err == nil {
				d.Imm, d.Rs1, err = memory(ops[1])
				d.Kind = ImmValue
			}
		}
	case spec.Format == insts.FormatI:
		if err = need(3); err == nil {
			err = regs(&d.Rd, &d.Rs1)
			d.Imm, d.Kind = ops[2], ImmValue
		}
	case spec.Format == insts.FormatS:
		if err = need(2); err == nil {
			if err = regs(&d.Rs2); err == nil {
				d.Imm, d.Rs1, err = memory(ops[1])
				d.Kind = ImmValue
			}
		}
	case spec.Format == insts.FormatB:
		if err = need(3); err == nil {
			err = regs(&d.Rs1, &d.Rs2)
			d.Imm, d.Kind = ops[2], ImmTarget
		}
	case spec.Format == insts.FormatU:
		if err = need(2); err == nil {
			err = regs(&d.Rd)
			d.Imm, d.Kind = ops[1], ImmValue
		}
	case spec.Format == insts.FormatJ:
		switch len(ops) {
		case 1:
			d.Rd = 1
			d.Imm, d.Kind = ops[0], ImmTarget
		case 2:
			err = regs(&d.Rd)
			d.Imm, d.Kind = ops[1], ImmTarget
		default:
			err = ErrOperandCount
		}
	default:
		err = ErrMnemonicInvalid
	}

	return
}

// jalrOperands accepts "rs", "rd, rs", "rd, imm(rs)" and "rd, rs, imm".
func jalrOperands(d *Descriptor, ops []string) (err error) {
	d.Imm, d.Kind = "0", ImmValue

	switch len(ops) {
	case 1:
		d.Rd = 1
		d.Rs1, err = register(ops[0])
	case 2:
		if d.Rd, err = register(ops[0]); err != nil {
			return
		}
		if strings.HasSuffix(ops[1], ")") {
			d.Imm, d.Rs1, err = memory(ops[1])
		} else {
			d.Rs1, err = register(ops[1])
		}
	case 3:
		if d.Rd, err = register(ops[0]); err != nil {
			return
		}
		d.Rs1, err = register(ops[1])
		d.Imm = ops[2]
	default:
		err = ErrOperandCount
	}

	return
}

func register(name string) (uint8, error) {
	idx, ok := insts.RegisterIndex(strings.TrimSpace(name))
	if !ok {
		return 0, ErrRegisterInvalid
	}
	return idx, nil
}

// memory splits an "imm(reg)" operand. The immediate may itself contain
// parentheses, as in %lo(sym)(a0). An empty immediate is zero.
func memory(op string) (imm string, reg uint8, err error) {
	op = strings.TrimSpace(op)
	if !strings.HasSuffix(op, ")") {
		err = ErrMemoryOperand
		return
	}

	open := strings.LastIndexByte(op, '(')
	if open < 0 {
		err = ErrMemoryOperand
		return
	}

	if reg, err = register(op[open+1 : len(op)-1]); err != nil {
		return
	}

	imm = strings.TrimSpace(op[:open])
	if imm == "" {
		imm = "0"
	}

	return
}

// encode resolves the immediate of d at pc and packs the machine word.
func (d Descriptor) encode(pc uint32, ev *evaluator) (word uint32, err error) {
	spec, _ := insts.SpecOf(d.Op)

	var imm int64
	switch d.Kind {
	case ImmValue:
		imm, err = ev.eval(d.Imm)
	case ImmTarget:
		imm, err = target(d.Imm, pc, ev)
	}
	if err != nil {
		return
	}

	if d.Kind != ImmNone {
		if err = rangeOf(spec).check(imm); err != nil {
			return
		}
	}

	word = insts.EncodeOp(d.Op, d.Rd, d.Rs1, d.Rs2, int32(imm))
	return
}

// target resolves a branch or jump operand. A label is made relative to
// pc; a number or constant is taken as the offset itself.
func target(text string, pc uint32, ev *evaluator) (int64, error) {
	text = strings.TrimSpace(text)
	if addr, ok := ev.symbols.Label(text); ok {
		return int64(int32(addr - pc)), nil
	}
	return ev.eval(text)
}
