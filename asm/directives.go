package asm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// item is one sized piece of a segment, produced by pass 1 and emitted by
// pass 2. Exactly one of descs and emit is set.
type item struct {
	lineNo  int
	line    string
	section section
	offset  uint32
	size    uint32
	descs   []Descriptor
	emit    func(ev *evaluator) ([]byte, error)
}

type section uint8

const (
	sectionText section = iota
	sectionData
)

func (s section) String() string {
	if s == sectionData {
		return ".data"
	}
	return ".text"
}

// directive handles one assembler directive during pass 1.
func (p *pass) directive(name string, ops []string) (err error) {
	switch name {
	case ".text":
		p.section = sectionText
	case ".data", ".bss", ".rodata":
		p.section = sectionData
	case ".section":
		if len(ops) == 0 {
			return ErrOperandCount
		}
		if strings.HasPrefix(ops[0], ".text") {
			p.section = sectionText
		} else {
			p.section = sectionData
		}
	case ".globl", ".global", ".type", ".size", ".file", ".option":
	case ".equ", ".set":
		err = p.equate(ops, name == ".set")
	case ".word":
		err = p.values(ops, 4, math.MinInt32, math.MaxUint32)
	case ".half", ".short":
		err = p.dataOnly(func() error {
			return p.values(ops, 2, math.MinInt16, math.MaxUint16)
		})
	case ".byte":
		err = p.dataOnly(func() error {
			return p.values(ops, 1, math.MinInt8, math.MaxUint8)
		})
	case ".space", ".zero", ".skip":
		err = p.dataOnly(func() error { return p.space(ops) })
	case ".ascii":
		err = p.dataOnly(func() error { return p.ascii(ops, false) })
	case ".asciz", ".string":
		err = p.dataOnly(func() error { return p.ascii(ops, true) })
	case ".align", ".p2align":
		err = p.align(ops)
	default:
		err = ErrDirectiveInvalid
	}

	return
}

func (p *pass) dataOnly(fn func() error) error {
	if p.section == sectionText {
		return ErrDirectiveSection
	}
	return fn()
}

func (p *pass) equate(ops []string, redefine bool) error {
	if len(ops) != 2 || !isIdentifier(ops[0]) {
		return ErrEquateSyntax
	}

	ev := evaluator{symbols: p.symbols, labels: true}
	value, err := ev.eval(ops[1])
	if err != nil {
		return err
	}

	return p.symbols.DefineConst(ops[0], value, redefine)
}

// values lays out .word, .half and .byte. The values are resolved in pass
// 2 so that they may name labels.
func (p *pass) values(ops []string, width int, minValue, maxValue int64) error {
	if len(ops) == 0 {
		return ErrOperandCount
	}

	exprs := append([]string(nil), ops...)
	p.add(uint32(len(exprs)*width), func(ev *evaluator) ([]byte, error) {
		out := make([]byte, 0, len(exprs)*width)
		var buf [4]byte
		for _, expr := range exprs {
			v, err := ev.eval(expr)
			if err != nil {
				return nil, err
			}
			if v < minValue || v > maxValue {
				return nil, &ErrImmediateRange{Value: v, Bits: width * 8, Min: minValue, Max: maxValue}
			}
			binary.LittleEndian.PutUint32(buf[:], uint32(v))
			out = append(out, buf[:width]...)
		}
		return out, nil
	})

	return nil
}

func (p *pass) space(ops []string) error {
	if len(ops) < 1 || len(ops) > 2 {
		return ErrOperandCount
	}

	ev := evaluator{symbols: p.symbols}
	n, err := ev.eval(ops[0])
	if err != nil {
		return err
	}
	if n < 0 || n > math.MaxInt32 {
		return &ErrImmediateRange{Value: n, Bits: 32, Min: 0, Max: math.MaxInt32}
	}

	fill := int64(0)
	if len(ops) == 2 {
		if fill, err = ev.eval(ops[1]); err != nil {
			return err
		}
	}

	block := make([]byte, n)
	for i := range block {
		block[i] = byte(fill)
	}
	p.bytes(block)

	return nil
}

func (p *pass) ascii(ops []string, terminate bool) error {
	if len(ops) == 0 {
		return ErrOperandCount
	}

	var block []byte
	for _, op := range ops {
		s, err := strconv.Unquote(op)
		if err != nil || !strings.HasPrefix(op, `"`) {
			return ErrStringInvalid
		}
		block = append(block, s...)
		if terminate {
			block = append(block, 0)
		}
	}
	p.bytes(block)

	return nil
}

// align pads to a 2^n boundary: zero bytes in .data, nops in .text.
func (p *pass) align(ops []string) error {
	if len(ops) != 1 {
		return ErrOperandCount
	}

	ev := evaluator{symbols: p.symbols}
	n, err := ev.eval(ops[0])
	if err != nil {
		return err
	}
	if n < 0 || n > 12 {
		return &ErrImmediateRange{Value: n, Bits: 4, Min: 0, Max: 12}
	}

	boundary := uint32(1) << n
	offset := p.offsets[p.section]
	pad := (boundary - offset%boundary) % boundary

	if p.section == sectionData {
		p.bytes(make([]byte, pad))
		return nil
	}

	var descs []Descriptor
	for range pad / 4 {
		nop, _ := instruction("addi", "x0", "x0", "0")
		descs = append(descs, nop)
	}
	p.instructions(descs)

	return nil
}

func (p *pass) bytes(block []byte) {
	p.add(uint32(len(block)), func(*evaluator) ([]byte, error) {
		return block, nil
	})
}
