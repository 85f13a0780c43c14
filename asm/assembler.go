// Package asm implements a two-pass RV32I assembler.
package asm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Default segment bases.
const (
	DefaultTextBase uint32 = 0
	DefaultDataBase uint32 = 0x10000
)

// ErrSegmentOverlap reports a text segment that runs into the data segment.
var ErrSegmentOverlap = errors.New(f("text segment overlaps data segment"))

// Assembler turns RV32I assembly source into a Program.
type Assembler struct {
	TextBase uint32
	DataBase uint32
	Equate   map[string]int64 // constants visible to every source
	Logger   *logrus.Logger
}

// New returns an Assembler with the default segment bases.
func New() *Assembler {
	return &Assembler{
		TextBase: DefaultTextBase,
		DataBase: DefaultDataBase,
		Equate:   map[string]int64{},
		Logger:   logrus.StandardLogger(),
	}
}

// Assemble assembles source text with the default settings.
func Assemble(text string) (*Program, error) {
	return New().Parse(strings.NewReader(text))
}

// pass holds the pass 1 state.
type pass struct {
	symbols *SymbolTable
	section section
	offsets [2]uint32
	items   []item
	lineNo  int
	line    string
}

func (p *pass) add(size uint32, emit func(ev *evaluator) ([]byte, error)) {
	p.items = append(p.items, item{
		lineNo:  p.lineNo,
		line:    p.line,
		section: p.section,
		offset:  p.offsets[p.section],
		size:    size,
		emit:    emit,
	})
	p.offsets[p.section] += size
}

func (p *pass) instructions(descs []Descriptor) {
	if len(descs) == 0 {
		return
	}
	p.items = append(p.items, item{
		lineNo:  p.lineNo,
		line:    p.line,
		section: sectionText,
		offset:  p.offsets[sectionText],
		size:    uint32(len(descs)) * 4,
		descs:   descs,
	})
	p.offsets[sectionText] += uint32(len(descs)) * 4
}

// Parse reads assembly source and assembles it. Errors from every line of
// a pass are collected; no Program is returned if there are any.
func (asm *Assembler) Parse(r io.Reader) (prog *Program, err error) {
	p := &pass{symbols: NewSymbolTable()}
	for name, value := range asm.Equate {
		if err = p.symbols.DefineConst(name, value, false); err != nil {
			return
		}
	}

	var errs []error
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNo++
		p.line = scanner.Text()
		if lerr := asm.parseLine(p); lerr != nil {
			errs = append(errs, &ErrSyntax{LineNo: p.lineNo, Line: p.line, Err: lerr})
		}
	}
	if err = scanner.Err(); err != nil {
		return
	}
	if len(errs) > 0 {
		err = joinErrors(errs)
		return
	}

	prog, err = asm.emit(p)
	if err != nil {
		return nil, err
	}

	asm.logger().WithFields(logrus.Fields{
		"words":  len(prog.Text),
		"data":   len(prog.Data),
		"labels": len(prog.Symbols),
		"entry":  prog.Entry,
	}).Debug("assembled")

	return
}

// parseLine is pass 1 for one line: record labels, then size the
// statement.
func (asm *Assembler) parseLine(p *pass) error {
	stmt, err := lex(p.line)
	if err != nil {
		return err
	}

	for _, label := range stmt.labels {
		addr := asm.base(p.section) + p.offsets[p.section]
		if err = p.symbols.DefineLabel(label, addr); err != nil {
			return err
		}
		asm.logger().WithFields(logrus.Fields{
			"label":   label,
			"addr":    addr,
			"section": p.section,
		}).Debug("label defined")
	}

	switch {
	case stmt.mnemonic == "":
		return nil
	case strings.HasPrefix(stmt.mnemonic, "."):
		return p.directive(stmt.mnemonic, stmt.operands)
	case p.section != sectionText:
		return ErrDirectiveSection
	}

	var descs []Descriptor
	if expand, ok := pseudos[stmt.mnemonic]; ok {
		ev := evaluator{symbols: p.symbols}
		descs, err = expand(&ev, stmt.operands)
	} else {
		descs, err = one(stmt.mnemonic, stmt.operands...)
	}
	if err != nil {
		return err
	}

	p.instructions(descs)
	return nil
}

// emit is pass 2: resolve every operand and lay out the segments.
func (asm *Assembler) emit(p *pass) (*Program, error) {
	prog := &Program{
		TextBase: asm.TextBase,
		DataBase: asm.DataBase,
		Symbols:  p.symbols.Labels(),
	}

	ev := &evaluator{symbols: p.symbols, labels: true}
	var errs []error

	for _, it := range p.items {
		if err := asm.emitItem(prog, it, ev); err != nil {
			errs = append(errs, &ErrSyntax{LineNo: it.lineNo, Line: it.line, Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, joinErrors(errs)
	}

	textEnd := uint64(prog.TextBase) + uint64(len(prog.Text))*4
	if len(prog.Data) > 0 && prog.TextBase <= prog.DataBase && textEnd > uint64(prog.DataBase) {
		return nil, ErrSegmentOverlap
	}

	prog.Entry = prog.TextBase
	for _, name := range []string{"_start", "main"} {
		if addr, ok := prog.Symbols[name]; ok {
			prog.Entry = addr
			break
		}
	}

	return prog, nil
}

func (asm *Assembler) emitItem(prog *Program, it item, ev *evaluator) error {
	line := Line{No: it.lineNo, Text: strings.TrimSpace(it.line)}

	if it.descs != nil {
		for i, d := range it.descs {
			pc := asm.TextBase + it.offset + uint32(i)*4
			word, err := d.encode(pc, ev)
			if err != nil {
				return err
			}
			prog.Text = append(prog.Text, word)
			prog.Lines = append(prog.Lines, line)
		}
		return nil
	}

	block, err := it.emit(ev)
	if err != nil {
		return err
	}

	if it.section == sectionData {
		prog.Data = append(prog.Data, block...)
		return nil
	}

	for len(block) >= 4 {
		prog.Text = append(prog.Text, binary.LittleEndian.Uint32(block))
		prog.Lines = append(prog.Lines, line)
		block = block[4:]
	}

	return nil
}

func (asm *Assembler) base(s section) uint32 {
	if s == sectionData {
		return asm.DataBase
	}
	return asm.TextBase
}

func (asm *Assembler) logger() *logrus.Logger {
	if asm.Logger == nil {
		return logrus.StandardLogger()
	}
	return asm.Logger
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}
