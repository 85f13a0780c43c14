package asm

import (
	"encoding/binary"
	"iter"
)

// Line is the source line an instruction word came from.
type Line struct {
	No   int
	Text string
}

// Program is an assembled image: a text segment of instruction words and
// a data segment of bytes, each placed at its own base address.
type Program struct {
	Text     []uint32
	TextBase uint32
	Data     []byte
	DataBase uint32
	Entry    uint32
	Symbols  map[string]uint32
	Lines    []Line // Lines[i] produced Text[i]
}

// TextBytes returns the text segment as little-endian bytes.
func (p *Program) TextBytes() []byte {
	out := make([]byte, 0, len(p.Text)*4)
	for _, word := range p.Text {
		out = binary.LittleEndian.AppendUint32(out, word)
	}
	return out
}

// Segments yields each non-empty segment with its load address.
func (p *Program) Segments() iter.Seq2[uint32, []byte] {
	return func(yield func(uint32, []byte) bool) {
		if len(p.Text) > 0 && !yield(p.TextBase, p.TextBytes()) {
			return
		}
		if len(p.Data) > 0 {
			yield(p.DataBase, p.Data)
		}
	}
}

// EntryPoint returns the address execution starts at.
func (p *Program) EntryPoint() uint32 {
	return p.Entry
}

// LineAt returns the source line of the instruction at addr.
func (p *Program) LineAt(addr uint32) (Line, bool) {
	if addr < p.TextBase || (addr-p.TextBase)%4 != 0 {
		return Line{}, false
	}
	idx := (addr - p.TextBase) / 4
	if int(idx) >= len(p.Lines) {
		return Line{}, false
	}
	return p.Lines[idx], true
}

// SymbolAt returns a label bound to addr, preferring the alphabetically
// first one when several share the address.
func (p *Program) SymbolAt(addr uint32) (name string, ok bool) {
	for label, a := range p.Symbols {
		if a == addr && (!ok || label < name) {
			name, ok = label, true
		}
	}
	return
}
