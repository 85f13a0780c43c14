package asm

import (
	"maps"
)

// SymbolTable holds label addresses and .equ constants.
type SymbolTable struct {
	labels map[string]uint32
	consts map[string]int64
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		labels: map[string]uint32{},
		consts: map[string]int64{},
	}
}

// DefineLabel binds name to addr. A name may be bound only once.
func (st *SymbolTable) DefineLabel(name string, addr uint32) error {
	if st.defined(name) {
		return ErrLabelDuplicate
	}
	st.labels[name] = addr
	return nil
}

// DefineConst binds name to a constant. Redefinition is allowed only when
// redefine is set (.set), and never over a label.
func (st *SymbolTable) DefineConst(name string, value int64, redefine bool) error {
	if _, ok := st.labels[name]; ok {
		return ErrLabelDuplicate
	}
	if _, ok := st.consts[name]; ok && !redefine {
		return ErrEquateDuplicate
	}
	st.consts[name] = value
	return nil
}

// Label returns the address bound to a label.
func (st *SymbolTable) Label(name string) (addr uint32, ok bool) {
	addr, ok = st.labels[name]
	return
}

// Const returns the value of a constant.
func (st *SymbolTable) Const(name string) (value int64, ok bool) {
	value, ok = st.consts[name]
	return
}

// Labels returns a copy of the label map.
func (st *SymbolTable) Labels() map[string]uint32 {
	return maps.Clone(st.labels)
}

func (st *SymbolTable) defined(name string) bool {
	_, isLabel := st.labels[name]
	_, isConst := st.consts[name]
	return isLabel || isConst
}
