package asm

import (
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// evaluator resolves operand expressions against a symbol table. When
// labels is false only constants are visible, which is how the first pass
// sizes li.
type evaluator struct {
	symbols *SymbolTable
	labels  bool
}

// eval resolves an operand expression:
//
//	123 -7 0x7f 0b101 0o17 'a' '\n'
//	name            label or constant
//	%hi(expr)       upper 20 bits, rounded for a following %lo
//	%lo(expr)       sign-extended lower 12 bits
//	$(expr)         arithmetic over labels and constants
func (ev *evaluator) eval(text string) (value int64, err error) {
	text = strings.TrimSpace(text)

	switch {
	case text == "":
		err = ErrOperandInvalid
	case hasCall(text, "%hi"):
		value, err = ev.eval(text[4 : len(text)-1])
		value = hi(value)
	case hasCall(text, "%lo"):
		value, err = ev.eval(text[4 : len(text)-1])
		value = lo(value)
	case hasCall(text, "$"):
		value, err = ev.parenEval(text[2 : len(text)-1])
	case text[0] == '\'':
		value, err = parseChar(text)
	case isIdentifier(text):
		value, err = ev.lookup(text)
	default:
		value, err = parseNumber(text)
	}

	return
}

func (ev *evaluator) lookup(name string) (int64, error) {
	if value, ok := ev.symbols.Const(name); ok {
		return value, nil
	}
	if ev.labels {
		if addr, ok := ev.symbols.Label(name); ok {
			return int64(addr), nil
		}
	}
	return 0, ErrLabelMissing(name)
}

// parenEval does $(...) evaluations.
func (ev *evaluator) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, v := range ev.symbols.consts {
		pred[key] = starlark.MakeInt64(v)
	}
	if ev.labels {
		for key, addr := range ev.symbols.labels {
			pred[key] = starlark.MakeUint64(uint64(addr))
		}
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		if !ev.labels {
			// A label may be referenced; the second pass will know.
			err = ErrLabelMissing(expr)
			return
		}
		err = ErrParseExpression(expr)
		return
	}

	rc, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = rc.Int64()
	if !ok {
		err = ErrParseExpression(expr)
	}

	return
}

// hasCall reports whether text has the form prefix(...).
func hasCall(text, prefix string) bool {
	return len(text) > len(prefix)+1 &&
		strings.HasPrefix(text, prefix+"(") &&
		strings.HasSuffix(text, ")")
}

// hi is the lui part of value, compensating for the sign of lo.
func hi(value int64) int64 {
	return ((value + 0x800) >> 12) & 0xFFFFF
}

// lo is the sign-extended low 12 bits of value.
func lo(value int64) int64 {
	low := value & 0xFFF
	if low >= 0x800 {
		low -= 0x1000
	}
	return low
}

// parseNumber parses decimal, 0x, 0b and 0o literals with an optional sign.
// A leading zero does not select octal.
func parseNumber(word string) (value int64, err error) {
	text := word
	negative := false
	switch {
	case strings.HasPrefix(text, "-"):
		negative = true
		text = text[1:]
	case strings.HasPrefix(text, "+"):
		text = text[1:]
	}

	base := 10
	if len(text) > 2 && text[0] == '0' {
		switch text[1] {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			text = text[2:]
		}
	}

	u, perr := strconv.ParseUint(text, base, 33)
	if perr != nil || text == "" {
		err = ErrParseNumber(word)
		return
	}

	value = int64(u)
	if negative {
		value = -value
	}

	return
}

// parseChar parses a quoted character literal such as 'a' or '\n'.
func parseChar(word string) (value int64, err error) {
	if len(word) < 3 || word[len(word)-1] != '\'' {
		err = ErrParseNumber(word)
		return
	}

	r, multibyte, tail, uerr := strconv.UnquoteChar(word[1:len(word)-1], '\'')
	if uerr != nil || tail != "" || multibyte && r > 0xFF {
		err = ErrParseNumber(word)
		return
	}

	value = int64(r)
	return
}
