package asm

import (
	"errors"

	"github.com/sarchlab/rv32sim/translate"
)

var f = translate.From

var (
	// Symbol errors
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))

	// Syntax errors
	ErrMnemonicInvalid  = errors.New(f("mnemonic invalid"))
	ErrRegisterInvalid  = errors.New(f("register invalid"))
	ErrOperandCount     = errors.New(f("wrong number of operands"))
	ErrOperandInvalid   = errors.New(f("operand invalid"))
	ErrMemoryOperand    = errors.New(f("memory operand must be offset(register)"))
	ErrDirectiveInvalid = errors.New(f("directive invalid"))
	ErrDirectiveSection = errors.New(f("directive not allowed in .text"))
	ErrStringInvalid    = errors.New(f("string literal invalid"))
	ErrLabelSyntax      = errors.New(f("label syntax"))
)

// ErrLabelMissing reports a reference to a label that is never defined.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrImmediateRange reports an immediate that does not fit its field.
type ErrImmediateRange struct {
	Value int64
	Bits  int
	Min   int64
	Max   int64
	Even  bool // the field drops bit 0, so the value must be even
}

func (err *ErrImmediateRange) Error() string {
	if err.Even {
		return f("immediate %v is not an even %v-bit value in [%v, %v]",
			err.Value, err.Bits, err.Min, err.Max)
	}
	return f("immediate %v out of %v-bit range [%v, %v]",
		err.Value, err.Bits, err.Min, err.Max)
}

// ErrParseNumber reports an operand that should be a number but is not.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression reports a $(...) expression that does not evaluate
// to an integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrSyntax adds the source line to an assembly error.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}
