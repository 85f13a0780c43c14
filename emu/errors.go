package emu

import (
	"errors"

	"github.com/sarchlab/rv32sim/translate"
)

var f = translate.From

var (
	// Execution errors
	ErrUnsupportedInstruction = errors.New(f("unsupported instruction"))
	ErrMisalignedAccess       = errors.New(f("misaligned access"))
	ErrOutOfBounds            = errors.New(f("address out of bounds"))

	// Run control
	ErrHalted          = errors.New(f("emulator halted"))
	ErrMaxInstructions = errors.New(f("max instructions reached"))
	ErrNoProgram       = errors.New(f("no program loaded"))
)

// ErrMemory reports a failed memory access. It unwraps to
// ErrMisalignedAccess or ErrOutOfBounds.
type ErrMemory struct {
	Addr uint32
	Size uint32
	Err  error
}

func (err *ErrMemory) Error() string {
	return f("%v: %d-byte access at %#08x", err.Err, err.Size, err.Addr)
}

func (err *ErrMemory) Unwrap() error {
	return err.Err
}

// ErrExecution reports the instruction that failed a step.
type ErrExecution struct {
	PC   uint32
	Word uint32
	Err  error
}

func (err *ErrExecution) Error() string {
	return f("pc %#08x word %#08x: %v", err.PC, err.Word, err.Err)
}

func (err *ErrExecution) Unwrap() error {
	return err.Err
}
