package emu

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// Loadable is a program image the emulator can load: a set of segments,
// each a start address with its little-endian bytes, and an entry point.
type Loadable interface {
	Segments() iter.Seq2[uint32, []byte]
	EntryPoint() uint32
}

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// PC is the address the instruction was fetched from.
	PC uint32

	// NextPC is the PC after the step. It equals PC when the step failed.
	NextPC uint32

	// Word is the fetched machine word.
	Word uint32

	// Inst is the decoded instruction, nil if the fetch failed.
	Inst *insts.Instruction

	// Branch is true for conditional branches; Taken tells the outcome.
	Branch bool
	Taken  bool

	// Cycles is the base latency plus the cache charges of this step.
	Cycles uint64

	// Err is set if the step failed. The emulator is halted afterwards.
	Err error
}

// StopReason tells why Run returned.
type StopReason int

// Stop reasons.
const (
	StopError StopReason = iota
	StopSelfLoop
	StopEndOfProgram
	StopMaxInstructions
	StopCancelled
	StopBreakpoint
)

var stopReasonNames = [...]string{
	"error", "self-loop", "end of program", "max instructions", "cancelled",
	"breakpoint",
}

func (r StopReason) String() string {
	if int(r) < len(stopReasonNames) {
		return stopReasonNames[r]
	}
	return "unknown"
}

// Emulator executes RV32I instructions functionally while accounting
// cycles through the latency table and the two caches.
//
// An Emulator is not safe for concurrent use.
type Emulator struct {
	config  *latency.Config
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	latency *latency.Table

	icache *cache.Cache
	dcache *cache.Cache

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	logger *logrus.Logger
	trace  bool

	// Execution state
	stats           Stats
	maxInstructions uint64 // 0 means no limit
	loaded          bool
	halted          bool
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithConfig sets the machine configuration. The config is cloned.
func WithConfig(config *latency.Config) EmulatorOption {
	return func(e *Emulator) {
		e.config = config.Clone()
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger used for load events and step traces.
func WithLogger(logger *logrus.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(trace bool) EmulatorOption {
	return func(e *Emulator) {
		e.trace = trace
	}
}

// NewEmulator creates a new RV32I emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		config:  latency.DefaultConfig(),
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
		logger:  logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.latency = latency.NewTableWithConfig(e.config)
	e.icache = cache.New(e.config.ICache)
	e.dcache = cache.New(e.config.DCache)
	e.attachMemory(NewMemoryWithSize(e.config.MemorySize))

	return e
}

func (e *Emulator) attachMemory(memory *Memory) {
	e.memory = memory
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, memory)
	e.branchUnit = NewBranchUnit(e.regFile)
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// Config returns the machine configuration.
func (e *Emulator) Config() *latency.Config {
	return e.config
}

// Load resets the machine and copies every segment of prog into a fresh
// memory. PC is set to the entry point and sp to the 16-byte aligned top
// of memory.
func (e *Emulator) Load(prog Loadable) error {
	e.regFile.Reset()
	e.attachMemory(NewMemoryWithSize(e.config.MemorySize))
	e.icache.Reset()
	e.dcache.Reset()
	e.stats = Stats{}
	e.loaded = false
	e.halted = false

	for addr, data := range prog.Segments() {
		if err := e.memory.WriteBytes(addr, data); err != nil {
			return fmt.Errorf("failed to load segment at %#08x: %w", addr, err)
		}

		e.logger.WithFields(logrus.Fields{
			"addr": fmt.Sprintf("%#08x", addr),
			"size": len(data),
		}).Debug("segment loaded")
	}

	entry := prog.EntryPoint()
	if err := e.memory.Check(entry, 4); err != nil {
		return fmt.Errorf("invalid entry point: %w", err)
	}

	e.regFile.PC = entry
	e.regFile.WriteReg(2, e.config.MemorySize&^0xF)
	e.loaded = true

	return nil
}

// Registers returns a copy of the integer registers.
func (e *Emulator) Registers() [NumRegs]uint32 {
	return e.regFile.X
}

// Register returns one register value.
func (e *Emulator) Register(reg uint8) uint32 {
	return e.regFile.ReadReg(reg)
}

// PC returns the program counter.
func (e *Emulator) PC() uint32 {
	return e.regFile.PC
}

// ReadMemory copies n bytes starting at addr without touching the caches.
func (e *Emulator) ReadMemory(addr, n uint32) ([]byte, error) {
	return e.memory.ReadBytes(addr, n)
}

// Stats returns the performance counters.
func (e *Emulator) Stats() Stats {
	return e.stats
}

// ICacheStats returns the instruction-side cache statistics.
func (e *Emulator) ICacheStats() cache.Statistics {
	return e.icache.Stats()
}

// DCacheStats returns the data-side cache statistics.
func (e *Emulator) DCacheStats() cache.Statistics {
	return e.dcache.Stats()
}

// Halted reports whether a failed step stopped the emulator.
func (e *Emulator) Halted() bool {
	return e.halted
}

// Step fetches, decodes and executes one instruction. A failing step leaves
// the PC and registers unchanged and halts the emulator until the next
// Load.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC
	result := StepResult{PC: pc, NextPC: pc}

	switch {
	case !e.loaded:
		result.Err = ErrNoProgram
		return result
	case e.halted:
		result.Err = ErrHalted
		return result
	case e.maxInstructions > 0 && e.stats.Instructions >= e.maxInstructions:
		result.Err = ErrMaxInstructions
		return result
	}

	// 1. Fetch
	if err := e.memory.Check(pc, 4); err != nil {
		return e.fail(result, err)
	}
	memCycles := e.icache.Read(pc).Latency
	result.Word, _ = e.memory.Read32(pc)

	// 2. Decode
	inst := e.decoder.Decode(result.Word)
	result.Inst = inst

	// 3. Execute
	dataCycles, err := e.execute(inst, &result)
	if err != nil {
		return e.fail(result, err)
	}
	memCycles += dataCycles

	result.NextPC = e.regFile.PC
	result.Cycles = e.latency.GetLatency(inst) + memCycles

	e.stats.Instructions++
	e.stats.Cycles += result.Cycles
	e.stats.MemoryAccessCycles += memCycles
	if result.Branch {
		e.stats.Branches++
		if result.Taken {
			e.stats.BranchesTaken++
		}
	}

	if e.trace {
		e.logger.WithFields(logrus.Fields{
			"pc":   fmt.Sprintf("%#08x", pc),
			"word": fmt.Sprintf("%#08x", result.Word),
			"asm":  inst.Text(pc),
		}).Debug("step")
	}

	return result
}

func (e *Emulator) fail(result StepResult, err error) StepResult {
	e.halted = true
	result.Err = &ErrExecution{PC: result.PC, Word: result.Word, Err: err}

	fields := logrus.Fields{
		"pc":   fmt.Sprintf("%#08x", result.PC),
		"word": fmt.Sprintf("%#08x", result.Word),
	}
	switch {
	case errors.Is(err, ErrUnsupportedInstruction) && result.Word == 0:
		e.logger.WithFields(fields).Debug("end of program")
	case errors.Is(err, ErrUnsupportedInstruction):
		e.logger.WithFields(fields).Error("unsupported instruction")
	default:
		e.logger.WithFields(fields).WithError(err).Debug("step failed")
	}

	return result
}

// execute dispatches a decoded instruction and returns the data cache
// cycles it charged. The PC is only advanced on success.
func (e *Emulator) execute(inst *insts.Instruction, result *StepResult) (uint64, error) {
	switch inst.Format {
	case insts.FormatR:
		return 0, e.advance(e.alu.ExecuteOp(inst))

	case insts.FormatI:
		switch inst.Opcode {
		case insts.OpcodeOpImm:
			return 0, e.advance(e.alu.ExecuteOpImm(inst))
		case insts.OpcodeLoad:
			addr := e.lsu.EffectiveAddress(inst)
			if err := e.lsu.Load(inst, addr); err != nil {
				return 0, err
			}
			return e.dcache.Read(addr).Latency, e.advance(nil)
		case insts.OpcodeJALR:
			if inst.Op != insts.OpJALR {
				return 0, ErrUnsupportedInstruction
			}
			e.branchUnit.JALR(inst)
			return 0, nil
		}
		// SYSTEM: ECALL and EBREAK have no handler.
		return 0, ErrUnsupportedInstruction

	case insts.FormatS:
		addr := e.lsu.EffectiveAddress(inst)
		if err := e.lsu.Store(inst, addr); err != nil {
			return 0, err
		}
		return e.dcache.Write(addr).Latency, e.advance(nil)

	case insts.FormatB:
		taken, err := e.branchUnit.Branch(inst)
		if err != nil {
			return 0, err
		}
		result.Branch, result.Taken = true, taken
		return 0, nil

	case insts.FormatJ:
		e.branchUnit.JAL(inst)
		return 0, nil

	case insts.FormatU:
		if inst.Op == insts.OpLUI {
			e.alu.LUI(inst.Rd, inst.UpperImm())
		} else {
			e.alu.AUIPC(inst.Rd, e.regFile.PC, inst.UpperImm())
		}
		return 0, e.advance(nil)

	default:
		return 0, ErrUnsupportedInstruction
	}
}

// advance moves the PC to the next instruction unless err is set.
func (e *Emulator) advance(err error) error {
	if err != nil {
		return err
	}
	e.regFile.PC += 4
	return nil
}

// Run steps until the program stops. A jump to itself (the `j .` idiom)
// stops with StopSelfLoop and a zero word with StopEndOfProgram; neither is
// an error. Reaching the instruction limit stops with StopMaxInstructions.
// ctx is checked between instructions.
func (e *Emulator) Run(ctx context.Context) (StopReason, error) {
	return e.RunUntil(ctx, nil)
}

// RunUntil is Run with an extra stop condition checked after every
// successful step. When stop returns true RunUntil returns StopBreakpoint.
func (e *Emulator) RunUntil(ctx context.Context, stop func(StepResult) bool) (StopReason, error) {
	for {
		if err := ctx.Err(); err != nil {
			return StopCancelled, err
		}

		result := e.Step()
		if result.Err != nil {
			return e.stopReason(result)
		}

		if result.NextPC == result.PC {
			return StopSelfLoop, nil
		}

		if stop != nil && stop(result) {
			return StopBreakpoint, nil
		}
	}
}

func (e *Emulator) stopReason(result StepResult) (StopReason, error) {
	if errors.Is(result.Err, ErrMaxInstructions) {
		return StopMaxInstructions, nil
	}

	if result.Inst != nil && result.Word == 0 && errors.Is(result.Err, ErrUnsupportedInstruction) {
		return StopEndOfProgram, nil
	}

	return StopError, result.Err
}
