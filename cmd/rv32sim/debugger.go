package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

const debuggerHelp = `Commands:
  step (s) [N]   - Execute N instructions (default 1)
  run (r)        - Run until a breakpoint or the program stops
  print (p)      - Print PC, registers and counters
  regs           - Print registers
  mem ADDR [N]   - Dump N bytes of memory (default 16)
  break (b) LOC  - Toggle a breakpoint at an address or label
  break          - List breakpoints
  quit (q)       - Exit debugger
`

// Debugger is a line-oriented interactive front end to an Emulator.
type Debugger struct {
	emu         *emu.Emulator
	image       *loader.Image
	in          *bufio.Scanner
	out         io.Writer
	breakpoints map[uint32]bool
}

// NewDebugger returns a debugger reading commands from in.
func NewDebugger(e *emu.Emulator, img *loader.Image, in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		emu:         e,
		image:       img,
		in:          bufio.NewScanner(in),
		out:         out,
		breakpoints: map[uint32]bool{},
	}
}

// Run reads and executes commands until quit or end of input.
func (d *Debugger) Run(ctx context.Context) error {
	d.printf("Debug mode - type 'help' for commands\n")

	for {
		d.printf("PC:%08x> ", d.emu.PC())
		if !d.in.Scan() {
			d.printf("\n")
			return d.in.Err()
		}

		fields := strings.Fields(d.in.Text())
		if len(fields) == 0 {
			continue
		}

		if quit := d.execute(ctx, strings.ToLower(fields[0]), fields[1:]); quit {
			return nil
		}
	}
}

// execute runs one command and reports whether the debugger should exit.
func (d *Debugger) execute(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "step", "s":
		d.step(args)
	case "run", "r":
		d.run(ctx)
	case "print", "p":
		d.printState()
	case "regs":
		printRegisters(d.out, d.emu.Registers())
	case "mem", "m":
		d.dumpMemory(args)
	case "break", "b":
		d.toggleBreakpoint(args)
	case "quit", "q":
		return true
	case "help", "h":
		d.printf("%s", debuggerHelp)
	default:
		d.printf("Unknown command. Type 'help' for available commands.\n")
	}
	return false
}

func (d *Debugger) step(args []string) {
	n := uint64(1)
	if len(args) > 0 {
		v, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil || v == 0 {
			d.printf("Invalid count: %s\n", args[0])
			return
		}
		n = v
	}

	for range n {
		if d.emu.Halted() {
			d.printf("Program has stopped.\n")
			return
		}

		result := d.emu.Step()
		if result.Err != nil {
			d.printf("Execution error: %v\n", result.Err)
			return
		}

		d.printf("Executed: %08x  %08x  %s%s\n",
			result.PC, result.Word, insts.Disassemble(result.Word, result.PC), d.source(result.PC))
	}
}

func (d *Debugger) run(ctx context.Context) {
	// The instruction at the current PC always runs, so resuming from a
	// breakpoint moves past it.
	reason, err := d.emu.RunUntil(ctx, func(r emu.StepResult) bool {
		return d.breakpoints[r.NextPC]
	})

	if reason == emu.StopBreakpoint {
		d.printf("Breakpoint at %08x%s\n", d.emu.PC(), d.source(d.emu.PC()))
		return
	}

	if err != nil {
		d.printf("Execution error: %v\n", err)
	}
	printResults(d.out, d.emu, reason, false)
}

func (d *Debugger) printState() {
	stats := d.emu.Stats()
	d.printf("PC: 0x%08x%s\n", d.emu.PC(), d.source(d.emu.PC()))
	d.printf("Instructions: %d  Cycles: %d  CPI: %.2f\n",
		stats.Instructions, stats.Cycles, stats.CPI())
	printRegisters(d.out, d.emu.Registers())
}

func (d *Debugger) dumpMemory(args []string) {
	if len(args) == 0 {
		d.printf("Usage: mem ADDR [N]\n")
		return
	}

	addr, ok := d.location(args[0])
	if !ok {
		d.printf("Invalid address: %s\n", args[0])
		return
	}

	n := uint64(16)
	if len(args) > 1 {
		v, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			d.printf("Invalid count: %s\n", args[1])
			return
		}
		n = v
	}

	data, err := d.emu.ReadMemory(addr, uint32(n))
	if err != nil {
		d.printf("Memory error: %v\n", err)
		return
	}

	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		cells := make([]string, 0, 16)
		for _, b := range data[off:end] {
			cells = append(cells, fmt.Sprintf("%02x", b))
		}
		d.printf("%08x:  %s\n", addr+uint32(off), strings.Join(cells, " "))
	}
}

func (d *Debugger) toggleBreakpoint(args []string) {
	if len(args) == 0 {
		addrs := make([]uint32, 0, len(d.breakpoints))
		for addr := range d.breakpoints {
			addrs = append(addrs, addr)
		}
		slices.Sort(addrs)

		if len(addrs) == 0 {
			d.printf("No breakpoints.\n")
		}
		for _, addr := range addrs {
			d.printf("Breakpoint at %08x%s\n", addr, d.source(addr))
		}
		return
	}

	addr, ok := d.location(args[0])
	if !ok {
		d.printf("Invalid location: %s\n", args[0])
		return
	}

	if d.breakpoints[addr] {
		delete(d.breakpoints, addr)
		d.printf("Breakpoint removed at %08x\n", addr)
		return
	}
	d.breakpoints[addr] = true
	d.printf("Breakpoint set at %08x\n", addr)
}

// location parses a number or looks up a label.
func (d *Debugger) location(text string) (uint32, bool) {
	if addr, ok := d.image.Symbols[text]; ok {
		return addr, true
	}
	v, err := strconv.ParseUint(text, 0, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// source returns the source line of addr for assembled programs.
func (d *Debugger) source(addr uint32) string {
	if d.image.Source == nil {
		return ""
	}
	line, ok := d.image.Source.LineAt(addr)
	if !ok {
		return ""
	}
	return fmt.Sprintf("    ; %d: %s", line.No, line.Text)
}

func (d *Debugger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.out, format, args...)
}
