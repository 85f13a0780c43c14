package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

// printResults reports how a run ended and its counters.
func printResults(w io.Writer, e *emu.Emulator, reason emu.StopReason, detailed bool) {
	stats := e.Stats()

	_, _ = fmt.Fprintf(w, "Stopped: %s\n", reason)
	_, _ = fmt.Fprintf(w, "Instructions executed: %d\n", stats.Instructions)
	_, _ = fmt.Fprintf(w, "Cycles taken: %d\n", stats.Cycles)
	_, _ = fmt.Fprintf(w, "CPI: %.2f\n", stats.CPI())
	_, _ = fmt.Fprintf(w, "Final PC: 0x%08x\n", e.PC())

	if !detailed {
		return
	}

	icache, dcache := e.ICacheStats(), e.DCacheStats()

	_, _ = fmt.Fprintln(w, "")
	if stats.Branches > 0 {
		_, _ = fmt.Fprintf(w, "Branches: %d\n", stats.Branches)
		_, _ = fmt.Fprintf(w, "Branches taken: %d (%.1f%%)\n",
			stats.BranchesTaken, 100*stats.BranchTakenRate())
	}
	_, _ = fmt.Fprintf(w, "Memory access cycles: %d\n", stats.MemoryAccessCycles)
	_, _ = fmt.Fprintf(w, "I-Cache: %d hits, %d misses, hit rate %.1f%%\n",
		icache.Hits, icache.Misses, 100*icache.HitRate())
	_, _ = fmt.Fprintf(w, "D-Cache: %d hits, %d misses, hit rate %.1f%%\n",
		dcache.Hits, dcache.Misses, 100*dcache.HitRate())
	_, _ = fmt.Fprintln(w, "")
	printRegisters(w, e.Registers())
}

// printRegisters prints the register file four to a line.
func printRegisters(w io.Writer, regs [emu.NumRegs]uint32) {
	for i := 0; i < len(regs); i += 4 {
		cells := make([]string, 0, 4)
		for j := i; j < i+4; j++ {
			name := fmt.Sprintf("x%d/%s", j, insts.RegisterName(uint8(j)))
			cells = append(cells, fmt.Sprintf("%-8s 0x%08x", name, regs[j]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "  "))
	}
}

// disassemble lists the executable words of img with their labels.
func disassemble(w io.Writer, img *loader.Image) {
	labels := map[uint32][]string{}
	for name, addr := range img.Symbols {
		labels[addr] = append(labels[addr], name)
	}

	base, words := img.Text()
	for i, word := range words {
		pc := base + uint32(i)*4
		names := labels[pc]
		slices.Sort(names)
		for _, name := range names {
			_, _ = fmt.Fprintf(w, "%s:\n", name)
		}
		_, _ = fmt.Fprintf(w, "  %08x:  %08x  %s\n", pc, word, insts.Disassemble(word, pc))
	}
}
