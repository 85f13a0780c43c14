// Package main provides a profiling wrapper for the emulator, to find hot
// spots in the fetch-decode-execute loop.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/latency"
)

var (
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 10_000_000, "max instructions to execute (0 = unlimited)")
	bench       = flag.String("bench", "", "profile a built-in benchmark instead of a program file")
	configPath  = flag.String("config", "", "machine configuration JSON file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *bench == "" {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.s|program.elf>\n")
		fmt.Fprintf(os.Stderr, "       profile [options] -bench NAME\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	logger := logrus.New()

	config := latency.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = latency.LoadConfig(*configPath); err != nil {
			logger.Fatalf("loading config: %v", err)
		}
	}

	img, name, err := loadImage(config)
	if err != nil {
		logger.Fatalf("loading program: %v", err)
	}

	fmt.Printf("Loaded: %s\n", name)
	fmt.Printf("Entry point: 0x%08X\n", img.EntryPoint())

	// Start CPU profiling if requested
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.Fatalf("creating CPU profile: %v", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}

	e := emu.NewEmulator(
		emu.WithConfig(config),
		emu.WithMaxInstructions(*instruction),
		emu.WithLogger(logger),
	)
	if err := e.Load(img); err != nil {
		logger.Fatalf("loading program: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	reason, err := e.Run(ctx)
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
	case err != nil:
		logger.WithError(err).Error("execution failed")
	}

	// Write memory profile if requested
	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.Fatalf("creating memory profile: %v", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.WithError(err).Error("writing memory profile")
		}
	}

	stats := e.Stats()

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Stopped: %s\n", reason)
	fmt.Printf("Exit code (a0): %d\n", int32(e.Register(10)))
	fmt.Printf("Instructions executed: %d\n", stats.Instructions)
	fmt.Printf("Cycles: %d (CPI %.2f)\n", stats.Cycles, stats.CPI())
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if stats.Instructions > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(stats.Instructions)/elapsed.Seconds())
	}
}

// loadImage loads the program named on the command line or a suite
// benchmark.
func loadImage(config *latency.Config) (*loader.Image, string, error) {
	a := asmFor(config)

	if *bench != "" {
		b, ok := benchmarks.Lookup(*bench)
		if !ok {
			return nil, "", fmt.Errorf("unknown benchmark %q", *bench)
		}
		prog, err := a.Parse(strings.NewReader(b.Source))
		if err != nil {
			return nil, "", err
		}
		return loader.FromProgram(prog), "benchmark " + b.Name, nil
	}

	path := flag.Arg(0)
	img, err := loader.Load(path, loader.WithAssembler(a), loader.WithBinaryBase(config.TextBase))
	return img, path, err
}

func asmFor(config *latency.Config) *asm.Assembler {
	a := asm.New()
	a.TextBase = config.TextBase
	a.DataBase = config.DataBase
	return a
}
