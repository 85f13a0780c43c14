// Command rv32sim assembles and runs RV32I programs on the functional
// emulator, with optional tracing, statistics and an interactive debugger.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/latency"
)

// errUsage is returned when no program is given.
var errUsage = errors.New("usage: rv32sim [options] <program.s|program.bin|program.elf>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := logrus.New()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatalf("%v", err)
	}
}

type options struct {
	configPath string
	maxInstr   uint64
	trace      bool
	stats      bool
	debug      bool
	bench      bool
	dis        bool
	verbose    bool
	program    string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("rv32sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to machine configuration JSON file")
	fs.Uint64Var(&opts.maxInstr, "max", benchmarks.DefaultMaxInstructions,
		"Stop after this many instructions (0 = unlimited)")
	fs.BoolVar(&opts.trace, "trace", false, "Log every executed instruction")
	fs.BoolVar(&opts.stats, "stats", false, "Print detailed statistics")
	fs.BoolVar(&opts.debug, "debug", false, "Start the interactive debugger")
	fs.BoolVar(&opts.bench, "bench", false, "Run the built-in benchmark suite and print JSON")
	fs.BoolVar(&opts.dis, "dis", false, "Disassemble the program instead of running it")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 0 {
		opts.program = fs.Arg(0)
	} else if !opts.bench {
		fs.Usage()
		return nil, errUsage
	}

	return opts, nil
}

// run is main without the process exit, so that it can be tested.
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	logger *logrus.Logger,
) error {
	opts, err := parseFlags(args, logger.Out)
	if err != nil {
		return err
	}

	if opts.trace || opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	config := latency.DefaultConfig()
	if opts.configPath != "" {
		if config, err = latency.LoadConfig(opts.configPath); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	if opts.bench {
		return runBenchmarks(ctx, config, opts, stdout, logger)
	}

	a := asm.New()
	a.TextBase = config.TextBase
	a.DataBase = config.DataBase
	a.Logger = logger

	img, err := loader.Load(opts.program, loader.WithAssembler(a), loader.WithBinaryBase(config.TextBase))
	if err != nil {
		return fmt.Errorf("loading %s: %w", opts.program, err)
	}

	logger.WithFields(logrus.Fields{
		"program":  opts.program,
		"format":   img.Format,
		"entry":    img.Entry,
		"segments": len(img.Regions),
	}).Debug("loaded")

	if opts.dis {
		disassemble(stdout, img)
		return nil
	}

	e := emu.NewEmulator(
		emu.WithConfig(config),
		emu.WithMaxInstructions(opts.maxInstr),
		emu.WithLogger(logger),
		emu.WithTrace(opts.trace),
	)
	if err = e.Load(img); err != nil {
		return err
	}

	if opts.debug {
		return NewDebugger(e, img, stdin, stdout).Run(ctx)
	}

	reason, err := e.Run(ctx)
	printResults(stdout, e, reason, opts.stats)
	return err
}

func runBenchmarks(
	ctx context.Context,
	config *latency.Config,
	opts *options,
	stdout io.Writer,
	logger *logrus.Logger,
) error {
	harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
		Config:          config,
		MaxInstructions: opts.maxInstr,
		Output:          stdout,
		Verbose:         opts.verbose,
		Logger:          logger,
	})
	harness.AddBenchmarks(benchmarks.Suite())

	results, err := harness.RunAll(ctx)
	if perr := harness.PrintJSON(results); perr != nil {
		return perr
	}
	return err
}
