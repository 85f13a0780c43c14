// Package benchmarks runs assembly programs on the emulator and reports
// instruction, cycle, cache and branch statistics.
package benchmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/asm"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/latency"
	"github.com/sarchlab/rv32sim/translate"
)

var f = translate.From

// Version is reported in JSON metadata.
const Version = "0.1.0"

// DefaultMaxInstructions bounds every benchmark run.
const DefaultMaxInstructions = 1_000_000

var (
	ErrMismatch   = errors.New(f("register mismatch"))
	ErrIncomplete = errors.New(f("benchmark did not finish"))
)

// Result holds the statistics of a single benchmark run.
type Result struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Instructions uint64  `json:"instructions"`
	Cycles       uint64  `json:"cycles"`
	CPI          float64 `json:"cpi"`

	ICacheHits    uint64  `json:"icache_hits"`
	ICacheMisses  uint64  `json:"icache_misses"`
	ICacheHitRate float64 `json:"icache_hit_rate"`
	DCacheHits    uint64  `json:"dcache_hits"`
	DCacheMisses  uint64  `json:"dcache_misses"`
	DCacheHitRate float64 `json:"dcache_hit_rate"`

	Branches      uint64 `json:"branches"`
	BranchesTaken uint64 `json:"branches_taken"`

	// Stop is why the run ended; ExitCode is a0 at that point
	Stop      string                     `json:"stop"`
	ExitCode  int32                      `json:"exit_code"`
	Registers [insts.NumRegisters]uint32 `json:"registers"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	Name        string
	Description string

	// Source is the assembly program. It should end in a self-loop.
	Source string

	// Expected maps register names to their final values.
	Expected map[string]uint32
}

// Check compares the final registers of r with the expected values.
func (b Benchmark) Check(r Result) error {
	var errs []error
	for name, want := range b.Expected {
		idx, ok := insts.RegisterIndex(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", asm.ErrRegisterInvalid, name))
			continue
		}
		if got := r.Registers[idx]; got != want {
			errs = append(errs, fmt.Errorf("%w: %s %s = %d, want %d",
				ErrMismatch, b.Name, name, got, want))
		}
	}
	return errors.Join(errs...)
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Config sets memory size, cache geometry and latencies; nil uses the
	// defaults.
	Config *latency.Config

	MaxInstructions uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose logs every result as it completes
	Verbose bool

	Logger *logrus.Logger
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Config:          latency.DefaultConfig(),
		MaxInstructions: DefaultMaxInstructions,
		Output:          os.Stdout,
		Logger:          logrus.StandardLogger(),
	}
}

// Harness runs benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Config == nil {
		config.Config = latency.DefaultConfig()
	}
	if config.MaxInstructions == 0 {
		config.MaxInstructions = DefaultMaxInstructions
	}
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// Run executes the built-in suite.
func Run(ctx context.Context, config HarnessConfig) ([]Result, error) {
	h := NewHarness(config)
	h.AddBenchmarks(Suite())
	return h.RunAll(ctx)
}

// RunAll executes every benchmark in order. A benchmark that fails to
// assemble or run is left out of the results and its error is joined into
// the returned error.
func (h *Harness) RunAll(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(h.benchmarks))
	var errs []error

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(ctx, bench)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", bench.Name, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if h.config.Verbose {
			h.config.Logger.WithFields(logrus.Fields{
				"benchmark":    result.Name,
				"instructions": result.Instructions,
				"cycles":       result.Cycles,
				"cpi":          result.CPI,
			}).Info("benchmark finished")
		}

		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

// runBenchmark assembles and runs a single benchmark on a fresh emulator.
func (h *Harness) runBenchmark(ctx context.Context, bench Benchmark) (Result, error) {
	a := asm.New()
	a.TextBase = h.config.Config.TextBase
	a.DataBase = h.config.Config.DataBase
	a.Logger = h.config.Logger

	prog, err := a.Parse(strings.NewReader(bench.Source))
	if err != nil {
		return Result{}, err
	}

	e := emu.NewEmulator(
		emu.WithConfig(h.config.Config),
		emu.WithMaxInstructions(h.config.MaxInstructions),
		emu.WithLogger(h.config.Logger),
	)
	if err = e.Load(prog); err != nil {
		return Result{}, err
	}

	start := time.Now()
	reason, err := e.Run(ctx)
	wallTime := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	if reason == emu.StopMaxInstructions || reason == emu.StopCancelled {
		return Result{}, fmt.Errorf("%w: %v", ErrIncomplete, reason)
	}

	stats := e.Stats()
	icache := e.ICacheStats()
	dcache := e.DCacheStats()
	regs := e.Registers()

	return Result{
		Name:          bench.Name,
		Description:   bench.Description,
		Instructions:  stats.Instructions,
		Cycles:        stats.Cycles,
		CPI:           stats.CPI(),
		ICacheHits:    icache.Hits,
		ICacheMisses:  icache.Misses,
		ICacheHitRate: icache.HitRate(),
		DCacheHits:    dcache.Hits,
		DCacheMisses:  dcache.Misses,
		DCacheHitRate: dcache.HitRate(),
		Branches:      stats.Branches,
		BranchesTaken: stats.BranchesTaken,
		Stop:          reason.String(),
		ExitCode:      int32(regs[10]),
		Registers:     regs,
		WallTime:      wallTime,
	}, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []Result) {
	out := h.config.Output
	_, _ = fmt.Fprintln(out, "=== RV32I Benchmark Results ===")
	_, _ = fmt.Fprintln(out, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(out, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(out, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(out, "  Stop: %s (a0 = %d)\n", r.Stop, r.ExitCode)
		_, _ = fmt.Fprintf(out, "  Instructions: %d\n", r.Instructions)
		_, _ = fmt.Fprintf(out, "  Cycles:       %d\n", r.Cycles)
		_, _ = fmt.Fprintf(out, "  CPI:          %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(out, "  Branches:     %d (%d taken)\n", r.Branches, r.BranchesTaken)
		_, _ = fmt.Fprintf(out, "  I-Cache:      %d hits, %d misses (%.1f%%)\n",
			r.ICacheHits, r.ICacheMisses, 100*r.ICacheHitRate)
		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintf(out, "  D-Cache:      %d hits, %d misses (%.1f%%)\n",
				r.DCacheHits, r.DCacheMisses, 100*r.DCacheHitRate)
		}
		_, _ = fmt.Fprintf(out, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(out, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,instructions,cycles,cpi,icache_hits,icache_misses,dcache_hits,dcache_misses,branches,branches_taken,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.Instructions,
			r.Cycles,
			r.CPI,
			r.ICacheHits,
			r.ICacheMisses,
			r.DCacheHits,
			r.DCacheMisses,
			r.Branches,
			r.BranchesTaken,
			r.ExitCode,
		)
	}
}

// Report is the complete JSON output format.
type Report struct {
	Metadata ReportMetadata `json:"metadata"`
	Results  []Result       `json:"results"`
	Summary  ReportSummary  `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	Timestamp string          `json:"timestamp"`
	Version   string          `json:"version"`
	Config    *latency.Config `json:"config"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	TotalBenchmarks   int           `json:"total_benchmarks"`
	TotalCycles       uint64        `json:"total_cycles"`
	TotalInstructions uint64        `json:"total_instructions"`
	AverageCPI        float64       `json:"average_cpi"`
	TotalWallTime     time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []Result) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}
	for _, r := range results {
		summary.TotalCycles += r.Cycles
		summary.TotalInstructions += r.Instructions
		summary.TotalWallTime += r.WallTime
	}
	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}
	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []Result) error {
	report := Report{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Config:    h.config.Config,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
