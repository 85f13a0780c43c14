// Command benchmark runs the built-in RV32I benchmark suite and reports
// instruction counts, cycles, CPI and cache behaviour.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv        Output results in CSV format (default: human-readable)
//	-json       Output a JSON report
//	-name       Run only the named benchmark
//	-config     Machine configuration JSON file
//	-policy     Cache residency policy: tracking or set-associative
//
// Example:
//
//	# Compare the two cache models
//	go run ./cmd/benchmark -csv > tracking.csv
//	go run ./cmd/benchmark -csv -policy set-associative > setassoc.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/benchmarks"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/latency"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output a JSON report")
	name := flag.String("name", "", "Run only the named benchmark")
	configPath := flag.String("config", "", "Machine configuration JSON file")
	policy := flag.String("policy", "", "Cache policy: tracking or set-associative")
	maxInstr := flag.Uint64("max", benchmarks.DefaultMaxInstructions, "Per-benchmark instruction limit")
	verbose := flag.Bool("v", false, "Log each benchmark as it finishes")
	flag.Parse()

	logger := logrus.New()

	config := latency.DefaultConfig()
	if *configPath != "" {
		var err error
		if config, err = latency.LoadConfig(*configPath); err != nil {
			logger.Fatalf("loading config: %v", err)
		}
	}
	if *policy != "" {
		config.ICache.Policy = cache.Policy(*policy)
		config.DCache.Policy = cache.Policy(*policy)
		if err := config.Validate(); err != nil {
			logger.Fatalf("invalid policy: %v", err)
		}
	}

	harness := benchmarks.NewHarness(benchmarks.HarnessConfig{
		Config:          config,
		MaxInstructions: *maxInstr,
		Output:          os.Stdout,
		Verbose:         *verbose,
		Logger:          logger,
	})

	if *name != "" {
		bench, ok := benchmarks.Lookup(*name)
		if !ok {
			logger.Fatalf("unknown benchmark %q", *name)
		}
		harness.AddBenchmark(bench)
	} else {
		harness.AddBenchmarks(benchmarks.Suite())
	}

	if !*csvOutput && !*jsonOutput {
		fmt.Println("RV32I Benchmark Harness")
		fmt.Println("=======================")
		fmt.Printf("I-Cache: %d bytes, %s\n", config.ICache.Size, policyName(config.ICache.Policy))
		fmt.Printf("D-Cache: %d bytes, %s\n", config.DCache.Size, policyName(config.DCache.Policy))
		fmt.Println("")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := harness.RunAll(ctx)

	switch {
	case *jsonOutput:
		if perr := harness.PrintJSON(results); perr != nil {
			logger.Fatalf("writing report: %v", perr)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	if err != nil {
		logger.Fatalf("%v", err)
	}
}

func policyName(p cache.Policy) cache.Policy {
	if p == "" {
		return cache.PolicyTracking
	}
	return p
}
