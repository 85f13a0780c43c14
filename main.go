// Package main provides the entry point for rv32sim.
// rv32sim is a functional RV32I simulator with a cycle and cache model and
// a two-pass assembler.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32I Simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.s|program.bin|program.elf>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -stats     Print cache statistics and registers")
	fmt.Println("  -trace     Log every executed instruction")
	fmt.Println("  -debug     Start the interactive debugger")
	fmt.Println("  -dis       Disassemble instead of running")
	fmt.Println("  -bench     Run the built-in benchmark suite")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
