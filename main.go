// Package main provides the entry point for Gear.
// Gear emulates the interpreted cogs of an eight-cog Propeller-style
// microcontroller running SPIN bytecode.
//
// For the full CLI, use: go run ./cmd/gear
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Gear - Propeller SPIN interpreter emulator")
	fmt.Println("")
	fmt.Println("Usage: gear [options] <program.binary>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -ticks N   Maximum hub ticks to simulate")
	fmt.Println("  -trace     Disassemble each executed opcode")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/gear' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/gear' instead.")
	}
}
