// Package main provides the Gear command line front end: load a
// Propeller image, boot cog 0 interpreted and run the chip.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Sh1nyAnd3o3/gear-emu/cog"
	"github.com/Sh1nyAnd3o3/gear-emu/hub"
	"github.com/Sh1nyAnd3o3/gear-emu/insts"
	"github.com/Sh1nyAnd3o3/gear-emu/loader"
	"github.com/Sh1nyAnd3o3/gear-emu/timing/system"
)

var (
	ticks   = flag.Uint64("ticks", 10_000_000, "Maximum hub ticks to simulate (0 = unbounded)")
	trace   = flag.Bool("trace", false, "Disassemble each executed opcode")
	verbose = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: gear [options] <program.binary>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)
	prog, err := loader.Load(programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Clock: %d Hz, mode %#02x\n", prog.ClkFreq, prog.ClkMode)
		fmt.Printf("PBASE=%04X VBASE=%04X DBASE=%04X PCURR=%04X DCURR=%04X\n",
			prog.PBase, prog.VBase, prog.DBase, prog.PCurr, prog.DCurr)
	}

	h := hub.New()
	h.BootProgram(prog)

	if *trace {
		runTraced(h)
	} else {
		runSimulation(h)
	}

	if *verbose {
		fmt.Printf("Counter: %d\n", h.Counter())
		for i := uint32(0); i < hub.CogCount; i++ {
			if c := h.Cog(i); c != nil {
				fmt.Printf("Cog %d: %v PC=%04X instructions=%d\n",
					i, c.State(), c.PC(), c.InstructionCount())
			}
		}
	}
}

// runSimulation runs the chip on the simulation engine.
func runSimulation(h *hub.Hub) {
	sim := system.New(h, system.WithMaxTicks(*ticks))
	if err := sim.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation error: %v\n", err)
		os.Exit(1)
	}
	stats := sim.Stats()
	fmt.Printf("Ticks: %d (%.6f s simulated)\n", stats.Ticks, float64(sim.Time()))
}

// runTraced single-steps the hub, printing a disassembly line for each
// opcode cog 0 is about to execute.
func runTraced(h *hub.Hub) {
	d := insts.NewDisassembler()
	fetch := func(addr uint32) byte { return h.DirectReadByte(addr) }

	var n uint64
	for *ticks == 0 || n < *ticks {
		if h.Idle() {
			break
		}
		if c := h.Cog(0); c != nil && c.State() == cog.StateExecInterpreter {
			inst, _ := d.Decode(fetch, c.PC())
			fmt.Printf("%04X  %-16s %s\n", inst.Addr, inst.Mnemonic, inst.Operand)
		}
		h.Step()
		n++
	}
	fmt.Printf("Ticks: %d\n", n)
}
