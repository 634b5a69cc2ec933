package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ahmedtd/dotbench/bench"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/ahmedtd/dotbench/tensorio"
	"github.com/ahmedtd/dotbench/vecgen"
	"github.com/google/subcommands"
)

type ReplayCommand struct {
	pairFile  string
	allocName string
}

var _ subcommands.Command = (*ReplayCommand)(nil)

func (*ReplayCommand) Name() string {
	return "replay"
}

func (*ReplayCommand) Synopsis() string {
	return "Run every kernel on a saved operand pair"
}

func (*ReplayCommand) Usage() string {
	return `replay -pair <file>

The file is a safetensors archive holding float32 vectors "lhs" and "rhs",
such as the ones written by verify -dump-dir.
`
}

func (c *ReplayCommand) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.pairFile, "pair", "", "Path to the safetensors operand pair")
	f.StringVar(&c.allocName, "alloc", "heap", "Operand allocator: heap or mmap")
}

func (c *ReplayCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *ReplayCommand) executeErr(ctx context.Context) error {
	if c.pairFile == "" {
		return fmt.Errorf("-pair is required")
	}

	f, err := os.Open(c.pairFile)
	if err != nil {
		return fmt.Errorf("while opening pair file: %w", err)
	}
	defer f.Close()

	lhsIn, rhsIn, meta, err := tensorio.ReadPair(f)
	if err != nil {
		return fmt.Errorf("while reading pair file: %w", err)
	}
	if len(lhsIn) != len(rhsIn) {
		return fmt.Errorf("%w: lhs has %d elements, rhs has %d", kernels.ErrLengthMismatch, len(lhsIn), len(rhsIn))
	}
	for k, v := range meta {
		log.Printf("%s=%s", k, v)
	}

	allocator, err := allocatorByName(c.allocName)
	if err != nil {
		return err
	}

	// Saved data carries no alignment, so copy it into fresh aligned buffers.
	def := bench.DefaultConfig()
	pair, err := vecgen.NewPair(allocator, len(lhsIn), def.Pad, def.Alignment)
	if err != nil {
		return err
	}
	defer pair.Release()

	lhs, rhs := pair.Operands()
	copy(lhs, lhsIn)
	copy(rhs, rhsIn)

	for _, l := range replayLines(kernels.Variants(), lhs, rhs) {
		fmt.Println(l)
	}
	return nil
}

// replayLines runs each variant whose preconditions hold and describes the
// outcome, one line per variant.
func replayLines(variants []kernels.Variant, lhs, rhs []float32) []string {
	var lines []string
	for _, v := range variants {
		if err := v.Check(lhs, rhs); err != nil {
			lines = append(lines, fmt.Sprintf("%s: skipped: %v", v.Label, err))
			continue
		}
		var sum float32
		kernel := v.Kernel
		elapsed := bench.Measure(func() { sum = kernel(lhs, rhs) })
		lines = append(lines, fmt.Sprintf("%s: sum=%g elapsed=%dns", v.Label, sum, elapsed.Nanoseconds()))
	}
	return lines
}
