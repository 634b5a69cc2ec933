// Command dotbench times the float32 dot-product kernels over a sweep of
// vector lengths.
//
// With no arguments it runs the default sweep and prints one line per length:
//
//	Len: 1024 dot_sse: 310 dot_avx: 190 dot_avx_2: 120 dot_normal: 910
//
// To check the kernels instead: `go run ./cmd/dotbench verify`
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/ahmedtd/dotbench/affinity"
	"github.com/ahmedtd/dotbench/alloc"
	"github.com/ahmedtd/dotbench/bench"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/ahmedtd/dotbench/report"
	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	sweep := &SweepCommand{}
	subcommands.Register(sweep, "")
	subcommands.Register(&VerifyCommand{}, "")
	subcommands.Register(&ReplayCommand{}, "")
	subcommands.Register(&VariantsCommand{}, "")

	flag.Parse()
	ctx := context.Background()

	if flag.NArg() == 0 {
		f := flag.NewFlagSet(sweep.Name(), flag.ExitOnError)
		sweep.SetFlags(f)
		os.Exit(int(sweep.Execute(ctx, f)))
	}
	os.Exit(int(subcommands.Execute(ctx)))
}

func allocatorByName(name string) (alloc.Allocator, error) {
	switch name {
	case "heap":
		return alloc.HeapAllocator{}, nil
	case "mmap":
		return alloc.MmapAllocator{}, nil
	}
	return nil, fmt.Errorf("unknown allocator %q (want heap or mmap)", name)
}

type SweepCommand struct {
	config    bench.Config
	allocName string

	csvFile string
	npzFile string

	cpu            int
	cpuProfileFile string
}

var _ subcommands.Command = (*SweepCommand)(nil)

func (*SweepCommand) Name() string {
	return "sweep"
}

func (*SweepCommand) Synopsis() string {
	return "Time every kernel over a geometric sweep of lengths"
}

func (*SweepCommand) Usage() string {
	return `sweep [flags]

Runs when dotbench is invoked without a subcommand.
`
}

func (c *SweepCommand) SetFlags(f *flag.FlagSet) {
	def := bench.DefaultConfig()
	f.IntVar(&c.config.LenBegin, "len-begin", def.LenBegin, "First vector length")
	f.IntVar(&c.config.LenEnd, "len-end", def.LenEnd, "Largest vector length")
	f.IntVar(&c.config.LenFactor, "len-factor", def.LenFactor, "Multiplier between successive lengths")
	f.IntVar(&c.config.Pad, "pad", def.Pad, "Slack elements allocated past each operand")
	f.Uint64Var(&c.config.Seed, "seed", def.Seed, "Seed for the operand generator")
	c.config.Alignment = def.Alignment

	f.StringVar(&c.allocName, "alloc", "heap", "Operand allocator: heap or mmap")

	f.StringVar(&c.csvFile, "csv", "", "Also write results as CSV to this path")
	f.StringVar(&c.npzFile, "npz", "", "Also write results as a numpy .npz archive to this path")

	f.IntVar(&c.cpu, "cpu", -1, "Pin the benchmark to this CPU (-1 to disable)")
	f.StringVar(&c.cpuProfileFile, "cpu-profile", "", "Write a CPU profile")
}

func (c *SweepCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *SweepCommand) executeErr(ctx context.Context) error {
	if c.cpuProfileFile != "" {
		f, err := os.Create(c.cpuProfileFile)
		if err != nil {
			return fmt.Errorf("while creating CPU profile file: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("while starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	if c.cpu >= 0 {
		unpin, err := affinity.Pin(c.cpu)
		if err != nil {
			return fmt.Errorf("while pinning to CPU %d: %w", c.cpu, err)
		}
		defer unpin()
	}

	allocator, err := allocatorByName(c.allocName)
	if err != nil {
		return err
	}

	sinks := report.Multi{report.NewTextWriter(os.Stdout)}
	var files []*os.File
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	if c.csvFile != "" {
		f, err := os.Create(c.csvFile)
		if err != nil {
			return fmt.Errorf("while creating CSV output: %w", err)
		}
		files = append(files, f)
		sinks = append(sinks, report.NewCSVWriter(f))
	}
	if c.npzFile != "" {
		f, err := os.Create(c.npzFile)
		if err != nil {
			return fmt.Errorf("while creating npz output: %w", err)
		}
		files = append(files, f)
		sinks = append(sinks, report.NewNPZWriter(f))
	}

	h := &bench.Harness{
		Config:    c.config,
		Allocator: allocator,
		Variants:  kernels.Variants(),
		Sink:      sinks,
	}

	results, runErr := h.Run()
	if err := sinks.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("while finishing reports: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	for _, f := range files {
		if err := f.Close(); err != nil {
			return fmt.Errorf("while closing %s: %w", f.Name(), err)
		}
	}
	files = nil

	log.Printf("Recorded %d timings across %d variants", len(results), len(h.Variants))
	return nil
}
