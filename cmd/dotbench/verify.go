package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/ahmedtd/dotbench/alloc"
	"github.com/ahmedtd/dotbench/kernels"
	"github.com/ahmedtd/dotbench/tensorio"
	"github.com/ahmedtd/dotbench/vecgen"
	"github.com/chewxy/math32"
	"github.com/google/subcommands"
)

type VerifyCommand struct {
	lenEnd    int
	epsilon   float64
	seed      uint64
	allocName string
	dumpDir   string
}

var _ subcommands.Command = (*VerifyCommand)(nil)

func (*VerifyCommand) Name() string {
	return "verify"
}

func (*VerifyCommand) Synopsis() string {
	return "Check every kernel against the scalar reference"
}

func (*VerifyCommand) Usage() string {
	return `verify [flags]

Every kernel must agree with dot_normal to within epsilon*length, return the
same result when called twice, and leave its operands untouched.  Deviation
from a BLAS oracle is reported but not enforced.
`
}

func (c *VerifyCommand) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.lenEnd, "len-end", 1<<20, "Largest vector length to check")
	f.Float64Var(&c.epsilon, "epsilon", 1e-4, "Allowed absolute error per element")
	f.Uint64Var(&c.seed, "seed", 0, "Seed for the operand generator")
	f.StringVar(&c.allocName, "alloc", "heap", "Operand allocator: heap or mmap")
	f.StringVar(&c.dumpDir, "dump-dir", "", "Write failing operand pairs to this directory as safetensors")
}

func (c *VerifyCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.executeErr(ctx); err != nil {
		log.Printf("Error: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *VerifyCommand) executeErr(ctx context.Context) error {
	allocator, err := allocatorByName(c.allocName)
	if err != nil {
		return err
	}
	if c.dumpDir != "" {
		if err := os.MkdirAll(c.dumpDir, 0o755); err != nil {
			return fmt.Errorf("while creating dump directory: %w", err)
		}
	}

	v := &verifier{
		allocator: allocator,
		variants:  kernels.Variants(),
		epsilon:   float32(c.epsilon),
		seed:      c.seed,
		dumpDir:   c.dumpDir,
		oracleErr: map[string]float32{},
	}
	if err := v.run(verifyLengths(c.lenEnd)); err != nil {
		return err
	}

	for _, variant := range v.variants {
		fmt.Printf("%s: max per-element deviation from BLAS oracle %g\n", variant.Label, v.oracleErr[variant.Name])
	}
	if len(v.failures) > 0 {
		return fmt.Errorf("%d of %d checks failed", len(v.failures), v.checks)
	}
	log.Printf("All %d checks passed", v.checks)
	return nil
}

// verifyLengths covers every multiple of 16 up to 256, where partial-block
// bugs show up, then doubles up to end.
func verifyLengths(end int) []int {
	var lengths []int
	for n := 16; n <= 256 && n <= end; n += 16 {
		lengths = append(lengths, n)
	}
	for n := 512; n <= end; n *= 2 {
		lengths = append(lengths, n)
	}
	return lengths
}

type failure struct {
	length  int
	variant kernels.Variant
	reason  string
}

type verifier struct {
	allocator alloc.Allocator
	variants  []kernels.Variant
	epsilon   float32
	seed      uint64
	dumpDir   string

	checks    int
	failures  []failure
	oracleErr map[string]float32
}

func (v *verifier) run(lengths []int) error {
	st := vecgen.NewState(v.seed)
	for _, n := range lengths {
		var err error
		st, err = v.checkLength(n, st)
		if err != nil {
			return fmt.Errorf("while checking length %d: %w", n, err)
		}
	}
	return nil
}

func (v *verifier) checkLength(n int, st vecgen.State) (vecgen.State, error) {
	pair, err := vecgen.NewPair(v.allocator, n, 8, 32)
	if err != nil {
		return st, err
	}
	defer pair.Release()

	st = pair.Fill(st)
	lhs, rhs := pair.Operands()
	lhsCopy, rhsCopy := slices.Clone(lhs), slices.Clone(rhs)

	want, err := kernels.Scalar.Dot(lhs, rhs)
	if err != nil {
		return st, err
	}
	oracle := oracleDot(lhs, rhs)
	tolerance := v.epsilon * float32(n)

	for _, variant := range v.variants {
		first, err := variant.Dot(lhs, rhs)
		if err != nil {
			return st, err
		}
		second, err := variant.Dot(lhs, rhs)
		if err != nil {
			return st, err
		}
		v.checks++

		dev := math32.Abs(first-oracle) / float32(n)
		v.oracleErr[variant.Name] = math32.Max(v.oracleErr[variant.Name], dev)

		var reason string
		switch {
		case first != second:
			reason = fmt.Sprintf("not idempotent: %g then %g", first, second)
		case math32.Abs(first-want) > tolerance:
			reason = fmt.Sprintf("got %g, dot_normal got %g (tolerance %g)", first, want, tolerance)
		case !slices.Equal(lhs, lhsCopy) || !slices.Equal(rhs, rhsCopy):
			reason = "modified its operands"
		default:
			continue
		}

		log.Printf("FAIL %s at length %d: %s", variant.Label, n, reason)
		v.failures = append(v.failures, failure{length: n, variant: variant, reason: reason})
		if err := v.dump(n, variant, lhsCopy, rhsCopy, first, want); err != nil {
			return st, err
		}
		// Later variants must see the original operands.
		copy(lhs, lhsCopy)
		copy(rhs, rhsCopy)
	}
	return st, nil
}

func (v *verifier) dump(n int, variant kernels.Variant, lhs, rhs []float32, got, want float32) error {
	if v.dumpDir == "" {
		return nil
	}

	path := filepath.Join(v.dumpDir, fmt.Sprintf("%s-len%d.safetensors", variant.Name, n))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", path, err)
	}
	defer f.Close()

	meta := map[string]string{
		"variant": variant.Name,
		"length":  strconv.Itoa(n),
		"seed":    strconv.FormatUint(v.seed, 10),
		"got":     strconv.FormatFloat(float64(got), 'g', -1, 32),
		"want":    strconv.FormatFloat(float64(want), 'g', -1, 32),
	}
	if err := tensorio.WritePair(f, lhs, rhs, meta); err != nil {
		return fmt.Errorf("while writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("while closing %s: %w", path, err)
	}
	log.Printf("Wrote failing operands to %s", path)
	return nil
}
