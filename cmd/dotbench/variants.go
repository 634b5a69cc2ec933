package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ahmedtd/dotbench/kernels"
	"github.com/google/subcommands"
)

type VariantsCommand struct{}

var _ subcommands.Command = (*VariantsCommand)(nil)

func (*VariantsCommand) Name() string {
	return "variants"
}

func (*VariantsCommand) Synopsis() string {
	return "List the kernels compiled into this binary"
}

func (*VariantsCommand) Usage() string {
	return ``
}

func (*VariantsCommand) SetFlags(f *flag.FlagSet) {}

func (c *VariantsCommand) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLABEL\tWIDTH\tALIGNMENT\tBACKEND")
	for _, v := range kernels.Variants() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", v.Name, v.Label, v.Width, v.Alignment, v.Backend)
	}
	tw.Flush()
	return subcommands.ExitSuccess
}
