package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for couponcheck. Without a subcommand
// it behaves like "couponcheck check".
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "couponcheck",
		Short: "Find Harbor Freight coupons missing from HFQPDB",
		Long: `couponcheck downloads every coupon image shown on the Harbor Freight coupon
and promotion pages and compares it with the coupons on HFQPDB.

Two images are the same coupon when their bytes are identical or when
they match visually (template matching score of at least 0.9). Coupons
that are not on HFQPDB are saved in the output directory, which is
recreated on every run.

Running couponcheck without a subcommand is the same as "couponcheck check".`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		RunE:          runCheckCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging and per-source statistics")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs to stderr as JSON")

	addCheckFlags(cmd)

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
