// Package main implements the leaktrack CLI tool.
//
// The leaktrack tool exercises the leak tracker without a native engine and
// inspects leak profiles written by engines that use it:
//
//	leaktrack demo --objects 10000 --leak-every 250   # simulated engine run
//	leaktrack inspect leaks.pb.gz                     # top leaking sites
//	leaktrack version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kolkov/leaktrack/leak"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "leaktrack",
		Short: "Leak tracker for garbage-collected engine objects",
		Long: `leaktrack - leak tracker for garbage-collected engine objects

The tracker records a backtrace for every object an engine creates and, at a
checkpoint, reports the objects that are recorded but no longer reachable on
the engine's live-object list.

Engines link the tracker through the C exports of cmd/libleaktrack or call
the leak package directly. This tool runs a simulated engine and reads the
pprof leak profiles the tracker writes.`,
		SilenceUsage: true,
	}
	root.AddCommand(newDemoCommand(), newInspectCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "leaktrack version %s (header schema %s)\n",
				leak.Version, leak.NativeSchema().Version)
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
