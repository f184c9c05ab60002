// Package main implements the yulgen CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"yulgen/internal/version"
)

type cli struct {
	root *cobra.Command
	// cleanup flushes the tracer; failed runs also dump ring buffers.
	cleanup func(failed bool)
	// stopProfiles writes the requested profiles.
	stopProfiles func() error
}

// newCLI builds the command tree. Tests get a fresh tree per run.
func newCLI() *cli {
	c := &cli{}
	c.root = &cobra.Command{
		Use:           "yulgen",
		Short:         "Yul IR generator for contract compilation units",
		Long:          `yulgen lowers a compilation unit of contracts into Yul objects, one per concrete contract`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyColorFlag(cmd); err != nil {
				return err
			}
			cleanup, err := setupTracing(cmd)
			if err != nil {
				return err
			}
			c.cleanup = cleanup
			stop, err := setupProfiling(cmd)
			if err != nil {
				return err
			}
			c.stopProfiles = stop
			return nil
		},
	}

	// Глобальные флаги
	flags := c.root.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "trace output file (- for stderr, .ndjson for JSON lines)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.String("cpu-profile", "", "write CPU profile to file")
	flags.String("mem-profile", "", "write heap profile to file")
	flags.String("runtime-trace", "", "write runtime execution trace to file")

	c.root.AddCommand(newBuildCmd())
	c.root.AddCommand(newPlanCmd())
	c.root.AddCommand(newVersionCmd())
	return c
}

func (c *cli) execute(ctx context.Context, args []string) error {
	c.root.SetArgs(args)
	err := c.root.ExecuteContext(ctx)
	if c.stopProfiles != nil {
		if stopErr := c.stopProfiles(); stopErr != nil && err == nil {
			err = stopErr
		}
		c.stopProfiles = nil
	}
	if c.cleanup != nil {
		c.cleanup(err != nil)
		c.cleanup = nil
	}
	return err
}

// main runs the CLI and exits with status 1 when the command fails.
func main() {
	c := newCLI()
	if err := c.execute(context.Background(), os.Args[1:]); err != nil {
		reportError(c.root.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprint(w, "error: ")
	_, _ = fmt.Fprintln(w, err)
}

// applyColorFlag configures fatih/color from --color.
func applyColorFlag(cmd *cobra.Command) error {
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
