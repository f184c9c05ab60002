package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yulgen/internal/driver"
	"yulgen/internal/observ"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [flags] <unit.toml>",
		Short: "Show storage layout, generated names and drain order",
		Args:  cobra.ExactArgs(1),
		RunE:  planExecution,
	}
	addSettingsFlags(cmd)
	return cmd
}

func planExecution(cmd *cobra.Command, args []string) error {
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}
	timer := observ.NewTimer()
	res, err := buildPipeline(cmd, args[0], 0, timer)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, c := range res.Contracts {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := printContractPlan(out, c); err != nil {
			return err
		}
	}
	if showTimings {
		return timer.WriteSummary(cmd.ErrOrStderr())
	}
	return nil
}

func printContractPlan(out io.Writer, c *driver.ContractResult) error {
	title := color.New(color.FgCyan, color.Bold)
	if c.Abstract {
		_, err := fmt.Fprintf(out, "%s %s (abstract, no code)\n", title.Sprint("contract"), c.Name)
		return err
	}
	fmt.Fprintf(out, "%s %s (object %s)\n", title.Sprint("contract"), c.Name, c.Creation.Name)

	if len(c.Storage.Entries) > 0 {
		fmt.Fprintf(out, "  storage, %s slots\n", c.Storage.SlotsUsed.Dec())
		rows := make([][]string, 0, len(c.Storage.Entries))
		for _, e := range c.Storage.Entries {
			rows = append(rows, []string{e.Name, e.Type, e.Slot.Dec(), strconv.Itoa(int(e.Offset))})
		}
		if err := writeTable(out, "    ", []string{"NAME", "TYPE", "SLOT", "OFFSET"}, rows); err != nil {
			return err
		}
	}

	for _, section := range []struct {
		label string
		fns   []driver.GeneratedFunction
	}{
		{"creation drain order", c.Creation.Functions},
		{"runtime drain order", c.Runtime.Functions},
	} {
		if len(section.fns) == 0 {
			continue
		}
		fmt.Fprintf(out, "  %s\n", section.label)
		rows := make([][]string, 0, len(section.fns))
		for i, f := range section.fns {
			rows = append(rows, []string{strconv.Itoa(i + 1), f.Source, f.Name})
		}
		if err := writeTable(out, "    ", []string{"#", "SOURCE", "IR NAME"}, rows); err != nil {
			return err
		}
	}

	if len(c.Runtime.Entrypoints) > 0 {
		fmt.Fprintln(out, "  entrypoints")
		rows := make([][]string, 0, len(c.Runtime.Entrypoints))
		for _, ep := range c.Runtime.Entrypoints {
			rows = append(rows, []string{ep.Selector, ep.Signature, ep.Function})
		}
		if err := writeTable(out, "    ", []string{"SELECTOR", "SIGNATURE", "FUNCTION"}, rows); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(out, "  helpers: %d creation, %d runtime\n", len(c.Creation.Helpers), len(c.Runtime.Helpers))
	return err
}
