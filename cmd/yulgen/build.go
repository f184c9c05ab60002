package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yulgen/internal/driver"
	"yulgen/internal/observ"
	"yulgen/internal/settings"
	"yulgen/internal/trace"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [flags] <unit.toml>",
		Short: "Generate Yul for every concrete contract of a unit",
		Args:  cobra.ExactArgs(1),
		RunE:  buildExecution,
	}
	addSettingsFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "write Yul to this file instead of stdout")
	cmd.Flags().Int("jobs", 0, "contracts generated in parallel (0 = GOMAXPROCS)")
	cmd.Flags().String("report", "", "write a msgpack build report to this file")
	return cmd
}

// buildPipeline runs configuration, loading and generation under one timer.
func buildPipeline(cmd *cobra.Command, unitPath string, jobs int, timer *observ.Timer) (*driver.BuildResult, error) {
	tracer := trace.FromContext(cmd.Context())

	var s settings.Settings
	if err := timer.Measure("config", func() error {
		var err error
		s, err = loadSettings(cmd, unitPath)
		return err
	}); err != nil {
		return nil, err
	}
	trace.Point(tracer, trace.ScopeDriver, "settings", fmt.Sprintf("evm=%s revert=%s", s.EVMVersion, s.RevertStrings), 0)

	var unit *driver.Unit
	if err := timer.Measure("load", func() error {
		var err error
		unit, err = driver.LoadUnit(unitPath)
		return err
	}); err != nil {
		return nil, err
	}

	return driver.Build(cmd.Context(), unit, driver.BuildOptions{
		Settings: s,
		Jobs:     jobs,
		Timer:    timer,
	})
}

func buildExecution(cmd *cobra.Command, args []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	reportPath, err := cmd.Flags().GetString("report")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	res, err := buildPipeline(cmd, args[0], jobs, timer)
	if err != nil {
		return err
	}

	yul := res.Yul()
	if err := timer.Measure("emit", func() error {
		if output == "" {
			_, werr := fmt.Fprint(cmd.OutOrStdout(), yul)
			return werr
		}
		if dir := filepath.Dir(output); dir != "." {
			if werr := os.MkdirAll(dir, 0o755); werr != nil {
				return werr
			}
		}
		return os.WriteFile(output, []byte(yul), 0o600)
	}); err != nil {
		return err
	}

	if reportPath != "" {
		report := driver.NewReport(res)
		if showTimings {
			report.AttachTimings(timer)
		}
		if err := driver.WriteReport(reportPath, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if !quiet && output != "" {
		names := make([]string, 0, len(res.Contracts))
		for _, c := range res.Contracts {
			if !c.Abstract {
				names = append(names, c.Name)
			}
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (%s)\n",
			color.GreenString("wrote"), output, strings.Join(names, ", "))
	}
	if showTimings {
		return timer.WriteSummary(cmd.ErrOrStderr())
	}
	return nil
}
