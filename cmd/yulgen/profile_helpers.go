package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"yulgen/internal/prof"
)

// setupProfiling starts the profiles requested by --cpu-profile, --mem-profile
// and --runtime-trace. The returned stop writes them out.
func setupProfiling(cmd *cobra.Command) (func() error, error) {
	flags := cmd.Root().PersistentFlags()
	cpu, err := flags.GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	mem, err := flags.GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	exec, err := flags.GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	session, err := prof.Start(prof.Config{CPUPath: cpu, MemPath: mem, TracePath: exec})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiling: %w", err)
	}
	return session.Stop, nil
}
