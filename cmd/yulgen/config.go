package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"yulgen/internal/settings"
)

const defaultConfigName = "yulgen.toml"

// addSettingsFlags registers the flags shared by build and plan.
func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "project configuration (default: yulgen.toml next to the unit, if present)")
	cmd.Flags().String("evm-version", "", "override [compiler] evm_version")
	cmd.Flags().String("revert-strings", "", "override [compiler] revert_strings (default|strip|debug|verboseDebug)")
}

// loadSettings resolves the configuration for unitPath: an explicit --config,
// else yulgen.toml beside the unit, else defaults. Flags override the file.
func loadSettings(cmd *cobra.Command, unitPath string) (settings.Settings, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return settings.Settings{}, err
	}

	s := settings.Default()
	switch {
	case configPath != "":
		if s, err = settings.Load(configPath); err != nil {
			return settings.Settings{}, err
		}
	default:
		candidate := filepath.Join(filepath.Dir(unitPath), defaultConfigName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			if s, err = settings.Load(candidate); err != nil {
				return settings.Settings{}, err
			}
		} else if !errors.Is(statErr, os.ErrNotExist) {
			return settings.Settings{}, statErr
		}
	}

	evm, err := cmd.Flags().GetString("evm-version")
	if err != nil {
		return settings.Settings{}, err
	}
	if evm != "" {
		if s.EVMVersion, err = settings.ParseEVMVersion(evm); err != nil {
			return settings.Settings{}, fmt.Errorf("--evm-version: %w", err)
		}
	}
	revert, err := cmd.Flags().GetString("revert-strings")
	if err != nil {
		return settings.Settings{}, err
	}
	if revert != "" {
		if s.RevertStrings, err = settings.ParseRevertStrings(revert); err != nil {
			return settings.Settings{}, fmt.Errorf("--revert-strings: %w", err)
		}
	}
	return s, nil
}
