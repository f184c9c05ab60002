package settings

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Optimiser holds the optimiser switches. They are carried read-only through generation.
type Optimiser struct {
	Enabled bool
	Runs    uint
}

// Settings bundles the values that shape generated code.
type Settings struct {
	EVMVersion    EVMVersion
	RevertStrings RevertStrings
	Optimiser     Optimiser
}

// Default returns the settings used without a configuration file.
func Default() Settings {
	return Settings{
		EVMVersion:    DefaultEVMVersion,
		RevertStrings: RevertDefault,
		Optimiser:     Optimiser{Runs: 200},
	}
}

// ErrCompilerSectionMissing indicates that [compiler] is missing in a configuration file.
var ErrCompilerSectionMissing = errors.New("missing [compiler]")

type fileConfig struct {
	Compiler struct {
		EVMVersion    string `toml:"evm_version"`
		RevertStrings string `toml:"revert_strings"`
	} `toml:"compiler"`
	Optimizer struct {
		Enabled bool `toml:"enabled"`
		Runs    int  `toml:"runs"`
	} `toml:"optimizer"`
}

// Load parses a yulgen.toml file. Keys that are absent keep their defaults.
func Load(path string) (Settings, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return fromConfig(path, meta, cfg)
}

// Parse decodes configuration from TOML text.
func Parse(data string) (Settings, error) {
	var cfg fileConfig
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return fromConfig("<inline>", meta, cfg)
}

func fromConfig(path string, meta toml.MetaData, cfg fileConfig) (Settings, error) {
	if !meta.IsDefined("compiler") {
		return Settings{}, fmt.Errorf("%s: %w", path, ErrCompilerSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	out := Default()
	if meta.IsDefined("compiler", "evm_version") {
		v, err := ParseEVMVersion(cfg.Compiler.EVMVersion)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", path, err)
		}
		out.EVMVersion = v
	}
	if meta.IsDefined("compiler", "revert_strings") {
		r, err := ParseRevertStrings(cfg.Compiler.RevertStrings)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", path, err)
		}
		out.RevertStrings = r
	}
	if meta.IsDefined("optimizer", "enabled") {
		out.Optimiser.Enabled = cfg.Optimizer.Enabled
	}
	if meta.IsDefined("optimizer", "runs") {
		if cfg.Optimizer.Runs < 0 {
			return Settings{}, fmt.Errorf("%s: [optimizer].runs must not be negative", path)
		}
		out.Optimiser.Runs = uint(cfg.Optimizer.Runs)
	}
	return out, nil
}
