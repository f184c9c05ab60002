package settings

import (
	"fmt"
	"strings"
)

// RevertStrings controls how much revert reason text ends up in generated code.
type RevertStrings uint8

const (
	RevertDefault      RevertStrings = iota // keep user supplied reasons
	RevertStrip                             // drop all reasons
	RevertDebug                             // also add compiler generated reasons
	RevertVerboseDebug                      // debug plus failing expressions
)

// String returns the configuration spelling.
func (r RevertStrings) String() string {
	switch r {
	case RevertDefault:
		return "default"
	case RevertStrip:
		return "strip"
	case RevertDebug:
		return "debug"
	case RevertVerboseDebug:
		return "verboseDebug"
	default:
		return "unknown"
	}
}

// ParseRevertStrings converts a configuration value into RevertStrings.
func ParseRevertStrings(s string) (RevertStrings, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return RevertDefault, nil
	case "strip":
		return RevertStrip, nil
	case "debug":
		return RevertDebug, nil
	case "verbosedebug":
		return RevertVerboseDebug, nil
	default:
		return RevertDefault, fmt.Errorf("invalid revert strings: %q (expected: default|strip|debug|verboseDebug)", s)
	}
}

// IncludesDebugReasons reports whether compiler generated reasons are emitted.
func (r RevertStrings) IncludesDebugReasons() bool { return r >= RevertDebug }
