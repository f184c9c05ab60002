package settings

import (
	"fmt"
	"strings"
)

// EVMVersion selects the target machine revision. Later revisions compare greater.
type EVMVersion uint8

const (
	Homestead EVMVersion = iota + 1
	TangerineWhistle
	SpuriousDragon
	Byzantium
	Constantinople
	Petersburg
	Istanbul
	Berlin
	London
	Paris
	Shanghai
	Cancun
	Prague
)

// DefaultEVMVersion is used when no version is configured.
const DefaultEVMVersion = Cancun

var evmVersionNames = [...]string{
	Homestead:        "homestead",
	TangerineWhistle: "tangerineWhistle",
	SpuriousDragon:   "spuriousDragon",
	Byzantium:        "byzantium",
	Constantinople:   "constantinople",
	Petersburg:       "petersburg",
	Istanbul:         "istanbul",
	Berlin:           "berlin",
	London:           "london",
	Paris:            "paris",
	Shanghai:         "shanghai",
	Cancun:           "cancun",
	Prague:           "prague",
}

// String returns the canonical name of the version.
func (v EVMVersion) String() string {
	if int(v) < len(evmVersionNames) && evmVersionNames[v] != "" {
		return evmVersionNames[v]
	}
	return "unknown"
}

// ParseEVMVersion converts a version name (case-insensitive) to an EVMVersion.
func ParseEVMVersion(s string) (EVMVersion, error) {
	name := strings.TrimSpace(s)
	for v, candidate := range evmVersionNames {
		if candidate != "" && strings.EqualFold(candidate, name) {
			return EVMVersion(v), nil //nolint:gosec // index of a fixed table
		}
	}
	return 0, fmt.Errorf("invalid evm version: %q", s)
}

// HasStaticCall reports support for STATICCALL.
func (v EVMVersion) HasStaticCall() bool { return v >= Byzantium }

// HasBitwiseShifting reports support for SHL/SHR/SAR.
func (v EVMVersion) HasBitwiseShifting() bool { return v >= Constantinople }

// HasCreate2 reports support for CREATE2.
func (v EVMVersion) HasCreate2() bool { return v >= Constantinople }

// HasChainID reports support for CHAINID.
func (v EVMVersion) HasChainID() bool { return v >= Istanbul }

// HasSelfBalance reports support for SELFBALANCE.
func (v EVMVersion) HasSelfBalance() bool { return v >= Istanbul }

// HasBaseFee reports support for BASEFEE.
func (v EVMVersion) HasBaseFee() bool { return v >= London }

// HasPrevRandao reports whether DIFFICULTY was replaced by PREVRANDAO.
func (v EVMVersion) HasPrevRandao() bool { return v >= Paris }

// HasPush0 reports support for PUSH0.
func (v EVMVersion) HasPush0() bool { return v >= Shanghai }

// HasMcopy reports support for MCOPY.
func (v EVMVersion) HasMcopy() bool { return v >= Cancun }

// SupportsTransientStorage reports support for TLOAD/TSTORE.
func (v EVMVersion) SupportsTransientStorage() bool { return v >= Cancun }
