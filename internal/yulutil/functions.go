// Package yulutil is the front-end for requesting shared utility functions.
// Every front-end created over the same collector shares its deduplication ledger.
package yulutil

import (
	"fmt"
	"strings"

	"yulgen/internal/settings"
	"yulgen/internal/yulfuncs"
)

// PanicCode is the numeric code passed to Panic(uint256).
type PanicCode uint8

const (
	PanicGeneric          PanicCode = 0x00
	PanicAssert           PanicCode = 0x01
	PanicUnderOverflow    PanicCode = 0x11
	PanicDivisionByZero   PanicCode = 0x12
	PanicEnumConversion   PanicCode = 0x21
	PanicStorageEncoding  PanicCode = 0x22
	PanicEmptyArrayPop    PanicCode = 0x31
	PanicArrayOutOfBounds PanicCode = 0x32
	PanicResourceError    PanicCode = 0x41
	PanicInvalidInternal  PanicCode = 0x51
)

// Functions requests utility functions from a shared collector.
type Functions struct {
	evmVersion    settings.EVMVersion
	revertStrings settings.RevertStrings
	collector     *yulfuncs.Collector
}

// New creates a front-end over collector.
func New(evmVersion settings.EVMVersion, revertStrings settings.RevertStrings, collector *yulfuncs.Collector) Functions {
	return Functions{evmVersion: evmVersion, revertStrings: revertStrings, collector: collector}
}

// Collector returns the backing ledger.
func (f Functions) Collector() *yulfuncs.Collector { return f.collector }

func (f Functions) create(name string, body func() string) string {
	out, err := f.collector.CreateFunction(name, func() (string, error) { return body(), nil })
	if err != nil {
		panic(fmt.Errorf("utility function %s: %w", name, err))
	}
	return out
}

// RoundUpFunction rounds a value up to a multiple of 32.
func (f Functions) RoundUpFunction() string {
	name := "round_up_to_mul_of_32"
	return f.create(name, func() string {
		return "function " + name + "(value) -> result {\n" +
			"    result := and(add(value, 31), not(31))\n" +
			"}\n"
	})
}

// PanicErrorFunction reverts with Panic(code).
func (f Functions) PanicErrorFunction(code PanicCode) string {
	name := fmt.Sprintf("panic_error_0x%02x", uint8(code))
	return f.create(name, func() string {
		var sb strings.Builder
		fmt.Fprintf(&sb, "function %s() {\n", name)
		fmt.Fprintf(&sb, "    mstore(0, %s)\n", SelectorWord("Panic(uint256)"))
		fmt.Fprintf(&sb, "    mstore(4, 0x%02x)\n", uint8(code))
		sb.WriteString("    revert(0, 0x24)\n")
		sb.WriteString("}\n")
		return sb.String()
	})
}

// ReadFromStorage loads a value of size bytes stored at byte offset inside a slot.
func (f Functions) ReadFromStorage(offset, size uint8) string {
	name := fmt.Sprintf("read_from_storage_offset_%d_size_%d", offset, size)
	return f.create(name, func() string {
		value := f.shiftRight("sload(slot)", uint(offset)*8)
		if size < 32 {
			value = fmt.Sprintf("and(%s, %s)", value, lowMask(size).Hex())
		}
		return fmt.Sprintf("function %s(slot) -> value {\n    value := %s\n}\n", name, value)
	})
}

// UpdateStorageValue stores a value of size bytes at byte offset inside a slot,
// preserving the other bytes of the slot.
func (f Functions) UpdateStorageValue(offset, size uint8) string {
	name := fmt.Sprintf("update_storage_value_offset_%d_size_%d", offset, size)
	return f.create(name, func() string {
		if offset == 0 && size == 32 {
			return fmt.Sprintf("function %s(slot, value) {\n    sstore(slot, value)\n}\n", name)
		}
		bits := uint(offset) * 8
		mask := lowMask(size)
		shiftedMask := f.shiftLeft(mask.Hex(), bits)
		shiftedValue := f.shiftLeft(fmt.Sprintf("and(value, %s)", mask.Hex()), bits)
		return fmt.Sprintf(
			"function %s(slot, value) {\n    sstore(slot, or(and(sload(slot), not(%s)), %s))\n}\n",
			name, shiftedMask, shiftedValue,
		)
	})
}

// RevertReasonIfDebug returns RevertReasonIfDebug for the configured verbosity.
func (f Functions) RevertReasonIfDebug(message string) string {
	return RevertReasonIfDebug(f.revertStrings, message)
}

func (f Functions) shiftLeft(value string, bits uint) string {
	if bits == 0 {
		return value
	}
	if f.evmVersion.HasBitwiseShifting() {
		return fmt.Sprintf("shl(%d, %s)", bits, value)
	}
	return fmt.Sprintf("mul(%s, %s)", value, pow2(bits).Hex())
}

func (f Functions) shiftRight(value string, bits uint) string {
	if bits == 0 {
		return value
	}
	if f.evmVersion.HasBitwiseShifting() {
		return fmt.Sprintf("shr(%d, %s)", bits, value)
	}
	return fmt.Sprintf("div(%s, %s)", value, pow2(bits).Hex())
}

// RevertReasonIfDebug returns a block reverting with Error(message) when the
// verbosity includes debug reasons and message is non-empty, and "" otherwise.
func RevertReasonIfDebug(revertStrings settings.RevertStrings, message string) string {
	if !revertStrings.IncludesDebugReasons() || message == "" {
		return ""
	}
	words := (len(message) + 31) / 32

	var sb strings.Builder
	sb.WriteString("{\n")
	fmt.Fprintf(&sb, "    mstore(0, %s)\n", SelectorWord("Error(string)"))
	sb.WriteString("    mstore(4, 0x20)\n")
	fmt.Fprintf(&sb, "    mstore(add(4, 0x20), %d)\n", len(message))
	sb.WriteString("    let reasonPos := add(4, 0x40)\n")
	for i := 0; i < words; i++ {
		end := min((i+1)*32, len(message))
		fmt.Fprintf(&sb, "    mstore(add(reasonPos, %d), %s)\n", i*32, formatAsStringOrNumber(message[i*32:end]))
	}
	fmt.Fprintf(&sb, "    revert(0, add(reasonPos, %d))\n", words*32)
	sb.WriteString("}\n")
	return sb.String()
}
