package yulutil

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Selector returns the first four bytes of keccak256(signature).
func Selector(signature string) [4]byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write([]byte(signature))
	sum := h.Sum(nil)
	var out [4]byte
	copy(out[:], sum[:4])
	return out
}

// SelectorWord returns the selector of signature left-aligned in a 256-bit word, as hex.
func SelectorWord(signature string) string {
	sel := Selector(signature)
	word := new(uint256.Int).SetBytes(sel[:])
	word.Lsh(word, 224)
	return word.Hex()
}

// lowMask returns (1 << 8*bytes) - 1 as hex. bytes must be below 32.
func lowMask(bytes uint8) *uint256.Int {
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bytes)*8)
	return mask.Sub(mask, uint256.NewInt(1))
}

// pow2 returns 2^bits.
func pow2(bits uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), bits)
}

// formatAsStringOrNumber renders at most 32 bytes either as a quoted literal
// or, when the text is not safely printable, as the left-aligned numeric word.
func formatAsStringOrNumber(value string) string {
	if value == "" {
		return "0"
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c <= 0x1f || c >= 0x7f || c == '"' || c == '\\' {
			var word [32]byte
			copy(word[:], value)
			return new(uint256.Int).SetBytes32(word[:]).Hex()
		}
	}
	return "\"" + value + "\""
}
