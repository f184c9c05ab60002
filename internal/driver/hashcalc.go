package driver

import (
	"crypto/sha256"
	"encoding/hex"

	"yulgen/internal/settings"
)

// Digest is a SHA-256 over the unit text.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func digestOf(data []byte) Digest {
	return sha256.Sum256(data)
}

// buildKey combines the unit digest with the settings that change the output.
// Reports carry it so stale ones can be told apart.
func buildKey(unit Digest, s settings.Settings) Digest {
	h := sha256.New()
	_, _ = h.Write(unit[:])
	_, _ = h.Write([]byte(s.EVMVersion.String()))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(s.RevertStrings.String()))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
