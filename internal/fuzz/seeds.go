package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB — ограничение для тестового корпуса
	maxFuzzInput = maxSeedBytes
)

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	addSnippetSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "driver", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.toml файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func addSnippetSeeds(f *testing.F) {
	// добавляем хотя бы один минимальный пример на случай пустого testdata
	f.Add([]byte{})
	f.Add([]byte("[[contract]]\nname = \"A\"\n"))
	f.Add([]byte(`[[contract]]
name = "A"
[[contract.state]]
name = "x"
type = "uint8"
public = true
[[contract.function]]
name = "f"
visibility = "public"
returns = ["uint8"]
reads = ["x"]
`))
	f.Add([]byte(`[[contract]]
name = "A"
linearized = ["A", "B"]
[[contract]]
name = "B"
linearized = ["B", "A"]
`)) // inheritance cycle
	f.Add([]byte(`[[contract]]
name = "A"
[[contract.function]]
name = "f"
params = ["uint256"]
returns = ["uint256"]
[[contract.function.call]]
target = "A.f"
indirect = true
try = true
`)) // recursion through the dispatcher
	f.Add([]byte(`[[contract]]
name = "Mid"
[[contract.state]]
name = "m"
type = "uint256"
[[contract.function]]
name = "g"
returns = ["uint256"]
reads = ["m"]
[[contract]]
name = "Base"
linearized = ["Base", "Mid"]
[[contract.function]]
name = "f"
returns = ["uint256"]
[[contract.function.call]]
target = "Mid.g"
[[contract]]
name = "Derived"
linearized = ["Derived", "Base", "Mid"]
[[contract.function]]
name = "h"
visibility = "public"
[[contract.function.call]]
target = "Base.f"
`)) // state of an indirect base
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
