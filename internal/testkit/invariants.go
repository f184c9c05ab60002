package testkit

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	functionDef  = regexp.MustCompile(`function ([A-Za-z_$][A-Za-z0-9_$]*)\(`)
	generatedUse = regexp.MustCompile(`\b((?:fun|getter_fun|dispatch_internal|read_from_storage|update_storage_value|panic_error|round_up)_[A-Za-z0-9_$]*)\(`)
)

// CheckObjectInvariants runs a minimal set of invariants on generated Yul:
// 1) braces are balanced and never close more than was opened
// 2) every code block defines each function at most once
// 3) every generated helper called in a code block is defined in that block
func CheckObjectInvariants(yul string) error {
	depth := 0
	for i, r := range yul {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return fmt.Errorf("unbalanced '}' at byte %d", i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%d unclosed blocks", depth)
	}

	for i, block := range codeBlocks(yul) {
		defined := make(map[string]int)
		for _, m := range functionDef.FindAllStringSubmatch(block, -1) {
			defined[m[1]]++
		}
		for name, n := range defined {
			if n > 1 {
				return fmt.Errorf("code block %d: function %s defined %d times", i, name, n)
			}
		}
		for _, m := range generatedUse.FindAllStringSubmatch(block, -1) {
			if defined[m[1]] == 0 {
				return fmt.Errorf("code block %d: %s called but not defined", i, m[1])
			}
		}
	}
	return nil
}

// codeBlocks returns the text of every "code { ... }" block, nested objects excluded.
func codeBlocks(yul string) []string {
	var blocks []string
	rest := yul
	for {
		idx := strings.Index(rest, "code {")
		if idx < 0 {
			return blocks
		}
		start := idx + len("code {")
		depth := 1
		end := start
		for end < len(rest) && depth > 0 {
			switch rest[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		blocks = append(blocks, rest[start:end-1])
		rest = rest[end:]
	}
}
