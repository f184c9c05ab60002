package irgen

import (
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

type namePurpose uint8

const (
	purposeFunction namePurpose = iota + 1
	purposeGetter
	purposeLocal
	purposeTrySuccess
	purposeDispatch
)

type nameKey struct {
	purpose namePurpose
	a, b    uint32
}

// names is the name table of one generation context. A key maps to exactly one
// name and no two keys share a name.
type names struct {
	table      map[nameKey]string
	owners     map[string]nameKey
	varCounter uint64
}

func newNames() *names {
	return &names{
		table:  make(map[nameKey]string),
		owners: make(map[string]nameKey),
	}
}

// newYulVariable returns _1, _2, ...
func (n *names) newYulVariable() string {
	n.varCounter++
	return "_" + strconv.FormatUint(n.varCounter, 10)
}

func (n *names) lookup(key nameKey) (string, bool) {
	name, ok := n.table[key]
	return name, ok
}

// assign returns the name of key, deriving it from base on first use.
// A base that is already owned by another key gets a numeric suffix.
func (n *names) assign(key nameKey, base string) string {
	if name, ok := n.table[key]; ok {
		return name
	}
	name := base
	for i := 1; ; i++ {
		if _, taken := n.owners[name]; !taken {
			break
		}
		name = base + "_" + strconv.Itoa(i)
	}
	n.table[key] = name
	n.owners[name] = key
	return name
}

func (n *names) size() int { return len(n.table) }

func derivedName(prefix, source string, id uint32) string {
	return prefix + sanitizeIdentifier(source) + "_" + strconv.FormatUint(uint64(id), 10)
}

// sanitizeIdentifier NFC-normalises a source name and replaces every rune
// that is not valid inside an IR identifier.
func sanitizeIdentifier(name string) string {
	name = norm.NFC.String(name)
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '$':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
