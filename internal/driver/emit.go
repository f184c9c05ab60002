package driver

import (
	"fmt"
	"strings"
)

// codeWriter builds indented Yul text.
type codeWriter struct {
	buf    strings.Builder
	indent int
}

func newCodeWriter() *codeWriter { return &codeWriter{} }

func (w *codeWriter) pad() {
	for range w.indent {
		w.buf.WriteString("    ")
	}
}

func (w *codeWriter) line(format string, args ...any) {
	w.pad()
	fmt.Fprintf(&w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *codeWriter) open(header string) {
	w.pad()
	w.buf.WriteString(header)
	w.buf.WriteString(" {\n")
	w.indent++
}

func (w *codeWriter) close() {
	if w.indent > 0 {
		w.indent--
	}
	w.pad()
	w.buf.WriteString("}\n")
}

// block re-indents pre-rendered code, such as collected function bodies.
func (w *codeWriter) block(code string) {
	if code == "" {
		return
	}
	for l := range strings.SplitSeq(strings.TrimRight(code, "\n"), "\n") {
		if l == "" {
			w.buf.WriteByte('\n')
			continue
		}
		w.pad()
		w.buf.WriteString(l)
		w.buf.WriteByte('\n')
	}
}

func (w *codeWriter) String() string { return w.buf.String() }
