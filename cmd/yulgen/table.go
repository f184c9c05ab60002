package main

import (
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// writeTable prints rows in columns aligned by display width, so source
// names with wide runes keep the layout intact.
func writeTable(w io.Writer, indent string, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	bold := color.New(color.Bold)
	var sb strings.Builder
	writeRow := func(cells []string, styled bool) {
		sb.WriteString(indent)
		for i, cell := range cells {
			last := i == len(cells)-1
			text := cell
			if !last {
				text = runewidth.FillRight(cell, widths[i])
			}
			if styled {
				text = bold.Sprint(text)
			}
			sb.WriteString(text)
			if !last {
				sb.WriteString("  ")
			}
		}
		sb.WriteByte('\n')
	}
	writeRow(header, true)
	for _, row := range rows {
		writeRow(row, false)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
