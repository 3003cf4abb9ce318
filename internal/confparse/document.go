// Package confparse partitions semi-structured, indentation-delimited
// configuration text (IOS-style stanzas) into blocks that compliance checks
// evaluate. It understands indentation and regex matching only; it has no
// knowledge of vendor command semantics.
package confparse

import "strings"

// Line is one line of configuration text with its 1-based position.
type Line struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Document is an ordered, immutable sequence of configuration lines.
type Document struct {
	Name  string
	Lines []Line
}

// NewDocument splits raw configuration text into numbered lines.
// Name identifies the source (device name or file path) in findings.
func NewDocument(name, text string) *Document {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]Line, len(raw))
	for i, t := range raw {
		lines[i] = Line{Number: i + 1, Text: t}
	}
	return &Document{Name: name, Lines: lines}
}

// Len returns the number of lines.
func (d *Document) Len() int {
	return len(d.Lines)
}

// indentOf counts leading whitespace characters. Device configs indent with
// single spaces; tabs are counted the same as one column.
func indentOf(s string) int {
	for i, r := range s {
		if r != ' ' && r != '\t' {
			return i
		}
	}
	return len(s)
}

// isBlank reports whether a line holds no content. Blank lines never
// terminate a block.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
