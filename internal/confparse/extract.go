package confparse

import (
	"regexp"
	"strings"
)

// Definition describes how block instances are carved out of a line sequence.
// All patterns are pre-compiled by the caller so that a malformed pattern is
// reported once per check instead of failing deep inside extraction.
type Definition struct {
	Start        *regexp.Regexp
	End          *regexp.Regexp // optional; overrides indentation-based closing
	EndInclusive bool           // include the matching end line in the body
	Include      *regexp.Regexp // optional; start line must also match
	Exclude      *regexp.Regexp // optional; start line must not match
}

// Block is one instance of a Definition match: an identity-bearing,
// contiguous region of configuration text. Immutable after extraction.
type Block struct {
	Identity   string   // capture groups joined, or the trimmed header text
	Captures   []string // capture groups from the start line
	HeaderText string   // trimmed start line
	StartLine  int      // 1-based line number of the start line
	EndLine    int      // 1-based line number of the last body line
	Indent     int      // indentation of the start line
	Body       []Line   // ordered body lines, excluding the start line

	// EndUnmatched is set when an end pattern was given but never matched
	// before the input ran out; the block closed at the end instead.
	EndUnmatched bool
}

// Extract partitions lines into blocks per the definition, top to bottom.
//
// A line opens a block when it matches Start (and passes the filters). The
// body then extends to the first line at or below the start line's
// indentation, or to the End pattern when one is given. Scanning resumes at
// the line that closed the block, so a start pattern matching inside another
// block's body never opens a sibling at the same scope. Nested definitions
// are applied to a parent block's body, which keeps every child's line range
// strictly inside its parent's.
func Extract(lines []Line, def Definition) []Block {
	var blocks []Block

	i := 0
	for i < len(lines) {
		m := MatchLine(def.Start, lines[i].Text)
		if !m.Matched ||
			(def.Include != nil && !def.Include.MatchString(lines[i].Text)) ||
			(def.Exclude != nil && def.Exclude.MatchString(lines[i].Text)) {
			i++
			continue
		}

		block := Block{
			Captures:   m.Captures,
			HeaderText: strings.TrimSpace(lines[i].Text),
			StartLine:  lines[i].Number,
			Indent:     indentOf(lines[i].Text),
		}

		j := i + 1
		if def.End != nil {
			ended := false
			for ; j < len(lines); j++ {
				if def.End.MatchString(lines[j].Text) {
					ended = true
					if def.EndInclusive {
						block.Body = append(block.Body, lines[j])
						j++
					}
					break
				}
				block.Body = append(block.Body, lines[j])
			}
			block.EndUnmatched = !ended
		} else {
			for ; j < len(lines); j++ {
				if isBlank(lines[j].Text) {
					block.Body = append(block.Body, lines[j])
					continue
				}
				if indentOf(lines[j].Text) <= block.Indent {
					break
				}
				block.Body = append(block.Body, lines[j])
			}
		}

		block.EndLine = block.StartLine
		if n := len(block.Body); n > 0 {
			block.EndLine = block.Body[n-1].Number
		}
		block.Identity = identityOf(m.Captures, block.HeaderText)

		blocks = append(blocks, block)
		i = j
	}

	return blocks
}

// identityOf derives a block's identity from its start-line captures,
// falling back to the header text when the pattern captures nothing.
func identityOf(captures []string, header string) string {
	var parts []string
	for _, c := range captures {
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return header
	}
	return strings.Join(parts, "/")
}

// MatchingLines returns the body lines matching the pattern.
func (b *Block) MatchingLines(re *regexp.Regexp) []Line {
	var matched []Line
	for _, line := range b.Body {
		if re.MatchString(line.Text) {
			matched = append(matched, line)
		}
	}
	return matched
}

// FirstCapture returns the first capture group's value from the first body
// line matching the pattern, with ok reporting whether any line matched.
func (b *Block) FirstCapture(re *regexp.Regexp) (value string, line int, ok bool) {
	for _, l := range b.Body {
		m := re.FindStringSubmatch(l.Text)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			return m[1], l.Number, true
		}
		return "", l.Number, true
	}
	return "", 0, false
}
