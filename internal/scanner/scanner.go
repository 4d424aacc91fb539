// Package scanner splits a Rust source file into classified lines.
//
// Every input line maps to exactly one ClassifiedLine, in order. Quoting
// state (strings, raw strings, nested block comments) is carried from line to
// line so that comment markers and braces inside literals are ignored.
package scanner

import (
	"strings"

	"illiterate/internal/diag"
	"illiterate/internal/wrapper"
)

// Tag is the class of a line.
type Tag int

const (
	Blank Tag = iota
	Prose
	Code
	Wrapper
)

func (t Tag) String() string {
	switch t {
	case Blank:
		return "blank"
	case Prose:
		return "prose"
	case Code:
		return "code"
	case Wrapper:
		return "wrapper"
	default:
		return "unknown"
	}
}

// Role distinguishes wrapper openers from closers.
type Role int

const (
	RoleNone Role = iota
	RoleOpen
	RoleClose
)

// SourceLine is one physical line of input.
type SourceLine struct {
	Text   string // without the line terminator
	EOL    string // "\n", "\r\n", or "" for an unterminated last line
	Index  int
	Indent int // leading whitespace width in bytes
}

// Raw returns the line exactly as it appeared in the input.
func (l SourceLine) Raw() string {
	return l.Text + l.EOL
}

// ClassifiedLine is a SourceLine with its class.
type ClassifiedLine struct {
	SourceLine
	Tag   Tag
	Role  Role
	Depth int // brace depth at the start of the line

	// Prefix and Suffix are the byte widths stripped from Prose lines:
	// indentation, comment marker and one following space, and the
	// block comment closer.
	Prefix int
	Suffix int
}

// Payload returns the text of a Prose line without its comment markers.
func (l ClassifiedLine) Payload() string {
	if l.Tag != Prose {
		return l.Text
	}
	end := len(l.Text) - l.Suffix
	if l.Prefix >= end {
		return ""
	}
	return l.Text[l.Prefix:end]
}

// Scan classifies every line of src. A nil matcher disables wrapper
// detection.
func Scan(src string, m wrapper.Matcher) ([]ClassifiedLine, error) {
	lines := splitLines(src)
	out := make([]ClassifiedLine, 0, len(lines))

	var st state
	depth := 0
	var open []int // brace depth inside each open wrapper

	for _, line := range lines {
		next, lx := lex(line.Text, st, line.Index)
		braces, closed := lx.braces, lx.closed

		cl := ClassifiedLine{SourceLine: line, Depth: depth}
		cl.Tag, cl.Prefix, cl.Suffix = classify(line, st, closed)

		if cl.Tag == Code && st.mode == modeCode && m != nil {
			// Matchers see the code without a trailing line comment.
			code := strings.TrimRight(line.Text[:lx.comment], " \t")
			switch {
			case m.IsOpener(code):
				cl.Tag, cl.Role = Wrapper, RoleOpen
				open = append(open, depth+braces)
			case m.IsCloser(code):
				if n := len(open); n > 0 && depth == open[n-1] {
					cl.Tag, cl.Role = Wrapper, RoleClose
					open = open[:n-1]
				} else if n == 0 && depth <= 0 {
					// Closes a scope opened before the file start.
					cl.Tag, cl.Role = Wrapper, RoleClose
				}
			}
		}

		if next.mode == modeComment && (st.mode != modeComment || closed >= 0) {
			next.prose = cl.Tag == Prose
			next.indent = line.Indent
		}

		out = append(out, cl)
		st = next
		depth += braces
	}

	if st.mode != modeCode {
		return nil, diag.Parse(st.line, "unterminated %s", st.mode)
	}
	return out, nil
}

// classify applies the per-line precedence: literal continuation, blank,
// prose, code. Wrapper
// detection is layered on top by Scan.
func classify(line SourceLine, st state, closed int) (Tag, int, int) {
	text := line.Text
	switch st.mode {
	case modeString, modeRawString:
		// Inside a literal every byte is content, whitespace included.
		return Code, 0, 0
	}
	if strings.TrimSpace(text) == "" {
		return Blank, 0, 0
	}

	switch st.mode {
	case modeComment:
		if !st.prose {
			return Code, 0, 0
		}
		prefix := min(line.Indent, st.indent)
		if closed < 0 {
			return Prose, prefix, 0
		}
		if strings.TrimSpace(text[closed:]) != "" {
			return Code, 0, 0
		}
		return Prose, prefix, closerSuffix(text, prefix, closed)
	}

	rest := text[line.Indent:]
	switch {
	case strings.HasPrefix(rest, "//"):
		if isDocLine(rest) {
			return Code, 0, 0
		}
		return Prose, markerPrefix(text, line.Indent+2), 0
	case strings.HasPrefix(rest, "/*"):
		if isDocBlock(rest) {
			return Code, 0, 0
		}
		prefix := markerPrefix(text, line.Indent+2)
		if closed < 0 {
			return Prose, prefix, 0
		}
		if strings.TrimSpace(text[closed:]) != "" {
			return Code, 0, 0
		}
		return Prose, prefix, closerSuffix(text, prefix, closed)
	}
	return Code, 0, 0
}

// markerPrefix extends a marker end offset by one following space.
func markerPrefix(text string, end int) int {
	if end < len(text) && text[end] == ' ' {
		return end + 1
	}
	return end
}

// closerSuffix returns the width of `*/`, the whitespace before it, and
// anything after it.
func closerSuffix(text string, prefix, closed int) int {
	end := closed - 2
	for end > prefix && (text[end-1] == ' ' || text[end-1] == '\t') {
		end--
	}
	if end < prefix {
		end = prefix
	}
	return len(text) - end
}

func isDocLine(rest string) bool {
	return strings.HasPrefix(rest, "//!") ||
		strings.HasPrefix(rest, "///") && !strings.HasPrefix(rest, "////")
}

func isDocBlock(rest string) bool {
	if strings.HasPrefix(rest, "/*!") {
		return true
	}
	return strings.HasPrefix(rest, "/**") &&
		!strings.HasPrefix(rest, "/***") &&
		!strings.HasPrefix(rest, "/**/")
}

func splitLines(src string) []SourceLine {
	var lines []SourceLine
	for i := 0; len(src) > 0; i++ {
		text, eol := src, ""
		if j := strings.IndexByte(src, '\n'); j >= 0 {
			text, eol = src[:j], "\n"
			src = src[j+1:]
		} else {
			src = ""
		}
		if eol != "" && strings.HasSuffix(text, "\r") {
			text, eol = text[:len(text)-1], "\r\n"
		}
		lines = append(lines, SourceLine{Text: text, EOL: eol, Index: i, Indent: indentWidth(text)})
	}
	return lines
}

func indentWidth(text string) int {
	n := 0
	for n < len(text) && (text[n] == ' ' || text[n] == '\t') {
		n++
	}
	return n
}
