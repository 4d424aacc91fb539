package render

import (
	"strings"
)

// Block is one unit of the rendered document.
type Block interface {
	Markdown() string
}

// ProseBlock holds Markdown text with comment markers removed.
type ProseBlock struct {
	Text  string
	Start int // first source line
}

func (b ProseBlock) Markdown() string {
	return b.Text
}

// CodeBlock holds dedented code for a fenced sample.
type CodeBlock struct {
	Code      string
	Language  string
	Qualifier string
	Start     int // first source line
}

// Info returns the fence info string, e.g. "rust,ignore".
func (b CodeBlock) Info() string {
	switch {
	case b.Qualifier == "":
		return b.Language
	case b.Language == "":
		return b.Qualifier
	default:
		return b.Language + "," + b.Qualifier
	}
}

func (b CodeBlock) Markdown() string {
	fence := strings.Repeat("`", max(3, longestBacktickRun(b.Code)+1))
	return fence + b.Info() + "\n" + b.Code + "\n" + fence
}

func longestBacktickRun(s string) int {
	longest, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			cur++
			longest = max(longest, cur)
		} else {
			cur = 0
		}
	}
	return longest
}

// Assemble joins blocks with one blank line between them and ends the
// document with exactly one newline. An empty sequence yields "".
func Assemble(blocks []Block) string {
	if len(blocks) == 0 {
		return ""
	}
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = strings.TrimRight(b.Markdown(), "\n")
	}
	return strings.Join(parts, "\n\n") + "\n"
}
