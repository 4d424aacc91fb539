package render

import (
	"strings"

	"illiterate/internal/grouper"
	"illiterate/internal/scanner"
)

// EmitCode dedents a Code run to column zero. Blank lines at either end are
// not part of the sample; blank lines inside it are kept empty. It reports
// false when nothing is left.
func EmitCode(run grouper.Run, language, qualifier string) (CodeBlock, bool) {
	first, last := -1, -1
	for i, l := range run.Lines {
		if l.Tag != scanner.Blank {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return CodeBlock{}, false
	}
	body := run.Lines[first : last+1]

	// Whitespace-only lines (inside a multi-line literal) do not set the baseline.
	indent := -1
	for _, l := range body {
		if isBlank(l.Text) {
			continue
		}
		if indent < 0 || l.Indent < indent {
			indent = l.Indent
		}
	}
	indent = max(indent, 0)

	lines := make([]string, len(body))
	for i, l := range body {
		if l.Tag == scanner.Blank {
			continue
		}
		lines[i] = l.Text[min(indent, len(l.Text)):]
	}
	return CodeBlock{
		Code:      strings.Join(lines, "\n"),
		Language:  language,
		Qualifier: qualifier,
		Start:     body[0].Index,
	}, true
}
