package grouper

import (
	"strings"

	"illiterate/internal/scanner"
)

// Run is a maximal contiguous sequence of same-tag lines. Blank lines are
// attached to a neighbouring run, never left on their own.
type Run struct {
	Tag   scanner.Tag
	Lines []scanner.ClassifiedLine
}

// Start is the index of the first line of the run.
func (r Run) Start() int {
	if len(r.Lines) == 0 {
		return 0
	}
	return r.Lines[0].Index
}

// End is the index one past the last line of the run.
func (r Run) End() int {
	if len(r.Lines) == 0 {
		return 0
	}
	return r.Lines[len(r.Lines)-1].Index + 1
}

// Text returns the exact source span covered by the run.
func (r Run) Text() string {
	var sb strings.Builder
	for _, l := range r.Lines {
		sb.WriteString(l.Raw())
	}
	return sb.String()
}

// Group coalesces classified lines into runs.
//
// Blank lines join the run before them; blank lines at the start of the file
// join the first run. A Prose or Code stretch separated from the previous run
// of the same tag only by blank lines is merged into it, so the blank lines
// become paragraph breaks or vertical whitespace inside one run.
func Group(lines []scanner.ClassifiedLine) []Run {
	var runs []Run
	var leading []scanner.ClassifiedLine

	for _, l := range lines {
		if l.Tag == scanner.Blank {
			if len(runs) == 0 {
				leading = append(leading, l)
				continue
			}
			last := &runs[len(runs)-1]
			last.Lines = append(last.Lines, l)
			continue
		}

		if n := len(runs); n > 0 && runs[n-1].Tag == l.Tag {
			runs[n-1].Lines = append(runs[n-1].Lines, l)
			continue
		}

		run := Run{Tag: l.Tag}
		if len(leading) > 0 {
			run.Lines = append(run.Lines, leading...)
			leading = nil
		}
		run.Lines = append(run.Lines, l)
		runs = append(runs, run)
	}

	if len(leading) > 0 {
		// A file of blank lines only.
		runs = append(runs, Run{Tag: scanner.Blank, Lines: leading})
	}
	return runs
}
