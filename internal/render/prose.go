package render

import (
	"strings"

	"illiterate/internal/grouper"
	"illiterate/internal/scanner"
)

// NormalizeProse turns a Prose run into Markdown. Lines are kept as written,
// heading lines included; only the recorded markers are removed. It reports
// false when the run has no text.
func NormalizeProse(run grouper.Run) (ProseBlock, bool) {
	lines := make([]string, 0, len(run.Lines))
	for _, l := range run.Lines {
		if l.Tag == scanner.Blank {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, l.Payload())
	}

	lines = trimBlankLines(lines)
	if len(lines) == 0 {
		return ProseBlock{}, false
	}
	return ProseBlock{Text: strings.Join(lines, "\n"), Start: run.Start()}, true
}

func trimBlankLines(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
