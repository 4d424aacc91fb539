package grouper

import (
	"strings"
	"testing"

	"illiterate/internal/scanner"
	"illiterate/internal/wrapper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(t *testing.T, src string) []Run {
	t.Helper()
	lines, err := scanner.Scan(src, wrapper.NewFuncMatcher())
	require.NoError(t, err)
	return Group(lines)
}

func runTags(runs []Run) []scanner.Tag {
	out := make([]scanner.Tag, len(runs))
	for i, r := range runs {
		out[i] = r.Tag
	}
	return out
}

func TestGroup_Partition(t *testing.T) {
	inputs := []string{
		"",
		"\n\n",
		"\n// a\n\nlet x = 1;\n\n\n// b\n",
		"fn body() {\n    // # T\n\n    // p\n    x();\n\n    y();\n}\n",
		"no trailing newline",
	}
	for _, src := range inputs {
		runs := group(t, src)
		var sb strings.Builder
		next := 0
		for _, r := range runs {
			assert.Equal(t, next, r.Start(), "runs must be contiguous")
			next = r.End()
			sb.WriteString(r.Text())
		}
		assert.Equal(t, src, sb.String())
	}
}

func TestGroup_MergeRules(t *testing.T) {
	t.Run("Prose separated by blanks merges", func(t *testing.T) {
		runs := group(t, "// a\n\n// b\n")
		require.Len(t, runs, 1)
		assert.Equal(t, scanner.Prose, runs[0].Tag)
		assert.Len(t, runs[0].Lines, 3)
	})

	t.Run("Code keeps vertical whitespace", func(t *testing.T) {
		runs := group(t, "a();\n\nb();\n")
		require.Len(t, runs, 1)
		assert.Equal(t, scanner.Code, runs[0].Tag)
		assert.Equal(t, scanner.Blank, runs[0].Lines[1].Tag)
	})

	t.Run("Blank between prose and code joins prose", func(t *testing.T) {
		runs := group(t, "// a\n\nb();\n")
		assert.Equal(t, []scanner.Tag{scanner.Prose, scanner.Code}, runTags(runs))
		assert.Len(t, runs[0].Lines, 2)
		assert.Len(t, runs[1].Lines, 1)
	})

	t.Run("Blank between code and prose joins code", func(t *testing.T) {
		runs := group(t, "b();\n\n// a\n")
		assert.Equal(t, []scanner.Tag{scanner.Code, scanner.Prose}, runTags(runs))
		assert.Len(t, runs[0].Lines, 2)
	})

	t.Run("Leading blanks join the first run", func(t *testing.T) {
		runs := group(t, "\n\n// a\n")
		require.Len(t, runs, 1)
		assert.Equal(t, 0, runs[0].Start())
		assert.Len(t, runs[0].Lines, 3)
	})

	t.Run("Alternating", func(t *testing.T) {
		runs := group(t, "fn body() {\n    // a\n    x();\n    // b\n    y();\n}\n")
		assert.Equal(t, []scanner.Tag{
			scanner.Wrapper, scanner.Prose, scanner.Code, scanner.Prose, scanner.Code, scanner.Wrapper,
		}, runTags(runs))
	})

	t.Run("Only blanks", func(t *testing.T) {
		runs := group(t, "\n \n")
		require.Len(t, runs, 1)
		assert.Equal(t, scanner.Blank, runs[0].Tag)
	})
}
