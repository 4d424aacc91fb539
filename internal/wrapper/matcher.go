package wrapper

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFunctions are the scaffold function names recognised when none are configured.
var DefaultFunctions = []string{"body"}

// Matcher recognises the lines of a scaffolding construct that exists only to
// keep a chapter compilable.
type Matcher interface {
	// Fingerprint identifies the matcher configuration; it takes part in cache keys.
	Fingerprint() string
	IsOpener(line string) bool
	IsCloser(line string) bool
}

// PatternMatcher matches openers and closers with regular expressions.
type PatternMatcher struct {
	opener *regexp.Regexp
	closer *regexp.Regexp
}

// NewPatternMatcher compiles custom opener and closer patterns.
func NewPatternMatcher(opener, closer string) (*PatternMatcher, error) {
	op, err := regexp.Compile(opener)
	if err != nil {
		return nil, fmt.Errorf("invalid wrapper opener pattern: %w", err)
	}
	cl, err := regexp.Compile(closer)
	if err != nil {
		return nil, fmt.Errorf("invalid wrapper closer pattern: %w", err)
	}
	return &PatternMatcher{opener: op, closer: cl}, nil
}

// NewFuncMatcher matches `fn <name>() {` at column 0 (optionally `pub` or
// `pub(crate)`) and a lone `}` at column 0.
func NewFuncMatcher(names ...string) *PatternMatcher {
	if len(names) == 0 {
		names = DefaultFunctions
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	opener := `^(?:pub(?:\([^)]*\))?\s+)?fn\s+(?:` + strings.Join(quoted, "|") + `)\s*\(\s*\)\s*\{\s*$`
	return &PatternMatcher{
		opener: regexp.MustCompile(opener),
		closer: regexp.MustCompile(`^\}\s*$`),
	}
}

// NewMatcher returns the scaffold matcher for a language.
func NewMatcher(lang string, names []string) (Matcher, error) {
	switch lang {
	case "rust", "rs":
		return NewFuncMatcher(names...), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

func (m *PatternMatcher) Fingerprint() string {
	return m.opener.String() + "\x00" + m.closer.String()
}

func (m *PatternMatcher) IsOpener(line string) bool {
	return m.opener.MatchString(line)
}

func (m *PatternMatcher) IsCloser(line string) bool {
	return m.closer.MatchString(line)
}
