package scanner

import (
	"strings"
	"unicode/utf8"
)

type mode int

const (
	modeCode mode = iota
	modeString
	modeRawString
	modeComment
)

func (m mode) String() string {
	switch m {
	case modeString:
		return "string literal"
	case modeRawString:
		return "raw string literal"
	case modeComment:
		return "block comment"
	default:
		return "code"
	}
}

// state is the quoting state carried from one line to the next.
type state struct {
	mode   mode
	hashes int  // `#` count of the open raw string
	depth  int  // block comment nesting
	prose  bool // the open block comment started on a Prose line
	indent int  // indent of the line that opened the block comment
	line   int  // line where the open literal or comment started
}

// lexed is what lex learns about one line.
type lexed struct {
	braces  int // net brace delta outside literals and comments
	closed  int // offset just past the `*/` that ended the open block comment, or -1
	comment int // offset of a trailing `//` comment in code, or len(text)
}

// lex walks one line from st and returns the state at the end of the line.
func lex(text string, st state, index int) (state, lexed) {
	braces, closed := 0, -1
	i := 0
	for i < len(text) {
		c := text[i]
		switch st.mode {
		case modeComment:
			switch {
			case strings.HasPrefix(text[i:], "/*"):
				st.depth++
				i += 2
			case strings.HasPrefix(text[i:], "*/"):
				st.depth--
				i += 2
				if st.depth == 0 {
					st.mode = modeCode
					if closed < 0 {
						closed = i
					}
				}
			default:
				i++
			}
		case modeString:
			switch c {
			case '\\':
				i += 2
			case '"':
				st.mode = modeCode
				i++
			default:
				i++
			}
		case modeRawString:
			if c == '"' && hasHashes(text[i+1:], st.hashes) {
				st.mode = modeCode
				i += 1 + st.hashes
				continue
			}
			i++
		default:
			switch {
			case strings.HasPrefix(text[i:], "//"):
				return st, lexed{braces: braces, closed: closed, comment: i}
			case strings.HasPrefix(text[i:], "/*"):
				st = state{mode: modeComment, depth: 1, line: index}
				i += 2
			case c == '"':
				st = state{mode: modeString, line: index}
				i++
			case c == 'r' && rawStringHashes(text, i) >= 0:
				n := rawStringHashes(text, i)
				st = state{mode: modeRawString, hashes: n, line: index}
				i += 2 + n
			case c == '\'':
				i = skipCharLiteral(text, i)
			case c == '{':
				braces++
				i++
			case c == '}':
				braces--
				i++
			default:
				i++
			}
		}
	}
	return st, lexed{braces: braces, closed: closed, comment: len(text)}
}

// rawStringHashes reports the delimiter width of a raw string starting with
// the `r` at i, or -1 if there is none (identifiers and raw identifiers).
func rawStringHashes(text string, i int) int {
	if i > 0 && isIdent(text[i-1]) {
		// br"..." is a raw byte string; any other identifier prefix is not.
		if text[i-1] != 'b' || (i > 1 && isIdent(text[i-2])) {
			return -1
		}
	}
	n := 0
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '#':
			n++
		case '"':
			return n
		default:
			return -1
		}
	}
	return -1
}

func hasHashes(s string, n int) bool {
	if len(s) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if s[i] != '#' {
			return false
		}
	}
	return true
}

// skipCharLiteral returns the offset after the char literal opened at i, or
// i+1 when the quote starts a lifetime or label.
func skipCharLiteral(text string, i int) int {
	if i+1 >= len(text) {
		return i + 1
	}
	if text[i+1] == '\\' {
		if i+3 > len(text) {
			return i + 1
		}
		if j := strings.IndexByte(text[i+3:], '\''); j >= 0 {
			return i + 3 + j + 1
		}
		return i + 1
	}
	_, size := utf8.DecodeRuneInString(text[i+1:])
	if end := i + 1 + size; end < len(text) && text[end] == '\'' {
		return end + 1
	}
	return i + 1
}

func isIdent(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}
