package syntax

import (
	"context"
	"fmt"
	"strings"

	"illiterate/internal/diag"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

// Validator rejects source files that tree-sitter cannot parse cleanly.
type Validator struct {
	lang *sitter.Language
	name string
}

// NewValidator creates a validator for a given language.
func NewValidator(lang string) (*Validator, error) {
	switch lang {
	case "rust", "rs":
		return &Validator{lang: rust.GetLanguage(), name: "rust"}, nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// Validate parses src and returns a ParseError at the first ERROR or MISSING
// node.
func (v *Validator) Validate(ctx context.Context, src []byte) error {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(v.lang)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("failed to parse %s source: %w", v.name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}
	bad := firstError(root)
	if bad == nil {
		return diag.Parse(0, "invalid %s syntax", v.name)
	}
	line := int(bad.StartPoint().Row)
	if bad.IsMissing() {
		return diag.Parse(line, "invalid %s syntax: missing %s", v.name, bad.Type())
	}
	return diag.Parse(line, "invalid %s syntax near %q", v.name, snippet(bad.Content(src)))
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if found := firstError(child); found != nil {
			return found
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return s
}
