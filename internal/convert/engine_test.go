package convert

import (
	"context"
	"errors"
	"strings"
	"testing"

	"illiterate/internal/diag"
	"illiterate/internal/render"
	"illiterate/internal/syntax"
	"illiterate/internal/wrapper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *Engine {
	return New(Options{Language: "rust", Qualifier: "ignore", Matcher: wrapper.NewFuncMatcher()})
}

func TestConvert_HeadingParagraphAndCode(t *testing.T) {
	src := "fn body() {\n" +
		"    // # Heading\n" +
		"    //\n" +
		"    // Paragraph text.\n" +
		"    some_code();\n" +
		"}\n"

	out, err := newEngine().Convert(context.Background(), "src/chapter1.rs", src)
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nParagraph text.\n\n```rust,ignore\nsome_code();\n```\n", out)
}

func TestConvert_BasicChapter(t *testing.T) {
	src := "fn body() {\n" +
		"    // # Title\n" +
		"    //\n" +
		"    // Body text\n" +
		"    let x = 1;\n" +
		"}\n"

	out, err := newEngine().Convert(context.Background(), "basic.rs", src)
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text\n\n```rust,ignore\nlet x = 1;\n```\n", out)
}

func TestConvert_NoComments(t *testing.T) {
	src := "fn body() {\n" +
		"    let x = 1;\n" +
		"\n" +
		"    if x > 0 {\n" +
		"        println!(\"{x}\");\n" +
		"    }\n" +
		"}\n"

	blocks, err := newEngine().Blocks(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	code, ok := blocks[0].(render.CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "let x = 1;\n\nif x > 0 {\n    println!(\"{x}\");\n}", code.Code)
}

func TestConvert_UnterminatedBlockComment(t *testing.T) {
	src := "fn body() {\n" +
		"    // Intro\n" +
		"    /* never\n" +
		"       closed\n" +
		"}\n"

	out, err := newEngine().Convert(context.Background(), "src/broken.rs", src)
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, diag.ErrParse))

	path, line, ok := diag.Position(err)
	require.True(t, ok)
	assert.Equal(t, "src/broken.rs", path)
	assert.Equal(t, 2, line)
}

func TestConvert_UnbalancedWrapper(t *testing.T) {
	out, err := newEngine().Convert(context.Background(), "a.rs", "fn body() {\n    // a\n")
	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, errors.Is(err, diag.ErrStructural))
}

func TestConvert_OrderAndDeterminism(t *testing.T) {
	src := "pub fn body() {\n" +
		"    // # Chapter 1\n" +
		"    //\n" +
		"    // Any function called `body` will have its body converted to Markdown:\n" +
		"    //\n" +
		"    // - Non-doc comments are interpreted as Markdown\n" +
		"    println!(\"Anything else is interpreted as Rust code\");\n" +
		"    // - Doc comments stay with the code\n" +
		"    /// Documented.\n" +
		"    fn helper() {}\n" +
		"}\n"

	e := newEngine()
	first, err := e.Convert(context.Background(), "chapter1.rs", src)
	require.NoError(t, err)
	second, err := e.Convert(context.Background(), "chapter1.rs", src)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	want := "# Chapter 1\n\n" +
		"Any function called `body` will have its body converted to Markdown:\n\n" +
		"- Non-doc comments are interpreted as Markdown\n\n" +
		"```rust,ignore\nprintln!(\"Anything else is interpreted as Rust code\");\n```\n\n" +
		"- Doc comments stay with the code\n\n" +
		"```rust,ignore\n/// Documented.\nfn helper() {}\n```\n"
	assert.Equal(t, want, first)

	iHeading := strings.Index(first, "# Chapter 1")
	iPrint := strings.Index(first, "println!")
	iHelper := strings.Index(first, "fn helper")
	assert.True(t, iHeading < iPrint && iPrint < iHelper)
}

func TestConvert_TopLevelItemsOutsideBodyAreIgnored(t *testing.T) {
	src := "pub fn body() {\n" +
		"    // # Chapter 1\n" +
		"    //\n" +
		"    // Any function called `body` will have it's body converted to Markdown:\n" +
		"    //\n" +
		"    // - Non-doc comments are interpreted as Markdown\n" +
		"    println!(\"Anything else is interpreted as Rust code\");\n" +
		"    // - Any other top level items are ignored.\n" +
		"}\n" +
		"\n" +
		"pub fn ignore_me() {\n" +
		"    // This will be ignored.\n" +
		"}\n"

	out, err := newEngine().Convert(context.Background(), "chapter1.rs", src)
	require.NoError(t, err)
	want := "# Chapter 1\n\n" +
		"Any function called `body` will have it's body converted to Markdown:\n\n" +
		"- Non-doc comments are interpreted as Markdown\n\n" +
		"```rust,ignore\nprintln!(\"Anything else is interpreted as Rust code\");\n```\n\n" +
		"- Any other top level items are ignored.\n"
	assert.Equal(t, want, out)
	assert.NotContains(t, out, "ignore_me")
}

func TestConvert_NoWrapperConvertsWholeFile(t *testing.T) {
	src := "use std::fmt;\n\n// Helper.\nfn helper() {}\n"
	out, err := newEngine().Convert(context.Background(), "plain.rs", src)
	require.NoError(t, err)
	assert.Equal(t, "```rust,ignore\nuse std::fmt;\n```\n\nHelper.\n\n```rust,ignore\nfn helper() {}\n```\n", out)
}

func TestConvert_ScaffoldWithTrailingComments(t *testing.T) {
	src := "fn body() { // scaffold\n" +
		"    // Text\n" +
		"    x();\n" +
		"} // end of chapter\n"
	out, err := newEngine().Convert(context.Background(), "c.rs", src)
	require.NoError(t, err)
	assert.Equal(t, "Text\n\n```rust,ignore\nx();\n```\n", out)
}

func TestConvert_HeadingFollowingTextIsNotMoved(t *testing.T) {
	src := "fn body() {\n    // text\n    // ## Sub\n    x();\n}\n"
	out, err := newEngine().Convert(context.Background(), "h.rs", src)
	require.NoError(t, err)
	assert.Equal(t, "text\n## Sub\n\n```rust,ignore\nx();\n```\n", out)
}

func TestConvert_WhitespaceInsideStringIsKept(t *testing.T) {
	src := "fn body() {\n" +
		"    let s = \"a\n" +
		"  \n" +
		"b\";\n" +
		"}\n"
	blocks, err := newEngine().Blocks(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	code, ok := blocks[0].(render.CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "    let s = \"a\n  \nb\";", code.Code)
}

func TestConvert_EmptyInput(t *testing.T) {
	out, err := newEngine().Convert(context.Background(), "empty.rs", "")
	require.NoError(t, err)
	assert.Equal(t, "", out)

	out, err = newEngine().Convert(context.Background(), "wrapper.rs", "fn body() {\n}\n")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestConvert_StrictSyntax(t *testing.T) {
	v, err := syntax.NewValidator("rust")
	require.NoError(t, err)
	e := New(Options{Language: "rust", Qualifier: "ignore", Validator: v})

	_, err = e.Convert(context.Background(), "bad.rs", "fn body() {\n    let = ;\n}\n")
	require.Error(t, err)
	assert.True(t, errors.Is(err, diag.ErrParse))

	assert.NotEqual(t, newEngine().Fingerprint(), e.Fingerprint())
}

func TestEngine_Fingerprint(t *testing.T) {
	a := New(Options{Language: "rust", Qualifier: "ignore"})
	b := New(Options{Language: "rust", Qualifier: "ignore"})
	c := New(Options{Language: "rust", Qualifier: "no_run"})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
