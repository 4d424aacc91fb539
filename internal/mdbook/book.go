// Package mdbook implements the mdBook preprocessor protocol: the
// [context, book] JSON exchanged on stdin and stdout, and book.toml.
//
// Chapters, book items and the book itself keep every JSON field they were
// read with, so fields this package does not know about survive a round trip.
package mdbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Context is the render context mdBook passes to preprocessors.
type Context struct {
	Root          string                     `json:"root"`
	Renderer      string                     `json:"renderer"`
	MdbookVersion string                     `json:"mdbook_version"`
	Config        map[string]json.RawMessage `json:"config"`
}

// Chapter is one chapter of the book.
type Chapter struct {
	Name     string
	Content  string
	Path     *string // nil for draft chapters
	SubItems []BookItem

	fields map[string]json.RawMessage
}

// BookItem is a chapter, a separator or a part title. Only chapters are
// decoded; other items are kept verbatim.
type BookItem struct {
	Chapter *Chapter

	raw json.RawMessage
}

// Book is the tree of book items.
type Book struct {
	Sections []BookItem

	fields map[string]json.RawMessage
}

// ParseInput decodes the [context, book] pair mdBook writes to a
// preprocessor's stdin.
func ParseInput(r io.Reader) (*Context, *Book, error) {
	var pair []json.RawMessage
	if err := json.NewDecoder(r).Decode(&pair); err != nil {
		return nil, nil, fmt.Errorf("failed to parse preprocessor input: %w", err)
	}
	if len(pair) != 2 {
		return nil, nil, fmt.Errorf("failed to parse preprocessor input: expected [context, book], got %d elements", len(pair))
	}

	var ctx Context
	if err := json.Unmarshal(pair[0], &ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to parse context: %w", err)
	}
	var book Book
	if err := json.Unmarshal(pair[1], &book); err != nil {
		return nil, nil, fmt.Errorf("failed to parse book: %w", err)
	}
	return &ctx, &book, nil
}

// WriteBook encodes the book the way mdBook expects it on stdout.
func WriteBook(w io.Writer, book *Book) error {
	data, err := marshal(book)
	if err != nil {
		return fmt.Errorf("failed to encode book: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ForEachChapter visits every chapter depth first, in book order.
func (b *Book) ForEachChapter(fn func(*Chapter)) {
	forEachChapter(b.Sections, fn)
}

func forEachChapter(items []BookItem, fn func(*Chapter)) {
	for i := range items {
		ch := items[i].Chapter
		if ch == nil {
			continue
		}
		fn(ch)
		forEachChapter(ch.SubItems, fn)
	}
}

func (b *Book) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &b.fields); err != nil {
		return err
	}
	if b.fields == nil {
		return errors.New("book must be an object")
	}
	if raw, ok := b.fields["sections"]; ok {
		if err := json.Unmarshal(raw, &b.Sections); err != nil {
			return fmt.Errorf("sections: %w", err)
		}
	}
	return nil
}

func (b Book) MarshalJSON() ([]byte, error) {
	fields := cloneFields(b.fields)
	sections := b.Sections
	if sections == nil {
		sections = []BookItem{}
	}
	if err := setField(fields, "sections", sections); err != nil {
		return nil, err
	}
	if _, ok := fields["__non_exhaustive"]; !ok {
		fields["__non_exhaustive"] = json.RawMessage("null")
	}
	return marshal(fields)
}

func (it *BookItem) UnmarshalJSON(data []byte) error {
	it.raw = append(json.RawMessage(nil), data...)
	it.Chapter = nil

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var variant map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &variant); err != nil {
		return err
	}
	raw, ok := variant["Chapter"]
	if !ok {
		return nil
	}
	var ch Chapter
	if err := json.Unmarshal(raw, &ch); err != nil {
		return fmt.Errorf("chapter: %w", err)
	}
	it.Chapter = &ch
	return nil
}

func (it BookItem) MarshalJSON() ([]byte, error) {
	if it.Chapter != nil {
		return marshal(map[string]*Chapter{"Chapter": it.Chapter})
	}
	if len(it.raw) == 0 {
		return []byte(`"Separator"`), nil
	}
	return it.raw, nil
}

// IsSeparator reports whether the item is a separator.
func (it BookItem) IsSeparator() bool {
	return it.Chapter == nil && string(bytes.TrimSpace(it.raw)) == `"Separator"`
}

func (c *Chapter) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &c.fields); err != nil {
		return err
	}
	if c.fields == nil {
		return errors.New("chapter must be an object")
	}
	for key, dst := range map[string]any{
		"name":      &c.Name,
		"content":   &c.Content,
		"path":      &c.Path,
		"sub_items": &c.SubItems,
	} {
		raw, ok := c.fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c Chapter) MarshalJSON() ([]byte, error) {
	fields := cloneFields(c.fields)
	subItems := c.SubItems
	if subItems == nil {
		subItems = []BookItem{}
	}
	for key, v := range map[string]any{
		"name":      c.Name,
		"content":   c.Content,
		"path":      c.Path,
		"sub_items": subItems,
	} {
		if err := setField(fields, key, v); err != nil {
			return nil, err
		}
	}
	return marshal(fields)
}

func cloneFields(src map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(src)+4)
	for k, v := range src {
		out[k] = v
	}
	return out
}

func setField(fields map[string]json.RawMessage, key string, v any) error {
	data, err := marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	fields[key] = data
	return nil
}

// marshal encodes v without HTML escaping, so chapter text stays readable.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
