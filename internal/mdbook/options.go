package mdbook

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"illiterate/internal/config"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Name is the preprocessor name used in book.toml tables.
const Name = "illiterate"

//go:embed options.schema.json
var optionsSchema string

const optionsSchemaURL = "file:///illiterate/options.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Options are the [preprocessor.illiterate] settings. Unset fields leave the
// loaded configuration untouched.
type Options struct {
	Language         *string  `json:"language"`
	Qualifier        *string  `json:"qualifier"`
	WrapperFunctions []string `json:"wrapper-functions"`
	StrictSyntax     *bool    `json:"strict-syntax"`
	FailOnError      *bool    `json:"fail-on-error"`
	Workers          *int     `json:"workers"`
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(optionsSchemaURL, strings.NewReader(optionsSchema)); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile(optionsSchemaURL)
	})
	return compiled, compileErr
}

// ParseOptions validates a JSON options table and decodes it. Empty input
// yields zero options.
func ParseOptions(raw []byte) (Options, error) {
	var opts Options
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return opts, nil
	}

	schema, err := loadSchema()
	if err != nil {
		return opts, fmt.Errorf("failed to compile options schema: %w", err)
	}
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return opts, fmt.Errorf("failed to parse preprocessor options: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return opts, fmt.Errorf("invalid [preprocessor.%s] options: %w", Name, err)
	}

	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, fmt.Errorf("failed to decode preprocessor options: %w", err)
	}
	return opts, nil
}

// OptionsFromContext extracts the preprocessor table from the render context.
func OptionsFromContext(ctx *Context) (Options, error) {
	raw, ok := ctx.Config["preprocessor"]
	if !ok {
		return Options{}, nil
	}
	var tables map[string]json.RawMessage
	if err := json.Unmarshal(raw, &tables); err != nil {
		return Options{}, fmt.Errorf("failed to parse preprocessor config: %w", err)
	}
	return ParseOptions(tables[Name])
}

// Apply returns a copy of cfg with the options layered on top.
func (o Options) Apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	if o.Language != nil {
		out.Language = *o.Language
	}
	if o.Qualifier != nil {
		out.Qualifier = *o.Qualifier
	}
	if len(o.WrapperFunctions) > 0 {
		out.Wrapper.Functions = append([]string(nil), o.WrapperFunctions...)
		out.Wrapper.Opener, out.Wrapper.Closer = "", ""
	}
	if o.StrictSyntax != nil {
		out.StrictSyntax = *o.StrictSyntax
	}
	if o.FailOnError != nil {
		out.FailOnError = *o.FailOnError
	}
	if o.Workers != nil {
		out.Workers = *o.Workers
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}
