package syntax

import (
	"context"
	"errors"
	"testing"

	"illiterate/internal/diag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator("rust")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("Valid chapter", func(t *testing.T) {
		src := "pub fn body() {\n    // # Chapter 1\n    println!(\"hello\");\n}\n"
		assert.NoError(t, v.Validate(ctx, []byte(src)))
	})

	t.Run("Broken chapter", func(t *testing.T) {
		src := "fn body() {\n    let x = ;\n}\n"
		err := v.Validate(ctx, []byte(src))
		require.Error(t, err)
		assert.True(t, errors.Is(err, diag.ErrParse))

		_, line, ok := diag.Position(err)
		require.True(t, ok)
		assert.Equal(t, 1, line)
	})
}

func TestNewValidator_UnsupportedLanguage(t *testing.T) {
	_, err := NewValidator("go")
	assert.Error(t, err)
}
