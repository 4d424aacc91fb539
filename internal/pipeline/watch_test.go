package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RebuildsChangedFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeSource(t, src, "chapter1.rs", chapter("Before"))

	w, err := NewWatcher(newTestBuilder(t), BuildOptions{SrcDir: src, OutDir: out})
	require.NoError(t, err)
	defer w.Close()

	var mu sync.Mutex
	var rebuilt []string
	w.OnBuild = func(rel string, report *Report, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err == nil {
			rebuilt = append(rebuilt, rel)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeSource(t, src, "chapter1.rs", chapter("After"))
	writeSource(t, src, "notes.txt", "ignored")

	target := filepath.Join(out, "chapter1.md")
	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(target)
		return err == nil && string(data) == "# After\n\n```rust,ignore\nlet x = 1;\n```\n"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.NotEmpty(t, rebuilt)
	for _, rel := range rebuilt {
		assert.Equal(t, "chapter1.rs", rel)
	}
}
