package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarstone/edge2html/internal/watcher"
)

func TestDispatchPartialChange(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge":            "@include('partials/_footer')",
		"partials/_footer.edge": "<footer>v1</footer>",
		"data.json":             "{}",
	})
	ctx := context.Background()
	require.NoError(t, b.Build(ctx))

	footer := filepath.Join(b.Map.SrcDir, "partials", "_footer.edge")
	require.NoError(t, os.WriteFile(footer, []byte("<footer>v2</footer>"), 0644))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: footer})

	out, err := os.ReadFile(b.Map.Dest("index.edge"))
	require.NoError(t, err)
	assert.Equal(t, "<footer>v2</footer>", string(out))
}

func TestDispatchDataChange(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge": "<h1>{{.title}}</h1>",
		"data.json":  `{"title":"old"}`,
	})
	ctx := context.Background()
	require.NoError(t, b.Build(ctx))

	data := filepath.Join(b.Map.SrcDir, "data.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"title":"new"}`), 0644))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: data})

	out, err := os.ReadFile(b.Map.Dest("index.edge"))
	require.NoError(t, err)
	assert.Equal(t, "<h1>new</h1>", string(out))
}

func TestDispatchBadDataSkipsBatch(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge": "<h1>{{.title}}</h1>",
		"data.json":  `{"title":"old"}`,
	})
	ctx := context.Background()
	require.NoError(t, b.Build(ctx))

	data := filepath.Join(b.Map.SrcDir, "data.json")
	require.NoError(t, os.WriteFile(data, []byte("{oops"), 0644))
	require.NoError(t, os.Remove(b.Map.Dest("index.edge")))

	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: data})

	_, err := os.Stat(b.Map.Dest("index.edge"))
	assert.True(t, os.IsNotExist(err), "batch must be skipped when vars cannot reload")
	assert.Equal(t, "old", b.Data.Current()["title"], "previous vars must survive")
}

func TestDispatchPageDelete(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge": "x",
		"about.edge": "y",
		"data.json":  "{}",
	})
	ctx := context.Background()
	require.NoError(t, b.Build(ctx))

	page := filepath.Join(b.Map.SrcDir, "about.edge")
	require.NoError(t, os.Remove(page))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Deleted, Path: page})

	_, err := os.Stat(b.Map.Dest("about.edge"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(b.Map.Dest("index.edge"))
	assert.NoError(t, err, "only the deleted page's output goes away")
}

func TestDispatchAfterBatch(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge": "x",
		"notes.txt":  "n",
	})
	count := 0
	b.AfterBatch = func() { count++ }
	ctx := context.Background()

	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: filepath.Join(b.Map.SrcDir, "index.edge")})
	assert.Equal(t, 1, count)

	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: filepath.Join(b.Map.SrcDir, "notes.txt")})
	assert.Equal(t, 1, count, "ignored changes never fire the hook")
}

func TestDispatchOutsideRoot(t *testing.T) {
	b := newTestBuilder(t, map[string]string{"index.edge": "x"})
	fired := false
	b.AfterBatch = func() { fired = true }

	b.Dispatch(context.Background(), watcher.Change{
		Kind: watcher.Modified,
		Path: filepath.Join(t.TempDir(), "other.edge"),
	})

	assert.False(t, fired)
}

func TestIncrementalScenario(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge":            "<h1>{{.title}}</h1>@include('partials/_footer')",
		"partials/_footer.edge": "<footer>v1</footer>",
		"data.json":             `{"title":"Home"}`,
	})
	ctx := context.Background()
	require.NoError(t, b.Build(ctx))
	dest := b.Map.Dest("index.edge")

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1><footer>v1</footer>", string(out))

	// editing the partial reaches the page through the include
	footer := filepath.Join(b.Map.SrcDir, "partials", "_footer.edge")
	require.NoError(t, os.WriteFile(footer, []byte("<footer>v2</footer>"), 0644))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: footer})
	out, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Home</h1><footer>v2</footer>", string(out))

	// editing the vars file rebuilds everything with the fresh context
	data := filepath.Join(b.Map.SrcDir, "data.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"title":"Away"}`), 0644))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Modified, Path: data})
	out, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "<h1>Away</h1><footer>v2</footer>", string(out))

	// deleting the page removes exactly its output
	page := filepath.Join(b.Map.SrcDir, "index.edge")
	require.NoError(t, os.Remove(page))
	b.Dispatch(ctx, watcher.Change{Kind: watcher.Deleted, Path: page})
	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}

func TestWatchEndToEnd(t *testing.T) {
	b := newTestBuilder(t, map[string]string{
		"index.edge": "<h1>one</h1>",
		"data.json":  "{}",
	})
	require.NoError(t, b.Data.Load())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, 50*time.Millisecond) }()
	time.Sleep(200 * time.Millisecond)

	p := filepath.Join(b.Map.SrcDir, "index.edge")
	require.NoError(t, os.WriteFile(p, []byte("<h1>two</h1>"), 0644))

	dest := b.Map.Dest("index.edge")
	assert.Eventually(t, func() bool {
		out, err := os.ReadFile(dest)
		return err == nil && string(out) == "<h1>two</h1>"
	}, 3*time.Second, 25*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
