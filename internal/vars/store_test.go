package vars

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeData(t *testing.T, dir, content string) string {
	t.Helper()
	p := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoad(t *testing.T) {
	p := writeData(t, t.TempDir(), `{"title": "Home", "year": 2024}`)

	s := NewStore(p)
	require.NoError(t, s.Load())

	ctx := s.Current()
	assert.Equal(t, "Home", ctx["title"])
	assert.Equal(t, float64(2024), ctx["year"])
}

func TestLoadIsFreshEveryCall(t *testing.T) {
	dir := t.TempDir()
	p := writeData(t, dir, `{"title": "old"}`)

	s := NewStore(p)
	require.NoError(t, s.Load())
	assert.Equal(t, "old", s.Current()["title"])

	writeData(t, dir, `{"title": "new"}`)
	require.NoError(t, s.Load())
	assert.Equal(t, "new", s.Current()["title"])
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "data.json"))

	err := s.Load()
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.NotNil(t, s.Current())
	assert.Empty(t, s.Current())
}

func TestLoadKeepsPreviousOnFailure(t *testing.T) {
	dir := t.TempDir()
	p := writeData(t, dir, `{"title": "good"}`)

	s := NewStore(p)
	require.NoError(t, s.Load())

	writeData(t, dir, `{"title": "broken`)
	err := s.Load()

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, p, perr.Path)

	assert.Equal(t, "good", s.Current()["title"], "previous context must stay active")
}
