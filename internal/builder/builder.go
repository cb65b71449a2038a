// Package builder drives the pipeline: full builds, change classification,
// impact resolution and batch writing.
package builder

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jarstone/edge2html/internal/directive"
	"github.com/jarstone/edge2html/internal/elog"
	"github.com/jarstone/edge2html/internal/sitepath"
	"github.com/jarstone/edge2html/internal/vars"
)

// Renderer is the template engine seam: rel is a source-root-relative page
// path, data the current render context.
type Renderer interface {
	Render(rel string, data map[string]any) (string, error)
}

type Builder struct {
	Map    sitepath.Mapper
	Data   *vars.Store
	Engine Renderer
	Post   directive.Pipeline

	DataFile    string // context file name at the source root
	Concurrency int

	AfterBatch func() // runs after every applied watch batch, may be nil
}

func (b *Builder) Init() error {
	if b.Map.SrcDir == "" {
		b.Map.SrcDir = "src"
	}
	if b.Map.DestDir == "" {
		b.Map.DestDir = "dist"
	}
	if b.Map.Ext == "" {
		b.Map.Ext = ".edge"
	}
	if b.DataFile == "" {
		b.DataFile = "data.json"
	}
	if b.Concurrency < 1 {
		b.Concurrency = 1
	}

	if _, err := os.Stat(b.Map.SrcDir); os.IsNotExist(err) {
		elog.Error("msg", "Src folder not found", "path", b.Map.SrcDir, "err", err)
		return errors.New("Src folder not found")
	}

	return nil
}

// Pages lists every page in the source tree, sorted. Hidden paths are
// invisible.
func (b *Builder) Pages() ([]string, error) {
	var pages []string
	err := filepath.WalkDir(b.Map.SrcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, ok := b.Map.Rel(p)
		if !ok || rel == "." {
			return nil
		}
		if sitepath.Hidden(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && b.Map.IsPage(rel) {
			pages = append(pages, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

// Build performs one full pass: load the context, clear the destination
// tree, render every page. Per-page failures are collected, not fatal; a
// bad context file is.
func (b *Builder) Build(ctx context.Context) error {
	if err := b.Init(); err != nil {
		return err
	}

	if err := b.Data.Load(); err != nil {
		elog.Error("msg", "Vars file unusable", "err", err)
		return err
	}

	if err := os.RemoveAll(b.Map.DestDir); err != nil {
		elog.Error("msg", "Failed to remove build folder", "path", b.Map.DestDir, "err", err)
		return err
	}
	if err := os.MkdirAll(b.Map.DestDir, 0755); err != nil {
		elog.Error("msg", "Failed to create build folder", "path", b.Map.DestDir, "err", err)
		return err
	}

	elog.Info("msg", "Building started", "path", b.Map.SrcDir)
	defer elog.Info("msg", "Building finished", "path", b.Map.SrcDir)

	pages, err := b.Pages()
	if err != nil {
		elog.Error("msg", "Failed to walk src folder", "path", b.Map.SrcDir, "err", err)
		return err
	}

	return b.WriteAll(ctx, pages)
}
