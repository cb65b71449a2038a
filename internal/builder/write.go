package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jarstone/edge2html/internal/elog"
)

// WriteAll renders and writes every page, fanned out over Concurrency
// goroutines. One page failing never stops the others: failures are logged
// per page and joined into the returned error once the batch has finished.
func (b *Builder) WriteAll(ctx context.Context, pages []string) error {
	if len(pages) == 0 {
		return nil
	}

	n := b.Concurrency
	if n < 1 {
		n = 1
	}
	if n > len(pages) {
		n = len(pages)
	}

	sem := make(chan struct{}, n)
	errs := make([]error, len(pages))

	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, page string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := b.writeOne(ctx, page); err != nil {
				elog.Error("msg", "Page failed", "page", page, "err", err)
				errs[i] = err
			}
		}(i, page)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// writeOne renders page against the current context, runs the post
// pipeline and writes the mapped destination file.
func (b *Builder) writeOne(ctx context.Context, page string) error {
	text, err := b.Engine.Render(page, b.Data.Current())
	if err != nil {
		return err
	}

	text, err = b.Post.Apply(ctx, text)
	if err != nil {
		return err
	}

	dest := b.Map.Dest(page)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create output folder: %w", err)
	}
	if err := os.WriteFile(dest, []byte(text), 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// RemoveAll deletes each destination file. Already-missing files are fine:
// deletes are idempotent.
func (b *Builder) RemoveAll(paths []string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			elog.Error("msg", "Remove failed", "path", p, "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
