package builder

import (
	"context"
	"time"

	"github.com/jarstone/edge2html/internal/elog"
	"github.com/jarstone/edge2html/internal/watcher"
)

// Dispatch applies one debounced change: classify, resolve, render or
// remove. Dev-mode error policy throughout: log and keep going.
func (b *Builder) Dispatch(ctx context.Context, c watcher.Change) {
	rel, ok := b.Map.Rel(c.Path)
	if !ok {
		return
	}

	plan := b.Resolve(c.Kind, rel)
	if plan.Empty() {
		return
	}

	elog.Info("msg", "Detected change", "kind", c.Kind.String(), "path", rel, "pages", len(plan.Render))

	if plan.ReloadData {
		if err := b.Data.Load(); err != nil {
			elog.Error("msg", "Vars reload failed, keeping previous vars", "err", err)
			return
		}
	}

	if len(plan.Remove) > 0 {
		b.RemoveAll(plan.Remove)
	}
	if len(plan.Render) > 0 {
		b.WriteAll(ctx, plan.Render)
	}

	if b.AfterBatch != nil {
		b.AfterBatch()
	}
}

// Watch runs the incremental loop until ctx is canceled: subscribe to the
// source tree, debounce, dispatch every change. Batches are not canceled
// mid-flight; a later batch for the same output wins by last write.
func (b *Builder) Watch(ctx context.Context, debounce time.Duration) error {
	if err := b.Init(); err != nil {
		return err
	}

	w, err := watcher.New(b.Map.SrcDir, debounce)
	if err != nil {
		elog.Error("msg", "Could not watch src folder", "path", b.Map.SrcDir, "err", err)
		return err
	}
	defer w.Close()

	elog.Info("msg", "Ready for changes", "path", b.Map.SrcDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-w.Changes():
			b.Dispatch(ctx, c)
		}
	}
}
