package builder

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jarstone/edge2html/internal/elog"
	"github.com/jarstone/edge2html/internal/sitepath"
	"github.com/jarstone/edge2html/internal/watcher"
)

// Plan is everything one change event requires: pages to render,
// destination files to remove, and whether the render context must be
// reloaded first. Computed fresh per event, never persisted.
type Plan struct {
	Render     []string // page paths, sorted, deduplicated
	Remove     []string // destination files
	ReloadData bool
}

func (p Plan) Empty() bool {
	return len(p.Render) == 0 && len(p.Remove) == 0 && !p.ReloadData
}

// Resolve classifies one debounced change and computes the pages whose
// output it staled. Stateless across events: the source tree is consulted
// fresh every time.
//
// A changed page stales only itself. A changed partial stales every page
// whose current text mentions it. The context file stales everything. A
// deleted page takes its destination file with it; a deleted partial keeps
// its dependents, which re-render and fail loudly if they still include it.
func (b *Builder) Resolve(kind watcher.Kind, rel string) Plan {
	if sitepath.Hidden(rel) {
		return Plan{}
	}

	if rel == b.DataFile {
		pages, err := b.Pages()
		if err != nil {
			elog.Error("msg", "Failed to walk src folder", "path", b.Map.SrcDir, "err", err)
			return Plan{}
		}
		return Plan{Render: pages, ReloadData: true}
	}

	if !b.Map.IsTemplate(rel) {
		return Plan{}
	}

	if b.Map.IsPage(rel) {
		if kind == watcher.Deleted {
			return Plan{Remove: []string{b.Map.Dest(rel)}}
		}
		return Plan{Render: []string{rel}}
	}

	return Plan{Render: b.dependents(sitepath.Stem(rel))}
}

// dependents finds every page whose raw text contains stem as a substring.
// Partials that mention it widen the search with their own stem, breadth
// first, so a partial nested inside other partials still reaches the pages
// that ultimately include it.
//
// This is a full-tree textual scan on every call, not a dependency graph:
// substring matching on the literal filename can over-match (the name in a
// comment re-renders a page for nothing) but never under-matches while
// includes name the partial verbatim.
func (b *Builder) dependents(stem string) []string {
	type tfile struct {
		rel  string
		text string
	}

	var files []tfile
	filepath.WalkDir(b.Map.SrcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			elog.Warn("msg", "Scan walk failed", "path", p, "err", err)
			return nil
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
		if d.IsDir() || !b.Map.IsTemplate(rel) {
			return nil
		}
		raw, err := os.ReadFile(p)
		if err != nil {
			elog.Warn("msg", "Scan read failed", "path", p, "err", err)
			return nil
		}
		files = append(files, tfile{rel: rel, text: string(raw)})
		return nil
	})

	queue := []string{stem}
	seen := map[string]bool{stem: true}
	pages := map[string]bool{}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		for _, f := range files {
			if !strings.Contains(f.text, name) {
				continue
			}
			if b.Map.IsPage(f.rel) {
				pages[f.rel] = true
				continue
			}
			if s := sitepath.Stem(f.rel); !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}

	out := make([]string, 0, len(pages))
	for p := range pages {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
