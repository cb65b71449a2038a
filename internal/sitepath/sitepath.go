// Package sitepath classifies source-tree paths and maps them to their
// destination counterparts. Paths inside the tree are root-relative and
// slash-separated regardless of platform; only Dest produces OS paths.
package sitepath

import (
	"path"
	"path/filepath"
	"strings"
)

// OutExt is the extension every rendered page gets in the destination tree.
const OutExt = ".html"

// PartialPrefix marks a template file as a partial: included by pages,
// never directly output.
const PartialPrefix = "_"

type Mapper struct {
	SrcDir  string
	DestDir string
	Ext     string // template extension, ".edge" by default
}

// IsTemplate reports whether rel names a template file, page or partial.
func (m Mapper) IsTemplate(rel string) bool {
	return path.Ext(rel) == m.Ext
}

// IsPartial reports whether rel names a partial.
func (m Mapper) IsPartial(rel string) bool {
	return m.IsTemplate(rel) && strings.HasPrefix(path.Base(rel), PartialPrefix)
}

// IsPage reports whether rel names a page, i.e. a template that produces
// exactly one output file.
func (m Mapper) IsPage(rel string) bool {
	return m.IsTemplate(rel) && !strings.HasPrefix(path.Base(rel), PartialPrefix)
}

// Dest maps a page path to the file it renders to: destination root plus
// rel with the template extension swapped for OutExt. Total; assumes rel
// is a well-formed page path.
func (m Mapper) Dest(rel string) string {
	return filepath.Join(m.DestDir, filepath.FromSlash(strings.TrimSuffix(rel, m.Ext)+OutExt))
}

// Src maps rel back to the file it was read from.
func (m Mapper) Src(rel string) string {
	return filepath.Join(m.SrcDir, filepath.FromSlash(rel))
}

// Rel converts an OS path under the source root into its root-relative
// slash form. ok is false for paths outside the root.
func (m Mapper) Rel(p string) (string, bool) {
	r, err := filepath.Rel(m.SrcDir, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// Stem is the base filename without extension: the literal token by which
// templates reference a partial.
func Stem(rel string) string {
	b := path.Base(rel)
	return strings.TrimSuffix(b, path.Ext(b))
}

// Hidden reports whether any component of rel starts with a dot. Hidden
// paths are invisible to the whole pipeline.
func Hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
