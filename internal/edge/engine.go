// Package edge renders .edge template files: @include directives are
// expanded textually, then the result executes as an html/template against
// the shared render context.
package edge

import (
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var includeRegexp = regexp.MustCompile(`@include\(\s*('[^']*'|"[^"]*")\s*\)`)

var windowCRregexp = regexp.MustCompile(`\r?\n`)

const maxIncludeDepth = 5 // To avoid infinite recursive includes

// RenderError reports a failed render: unreadable file, unparsable
// template, or a missing include. Scoped to one file.
type RenderError struct {
	File string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("edge: render %s: %v", e.File, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Engine renders template files from one source root. Include paths are
// source-root-relative; the extension may be omitted in the directive.
type Engine struct {
	SrcDir string
	Ext    string
}

// Render reads the file at rel, expands its includes and executes the
// result against data.
func (e *Engine) Render(rel string, data map[string]any) (string, error) {
	src, err := e.expand(rel, 0)
	if err != nil {
		return "", &RenderError{File: rel, Err: err}
	}

	t, err := template.New(rel).Parse(src)
	if err != nil {
		return "", &RenderError{File: rel, Err: err}
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		return "", &RenderError{File: rel, Err: err}
	}
	return buf.String(), nil
}

// expand reads one file and splices in every @include target, recursively.
func (e *Engine) expand(rel string, depth int) (string, error) {
	if depth > maxIncludeDepth {
		return "", fmt.Errorf("include depth exceeds %d, include loop?", maxIncludeDepth)
	}

	raw, err := os.ReadFile(filepath.Join(e.SrcDir, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}

	text := windowCRregexp.ReplaceAllString(string(raw), "\n")

	var expandErr error
	text = includeRegexp.ReplaceAllStringFunc(text, func(match string) string {
		if expandErr != nil {
			return match
		}

		target := includeRegexp.FindStringSubmatch(match)[1]
		target = target[1 : len(target)-1]
		target = path.Clean("/" + strings.ReplaceAll(target, "\\", "/"))[1:]
		if path.Ext(target) == "" {
			target += e.Ext
		}
		if path.Ext(target) != e.Ext {
			expandErr = fmt.Errorf("include %s: not a template file", target)
			return match
		}

		nested, err := e.expand(target, depth+1)
		if err != nil {
			expandErr = fmt.Errorf("include %s: %w", target, err)
			return match
		}
		return nested
	})
	if expandErr != nil {
		return "", expandErr
	}

	return text, nil
}
