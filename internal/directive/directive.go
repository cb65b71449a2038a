// Package directive implements the inline @svg/@text markers expanded after
// template rendering, and the post-processing pipeline they run in.
package directive

import "regexp"

// Deliberately a textual pre-pass, not an HTML parser. Arguments are single-
// or double-quoted; either style may wrap the other kind of quote.
var scanRegexp = regexp.MustCompile(`@(svg|text)\(\s*('[^']*'|"[^"]*")\s*(?:,\s*('[^']*'|"[^"]*")\s*)?\)`)

// Directive is one inline marker found in rendered text.
type Directive struct {
	Tag     string // "svg" or "text"
	URL     string
	Attrs   string // optional second argument, only meaningful for svg
	Literal string // the exact directive text, used as the substitution key
}

// Scan lists every directive in text in order of appearance.
func Scan(text string) []Directive {
	matches := scanRegexp.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Directive, 0, len(matches))
	for _, m := range matches {
		out = append(out, Directive{Tag: m[1], URL: unquote(m[2]), Attrs: unquote(m[3]), Literal: m[0]})
	}
	return out
}

func unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	return s[1 : len(s)-1]
}
