package directive

import (
	"context"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/yosssi/gohtml"
)

// Processor rewrites rendered text. Processors run in a fixed order after
// the template engine: svg includes, text includes, then beautify or minify.
type Processor interface {
	Apply(ctx context.Context, text string) (string, error)
}

// Pipeline applies processors in order, feeding each the previous output.
type Pipeline []Processor

func (pl Pipeline) Apply(ctx context.Context, text string) (string, error) {
	var err error
	for _, p := range pl {
		text, err = p.Apply(ctx, text)
		if err != nil {
			return "", err
		}
	}
	return text, nil
}

// SVGInclude expands @svg directives: fetches the URL and substitutes the
// raw body for the directive text, injecting attrs into the root tag when
// given. Each match substitutes via replace-first on its literal text, in
// scan order.
type SVGInclude struct {
	Fetch Fetcher
}

func (p *SVGInclude) Apply(ctx context.Context, text string) (string, error) {
	for _, d := range Scan(text) {
		if d.Tag != "svg" {
			continue
		}
		body, err := p.Fetch.Fetch(ctx, d.URL)
		if err != nil {
			return "", err
		}
		if d.Attrs != "" {
			body = strings.Replace(body, "<svg", "<svg "+d.Attrs, 1)
		}
		text = strings.Replace(text, d.Literal, body, 1)
	}
	return text, nil
}

// TextInclude expands @text directives, substituting fetched raw text
// verbatim.
type TextInclude struct {
	Fetch Fetcher
}

func (p *TextInclude) Apply(ctx context.Context, text string) (string, error) {
	for _, d := range Scan(text) {
		if d.Tag != "text" {
			continue
		}
		body, err := p.Fetch.Fetch(ctx, d.URL)
		if err != nil {
			return "", err
		}
		text = strings.Replace(text, d.Literal, body, 1)
	}
	return text, nil
}

// Beautify reformats HTML output for readability. Applied in build mode
// only; watch rebuilds skip it.
type Beautify struct{}

func (Beautify) Apply(_ context.Context, text string) (string, error) {
	return gohtml.Format(text), nil
}

// Minify is the opt-in alternative to Beautify for production builds.
type Minify struct {
	m *minify.M
}

func NewMinify() *Minify {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
	})
	return &Minify{m: m}
}

func (p *Minify) Apply(_ context.Context, text string) (string, error) {
	return p.m.String("text/html", text)
}
