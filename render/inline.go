package render

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/kraciasty/titlecss"
)

// Inline styles titles by wrapping their markup in a marked span carrying the
// style inline. It keeps no state between batches.
type Inline struct {
	opts options
}

var _ Applicator = (*Inline)(nil)

// NewInline creates an Inline applicator. Cache related options are ignored.
func NewInline(opts ...Option) *Inline {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Inline{opts: o}
}

// WrapperClass marks the span Wrap puts around a title.
const WrapperClass = "title-css-wrap"

// Wrap validates value as title markup and wraps it in
// <span class="title-css-wrap" style="{style}">. A wrapper already present
// around value is replaced rather than nested, so re-wrapping with the same
// style returns the value unchanged and re-wrapping with a new style swaps
// the style. When style does not survive sanitization the value is returned
// validated and unwrapped.
func (w *Inline) Wrap(value, style string) string {
	clean := titlecss.SanitizeMarkup(unwrap(value))
	style, ok := prepareStyle(style)
	if !ok || strings.TrimSpace(clean) == "" {
		return clean
	}
	return `<span class="` + WrapperClass + `" style="` + html.EscapeString(style) + `">` + clean + `</span>`
}

// unwrap strips every wrapper previously added by Wrap from around markup.
// Spans authored inside the title carry no marker class and are kept.
func unwrap(markup string) string {
	for {
		inner, ok := wrapperContent(markup)
		if !ok {
			return markup
		}
		markup = inner
	}
}

func wrapperContent(markup string) (string, bool) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil || len(nodes) != 1 {
		return "", false
	}

	n := nodes[0]
	if n.Type != html.ElementNode || n.DataAtom != atom.Span {
		return "", false
	}
	if !slices.ContainsFunc(n.Attr, func(a html.Attribute) bool {
		return a.Key == "class" && slices.Contains(strings.Fields(a.Val), WrapperClass)
	}) {
		return "", false
	}

	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", false
		}
	}
	return b.String(), true
}

// Decorate wraps the content of every title element whose text matches an
// occurrence in batch. When several occurrences share a title, the last one
// wins.
func (w *Inline) Decorate(doc *goquery.Document, batch []Occurrence) {
	styles := make(map[string]string, len(batch))
	for _, o := range batch {
		token := Token(TitleText(o.Text))
		if token == "" {
			continue
		}
		if style, ok := prepareStyle(o.Style); ok {
			styles[token] = style
		}
	}

	wrapped := 0
	doc.Find(w.opts.titleSelector).Each(func(_ int, sel *goquery.Selection) {
		style, ok := styles[Token(sel.Text())]
		if !ok {
			return
		}
		inner, err := sel.Html()
		if err != nil {
			return
		}
		sel.SetHtml(w.Wrap(inner, style))
		wrapped++
	})
	w.opts.logger.Debug("titles wrapped", "count", wrapped)

	applyPosition(doc, w.opts.position)
}

// Reset is a no-op; Inline holds no state.
func (w *Inline) Reset() {}
