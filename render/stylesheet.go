package render

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Stylesheet styles titles through one generated <style> element holding a
// class rule per distinct title text. Identical titles share a rule, and the
// most recently merged style for a title wins.
type Stylesheet struct {
	opts options

	mu    sync.Mutex
	cache *Cache
	text  string
}

var _ Applicator = (*Stylesheet)(nil)

// NewStylesheet creates an empty Stylesheet.
func NewStylesheet(opts ...Option) *Stylesheet {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Stylesheet{
		opts:  o,
		cache: NewCache(o.maxEntries),
	}
}

// ApplyBatch merges every styled occurrence into the cache and, if anything
// changed, rebuilds the stylesheet text once for the whole batch. It reports
// whether the text was rebuilt.
func (s *Stylesheet) ApplyBatch(batch []Occurrence) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, o := range batch {
		style, ok := prepareStyle(o.Style)
		if !ok {
			continue
		}
		token := Token(TitleText(o.Text))
		if token == "" {
			continue
		}

		switch s.cache.Put(token, style) {
		case Flushed:
			s.opts.logger.Debug("style cache flushed", "max_entries", s.opts.maxEntries)
			s.opts.observer.CacheFlushed()
			changed = true
		case Inserted, Updated:
			changed = true
		}
	}

	if changed {
		s.text = s.build()
		s.opts.logger.Debug("stylesheet rebuilt", "rules", s.cache.Len())
		s.opts.observer.StylesheetRebuilt(s.cache.Len())
	}
	return changed
}

func (s *Stylesheet) build() string {
	var b strings.Builder
	for _, token := range s.cache.Tokens() {
		style, _ := s.cache.Get(token)
		b.WriteString("." + ClassPrefix + token + " { " + style + " }\n")
	}
	return b.String()
}

// Text returns the current stylesheet contents.
func (s *Stylesheet) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Class returns the class to put on elements showing text, if a rule for it
// is currently cached.
func (s *Stylesheet) Class(text string) (string, bool) {
	token := Token(text)
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cache.Get(token); !ok {
		return "", false
	}
	return ClassPrefix + token, true
}

// Len returns the number of cached rules.
func (s *Stylesheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}

// Reset clears the cache and the stylesheet text.
func (s *Stylesheet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Clear()
	s.text = ""
}

// Decorate merges batch, adds the title class to every matching title
// element in doc and writes the rules into the managed <style> element.
func (s *Stylesheet) Decorate(doc *goquery.Document, batch []Occurrence) {
	s.ApplyBatch(batch)

	doc.Find(s.opts.titleSelector).Each(func(_ int, sel *goquery.Selection) {
		if class, ok := s.Class(sel.Text()); ok {
			sel.AddClass(class)
		}
	})

	s.writeStyleElement(doc, s.Text())
	applyPosition(doc, s.opts.position)
}

func (s *Stylesheet) writeStyleElement(doc *goquery.Document, text string) {
	existing := doc.Find("style#" + s.opts.stylesheetID)
	if existing.Length() == 0 {
		if text == "" {
			return
		}
		head := doc.Find("head").First()
		if head.Length() == 0 {
			return
		}
		el := &html.Node{
			Type:     html.ElementNode,
			Data:     "style",
			DataAtom: atom.Style,
			Attr:     []html.Attribute{{Key: "id", Val: s.opts.stylesheetID}},
		}
		head.AppendNodes(el)
		existing = goquery.NewDocumentFromNode(el).Selection
	}

	existing.Slice(1, goquery.ToEnd).Remove()

	// Rule bodies never contain "<", so the raw text cannot close the element.
	el := existing.Nodes[0]
	for c := el.FirstChild; c != nil; c = el.FirstChild {
		el.RemoveChild(c)
	}
	if text != "" {
		el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
}
