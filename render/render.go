// Package render attaches sanitized title styles to rendered pages.
//
// Two strategies are provided and a deployment picks exactly one:
//
//   - Stylesheet keeps a bounded cache of title token to style and maintains
//     one managed <style> element with a class rule per cached title. Title
//     elements get a class, never an inline style.
//   - Inline wraps each title's markup in a marked <span style="..."> at
//     render time and never nests its own wrappers.
//
// Styles arriving here are treated as untrusted: every one is re-run through
// titlecss.SanitizeCSS before use, and title markup through
// titlecss.SanitizeMarkup.
package render

import (
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kraciasty/titlecss"
)

const (
	// DefaultMaxEntries bounds the Stylesheet cache.
	DefaultMaxEntries = 100
	// DefaultTitleSelector matches the elements holding a user's title.
	DefaultTitleSelector = ".user-title"
	// DefaultStylesheetID is the id of the managed <style> element.
	DefaultStylesheetID = "user-fancy-titles"
	// DefaultTitlePosition is used when no title position is configured.
	DefaultTitlePosition = "default"
)

// Occurrence is one rendered title with its owner's sanitized style, if any.
// Text may hold title markup; titles are matched on its visible text.
type Occurrence struct {
	Text  string
	Style string
}

// Applicator decorates a parsed page with title styles.
type Applicator interface {
	// Decorate styles every title element in doc that matches an occurrence
	// in batch. Missing titles and invalid styles are skipped.
	Decorate(doc *goquery.Document, batch []Occurrence)
	// Reset drops any state accumulated across batches.
	Reset()
}

// Observer receives notifications about cache and stylesheet changes.
type Observer interface {
	CacheFlushed()
	StylesheetRebuilt(rules int)
}

type nopObserver struct{}

func (nopObserver) CacheFlushed()         {}
func (nopObserver) StylesheetRebuilt(int) {}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

type options struct {
	maxEntries    int
	titleSelector string
	stylesheetID  string
	position      string
	logger        *slog.Logger
	observer      Observer
}

func defaultOptions() options {
	return options{
		maxEntries:    DefaultMaxEntries,
		titleSelector: DefaultTitleSelector,
		stylesheetID:  DefaultStylesheetID,
		position:      DefaultTitlePosition,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		observer:      nopObserver{},
	}
}

// Option configures an Applicator.
type Option func(*options)

// WithMaxEntries sets how many distinct titles the Stylesheet cache holds
// before it is flushed. Values below 1 keep the default.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithTitleSelector sets the CSS selector locating title elements.
func WithTitleSelector(selector string) Option {
	return func(o *options) {
		if strings.TrimSpace(selector) != "" {
			o.titleSelector = selector
		}
	}
}

// WithStylesheetID sets the id of the managed <style> element. Ids that are
// not plain identifiers are ignored.
func WithStylesheetID(id string) Option {
	return func(o *options) {
		if identifierPattern.MatchString(id) {
			o.stylesheetID = id
		}
	}
}

// WithTitlePosition sets the "title-position-{position}" class added to the
// root element of every decorated page. An empty position means
// DefaultTitlePosition.
func WithTitlePosition(position string) Option {
	return func(o *options) {
		if token := Token(position); token != "" {
			o.position = token
		} else {
			o.position = DefaultTitlePosition
		}
	}
}

// WithLogger sets the logger. Style values are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver registers an Observer for cache flushes and rebuilds.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// prepareStyle re-sanitizes an incoming style and rejects anything that
// could escape a rule body or a <style> element.
func prepareStyle(raw string) (string, bool) {
	style := titlecss.SanitizeCSS(raw)
	if style == "" || strings.ContainsAny(style, "{}<>\\") {
		return "", false
	}
	return style, true
}

func applyPosition(doc *goquery.Document, position string) {
	doc.Find("html").AddClass("title-position-" + position)
}
