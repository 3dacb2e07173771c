package render

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/kraciasty/titlecss"
)

// ClassPrefix prefixes the class generated for a title token.
const ClassPrefix = "title-class--"

// Token normalizes title text into a class-safe identifier: lower-cased,
// whitespace runs collapsed to "-", anything outside [a-z0-9_-] removed,
// repeated "-" collapsed and trimmed from both ends. Titles that normalize to
// nothing yield "".
func Token(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	dash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			dash = b.Len() > 0
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			if dash {
				b.WriteByte('-')
				dash = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Class returns the class name applied to elements showing text, or "" when
// the text has no usable token.
func Class(text string) string {
	token := Token(text)
	if token == "" {
		return ""
	}
	return ClassPrefix + token
}

// TitleText returns the text a title renders as: its markup is sanitized like
// any rendered title and only the text content is kept. Occurrence texts go
// through it so that "<em>Big</em> Cheese" matches an element showing
// "Big Cheese".
func TitleText(markup string) string {
	clean := titlecss.SanitizeMarkup(markup)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return clean
	}
	return doc.Text()
}
