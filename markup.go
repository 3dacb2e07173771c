package titlecss

import (
	"github.com/microcosm-cc/bluemonday"
)

var markupPolicy = MarkupPolicy()

// MarkupPolicy builds the policy applied to title markup before it is
// rendered. Only span, strong, em, i and b survive; span may carry a style
// attribute restricted to the same declarations SanitizeCSS accepts. Other
// elements are unwrapped to their children, except those whose content is
// unsafe on its own (script, style, iframe, svg...), which are dropped whole.
func MarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("span", "strong", "em", "i", "b")
	p.SkipElementsContent("template", "svg", "math", "textarea", "xmp")

	for _, property := range allowedProperties {
		p.AllowStyles(property).MatchingHandler(func(value string) bool {
			return ValidDeclaration(property, value)
		}).OnElements("span")
	}

	return p
}

// SanitizeMarkup applies MarkupPolicy to a title value.
func SanitizeMarkup(s string) string {
	return markupPolicy.Sanitize(s)
}
