package titlecss

import (
	"regexp"
	"slices"
	"strings"
)

// blockedPatterns are screened against the whole input before it is split
// into declarations. A payload hidden inside an otherwise allowed value must
// not survive the per-declaration filter.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)url\s*\(`),
	regexp.MustCompile(`(?i)@import`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)expression\s*\(`),
	regexp.MustCompile(`(?i)behavior\s*:`),
	regexp.MustCompile(`(?i)-moz-binding`),
}

var allowedProperties = []string{
	"color",
	"font-weight",
	"font-style",
	"text-decoration",
	"text-transform",
	"font-size",
}

var fontSizePattern = regexp.MustCompile(`(?i)^\d+(\.\d+)?(px|em|rem|%)$`)

// AllowedProperties returns the CSS properties a title style may set.
func AllowedProperties() []string {
	return slices.Clone(allowedProperties)
}

// Declaration is a single validated "property: value" pair.
type Declaration struct {
	Property string
	Value    string
}

func (d Declaration) String() string {
	return d.Property + ": " + d.Value
}

// Style is an ordered list of validated declarations.
type Style []Declaration

// String renders the style as "prop: value; prop: value", or "" when empty.
func (s Style) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// Blocked reports whether raw contains any construct that disqualifies the
// whole input (url(), @import, javascript:, expression(), behavior:,
// -moz-binding). Matching is case-insensitive.
func Blocked(raw string) bool {
	for _, re := range blockedPatterns {
		if re.MatchString(raw) {
			return true
		}
	}
	return false
}

// ValidDeclaration reports whether a single property/value pair would
// survive sanitization. The property is compared case-insensitively.
func ValidDeclaration(property, value string) bool {
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.TrimSpace(value)
	if property == "" || value == "" {
		return false
	}
	if !slices.Contains(allowedProperties, property) {
		return false
	}
	if property == "font-size" && !fontSizePattern.MatchString(value) {
		return false
	}
	return !Blocked(property + ": " + value)
}

// ParseStyle splits raw into declarations and keeps only the allowed ones.
// It returns nil when raw is blank or matches the blocklist.
func ParseStyle(raw string) Style {
	if strings.TrimSpace(raw) == "" || Blocked(raw) {
		return nil
	}

	var style Style
	for _, candidate := range strings.Split(raw, ";") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}

		property, value, ok := strings.Cut(candidate, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if !ValidDeclaration(property, value) {
			continue
		}

		style = append(style, Declaration{Property: property, Value: value})
	}
	return style
}

// SanitizeCSS returns the allowed declarations of raw joined with "; ", or ""
// if nothing survives. It never fails: disallowed content is dropped.
//
// The result is a fixed point: SanitizeCSS(SanitizeCSS(x)) == SanitizeCSS(x).
func SanitizeCSS(raw string) string {
	return ParseStyle(raw).String()
}
