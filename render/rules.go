package render

import (
	"fmt"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"github.com/kraciasty/titlecss"
)

// Rule is one parsed rule of a generated stylesheet.
type Rule struct {
	Selector string
	Style    titlecss.Style
}

// ParseRules parses stylesheet text as produced by Stylesheet.Text. Only
// qualified rules are returned; at-rules are reported as errors since the
// generator never emits them.
func ParseRules(text string) ([]Rule, error) {
	sheet, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse stylesheet: %w", err)
	}

	rules := make([]Rule, 0, len(sheet.Rules))
	for _, r := range sheet.Rules {
		if r.Kind != css.QualifiedRule {
			return nil, fmt.Errorf("unexpected %s %q", r.Kind, r.Name)
		}

		rule := Rule{Selector: strings.TrimSpace(r.Prelude)}
		for _, d := range r.Declarations {
			rule.Style = append(rule.Style, titlecss.Declaration{
				Property: strings.ToLower(d.Property),
				Value:    d.Value,
			})
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Rules parses the current stylesheet text.
func (s *Stylesheet) Rules() ([]Rule, error) {
	return ParseRules(s.Text())
}
