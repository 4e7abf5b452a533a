// Package comments classifies raw PHP comment tokens into categories.
package comments

import (
	"regexp"
	"strings"

	"github.com/panbanda/cdensity/pkg/parser"
)

var (
	licenseKeywords = regexp.MustCompile(`(?i)(license|copyright|permission)`)
	todoMarker      = regexp.MustCompile(`(?i)\btodo\b:?`)
	fixmeMarker     = regexp.MustCompile(`(?i)\bfixme\b:?`)
)

// pattern pairs a predicate with the category it yields. Patterns are tried
// in order and the first match wins: a license docblock also matches the
// docblock pattern, and a TODO line also matches the regular pattern.
type pattern struct {
	match    func(text string) bool
	category Category
}

var patterns = []pattern{
	{isLicense, CategoryLicense},
	{parser.IsDocComment, CategoryDocBlock},
	{func(s string) bool { return isAnyComment(s) && todoMarker.MatchString(s) }, CategoryTodo},
	{func(s string) bool { return isAnyComment(s) && fixmeMarker.MatchString(s) }, CategoryFixme},
	{isRegular, CategoryRegular},
}

func isLicense(text string) bool {
	return parser.IsDocComment(text) && licenseKeywords.MatchString(text)
}

// isAnyComment accepts every comment style the TODO/FIXME markers apply to.
func isAnyComment(text string) bool {
	return strings.HasPrefix(text, "//") ||
		strings.HasPrefix(text, "#") ||
		(strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/")) ||
		(strings.HasPrefix(text, "<!--") && strings.HasSuffix(text, "-->"))
}

// isRegular accepts line comments and non-doc block comments. HTML comments
// only count when they carry a marker.
func isRegular(text string) bool {
	if strings.HasPrefix(text, "//") || strings.HasPrefix(text, "#") {
		return true
	}
	return strings.HasPrefix(text, "/*") && strings.HasSuffix(text, "*/") && !parser.IsDocComment(text)
}

// Classifier assigns categories to comment texts.
// It is stateless after construction and safe for concurrent use.
type Classifier struct {
	allowed map[Category]bool
}

// Option is a functional option for configuring Classifier.
type Option func(*Classifier)

// WithAllowed restricts classification to the given categories. Comments
// matching any other category are skipped.
func WithAllowed(categories ...Category) Option {
	return func(c *Classifier) {
		for _, cat := range categories {
			c.allowed[cat] = true
		}
	}
}

// New creates a classifier. Without WithAllowed every category is reported.
func New(opts ...Option) *Classifier {
	c := &Classifier{allowed: make(map[Category]bool)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Allows reports whether findings of category c are reported.
func (c *Classifier) Allows(cat Category) bool {
	return len(c.allowed) == 0 || c.allowed[cat]
}

// Classify returns the category of a raw comment text. The second result is
// false when the text matches no pattern or its category is not allowed.
func (c *Classifier) Classify(text string) (Category, bool) {
	text = strings.TrimSpace(text)
	for _, p := range patterns {
		if !p.match(text) {
			continue
		}
		if !c.Allows(p.category) {
			return "", false
		}
		return p.category, true
	}
	return "", false
}

// Finding classifies text and builds the finding for it.
func (c *Classifier) Finding(file string, line uint32, text string) (Finding, bool) {
	cat, ok := c.Classify(text)
	if !ok {
		return Finding{}, false
	}
	rule, _ := Lookup(cat)
	return Finding{
		Category: cat,
		Color:    rule.Color,
		File:     file,
		Line:     line,
		Text:     text,
	}, true
}

// Classify categorizes text without a classifier instance. An empty allowed
// list permits every category.
func Classify(text string, allowed []Category) (Category, bool) {
	return New(WithAllowed(allowed...)).Classify(text)
}
