package symbols

import (
	"regexp"
	"strings"
)

var (
	throwsTag   = regexp.MustCompile(`@throws\s+([^\s*]+)`)
	templateTag = regexp.MustCompile(`@(?:phpstan-|psalm-)?template(?:-covariant|-contravariant)?\s`)
)

// ParseThrows returns the exception types named by @throws tags in a doc
// comment, as written. Union types list every member.
func ParseThrows(doc string) []string {
	var out []string
	for _, m := range throwsTag.FindAllStringSubmatch(doc, -1) {
		for _, name := range strings.Split(m[1], "|") {
			name = strings.Trim(strings.TrimSpace(name), "()")
			if name != "" {
				out = append(out, name)
			}
		}
	}
	return out
}

// HasTemplate reports whether a doc comment declares a type parameter.
func HasTemplate(doc string) bool {
	return templateTag.MatchString(doc)
}
