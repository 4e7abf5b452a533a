package symbols

import (
	"strings"

	"github.com/panbanda/cdensity/pkg/parser"
)

// Scope is the lexical position of a declaration being analyzed: the name
// resolution context of its file and the enclosing class, if any.
type Scope struct {
	Names *parser.NameContext
	Class string
}

// ResolveClass resolves a class name written in source, including the
// relative names self, static and parent. The result is "" when the name
// cannot refer to a class.
func (s Scope) ResolveClass(t *Table, name string) string {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "self", "static":
		return s.Class
	case "parent":
		if typ, ok := t.Lookup(s.Class); ok {
			return typ.Parent
		}
		return ""
	}
	if parser.IsScalarType(name) {
		return ""
	}
	if s.Names == nil {
		return strings.TrimPrefix(name, `\`)
	}
	return s.Names.ResolveClass(name)
}

// ResolveFunction returns candidate fully qualified names of a called
// function, most specific first.
func (s Scope) ResolveFunction(name string) []string {
	if s.Names == nil {
		return []string{strings.TrimPrefix(strings.TrimSpace(name), `\`)}
	}
	return s.Names.ResolveFunction(name)
}
