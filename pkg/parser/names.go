package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// NameContext tracks the active namespace and `use` imports of a PHP file so
// that short names can be resolved to fully qualified names.
// Returned names never carry a leading backslash.
type NameContext struct {
	namespace string
	classes   map[string]string
	functions map[string]string
}

// NewNameContext creates an empty context in the global namespace.
func NewNameContext() *NameContext {
	return &NameContext{
		classes:   make(map[string]string),
		functions: make(map[string]string),
	}
}

// Namespace returns the active namespace ("" for the global namespace).
func (c *NameContext) Namespace() string {
	return c.namespace
}

// SetNamespace switches namespace. Imports never survive a namespace change.
func (c *NameContext) SetNamespace(ns string) {
	c.namespace = strings.Trim(strings.TrimSpace(ns), `\`)
	c.classes = make(map[string]string)
	c.functions = make(map[string]string)
}

// Qualify prefixes a declared short name with the active namespace.
func (c *NameContext) Qualify(name string) string {
	name = strings.TrimSpace(name)
	if c.namespace == "" {
		return name
	}
	return c.namespace + `\` + name
}

// scalarTypes are type keywords that never resolve against the namespace.
var scalarTypes = map[string]bool{
	"array": true, "bool": true, "callable": true, "false": true, "float": true,
	"int": true, "iterable": true, "mixed": true, "never": true, "null": true,
	"object": true, "self": true, "static": true, "parent": true, "string": true,
	"true": true, "void": true, "integer": true, "boolean": true, "double": true,
}

// IsScalarType reports whether name is a PHP type keyword rather than a class.
func IsScalarType(name string) bool {
	return scalarTypes[strings.ToLower(strings.TrimSpace(name))]
}

// ResolveClass resolves a class-like name as written in source.
func (c *NameContext) ResolveClass(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	if IsScalarType(name) {
		return strings.ToLower(name)
	}
	if rest, ok := cutPrefixFold(name, `namespace\`); ok {
		return c.Qualify(rest)
	}

	first, rest, qualified := strings.Cut(name, `\`)
	if target, ok := c.classes[strings.ToLower(first)]; ok {
		if qualified {
			return target + `\` + rest
		}
		return target
	}
	return c.Qualify(name)
}

// ResolveFunction returns candidate fully qualified names for a function call,
// most specific first. Unqualified calls fall back to the global function.
func (c *NameContext) ResolveFunction(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, `\`) {
		return []string{strings.TrimPrefix(name, `\`)}
	}
	if strings.Contains(name, `\`) {
		return []string{c.ResolveClass(name)}
	}
	if target, ok := c.functions[strings.ToLower(name)]; ok {
		return []string{target}
	}
	if c.namespace == "" {
		return []string{name}
	}
	return []string{c.Qualify(name), name}
}

// AddUseDeclaration records the imports of a namespace_use_declaration node.
func (c *NameContext) AddUseDeclaration(node *sitter.Node, source []byte) {
	c.AddUse(GetNodeText(node, source))
}

// AddUse records the imports of a `use` statement given as source text, e.g.
// `use Foo\Bar as Baz, Foo\Qux;`, `use function Foo\bar;` or
// `use Foo\{A, B as C, function d};`.
func (c *NameContext) AddUse(text string) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")
	rest, ok := cutPrefixFold(text, "use")
	if !ok {
		return
	}
	rest = strings.TrimSpace(rest)
	kind, rest := useKind(rest)

	if open := strings.Index(rest, "{"); open >= 0 {
		prefix := strings.Trim(strings.TrimSpace(rest[:open]), `\`)
		body := strings.TrimSuffix(strings.TrimSpace(rest[open+1:]), "}")
		for _, clause := range strings.Split(body, ",") {
			clause = strings.TrimSpace(clause)
			if clause == "" {
				continue
			}
			clauseKind, name := useKind(clause)
			if clauseKind == "" {
				clauseKind = kind
			}
			c.addClause(clauseKind, prefix+`\`+strings.TrimPrefix(name, `\`))
		}
		return
	}

	for _, clause := range strings.Split(rest, ",") {
		c.addClause(kind, clause)
	}
}

func (c *NameContext) addClause(kind, clause string) {
	clause = strings.TrimSpace(clause)
	if clause == "" {
		return
	}
	target, alias := clause, ""
	fields := strings.Fields(clause)
	if len(fields) == 3 && strings.EqualFold(fields[1], "as") {
		target, alias = fields[0], fields[2]
	}
	target = strings.Trim(target, `\`)
	if alias == "" {
		alias = target
		if i := strings.LastIndex(target, `\`); i >= 0 {
			alias = target[i+1:]
		}
	}

	switch kind {
	case "function":
		c.functions[strings.ToLower(alias)] = target
	case "const":
		// constants never influence type resolution
	default:
		c.classes[strings.ToLower(alias)] = target
	}
}

func useKind(s string) (string, string) {
	for _, kind := range []string{"function", "const"} {
		if rest, ok := cutPrefixFold(s, kind); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n') {
			return kind, strings.TrimSpace(rest)
		}
	}
	return "", s
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// IsFunctionImport reports whether a use declaration imports functions, e.g.
// `use function Foo\bar;`. Such statements are never function declarations.
func IsFunctionImport(node *sitter.Node, source []byte) bool {
	rest, ok := cutPrefixFold(strings.TrimSpace(GetNodeText(node, source)), "use")
	if !ok {
		return false
	}
	kind, _ := useKind(strings.TrimSpace(rest))
	return kind == "function"
}

// TypeNames splits a type declaration as written in source, e.g.
// `?Foo`, `A|B`, `(A&B)|null`, into its member names.
func TypeNames(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '|', '&', '?', '(', ')', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
}
