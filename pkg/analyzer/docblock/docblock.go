// Package docblock decides which PHP declarations must carry a preceding doc
// comment and whether they do.
package docblock

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/cdensity/pkg/analyzer/symbols"
	"github.com/panbanda/cdensity/pkg/analyzer/throws"
	"github.com/panbanda/cdensity/pkg/parser"
)

// Kind is the kind of a documentable declaration.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindTrait     Kind = "trait"
	KindEnum      Kind = "enum"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindProperty  Kind = "property"
	KindConstant  Kind = "constant"
)

// Config selects the declaration kinds that require a doc comment.
type Config struct {
	Class     bool `koanf:"class" toml:"class" yaml:"class"`
	Interface bool `koanf:"interface" toml:"interface" yaml:"interface"`
	Trait     bool `koanf:"trait" toml:"trait" yaml:"trait"`
	Enum      bool `koanf:"enum" toml:"enum" yaml:"enum"`
	// Function covers functions and methods.
	Function bool `koanf:"function" toml:"function" yaml:"function"`
	Property bool `koanf:"property" toml:"property" yaml:"property"`
	Constant bool `koanf:"constant" toml:"constant" yaml:"constant"`
	// RequireForAllMethods requires docs on every function. When false only
	// functions with generic signatures or uncaught throws need them.
	RequireForAllMethods bool `koanf:"require_for_all_methods" toml:"require_for_all_methods" yaml:"require_for_all_methods"`
}

// DefaultConfig checks every declaration kind and only the functions whose
// signature or exceptions need explaining.
func DefaultConfig() Config {
	return Config{
		Class:     true,
		Interface: true,
		Trait:     true,
		Enum:      true,
		Function:  true,
		Property:  true,
		Constant:  true,
	}
}

// Declaration is a syntax node that can carry a doc comment.
type Declaration struct {
	Node *sitter.Node
	Kind Kind
	Name string
	Line uint32
}

// Classify returns the declaration a node represents. Closures, arrow
// functions, anonymous classes, enum cases, promoted constructor parameters,
// global constants and use statements are never declarations.
func Classify(node *sitter.Node, source []byte) (Declaration, bool) {
	if node == nil {
		return Declaration{}, false
	}

	var kind Kind
	switch node.Type() {
	case "class_declaration":
		kind = KindClass
	case "interface_declaration":
		kind = KindInterface
	case "trait_declaration":
		kind = KindTrait
	case "enum_declaration":
		kind = KindEnum
	case "function_definition":
		kind = KindFunction
	case "method_declaration":
		kind = KindMethod
	case "property_declaration":
		if !inClassBody(node) {
			return Declaration{}, false
		}
		kind = KindProperty
	case "const_declaration":
		if !inClassBody(node) {
			return Declaration{}, false
		}
		kind = KindConstant
	default:
		return Declaration{}, false
	}

	return Declaration{
		Node: node,
		Kind: kind,
		Name: declarationName(node, source),
		Line: parser.Line(node),
	}, true
}

func inClassBody(node *sitter.Node) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "declaration_list", "enum_declaration_list":
		return true
	}
	return false
}

func declarationName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return parser.GetNodeText(name, source)
	}
	// properties and constants name their first element
	for _, typ := range []string{"property_element", "const_element"} {
		if el := parser.FirstChildOfType(node, typ); el != nil {
			if v := parser.FirstChildOfType(el, "variable_name", "name"); v != nil {
				return parser.GetNodeText(v, source)
			}
		}
	}
	return ""
}

// IsSatisfied reports whether the declaration is immediately preceded by a
// doc comment.
func IsSatisfied(d Declaration, source []byte) bool {
	return parser.DocComment(d.Node, source) != ""
}

// genericNames are the built-in types whose element type is not evident from
// the signature alone.
var genericNames = map[string]bool{
	"array":       true,
	"iterable":    true,
	"generator":   true,
	"traversable": true,
	"iterator":    true,
	"arrayaccess": true,
}

var containerInterfaces = []string{"Iterator", "ArrayAccess", "Traversable"}

// Checker applies a Config to declarations. It is safe for concurrent use
// once the symbol table is complete.
type Checker struct {
	cfg    Config
	table  *symbols.Table
	throws *throws.Analyzer
}

// NewChecker creates a checker resolving types through table.
func NewChecker(cfg Config, table *symbols.Table) *Checker {
	if table == nil {
		table = symbols.New()
	}
	return &Checker{
		cfg:    cfg,
		table:  table,
		throws: throws.New(table),
	}
}

// Config returns the checker's configuration.
func (c *Checker) Config() Config {
	return c.cfg
}

// RequiresDoc reports whether d must carry a doc comment.
func (c *Checker) RequiresDoc(d Declaration, source []byte, scope symbols.Scope) bool {
	switch d.Kind {
	case KindClass:
		return c.cfg.Class
	case KindInterface:
		return c.cfg.Interface
	case KindTrait:
		return c.cfg.Trait
	case KindEnum:
		return c.cfg.Enum
	case KindProperty:
		return c.cfg.Property
	case KindConstant:
		return c.cfg.Constant
	case KindFunction, KindMethod:
		if !c.cfg.Function {
			return false
		}
		if c.cfg.RequireForAllMethods {
			return true
		}
		return c.NeedsGeneric(d.Node, source, scope) ||
			c.throws.HasUncaughtThrow(d.Node, source, scope)
	}
	return false
}

// NeedsGeneric reports whether a function's return type or any parameter type
// is a container whose element type should be documented: a built-in
// iterable, a type implementing Iterator, ArrayAccess or Traversable, or a
// type declaring a template.
func (c *Checker) NeedsGeneric(fn *sitter.Node, source []byte, scope symbols.Scope) bool {
	if fn == nil {
		return false
	}
	for _, text := range signatureTypes(fn, source) {
		for _, name := range parser.TypeNames(text) {
			if c.isGeneric(name, scope) {
				return true
			}
		}
	}
	return false
}

func (c *Checker) isGeneric(name string, scope symbols.Scope) bool {
	if genericNames[symbols.Key(name)] {
		return true
	}
	class := scope.ResolveClass(c.table, name)
	if class == "" {
		return false
	}
	if genericNames[symbols.Key(class)] {
		return true
	}
	return c.table.ImplementsAny(class, containerInterfaces...) || c.table.IsGeneric(class)
}

// signatureTypes returns the type texts of a function's return type and
// parameters.
func signatureTypes(fn *sitter.Node, source []byte) []string {
	var out []string
	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		out = append(out, strings.TrimPrefix(strings.TrimSpace(parser.GetNodeText(ret, source)), ":"))
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return out
	}
	for i := range int(params.NamedChildCount()) {
		param := params.NamedChild(i)
		switch param.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
			if typ := param.ChildByFieldName("type"); typ != nil {
				out = append(out, parser.GetNodeText(typ, source))
			}
		}
	}
	return out
}
