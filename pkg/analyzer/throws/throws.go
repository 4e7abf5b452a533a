// Package throws decides whether a function or method body can let an
// exception escape to its caller.
package throws

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/cdensity/pkg/analyzer/symbols"
	"github.com/panbanda/cdensity/pkg/parser"
)

// throwable is caught by every catch clause naming it, whatever was thrown.
const throwable = "throwable"

// Analyzer walks function bodies looking for uncaught throws. Calls are
// resolved one level deep through the @throws tags recorded in the symbol
// table; the callee's own body is never inspected.
type Analyzer struct {
	table *symbols.Table
}

// New creates an analyzer backed by table. A nil table resolves nothing.
func New(table *symbols.Table) *Analyzer {
	if table == nil {
		table = symbols.New()
	}
	return &Analyzer{table: table}
}

// HasUncaughtThrow reports whether the body of decl (a function_definition
// or method_declaration) contains a throw, or a call to a function declaring
// @throws, that no enclosing catch clause handles.
func (a *Analyzer) HasUncaughtThrow(decl *sitter.Node, source []byte, scope symbols.Scope) bool {
	if decl == nil {
		return false
	}
	body := decl.ChildByFieldName("body")
	if body == nil {
		return false
	}

	w := &walker{
		table:  a.table,
		source: source,
		scope:  scope,
		vars:   make(map[string][]string),
	}
	w.bindParameters(decl.ChildByFieldName("parameters"))
	return w.visit(body)
}

// frame is an enclosing try block, described by the types its catch clauses
// accept.
type frame struct {
	catches []string
}

type walker struct {
	table  *symbols.Table
	source []byte
	scope  symbols.Scope
	frames []frame
	// vars maps a variable name (with $) to the classes it may hold.
	vars map[string][]string
}

func (w *walker) text(node *sitter.Node) string {
	return parser.GetNodeText(node, w.source)
}

func (w *walker) visit(node *sitter.Node) bool {
	if node == nil {
		return false
	}

	switch node.Type() {
	case "function_definition", "method_declaration",
		"anonymous_function_creation_expression", "anonymous_function", "arrow_function",
		"class_declaration", "interface_declaration", "trait_declaration", "enum_declaration",
		"declaration_list":
		return false
	case "try_statement":
		return w.visitTry(node)
	case "throw_expression", "throw_statement":
		if w.visitThrow(node) {
			return true
		}
	case "member_call_expression", "nullsafe_member_call_expression",
		"scoped_call_expression", "function_call_expression":
		if w.anyUncaught(w.calleeThrows(node)) {
			return true
		}
	case "assignment_expression":
		w.bindAssignment(node)
	}

	for i := range int(node.NamedChildCount()) {
		if w.visit(node.NamedChild(i)) {
			return true
		}
	}
	return false
}

func (w *walker) visitTry(node *sitter.Node) bool {
	clauses := parser.ChildrenOfType(node, "catch_clause")

	var catches []string
	for _, clause := range clauses {
		catches = append(catches, w.catchTypes(clause)...)
	}

	w.frames = append(w.frames, frame{catches: catches})
	escaped := w.visit(node.ChildByFieldName("body"))
	w.frames = w.frames[:len(w.frames)-1]
	if escaped {
		return true
	}

	// catch and finally bodies are only protected by the enclosing tries
	for _, clause := range clauses {
		if name := clause.ChildByFieldName("name"); name != nil {
			w.vars[w.text(name)] = w.catchTypes(clause)
		}
		if w.visit(clause.ChildByFieldName("body")) {
			return true
		}
	}
	for _, fin := range parser.ChildrenOfType(node, "finally_clause") {
		if w.visit(fin.ChildByFieldName("body")) {
			return true
		}
	}
	return false
}

func (w *walker) catchTypes(clause *sitter.Node) []string {
	typ := clause.ChildByFieldName("type")
	if typ == nil {
		typ = parser.FirstChildOfType(clause, "type_list", "named_type", "name", "qualified_name")
	}
	return w.resolveTypes(w.text(typ))
}

func (w *walker) visitThrow(node *sitter.Node) bool {
	if node.NamedChildCount() == 0 {
		return false
	}
	thrown := w.expressionTypes(node.NamedChild(0))
	if len(thrown) == 0 {
		thrown = []string{""}
	}
	return w.anyUncaught(thrown)
}

// expressionTypes returns the classes an expression may evaluate to. An
// empty result means the class is unknown.
func (w *walker) expressionTypes(expr *sitter.Node) []string {
	if expr == nil {
		return nil
	}
	switch expr.Type() {
	case "parenthesized_expression":
		if expr.NamedChildCount() > 0 {
			return w.expressionTypes(expr.NamedChild(0))
		}
	case "object_creation_expression":
		if parser.FirstChildOfType(expr, "declaration_list") != nil {
			return nil
		}
		for i := range int(expr.NamedChildCount()) {
			child := expr.NamedChild(i)
			switch child.Type() {
			case "name", "qualified_name", "relative_scope":
				if c := w.scope.ResolveClass(w.table, w.text(child)); c != "" {
					return []string{c}
				}
				return nil
			case "variable_name", "arguments", "anonymous_class":
				return nil
			}
		}
	case "variable_name":
		return w.vars[w.text(expr)]
	}
	return nil
}

// calleeThrows returns the @throws types declared by the function or method
// a call expression resolves to.
func (w *walker) calleeThrows(call *sitter.Node) []string {
	if w.isCallableReference(call) {
		return nil
	}

	switch call.Type() {
	case "member_call_expression", "nullsafe_member_call_expression":
		method := w.text(call.ChildByFieldName("name"))
		object := call.ChildByFieldName("object")
		var classes []string
		if w.text(object) == "$this" {
			classes = []string{w.scope.Class}
		} else {
			classes = w.expressionTypes(object)
		}
		return w.methodThrows(classes, method)

	case "scoped_call_expression":
		method := w.text(call.ChildByFieldName("name"))
		class := w.scope.ResolveClass(w.table, w.text(call.ChildByFieldName("scope")))
		return w.methodThrows([]string{class}, method)

	case "function_call_expression":
		fn := call.ChildByFieldName("function")
		if fn == nil {
			return nil
		}
		switch fn.Type() {
		case "name", "qualified_name":
		default:
			return nil
		}
		for _, candidate := range w.scope.ResolveFunction(w.text(fn)) {
			if throws, ok := w.table.FunctionThrows(candidate); ok {
				return throws
			}
		}
	}
	return nil
}

func (w *walker) methodThrows(classes []string, method string) []string {
	if method == "" {
		return nil
	}
	var out []string
	for _, class := range classes {
		if class == "" {
			continue
		}
		if throws, ok := w.table.MethodThrows(class, method); ok {
			out = append(out, throws...)
		}
	}
	return out
}

// anyUncaught reports whether any of thrown escapes the active try frames.
// An unknown type is only caught by Throwable.
func (w *walker) anyUncaught(thrown []string) bool {
	for _, t := range thrown {
		if !w.caught(t) {
			return true
		}
	}
	return false
}

func (w *walker) caught(thrown string) bool {
	for _, f := range w.frames {
		for _, c := range f.catches {
			if symbols.Key(c) == throwable {
				return true
			}
			if thrown != "" && w.table.IsSubtype(thrown, c) {
				return true
			}
		}
	}
	return false
}

func (w *walker) bindAssignment(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "variable_name" {
		return
	}
	types := w.expressionTypes(node.ChildByFieldName("right"))
	if types == nil {
		delete(w.vars, w.text(left))
		return
	}
	w.vars[w.text(left)] = types
}

func (w *walker) bindParameters(params *sitter.Node) {
	if params == nil {
		return
	}
	for i := range int(params.NamedChildCount()) {
		param := params.NamedChild(i)
		switch param.Type() {
		case "simple_parameter", "property_promotion_parameter":
		default:
			continue
		}
		name := param.ChildByFieldName("name")
		if name == nil {
			continue
		}
		if types := w.resolveTypes(w.text(param.ChildByFieldName("type"))); len(types) > 0 {
			w.vars[w.text(name)] = types
		}
	}
}

func (w *walker) resolveTypes(text string) []string {
	var out []string
	for _, name := range parser.TypeNames(text) {
		if c := w.scope.ResolveClass(w.table, name); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// isCallableReference reports whether a call is a first-class callable
// creation such as strlen(...), which does not invoke the callee.
func (w *walker) isCallableReference(call *sitter.Node) bool {
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return false
	}
	if parser.FirstChildOfType(args, "variadic_placeholder") != nil {
		return true
	}
	return strings.ReplaceAll(w.text(args), " ", "") == "(...)"
}
