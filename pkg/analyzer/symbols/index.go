package symbols

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/cdensity/pkg/parser"
)

// Index extracts the class-like and function declarations of one parsed
// file into a fresh table. Tables of several files are combined with Merge.
func Index(res *parser.ParseResult) *Table {
	t := New()
	if res == nil {
		return t
	}
	ix := &indexer{
		table:  t,
		source: res.Source,
		path:   res.Path,
		names:  parser.NewNameContext(),
	}
	ix.visit(res.Root())
	return t
}

type indexer struct {
	table  *Table
	source []byte
	path   string
	names  *parser.NameContext
}

func (ix *indexer) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "namespace_definition":
		ix.names.SetNamespace(parser.GetNodeText(node.ChildByFieldName("name"), ix.source))
		if body := node.ChildByFieldName("body"); body != nil {
			ix.visitChildren(body)
			ix.names.SetNamespace("")
		}
		return
	case "namespace_use_declaration":
		ix.names.AddUseDeclaration(node, ix.source)
		return
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		ix.addType(node)
	case "function_definition":
		ix.addFunction(node)
	}

	ix.visitChildren(node)
}

func (ix *indexer) visitChildren(node *sitter.Node) {
	for i := range int(node.NamedChildCount()) {
		ix.visit(node.NamedChild(i))
	}
}

func (ix *indexer) addType(node *sitter.Node) {
	name := parser.GetNodeText(node.ChildByFieldName("name"), ix.source)
	if name == "" {
		return
	}

	kind := kindOf(node.Type())
	typ := &Type{
		Name:    ix.names.Qualify(name),
		Kind:    kind,
		Generic: HasTemplate(parser.DocComment(node, ix.source)),
		File:    ix.path,
		Line:    parser.Line(node),
	}

	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch child.Type() {
		case "base_clause":
			supers := ix.typeNames(child)
			if kind == KindInterface {
				typ.Interfaces = append(typ.Interfaces, supers...)
			} else if len(supers) > 0 {
				typ.Parent = supers[0]
			}
		case "class_interface_clause":
			typ.Interfaces = append(typ.Interfaces, ix.typeNames(child)...)
		}
	}

	if body := node.ChildByFieldName("body"); body != nil {
		for i := range int(body.NamedChildCount()) {
			member := body.NamedChild(i)
			switch member.Type() {
			case "method_declaration":
				typ.AddMethod(&Method{
					Name:   parser.GetNodeText(member.ChildByFieldName("name"), ix.source),
					Throws: ix.throws(member),
				})
			case "use_declaration":
				typ.Traits = append(typ.Traits, ix.typeNames(member)...)
			}
		}
	}

	ix.table.AddType(typ)
}

func (ix *indexer) addFunction(node *sitter.Node) {
	name := parser.GetNodeText(node.ChildByFieldName("name"), ix.source)
	if name == "" {
		return
	}
	ix.table.AddFunction(&Function{
		Name:   ix.names.Qualify(name),
		Throws: ix.throws(node),
		File:   ix.path,
	})
}

// throws resolves the @throws tags of a declaration's doc comment.
func (ix *indexer) throws(node *sitter.Node) []string {
	tags := ParseThrows(parser.DocComment(node, ix.source))
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ix.names.ResolveClass(tag))
	}
	return out
}

// typeNames resolves the names listed directly under an extends, implements
// or trait use clause.
func (ix *indexer) typeNames(node *sitter.Node) []string {
	var out []string
	for _, child := range parser.ChildrenOfType(node, "name", "qualified_name") {
		out = append(out, ix.names.ResolveClass(parser.GetNodeText(child, ix.source)))
	}
	return out
}

func kindOf(nodeType string) Kind {
	switch nodeType {
	case "interface_declaration":
		return KindInterface
	case "trait_declaration":
		return KindTrait
	case "enum_declaration":
		return KindEnum
	default:
		return KindClass
	}
}
