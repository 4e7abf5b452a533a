// Package scan walks a parsed PHP file once, classifying every comment and
// reporting every declaration missing a required doc comment.
package scan

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/cdensity/pkg/analyzer/comments"
	"github.com/panbanda/cdensity/pkg/analyzer/docblock"
	"github.com/panbanda/cdensity/pkg/analyzer/symbols"
	"github.com/panbanda/cdensity/pkg/parser"
)

var htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)

// Scanner produces the findings of single files.
// It holds no per-file state and is safe for concurrent use.
type Scanner struct {
	classifier *comments.Classifier
	checker    *docblock.Checker
	table      *symbols.Table
}

// New creates a scanner. The table must already hold every declaration of
// the analyzed tree. An empty allowed list reports every category.
func New(table *symbols.Table, cfg docblock.Config, allowed ...comments.Category) *Scanner {
	if table == nil {
		table = symbols.New()
	}
	return &Scanner{
		classifier: comments.New(comments.WithAllowed(allowed...)),
		checker:    docblock.NewChecker(cfg, table),
		table:      table,
	}
}

// Scan returns the findings of one file in source order.
func (s *Scanner) Scan(res *parser.ParseResult) []comments.Finding {
	if res == nil {
		return nil
	}
	v := &visitor{
		Scanner: s,
		source:  res.Source,
		path:    res.Path,
		names:   parser.NewNameContext(),
	}
	v.visit(res.Root())
	return v.findings
}

type visitor struct {
	*Scanner
	source   []byte
	path     string
	names    *parser.NameContext
	class    string
	findings []comments.Finding
}

func (v *visitor) visit(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "comment":
		v.comment(node)
		return
	case "text":
		v.inlineHTML(node)
		return
	case "namespace_definition":
		v.names.SetNamespace(parser.GetNodeText(node.ChildByFieldName("name"), v.source))
		if body := node.ChildByFieldName("body"); body != nil {
			v.visitChildren(body)
			v.names.SetNamespace("")
		}
		return
	case "namespace_use_declaration":
		v.names.AddUseDeclaration(node, v.source)
		return
	case "object_creation_expression", "anonymous_class":
		if isAnonymousClass(node) {
			outer := v.class
			v.class = ""
			v.visitChildren(node)
			v.class = outer
			return
		}
	}

	if d, ok := docblock.Classify(node, v.source); ok {
		v.declaration(d)
		switch d.Kind {
		case docblock.KindClass, docblock.KindInterface, docblock.KindTrait, docblock.KindEnum:
			outer := v.class
			v.class = v.names.Qualify(d.Name)
			v.visitChildren(node)
			v.class = outer
			return
		}
	}

	v.visitChildren(node)
}

func (v *visitor) visitChildren(node *sitter.Node) {
	for i := range int(node.ChildCount()) {
		v.visit(node.Child(i))
	}
}

func (v *visitor) comment(node *sitter.Node) {
	if f, ok := v.classifier.Finding(v.path, parser.Line(node), parser.GetNodeText(node, v.source)); ok {
		v.findings = append(v.findings, f)
	}
}

// inlineHTML classifies the HTML comments of text outside PHP tags.
func (v *visitor) inlineHTML(node *sitter.Node) {
	text := parser.GetNodeText(node, v.source)
	if !strings.Contains(text, "<!--") {
		return
	}
	start := parser.Line(node)
	for _, loc := range htmlComment.FindAllStringIndex(text, -1) {
		line := start + uint32(strings.Count(text[:loc[0]], "\n"))
		if f, ok := v.classifier.Finding(v.path, line, text[loc[0]:loc[1]]); ok {
			v.findings = append(v.findings, f)
		}
	}
}

func (v *visitor) declaration(d docblock.Declaration) {
	if !v.classifier.Allows(comments.CategoryMissingDocBlock) {
		return
	}
	if docblock.IsSatisfied(d, v.source) {
		return
	}
	scope := symbols.Scope{Names: v.names, Class: v.class}
	if !v.checker.RequiresDoc(d, v.source, scope) {
		return
	}
	v.findings = append(v.findings, comments.NewMissingDocBlock(v.path, d.Line))
}

func isAnonymousClass(node *sitter.Node) bool {
	if node.Type() == "anonymous_class" {
		return true
	}
	return parser.FirstChildOfType(node, "declaration_list") != nil
}
