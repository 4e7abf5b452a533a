package parser

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"
)

// Language represents a supported programming language.
type Language string

const (
	LangPHP     Language = "php"
	LangUnknown Language = "unknown"
)

// Parser wraps tree-sitter for PHP parsing.
// A Parser is not safe for concurrent use; create one per worker.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// Root returns the root node of the parsed tree.
func (r *ParseResult) Root() *sitter.Node {
	if r == nil || r.Tree == nil {
		return nil
	}
	return r.Tree.RootNode()
}

// Close releases the underlying tree.
func (r *ParseResult) Close() {
	if r != nil && r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(php.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile parses a source file and returns the AST.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	if DetectLanguage(path) == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.Parse(source, path)
}

// Parse parses PHP source code. The path is only recorded on the result.
func (p *Parser) Parse(source []byte, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, path)
}

// ParseCtx parses PHP source code, honoring cancellation of ctx.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &ParseResult{
		Tree:     tree,
		Language: LangPHP,
		Source:   source,
		Path:     path,
	}, nil
}

// DetectLanguage determines the language from a file path.
func DetectLanguage(path string) Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".php", ".phtml", ".inc":
		return LangPHP
	default:
		return LangUnknown
	}
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// CountLines returns the number of lines in source. A trailing line without a
// newline still counts; an empty source has zero lines.
func CountLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := bytes.Count(source, []byte{'\n'})
	if source[len(source)-1] != '\n' {
		n++
	}
	return n
}

// NodeVisitor is a function that visits AST nodes.
type NodeVisitor func(node *sitter.Node, source []byte) bool

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// Walk traverses the AST calling visitor for each node.
func Walk(node *sitter.Node, source []byte, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), source, visitor)
	}
}

// WalkTyped traverses the AST with cached node types to reduce CGO overhead.
// Use this when you need to check node types frequently.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// FindNodesByType returns all nodes of a specific type.
func FindNodesByType(root *sitter.Node, source []byte, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	WalkTyped(root, source, func(node *sitter.Node, t string, _ []byte) bool {
		if t == nodeType {
			results = append(results, node)
		}
		return true
	})
	return results
}

// FirstChildOfType returns the first direct child with one of the given types.
func FirstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		t := child.Type()
		for _, want := range types {
			if t == want {
				return child
			}
		}
	}
	return nil
}

// ChildrenOfType returns all direct children with one of the given types.
func ChildrenOfType(node *sitter.Node, types ...string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		t := child.Type()
		for _, want := range types {
			if t == want {
				out = append(out, child)
				break
			}
		}
	}
	return out
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// Line returns the 1-based start line of a node.
func Line(node *sitter.Node) uint32 {
	return node.StartPoint().Row + 1
}

// DocComment returns the doc comment immediately preceding node, or "" if the
// previous sibling is not a `/** */` comment.
func DocComment(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := GetNodeText(prev, source)
	if !IsDocComment(text) {
		return ""
	}
	return text
}

// IsDocComment reports whether text is a PHP doc comment. PHP only treats
// `/**` followed by whitespace as T_DOC_COMMENT, so `/**/` is a plain block.
func IsDocComment(text string) bool {
	if len(text) < 5 || !strings.HasPrefix(text, "/**") || !strings.HasSuffix(text, "*/") {
		return false
	}
	switch text[3] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
