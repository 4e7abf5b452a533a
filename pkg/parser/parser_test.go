package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"index.php", LangPHP},
		{"src/Controller/Home.php", LangPHP},
		{"INDEX.PHP", LangPHP},
		{"templates/layout.phtml", LangPHP},
		{"legacy/config.inc", LangPHP},
		{"main.go", LangUnknown},
		{"file.txt", LangUnknown},
		{"composer.json", LangUnknown},
		{"Makefile", LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("<?php\n\nclass Foo {}\n")
	result, err := p.Parse(src, "foo.php")
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, LangPHP, result.Language)
	assert.Equal(t, "foo.php", result.Path)
	require.NotNil(t, result.Root())
	assert.Equal(t, "program", result.Root().Type())

	classes := FindNodesByType(result.Root(), result.Source, "class_declaration")
	require.Len(t, classes, 1)
	assert.Equal(t, uint32(3), Line(classes[0]))
	assert.Equal(t, "Foo", GetNodeText(classes[0].ChildByFieldName("name"), result.Source))
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php\nfunction a() {}\n"), 0o644))

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	require.NoError(t, err)
	defer result.Close()
	assert.Len(t, FindNodesByType(result.Root(), result.Source, "function_definition"), 1)

	_, err = p.ParseFile(filepath.Join(dir, "a.txt"))
	assert.Error(t, err)

	_, err = p.ParseFile(filepath.Join(dir, "missing.php"))
	assert.Error(t, err)
}

func TestWalkTyped_StopsDescent(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte("<?php\nclass A { public function f() {} }\nfunction g() {}\n")
	result, err := p.Parse(src, "a.php")
	require.NoError(t, err)
	defer result.Close()

	var seen []string
	WalkTyped(result.Root(), result.Source, func(node *sitter.Node, nodeType string, _ []byte) bool {
		switch nodeType {
		case "class_declaration":
			seen = append(seen, nodeType)
			return false
		case "method_declaration", "function_definition":
			seen = append(seen, nodeType)
		}
		return true
	})

	assert.Equal(t, []string{"class_declaration", "function_definition"}, seen)
}

func TestGetNodeText_Nil(t *testing.T) {
	assert.Equal(t, "", GetNodeText(nil, []byte("abc")))
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		src  string
		want int
	}{
		{"", 0},
		{"<?php", 1},
		{"<?php\n", 1},
		{"<?php\n\necho 1;", 3},
		{"<?php\n\necho 1;\n", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CountLines([]byte(tt.src)), "CountLines(%q)", tt.src)
	}
}

func TestIsDocComment(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/** Doc */", true},
		{"/**\n * Doc\n */", true},
		{"/**/", false},
		{"/***/", false},
		{"/* plain */", false},
		{"// line", false},
		{"/**Doc*/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDocComment(tt.text), "IsDocComment(%q)", tt.text)
	}
}

func TestDocComment(t *testing.T) {
	p := New()
	defer p.Close()

	src := []byte(`<?php
/** Documented */
class A {}

// not a doc
class B {}

class C {}
`)
	result, err := p.Parse(src, "a.php")
	require.NoError(t, err)
	defer result.Close()

	classes := FindNodesByType(result.Root(), result.Source, "class_declaration")
	require.Len(t, classes, 3)

	assert.Equal(t, "/** Documented */", DocComment(classes[0], result.Source))
	assert.Equal(t, "", DocComment(classes[1], result.Source))
	assert.Equal(t, "", DocComment(classes[2], result.Source))
}
