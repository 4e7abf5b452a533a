package symbols

import "strings"

// Kind is the flavour of a class-like declaration.
type Kind string

const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindTrait     Kind = "trait"
	KindEnum      Kind = "enum"
)

// Method holds what the exception analysis needs to know about a method.
type Method struct {
	Name   string   `json:"name"`
	Throws []string `json:"throws,omitempty"`
}

// Type is an indexed class, interface, trait or enum.
// All referenced names are fully qualified without a leading backslash.
type Type struct {
	Name       string             `json:"name"`
	Kind       Kind               `json:"kind"`
	Parent     string             `json:"parent,omitempty"`
	Interfaces []string           `json:"interfaces,omitempty"`
	Traits     []string           `json:"traits,omitempty"`
	Generic    bool               `json:"generic,omitempty"`
	Methods    map[string]*Method `json:"methods,omitempty"`
	File       string             `json:"file,omitempty"`
	Line       uint32             `json:"line,omitempty"`
}

// Method returns the method declared directly on t (case-insensitive).
func (t *Type) Method(name string) (*Method, bool) {
	if t == nil || t.Methods == nil {
		return nil, false
	}
	m, ok := t.Methods[Key(name)]
	return m, ok
}

// AddMethod records a method declared on t.
func (t *Type) AddMethod(m *Method) {
	if t.Methods == nil {
		t.Methods = make(map[string]*Method)
	}
	t.Methods[Key(m.Name)] = m
}

// Function is an indexed top-level function.
type Function struct {
	Name   string   `json:"name"`
	Throws []string `json:"throws,omitempty"`
	File   string   `json:"file,omitempty"`
}

// Key normalizes a PHP name for lookups. PHP class and function names are
// case-insensitive and may be written with a leading backslash.
func Key(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), `\`))
}
