// Package symbols holds the cross-file declaration index consulted by the
// exception and docblock analyses: type hierarchy, generic markers and the
// @throws tags of functions and methods.
package symbols

import (
	"sort"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Table indexes type and function declarations.
//
// Tables are built during the index phase (AddType, AddFunction, Merge) and
// queried during the analysis phase. Queries are safe for concurrent use;
// mutation must not overlap with queries.
type Table struct {
	types     map[string]*Type
	functions map[string]*Function

	mu        sync.RWMutex
	hierarchy *hierarchy
}

// hierarchy is the type graph: an edge points from a type to its parent
// class and to every interface it implements or extends.
type hierarchy struct {
	g     *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
}

// New creates an empty table.
func New() *Table {
	return &Table{
		types:     make(map[string]*Type),
		functions: make(map[string]*Function),
	}
}

// AddType records a type. An already indexed type with the same name wins.
func (t *Table) AddType(typ *Type) {
	key := Key(typ.Name)
	if key == "" {
		return
	}
	if _, exists := t.types[key]; exists {
		return
	}
	t.types[key] = typ
	t.invalidate()
}

// AddFunction records a function. An already indexed function wins.
func (t *Table) AddFunction(fn *Function) {
	key := Key(fn.Name)
	if key == "" {
		return
	}
	if _, exists := t.functions[key]; exists {
		return
	}
	t.functions[key] = fn
}

// Merge copies every declaration of other into t.
func (t *Table) Merge(other *Table) {
	if other == nil {
		return
	}
	for _, key := range sortedKeys(other.types) {
		t.AddType(other.types[key])
	}
	for _, key := range sortedKeys(other.functions) {
		t.AddFunction(other.functions[key])
	}
}

// Len returns the number of indexed types and functions.
func (t *Table) Len() int {
	return len(t.types) + len(t.functions)
}

// Lookup returns the type with the given fully qualified name.
func (t *Table) Lookup(name string) (*Type, bool) {
	typ, ok := t.types[Key(name)]
	return typ, ok
}

// LookupFunction returns the function with the given fully qualified name.
func (t *Table) LookupFunction(name string) (*Function, bool) {
	fn, ok := t.functions[Key(name)]
	return fn, ok
}

// IsGeneric reports whether the type's own docblock declares a template.
func (t *Table) IsGeneric(name string) bool {
	typ, ok := t.Lookup(name)
	return ok && typ.Generic
}

// Ancestors returns every parent class and interface reachable from name in
// breadth-first order. Unknown names have no ancestors.
func (t *Table) Ancestors(name string) []string {
	h := t.graph()
	id, ok := h.ids[Key(name)]
	if !ok {
		return nil
	}

	var out []string
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != id {
				out = append(out, h.names[n.ID()])
			}
		},
	}
	bf.Walk(h.g, simple.Node(id), nil)
	return out
}

// IsSubtype reports whether name is ancestor or inherits from it.
func (t *Table) IsSubtype(name, ancestor string) bool {
	if Key(name) == Key(ancestor) {
		return true
	}
	return t.ImplementsAny(name, ancestor)
}

// ImplementsAny reports whether name transitively extends or implements any
// of targets.
func (t *Table) ImplementsAny(name string, targets ...string) bool {
	want := make(map[string]bool, len(targets))
	for _, target := range targets {
		want[Key(target)] = true
	}

	h := t.graph()
	id, ok := h.ids[Key(name)]
	if !ok {
		return false
	}

	var bf traverse.BreadthFirst
	found := bf.Walk(h.g, simple.Node(id), func(n graph.Node, _ int) bool {
		return n.ID() != id && want[Key(h.names[n.ID()])]
	})
	return found != nil
}

// MethodThrows returns the @throws types declared on a method of typeName,
// searching used traits and then the parent chain. The second result is
// false when the method cannot be found.
func (t *Table) MethodThrows(typeName, method string) ([]string, bool) {
	visited := make(map[string]bool)
	queue := []string{typeName}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		key := Key(name)
		if key == "" || visited[key] {
			continue
		}
		visited[key] = true

		typ, ok := t.types[key]
		if !ok {
			continue
		}
		if m, ok := typ.Method(method); ok {
			return m.Throws, true
		}
		queue = append(queue, typ.Traits...)
		if typ.Parent != "" {
			queue = append(queue, typ.Parent)
		}
	}
	return nil, false
}

// FunctionThrows returns the @throws types of a top-level function.
func (t *Table) FunctionThrows(name string) ([]string, bool) {
	fn, ok := t.LookupFunction(name)
	if !ok {
		return nil, false
	}
	return fn.Throws, true
}

// Digest returns a stable fingerprint of every declaration that can change
// analysis results. Cached per-file results are only valid for one digest.
func (t *Table) Digest() uint64 {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.WriteString("\x00")
		}
	}

	for _, key := range sortedKeys(t.types) {
		typ := t.types[key]
		write("T", key, string(typ.Kind), Key(typ.Parent), strconv.FormatBool(typ.Generic))
		for _, iface := range typ.Interfaces {
			write("I", Key(iface))
		}
		for _, trait := range typ.Traits {
			write("U", Key(trait))
		}
		for _, mkey := range sortedKeys(typ.Methods) {
			write("M", mkey)
			for _, th := range typ.Methods[mkey].Throws {
				write(Key(th))
			}
		}
	}
	for _, key := range sortedKeys(t.functions) {
		write("F", key)
		for _, th := range t.functions[key].Throws {
			write(Key(th))
		}
	}
	return d.Sum64()
}

func (t *Table) invalidate() {
	t.mu.Lock()
	t.hierarchy = nil
	t.mu.Unlock()
}

// graph returns the type graph, building it on first use.
func (t *Table) graph() *hierarchy {
	t.mu.RLock()
	h := t.hierarchy
	t.mu.RUnlock()
	if h != nil {
		return h
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.hierarchy != nil {
		return t.hierarchy
	}

	h = &hierarchy{
		g:     simple.NewDirectedGraph(),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
	node := func(name string) int64 {
		key := Key(name)
		if id, ok := h.ids[key]; ok {
			return id
		}
		id := int64(len(h.ids))
		h.ids[key] = id
		h.names[id] = name
		h.g.AddNode(simple.Node(id))
		return id
	}

	for _, key := range sortedKeys(t.types) {
		typ := t.types[key]
		from := node(typ.Name)
		supers := append([]string{}, typ.Interfaces...)
		if typ.Parent != "" {
			supers = append([]string{typ.Parent}, supers...)
		}
		for _, super := range supers {
			to := node(super)
			if to != from {
				h.g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
			}
		}
	}

	t.hierarchy = h
	return h
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
