package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/cdensity/pkg/parser"
)

func index(t *testing.T, code string) *Table {
	t.Helper()
	p := parser.New()
	defer p.Close()

	res, err := p.Parse([]byte(code), "test.php")
	require.NoError(t, err)
	defer res.Close()

	return Index(res)
}

func TestBuiltins(t *testing.T) {
	tbl := NewWithBuiltins()

	assert.True(t, tbl.IsSubtype("InvalidArgumentException", "Exception"))
	assert.True(t, tbl.IsSubtype("InvalidArgumentException", "Throwable"))
	assert.True(t, tbl.IsSubtype(`\RuntimeException`, "exception"))
	assert.True(t, tbl.IsSubtype("ArgumentCountError", "Error"))
	assert.False(t, tbl.IsSubtype("TypeError", "Exception"))
	assert.False(t, tbl.IsSubtype("Exception", "RuntimeException"))

	assert.True(t, tbl.ImplementsAny("ArrayObject", "Traversable"))
	assert.True(t, tbl.ImplementsAny("SplStack", "ArrayAccess"))
	assert.True(t, tbl.ImplementsAny("Generator", "Iterator", "ArrayAccess"))
	assert.False(t, tbl.ImplementsAny("Countable", "Traversable"))
	assert.False(t, tbl.ImplementsAny("Unknown", "Traversable"))
}

func TestAncestors(t *testing.T) {
	tbl := NewWithBuiltins()

	assert.Equal(t, []string{"LogicException", "Exception", "Throwable"}, tbl.Ancestors("DomainException"))
	anc := tbl.Ancestors("OutOfBoundsException")
	assert.Equal(t, []string{"RuntimeException", "Exception", "Throwable"}, anc)
	assert.Nil(t, tbl.Ancestors("NoSuchType"))
}

func TestIndex_Hierarchy(t *testing.T) {
	tbl := index(t, `<?php
namespace App\Model;

use App\Contracts\Repository as Repo;

/**
 * @template T
 */
interface Collection extends \IteratorAggregate, \Countable {}

abstract class Base implements Repo {}

final class Users extends Base implements Collection
{
    use \App\Concerns\HasEvents;

    /**
     * @throws \RuntimeException|NotFound
     */
    public function find(int $id): User {}

    public function all(): array {}
}

/** @throws \LogicException */
function helper() {}
`)

	users, ok := tbl.Lookup(`App\Model\Users`)
	require.True(t, ok)
	assert.Equal(t, KindClass, users.Kind)
	assert.Equal(t, `App\Model\Base`, users.Parent)
	assert.Equal(t, []string{`App\Model\Collection`}, users.Interfaces)
	assert.Equal(t, []string{`App\Concerns\HasEvents`}, users.Traits)
	assert.Equal(t, uint32(13), users.Line)

	find, ok := users.Method("FIND")
	require.True(t, ok)
	assert.Equal(t, []string{"RuntimeException", `App\Model\NotFound`}, find.Throws)

	all, ok := users.Method("all")
	require.True(t, ok)
	assert.Empty(t, all.Throws)

	coll, ok := tbl.Lookup(`app\model\collection`)
	require.True(t, ok)
	assert.Equal(t, KindInterface, coll.Kind)
	assert.True(t, coll.Generic)
	assert.Equal(t, []string{"IteratorAggregate", "Countable"}, coll.Interfaces)

	base, _ := tbl.Lookup(`App\Model\Base`)
	assert.Equal(t, []string{`App\Contracts\Repository`}, base.Interfaces)

	throws, ok := tbl.FunctionThrows(`App\Model\helper`)
	require.True(t, ok)
	assert.Equal(t, []string{"LogicException"}, throws)

	tbl.Merge(NewWithBuiltins())
	assert.True(t, tbl.ImplementsAny(`App\Model\Users`, "Traversable"))
	assert.False(t, tbl.IsGeneric(`App\Model\Users`))
	assert.True(t, tbl.IsGeneric(`App\Model\Collection`))
}

func TestIndex_BracedNamespaces(t *testing.T) {
	tbl := index(t, `<?php
namespace A {
    class X {}
}
namespace {
    class Y extends A\X {}
}
`)
	_, ok := tbl.Lookup(`A\X`)
	assert.True(t, ok)
	y, ok := tbl.Lookup("Y")
	require.True(t, ok)
	assert.Equal(t, `A\X`, y.Parent)
}

func TestMethodThrows_TraitsAndParents(t *testing.T) {
	tbl := index(t, `<?php
trait Loads {
    /** @throws LoadError */
    public function load() {}
}
class Base {
    /** @throws SaveError */
    public function save() {}
}
class Child extends Base {
    use Loads;
}
`)

	throws, ok := tbl.MethodThrows("Child", "load")
	require.True(t, ok)
	assert.Equal(t, []string{"LoadError"}, throws)

	throws, ok = tbl.MethodThrows("child", "SAVE")
	require.True(t, ok)
	assert.Equal(t, []string{"SaveError"}, throws)

	_, ok = tbl.MethodThrows("Child", "missing")
	assert.False(t, ok)
	_, ok = tbl.MethodThrows("Nope", "load")
	assert.False(t, ok)
}

func TestMethodThrows_Cycle(t *testing.T) {
	tbl := New()
	tbl.AddType(&Type{Name: "A", Parent: "B"})
	tbl.AddType(&Type{Name: "B", Parent: "A"})

	_, ok := tbl.MethodThrows("A", "m")
	assert.False(t, ok)
	assert.True(t, tbl.IsSubtype("A", "B"))
}

func TestSelfParentDoesNotPanic(t *testing.T) {
	tbl := New()
	tbl.AddType(&Type{Name: "Loop", Parent: "Loop", Interfaces: []string{"loop"}})
	assert.Empty(t, tbl.Ancestors("Loop"))
}

func TestAddType_FirstWins(t *testing.T) {
	tbl := New()
	tbl.AddType(&Type{Name: "Dup", Parent: "First"})
	tbl.AddType(&Type{Name: `\dup`, Parent: "Second"})

	typ, ok := tbl.Lookup("DUP")
	require.True(t, ok)
	assert.Equal(t, "First", typ.Parent)
	assert.Equal(t, 1, tbl.Len())
}

func TestAddType_InvalidatesHierarchy(t *testing.T) {
	tbl := New()
	tbl.AddType(&Type{Name: "A"})
	assert.False(t, tbl.IsSubtype("A", "B"))

	tbl.AddType(&Type{Name: "B"})
	tbl.types["a"].Parent = "B"
	tbl.invalidate()
	assert.True(t, tbl.IsSubtype("A", "B"))
}

func TestDigest(t *testing.T) {
	a := index(t, `<?php class A { /** @throws E */ function m() {} }`)
	b := index(t, `<?php class A { /** @throws E */ function m() {} }`)
	c := index(t, `<?php class A { /** @throws F */ function m() {} }`)

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.NotEqual(t, New().Digest(), a.Digest())
}

func TestParseThrows(t *testing.T) {
	doc := `/**
 * Loads it.
 *
 * @throws \RuntimeException when missing
 * @throws (A|B)
 * @throws
 */`
	assert.Equal(t, []string{`\RuntimeException`, "A", "B"}, ParseThrows(doc))
	assert.Empty(t, ParseThrows("/** nothing */"))
}

func TestHasTemplate(t *testing.T) {
	assert.True(t, HasTemplate("/** @template T */"))
	assert.True(t, HasTemplate("/** @psalm-template TKey */"))
	assert.True(t, HasTemplate("/** @phpstan-template-covariant T */"))
	assert.True(t, HasTemplate("/**\n * @template-contravariant T\n */"))
	assert.False(t, HasTemplate("/** @templates */"))
	assert.False(t, HasTemplate("/** @param T $x */"))
}

func TestScope_ResolveClass(t *testing.T) {
	tbl := New()
	tbl.AddType(&Type{Name: `App\Child`, Parent: `App\Base`})

	names := parser.NewNameContext()
	names.SetNamespace("App")
	scope := Scope{Names: names, Class: `App\Child`}

	assert.Equal(t, `App\Child`, scope.ResolveClass(tbl, "self"))
	assert.Equal(t, `App\Child`, scope.ResolveClass(tbl, "static"))
	assert.Equal(t, `App\Base`, scope.ResolveClass(tbl, "parent"))
	assert.Equal(t, `App\Other`, scope.ResolveClass(tbl, "Other"))
	assert.Equal(t, "Exception", scope.ResolveClass(tbl, `\Exception`))
	assert.Equal(t, "", scope.ResolveClass(tbl, "int"))

	assert.Equal(t, []string{`App\f`, "f"}, scope.ResolveFunction("f"))
	assert.Equal(t, []string{"g"}, Scope{}.ResolveFunction(`\g`))
}
