package symbols

// builtin describes a type shipped with PHP itself.
type builtin struct {
	name       string
	kind       Kind
	parent     string
	interfaces []string
}

var builtins = []builtin{
	{name: "Throwable", kind: KindInterface},
	{name: "Exception", kind: KindClass, interfaces: []string{"Throwable"}},
	{name: "Error", kind: KindClass, interfaces: []string{"Throwable"}},
	{name: "ErrorException", kind: KindClass, parent: "Exception"},
	{name: "JsonException", kind: KindClass, parent: "Exception"},

	{name: "TypeError", kind: KindClass, parent: "Error"},
	{name: "ValueError", kind: KindClass, parent: "Error"},
	{name: "ArithmeticError", kind: KindClass, parent: "Error"},
	{name: "DivisionByZeroError", kind: KindClass, parent: "ArithmeticError"},
	{name: "ArgumentCountError", kind: KindClass, parent: "TypeError"},
	{name: "AssertionError", kind: KindClass, parent: "Error"},
	{name: "UnhandledMatchError", kind: KindClass, parent: "Error"},
	{name: "CompileError", kind: KindClass, parent: "Error"},
	{name: "ParseError", kind: KindClass, parent: "CompileError"},

	{name: "LogicException", kind: KindClass, parent: "Exception"},
	{name: "BadFunctionCallException", kind: KindClass, parent: "LogicException"},
	{name: "BadMethodCallException", kind: KindClass, parent: "BadFunctionCallException"},
	{name: "DomainException", kind: KindClass, parent: "LogicException"},
	{name: "InvalidArgumentException", kind: KindClass, parent: "LogicException"},
	{name: "LengthException", kind: KindClass, parent: "LogicException"},
	{name: "OutOfRangeException", kind: KindClass, parent: "LogicException"},
	{name: "RuntimeException", kind: KindClass, parent: "Exception"},
	{name: "OutOfBoundsException", kind: KindClass, parent: "RuntimeException"},
	{name: "OverflowException", kind: KindClass, parent: "RuntimeException"},
	{name: "RangeException", kind: KindClass, parent: "RuntimeException"},
	{name: "UnderflowException", kind: KindClass, parent: "RuntimeException"},
	{name: "UnexpectedValueException", kind: KindClass, parent: "RuntimeException"},

	{name: "Traversable", kind: KindInterface},
	{name: "Iterator", kind: KindInterface, interfaces: []string{"Traversable"}},
	{name: "IteratorAggregate", kind: KindInterface, interfaces: []string{"Traversable"}},
	{name: "ArrayAccess", kind: KindInterface},
	{name: "Countable", kind: KindInterface},
	{name: "SeekableIterator", kind: KindInterface, interfaces: []string{"Iterator"}},
	{name: "OuterIterator", kind: KindInterface, interfaces: []string{"Iterator"}},
	{name: "RecursiveIterator", kind: KindInterface, interfaces: []string{"Iterator"}},

	{name: "Generator", kind: KindClass, interfaces: []string{"Iterator"}},
	{name: "ArrayIterator", kind: KindClass, interfaces: []string{"SeekableIterator", "ArrayAccess", "Countable"}},
	{name: "ArrayObject", kind: KindClass, interfaces: []string{"IteratorAggregate", "ArrayAccess", "Countable"}},
	{name: "SplObjectStorage", kind: KindClass, interfaces: []string{"Countable", "Iterator", "ArrayAccess"}},
	{name: "SplDoublyLinkedList", kind: KindClass, interfaces: []string{"Iterator", "Countable", "ArrayAccess"}},
	{name: "SplStack", kind: KindClass, parent: "SplDoublyLinkedList"},
	{name: "SplQueue", kind: KindClass, parent: "SplDoublyLinkedList"},
	{name: "SplFixedArray", kind: KindClass, interfaces: []string{"IteratorAggregate", "ArrayAccess", "Countable"}},
	{name: "WeakMap", kind: KindClass, interfaces: []string{"ArrayAccess", "Countable", "IteratorAggregate"}},
	{name: "DatePeriod", kind: KindClass, interfaces: []string{"IteratorAggregate"}},
}

// NewWithBuiltins creates a table seeded with the exception and iteration
// types of the PHP standard library.
func NewWithBuiltins() *Table {
	t := New()
	for _, b := range builtins {
		t.AddType(&Type{
			Name:       b.name,
			Kind:       b.kind,
			Parent:     b.parent,
			Interfaces: b.interfaces,
		})
	}
	return t
}
