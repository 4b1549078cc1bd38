package schema

import "strings"

// Kind identifies the shape of a schema node.
type Kind int

const (
	Null Kind = iota
	Boolean
	Int
	Long
	Float
	Double
	Bytes
	String
	Fixed
	Enum
	Array
	Map
	Union
	Record

	// pending marks a named type that has been referenced but not yet defined.
	pending Kind = -1
)

var kindNames = [...]string{
	Null:    "null",
	Boolean: "boolean",
	Int:     "int",
	Long:    "long",
	Float:   "float",
	Double:  "double",
	Bytes:   "bytes",
	String:  "string",
	Fixed:   "fixed",
	Enum:    "enum",
	Array:   "array",
	Map:     "map",
	Union:   "union",
	Record:  "record",
}

// String returns the lowercase type name used in schema JSON.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsPrimitive reports whether k carries no nested schema.
func (k Kind) IsPrimitive() bool {
	return k >= Null && k <= String
}

// IsNamed reports whether nodes of kind k are registered by full name.
func (k Kind) IsNamed() bool {
	return k == Fixed || k == Enum || k == Record
}

// Field is one member of a record schema.
type Field struct {
	Name       string
	Type       *Schema
	Doc        string
	Aliases    []string
	Default    any  // decoded JSON; numbers are json.Number
	HasDefault bool
	Index      int
}

// Schema is an immutable node of a parsed schema tree. Named types are
// stored once in a table shared by every node of the same document; each
// reference to a name points at that single node, which is what lets a
// record contain itself.
type Schema struct {
	kind      Kind
	name      string
	namespace string
	doc       string
	aliases   []string
	logical   string

	fields   []*Field
	fieldIdx map[string]int

	symbols   []string
	symbolIdx map[string]int

	size int

	items    *Schema
	values   *Schema
	branches []*Schema

	names *registry
}

type registry struct {
	types map[string]*Schema
}

var primitives = func() map[Kind]*Schema {
	m := make(map[Kind]*Schema)
	for k := Null; k <= String; k++ {
		m[k] = &Schema{kind: k}
	}
	return m
}()

// Primitive returns the shared node for a primitive kind. It panics for
// kinds that need more than a kind to describe.
func Primitive(k Kind) *Schema {
	s, ok := primitives[k]
	if !ok {
		panic("schema: " + k.String() + " is not a primitive kind")
	}
	return s
}

// ArrayOf returns an anonymous array schema with the given items.
func ArrayOf(items *Schema) *Schema {
	return &Schema{kind: Array, items: items, names: items.names}
}

// MapOf returns an anonymous map schema with the given values.
func MapOf(values *Schema) *Schema {
	return &Schema{kind: Map, values: values, names: values.names}
}

// Kind returns the type of s.
func (s *Schema) Kind() Kind { return s.kind }

// Name returns the unqualified name of a named type.
func (s *Schema) Name() string { return s.name }

// Namespace returns the namespace of a named type, possibly empty.
func (s *Schema) Namespace() string { return s.namespace }

// FullName returns namespace.name for named types and the kind name for
// everything else.
func (s *Schema) FullName() string {
	if !s.kind.IsNamed() {
		return s.kind.String()
	}
	return qualify(s.namespace, s.name)
}

// Doc returns the doc attribute of a named type.
func (s *Schema) Doc() string { return s.doc }

// Aliases returns the aliases of a named type as written in the schema.
func (s *Schema) Aliases() []string { return s.aliases }

// LogicalType returns the logicalType annotation, or "" when there is none.
// It carries no semantics here.
func (s *Schema) LogicalType() string { return s.logical }

// Fields returns record fields in declaration order.
func (s *Schema) Fields() []*Field { return s.fields }

// Symbols returns the enum symbols; a symbol's ordinal is its index.
func (s *Schema) Symbols() []string { return s.symbols }

// Size is the byte length of a fixed type.
func (s *Schema) Size() int { return s.size }

// Items returns the element schema of an array.
func (s *Schema) Items() *Schema { return s.items }

// Values returns the value schema of a map.
func (s *Schema) Values() *Schema { return s.values }

// Branches returns the member schemas of a union in declaration order.
func (s *Schema) Branches() []*Schema { return s.branches }

// Field looks up a record field by name.
func (s *Schema) Field(name string) (*Field, bool) {
	i, ok := s.fieldIdx[name]
	if !ok {
		return nil, false
	}
	return s.fields[i], true
}

// SymbolIndex returns the ordinal of an enum symbol, or -1.
func (s *Schema) SymbolIndex(symbol string) int {
	i, ok := s.symbolIdx[symbol]
	if !ok {
		return -1
	}
	return i
}

// Lookup finds a named type declared in the same document.
func (s *Schema) Lookup(fullName string) (*Schema, bool) {
	if s.names == nil {
		return nil, false
	}
	t, ok := s.names.types[fullName]
	if !ok || t.kind == pending {
		return nil, false
	}
	return t, true
}

// BranchIndex returns the index of the union branch matching kind and,
// for named kinds, fullName. It returns -1 when no branch matches.
func (s *Schema) BranchIndex(kind Kind, fullName string) int {
	for i, b := range s.branches {
		if b.kind != kind {
			continue
		}
		if kind.IsNamed() && b.FullName() != fullName {
			continue
		}
		return i
	}
	return -1
}

func (s *Schema) String() string {
	return s.Canonical()
}

// Match reports whether a and b describe the same type. Named types are
// compared by full name, which also bounds the walk over recursive schemas.
func Match(a, b *Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Record, Enum:
		return a.FullName() == b.FullName()
	case Fixed:
		return a.FullName() == b.FullName() && a.size == b.size
	case Array:
		return Match(a.items, b.items)
	case Map:
		return Match(a.values, b.values)
	case Union:
		if len(a.branches) != len(b.branches) {
			return false
		}
		for i := range a.branches {
			if !Match(a.branches[i], b.branches[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func qualify(namespace, name string) string {
	if namespace == "" || strings.Contains(name, ".") {
		return name
	}
	return namespace + "." + name
}
