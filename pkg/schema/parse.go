package schema

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

type parser struct {
	reg    *registry
	unions []*Schema
	fields []*Field
}

// Parse builds a schema from its JSON description. Named types may refer to
// themselves and to any other name declared in the same document.
func Parse(text string) (*Schema, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	p := &parser{reg: &registry{types: make(map[string]*Schema)}}
	root, err := p.parse(raw, "")
	if err != nil {
		return nil, err
	}

	for name, t := range p.reg.types {
		if t.kind == pending {
			return nil, fmt.Errorf("%w: %q", ErrUnknownReference, name)
		}
	}
	for _, u := range p.unions {
		if err := checkUnion(u); err != nil {
			return nil, err
		}
	}
	for _, f := range p.fields {
		if err := checkDefault(f.Type, f.Default); err != nil {
			return nil, fmt.Errorf("%w: default for field %q: %v", ErrMalformed, f.Name, err)
		}
	}

	return root, nil
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *Schema {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

func (p *parser) parse(raw any, namespace string) (*Schema, error) {
	switch v := raw.(type) {
	case string:
		return p.named(v, namespace)
	case []any:
		return p.parseUnion(v, namespace)
	case map[string]any:
		return p.parseObject(v, namespace)
	default:
		return nil, fmt.Errorf("%w: unexpected %T in schema", ErrMalformed, raw)
	}
}

// named resolves a type string: either a primitive or a reference to a
// named type. References to names not yet declared get a placeholder node
// that the later declaration fills in place.
func (p *parser) named(name, namespace string) (*Schema, error) {
	if k, ok := primitiveKind(name); ok {
		return Primitive(k), nil
	}
	if !validFullName(name) {
		return nil, fmt.Errorf("%w: invalid type name %q", ErrMalformed, name)
	}

	full := qualify(namespace, name)
	if t, ok := p.reg.types[full]; ok {
		return t, nil
	}
	if full != name {
		if t, ok := p.reg.types[name]; ok {
			return t, nil
		}
	}

	ns, short := split(full)
	stub := &Schema{kind: pending, name: short, namespace: ns, names: p.reg}
	p.reg.types[full] = stub
	return stub, nil
}

func (p *parser) parseUnion(branches []any, namespace string) (*Schema, error) {
	u := &Schema{kind: Union, names: p.reg}
	for _, b := range branches {
		if _, nested := b.([]any); nested {
			return nil, fmt.Errorf("%w: union may not contain a union", ErrInvalidUnion)
		}
		s, err := p.parse(b, namespace)
		if err != nil {
			return nil, err
		}
		u.branches = append(u.branches, s)
	}
	p.unions = append(p.unions, u)
	return u, nil
}

func (p *parser) parseObject(m map[string]any, namespace string) (*Schema, error) {
	t, ok := m["type"]
	if !ok {
		return nil, fmt.Errorf("%w: missing \"type\"", ErrMalformed)
	}
	typ, ok := t.(string)
	if !ok {
		return p.parse(t, namespace)
	}

	logical, _ := m["logicalType"].(string)

	switch typ {
	case "record", "error":
		return p.parseRecord(m, namespace)
	case "enum":
		return p.parseEnum(m, namespace)
	case "fixed":
		return p.parseFixed(m, namespace, logical)
	case "array":
		items, ok := m["items"]
		if !ok {
			return nil, fmt.Errorf("%w: array missing \"items\"", ErrMalformed)
		}
		s, err := p.parse(items, namespace)
		if err != nil {
			return nil, err
		}
		return &Schema{kind: Array, items: s, logical: logical, names: p.reg}, nil
	case "map":
		values, ok := m["values"]
		if !ok {
			return nil, fmt.Errorf("%w: map missing \"values\"", ErrMalformed)
		}
		s, err := p.parse(values, namespace)
		if err != nil {
			return nil, err
		}
		return &Schema{kind: Map, values: s, logical: logical, names: p.reg}, nil
	}

	if k, ok := primitiveKind(typ); ok {
		if logical == "" {
			return Primitive(k), nil
		}
		return &Schema{kind: k, logical: logical}, nil
	}
	return p.named(typ, namespace)
}

// declare registers a named type before its body is parsed.
func (p *parser) declare(m map[string]any, enclosing string, kind Kind) (*Schema, error) {
	name, err := stringAttr(m, "name")
	if err != nil {
		return nil, err
	}
	if !validFullName(name) {
		return nil, fmt.Errorf("%w: invalid name %q", ErrMalformed, name)
	}

	namespace := enclosing
	if ns, ok := m["namespace"].(string); ok {
		namespace = ns
	}
	full := qualify(namespace, name)
	namespace, name = split(full)

	s, exists := p.reg.types[full]
	switch {
	case !exists:
		s = &Schema{names: p.reg}
		p.reg.types[full] = s
	case s.kind != pending:
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, full)
	}

	s.kind = kind
	s.name = name
	s.namespace = namespace
	s.doc, _ = m["doc"].(string)
	s.aliases = stringList(m["aliases"])
	s.logical, _ = m["logicalType"].(string)
	return s, nil
}

func (p *parser) parseRecord(m map[string]any, enclosing string) (*Schema, error) {
	s, err := p.declare(m, enclosing, Record)
	if err != nil {
		return nil, err
	}

	list, ok := m["fields"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: record %q missing \"fields\"", ErrMalformed, s.FullName())
	}

	s.fieldIdx = make(map[string]int, len(list))
	for i, raw := range list {
		fm, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: field %d of %q is not an object", ErrMalformed, i, s.FullName())
		}
		name, err := stringAttr(fm, "name")
		if err != nil {
			return nil, err
		}
		if !validName(name) {
			return nil, fmt.Errorf("%w: invalid field name %q", ErrMalformed, name)
		}
		if _, dup := s.fieldIdx[name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q in %q", ErrMalformed, name, s.FullName())
		}
		t, ok := fm["type"]
		if !ok {
			return nil, fmt.Errorf("%w: field %q missing \"type\"", ErrMalformed, name)
		}
		ft, err := p.parse(t, s.namespace)
		if err != nil {
			return nil, err
		}

		f := &Field{Name: name, Type: ft, Index: i, Aliases: stringList(fm["aliases"])}
		f.Doc, _ = fm["doc"].(string)
		f.Default, f.HasDefault = fm["default"]
		if f.HasDefault {
			p.fields = append(p.fields, f)
		}
		s.fieldIdx[name] = i
		s.fields = append(s.fields, f)
	}
	return s, nil
}

func (p *parser) parseEnum(m map[string]any, enclosing string) (*Schema, error) {
	s, err := p.declare(m, enclosing, Enum)
	if err != nil {
		return nil, err
	}

	list, ok := m["symbols"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: enum %q missing \"symbols\"", ErrMalformed, s.FullName())
	}
	s.symbolIdx = make(map[string]int, len(list))
	for i, raw := range list {
		sym, ok := raw.(string)
		if !ok || !validName(sym) {
			return nil, fmt.Errorf("%w: invalid symbol %v in %q", ErrMalformed, raw, s.FullName())
		}
		if _, dup := s.symbolIdx[sym]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %q in %q", ErrMalformed, sym, s.FullName())
		}
		s.symbolIdx[sym] = i
		s.symbols = append(s.symbols, sym)
	}
	if d, ok := m["default"]; ok {
		if sym, _ := d.(string); s.SymbolIndex(sym) < 0 {
			return nil, fmt.Errorf("%w: enum default %v is not a symbol", ErrMalformed, d)
		}
	}
	return s, nil
}

func (p *parser) parseFixed(m map[string]any, enclosing, logical string) (*Schema, error) {
	s, err := p.declare(m, enclosing, Fixed)
	if err != nil {
		return nil, err
	}
	n, ok := m["size"].(json.Number)
	if !ok {
		return nil, fmt.Errorf("%w: fixed %q missing \"size\"", ErrMalformed, s.FullName())
	}
	size, err := n.Int64()
	if err != nil || size < 0 {
		return nil, fmt.Errorf("%w: invalid fixed size %v", ErrMalformed, n)
	}
	s.size = int(size)
	s.logical = logical
	return s, nil
}

// checkUnion runs once every reference is resolved, so placeholder
// branches have their final kinds.
func checkUnion(u *Schema) error {
	seen := make(map[Kind]bool, len(u.branches))
	for _, b := range u.branches {
		if b.kind == Union {
			return fmt.Errorf("%w: union may not contain a union", ErrInvalidUnion)
		}
		if seen[b.kind] {
			return fmt.Errorf("%w: more than one %s branch", ErrInvalidUnion, b.kind)
		}
		seen[b.kind] = true
	}
	return nil
}

func primitiveKind(name string) (Kind, bool) {
	for k := Null; k <= String; k++ {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}

func stringAttr(m map[string]any, key string) (string, error) {
	v, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing or non-string %q", ErrMalformed, key)
	}
	return v, nil
}

func stringList(raw any) []string {
	list, _ := raw.([]any)
	var out []string
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func split(full string) (namespace, name string) {
	i := strings.LastIndex(full, ".")
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func validFullName(name string) bool {
	for _, part := range strings.Split(name, ".") {
		if !validName(part) {
			return false
		}
	}
	return true
}
