package schema

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// checkDefault verifies a field default against its type using the JSON
// encoding of values: a union default must match the first branch.
func checkDefault(t *Schema, d any) error {
	switch t.kind {
	case Null:
		if d != nil {
			return fmt.Errorf("expected null, got %T", d)
		}
	case Boolean:
		if _, ok := d.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", d)
		}
	case Int, Long:
		n, ok := d.(json.Number)
		if !ok {
			return fmt.Errorf("expected integer, got %T", d)
		}
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("expected integer, got %v", n)
		}
	case Float, Double:
		n, ok := d.(json.Number)
		if !ok {
			return fmt.Errorf("expected number, got %T", d)
		}
		if _, err := n.Float64(); err != nil {
			return fmt.Errorf("expected number, got %v", n)
		}
	case Bytes, String:
		if _, ok := d.(string); !ok {
			return fmt.Errorf("expected string, got %T", d)
		}
	case Fixed:
		s, ok := d.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", d)
		}
		if n := len([]rune(s)); n != t.size {
			return fmt.Errorf("expected %d bytes, got %d", t.size, n)
		}
	case Enum:
		s, _ := d.(string)
		if t.SymbolIndex(s) < 0 {
			return fmt.Errorf("%v is not a symbol of %s", d, t.FullName())
		}
	case Array:
		list, ok := d.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", d)
		}
		for _, item := range list {
			if err := checkDefault(t.items, item); err != nil {
				return err
			}
		}
	case Map:
		m, ok := d.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", d)
		}
		for _, v := range m {
			if err := checkDefault(t.values, v); err != nil {
				return err
			}
		}
	case Union:
		if len(t.branches) == 0 {
			return fmt.Errorf("empty union has no default")
		}
		return checkDefault(t.branches[0], d)
	case Record:
		m, ok := d.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", d)
		}
		for _, f := range t.fields {
			v, ok := m[f.Name]
			if !ok {
				if f.HasDefault {
					continue
				}
				return fmt.Errorf("missing field %q", f.Name)
			}
			if err := checkDefault(f.Type, v); err != nil {
				return err
			}
		}
	}
	return nil
}
