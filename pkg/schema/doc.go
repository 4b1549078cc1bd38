// Package schema parses Avro schema documents into immutable type trees.
//
// Named types (records, enums and fixed) are registered by full name while
// the document is parsed, before their bodies are descended. Every reference
// to a name resolves to the same node, so recursive definitions such as
//
//	{"type": "record", "name": "Node", "fields": [
//	    {"name": "value", "type": "long"},
//	    {"name": "children", "type": {"type": "array", "items": "Node"}}
//	]}
//
// produce a finite graph. Walks over a schema must stop at named types they
// have already visited; Match and Canonical do so by comparing full names.
//
// A union may not contain another union, and no two branches may share a
// kind. Two records in one union are rejected even when their names differ.
package schema
