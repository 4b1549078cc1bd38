package schema

import (
	"strconv"
	"strings"
)

// Canonical returns the Parsing Canonical Form of the schema: full names,
// a fixed attribute order, and no doc, aliases or defaults. A named type is
// written out at its first occurrence and by name afterwards.
func (s *Schema) Canonical() string {
	var b strings.Builder
	writeCanonical(&b, s, make(map[string]bool))
	return b.String()
}

func writeCanonical(b *strings.Builder, s *Schema, seen map[string]bool) {
	if s.kind.IsNamed() {
		full := s.FullName()
		if seen[full] {
			b.WriteString(strconv.Quote(full))
			return
		}
		seen[full] = true
	}

	switch s.kind {
	case Record:
		b.WriteString(`{"name":`)
		b.WriteString(strconv.Quote(s.FullName()))
		b.WriteString(`,"type":"record","fields":[`)
		for i, f := range s.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(`{"name":`)
			b.WriteString(strconv.Quote(f.Name))
			b.WriteString(`,"type":`)
			writeCanonical(b, f.Type, seen)
			b.WriteByte('}')
		}
		b.WriteString("]}")
	case Enum:
		b.WriteString(`{"name":`)
		b.WriteString(strconv.Quote(s.FullName()))
		b.WriteString(`,"type":"enum","symbols":[`)
		for i, sym := range s.symbols {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(sym))
		}
		b.WriteString("]}")
	case Fixed:
		b.WriteString(`{"name":`)
		b.WriteString(strconv.Quote(s.FullName()))
		b.WriteString(`,"type":"fixed","size":`)
		b.WriteString(strconv.Itoa(s.size))
		b.WriteByte('}')
	case Array:
		b.WriteString(`{"type":"array","items":`)
		writeCanonical(b, s.items, seen)
		b.WriteByte('}')
	case Map:
		b.WriteString(`{"type":"map","values":`)
		writeCanonical(b, s.values, seen)
		b.WriteByte('}')
	case Union:
		b.WriteByte('[')
		for i, br := range s.branches {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, br, seen)
		}
		b.WriteByte(']')
	default:
		b.WriteString(strconv.Quote(s.kind.String()))
	}
}

const emptyFingerprint uint64 = 0xc15d213aa4d7a795

var fingerprintTable = func() (t [256]uint64) {
	for i := range t {
		fp := uint64(i)
		for j := 0; j < 8; j++ {
			fp = (fp >> 1) ^ (emptyFingerprint & -(fp & 1))
		}
		t[i] = fp
	}
	return t
}()

// Fingerprint returns the CRC-64-AVRO (Rabin) fingerprint of the canonical
// form.
func (s *Schema) Fingerprint() uint64 {
	fp := emptyFingerprint
	for _, c := range []byte(s.Canonical()) {
		fp = (fp >> 8) ^ fingerprintTable[byte(fp)^c]
	}
	return fp
}
