package mib

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// OID is a numeric SNMP object identifier, one element per arc.
type OID []uint32

// ParseOID parses a dotted numeric OID such as "1.3.6.1.2.1" or ".1.3.6.1".
// An empty string yields a nil OID.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(s, ".")
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("empty arc in OID %q", s)
		}
		arc, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid arc %q in OID %q", p, s)
		}
		oid = append(oid, uint32(arc))
	}
	return oid, nil
}

// MustParseOID is ParseOID for package-level constants and tests.
func MustParseOID(s string) OID {
	oid, err := ParseOID(s)
	if err != nil {
		panic(err)
	}
	return oid
}

// String returns the dotted form without a leading dot.
func (o OID) String() string {
	if len(o) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(o) * 3)
	for i, arc := range o {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(uint64(arc), 10))
	}
	return b.String()
}

// Append returns a new OID with arcs added; o is never modified.
func (o OID) Append(arcs ...uint32) OID {
	out := make(OID, len(o), len(o)+len(arcs))
	copy(out, o)
	return append(out, arcs...)
}

// HasPrefix reports whether prefix is equal to o or an ancestor of o.
func (o OID) HasPrefix(prefix OID) bool {
	return len(prefix) <= len(o) && slices.Equal(o[:len(prefix)], prefix)
}

// TrimPrefix returns the arcs of o following prefix, or nil when o is not
// under prefix.
func (o OID) TrimPrefix(prefix OID) OID {
	if !o.HasPrefix(prefix) {
		return nil
	}
	return slices.Clone(o[len(prefix):])
}

// Equal reports whether both OIDs have identical arcs.
func (o OID) Equal(other OID) bool {
	return slices.Equal(o, other)
}

// Compare orders OIDs lexicographically by arc, the order GETNEXT follows.
func (o OID) Compare(other OID) int {
	return slices.Compare(o, other)
}

// Last returns the final arc, or 0 for an empty OID.
func (o OID) Last() uint32 {
	if len(o) == 0 {
		return 0
	}
	return o[len(o)-1]
}
