package dat

import (
	"bytes"
	"fmt"
	"strings"
)

// Span is a run of consecutive header columns sharing a name prefix.
type Span struct {
	Start int
	Count int
}

// End returns the index just past the last column of the span.
func (s Span) End() int {
	return s.Start + s.Count
}

// Resolve locates the column family whose names begin with prefix.
// Start is the first matching column, Count the number of consecutive matches.
// Offsets are always derived from the header because slot capacity differs
// between table revisions.
func Resolve(header Record, prefix string) (Span, error) {
	for i, name := range header {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n := 1
		for i+n < len(header) && strings.HasPrefix(header[i+n], prefix) {
			n++
		}
		return Span{Start: i, Count: n}, nil
	}
	return Span{}, fmt.Errorf("%w: no column with prefix %q", ErrSchemaColumnNotFound, prefix)
}

// Column returns the index of the header column called name.
func Column(header Record, name string) (int, error) {
	for i, col := range header {
		if col == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSchemaColumnNotFound, name)
}

// ColumnName renders the header name of element idx of an array column,
// e.g. ColumnName("dtab1", 26) == "dtab1[26]".
func ColumnName(array string, idx int) string {
	return fmt.Sprintf("%s[%d]", array, idx)
}

// DescriptorName returns the file name of the descriptor for a dat file.
//
//	DescriptorName("npcgrp.dat", "")       == "npcgrp.ddf"
//	DescriptorName("npcgrp.dat", "custom") == "npcgrp-custom.ddf"
func DescriptorName(datFile, variant string) string {
	base := strings.TrimSuffix(datFile, ".dat")
	if variant != "" {
		base += "-" + variant
	}
	return base + ".ddf"
}

// RegenerateDescriptor rewrites the declared capacity of an array column in an
// l2asm descriptor, e.g. "dtab1[26]" becomes "dtab1[32]". Every occurrence is
// rewritten so that loop bounds and field declarations stay consistent.
func RegenerateDescriptor(src []byte, array string, oldCap, newCap int) ([]byte, error) {
	from := []byte(ColumnName(array, oldCap))
	if !bytes.Contains(src, from) {
		return nil, fmt.Errorf("%w: descriptor has no %s declaration", ErrSchemaColumnNotFound, from)
	}
	return bytes.ReplaceAll(src, from, []byte(ColumnName(array, newCap))), nil
}
