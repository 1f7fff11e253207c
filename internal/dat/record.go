// Package dat models decoded client dat tables: tab-delimited records, the
// header-driven column lookup and the l2asm schema descriptors.
package dat

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrSchemaColumnNotFound is returned when a header (or descriptor) has no
	// column matching the requested name.
	ErrSchemaColumnNotFound = errors.New("schema column not found")

	// ErrMalformedRecord is returned for rows that cannot be interpreted
	// against their table header.
	ErrMalformedRecord = errors.New("malformed record")
)

// Record is one decoded line of a dat table.
type Record []string

// ParseRecord splits a decoded tab-delimited line.
func ParseRecord(line string) Record {
	return strings.Split(line, "\t")
}

// ParseRecords splits every line of a decoded table. The first record is the header.
func ParseRecords(lines []string) []Record {
	records := make([]Record, len(lines))
	for i, line := range lines {
		records[i] = ParseRecord(line)
	}
	return records
}

// String joins the record back into a tab-delimited line.
func (r Record) String() string {
	return strings.Join(r, "\t")
}

// Insert returns the record with fields inserted at pos.
func (r Record) Insert(pos int, fields ...string) Record {
	out := make(Record, 0, len(r)+len(fields))
	out = append(out, r[:pos]...)
	out = append(out, fields...)
	out = append(out, r[pos:]...)
	return out
}

// Int parses field i as a decimal integer.
func (r Record) Int(i int) (int64, error) {
	if i < 0 || i >= len(r) {
		return 0, fmt.Errorf("%w: field %d out of range (width %d)", ErrMalformedRecord, i, len(r))
	}
	n, err := strconv.ParseInt(strings.TrimSpace(r[i]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: field %d %q is not an integer", ErrMalformedRecord, i, r[i])
	}
	return n, nil
}

// Int32 parses field i as a decimal integer that fits an int32.
func (r Record) Int32(i int) (int32, error) {
	n, err := r.Int(i)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: field %d value %d out of int32 range", ErrMalformedRecord, i, n)
	}
	return int32(n), nil
}

// Lines joins every record back into tab-delimited lines.
func Lines(records []Record) []string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.String()
	}
	return lines
}
