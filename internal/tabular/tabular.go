// Package tabular parses the CSV payloads the optimizer service returns into
// ordered tables keyed by their first column. Key uniqueness and required
// columns are enforced at parse time; numeric conversion is per-cell so
// callers can decide whether a malformed value fails a row or a payload.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an ordered set of rows keyed by the values in the first column.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
	byKey   map[string]int
}

// Row is a single record in a Table.
type Row struct {
	table  *Table
	values []string
}

// Parse reads a CSV payload into a Table. The first header column is the key
// column; a duplicate key or a ragged row is a fatal parse error. The name is
// only used in error messages.
func Parse(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: payload is empty", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", name, err)
	}

	t := &Table{
		name:    name,
		columns: header,
		index:   make(map[string]int, len(header)),
		byKey:   make(map[string]int),
	}
	for i, col := range header {
		col = strings.TrimSpace(col)
		t.columns[i] = col
		if _, ok := t.index[col]; ok {
			return nil, fmt.Errorf("%s: duplicate column %q", name, col)
		}
		t.index[col] = i
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: reading row %d: %w", name, len(t.rows)+2, err)
		}
		key := strings.TrimSpace(record[0])
		if key == "" {
			return nil, fmt.Errorf("%s: row %d has an empty key", name, len(t.rows)+2)
		}
		if _, ok := t.byKey[key]; ok {
			return nil, fmt.Errorf("%s: duplicate key %q", name, key)
		}
		t.byKey[key] = len(t.rows)
		t.rows = append(t.rows, record)
	}

	return t, nil
}

// ParseString is Parse over an in-memory payload.
func ParseString(name, payload string) (*Table, error) {
	return Parse(name, strings.NewReader(payload))
}

// Require fails unless every named column is present.
func (t *Table) Require(columns ...string) error {
	for _, col := range columns {
		if _, ok := t.index[col]; !ok {
			return fmt.Errorf("%s: missing required column %q", t.name, col)
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns the header in payload order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Keys returns the key column values in payload order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = strings.TrimSpace(row[0])
	}
	return out
}

// Rows returns all rows in payload order.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, values := range t.rows {
		out[i] = Row{table: t, values: values}
	}
	return out
}

// Lookup returns the row for a key.
func (t *Table) Lookup(key string) (Row, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Row{}, false
	}
	return Row{table: t, values: t.rows[i]}, true
}

// Key returns the row's key column value.
func (r Row) Key() string { return strings.TrimSpace(r.values[0]) }

// String returns the named column's value, trimmed.
func (r Row) String(column string) (string, error) {
	i, ok := r.table.index[column]
	if !ok {
		return "", fmt.Errorf("%s: no column %q", r.table.name, column)
	}
	return strings.TrimSpace(r.values[i]), nil
}

// Float parses the named column as a decimal number. The wire contract uses
// '.' as the decimal separator; anything else is malformed.
func (r Row) Float(column string) (float64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: row %q: column %q: malformed number %q", r.table.name, r.Key(), column, s)
	}
	return v, nil
}

// Int parses the named column as an integer.
func (r Row) Int(column string) (int64, error) {
	s, err := r.String(column)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: row %q: column %q: malformed integer %q", r.table.name, r.Key(), column, s)
	}
	return v, nil
}
