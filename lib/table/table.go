package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an in-memory tabular result: a header row plus data rows,
// all values kept as strings exactly as the service returned them.
type Table struct {
	Columns []string
	Rows    [][]string
}

func (t Table) IsEmpty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the index of the column with the given name,
// compared case-insensitively, or -1 if no such column exists.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// ReadCSV parses a comma-delimited document with a header row.
// A document containing only a header row yields a table with zero rows.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv document has no header row")
	}

	return Table{
		Columns: records[0],
		Rows:    records[1:],
	}, nil
}

func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	err := writer.Write(t.Columns)
	if err != nil {
		return err
	}
	err = writer.WriteAll(t.Rows)
	if err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// Concat merges tables in argument order, keeping the row order of each
// input. Every input must share the schema of the first.
func Concat(tables ...Table) (Table, error) {
	if len(tables) == 0 {
		return Table{}, nil
	}

	out := Table{Columns: tables[0].Columns}
	for _, t := range tables {
		if !sameSchema(out.Columns, t.Columns) {
			return Table{}, fmt.Errorf(
				"column schema mismatch: %v != %v",
				out.Columns, t.Columns,
			)
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out, nil
}

func sameSchema(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rowKey encodes a row so that no two distinct rows share a key, even
// when field values contain arbitrary bytes: each field is length
// prefixed, so field boundaries are unambiguous.
func rowKey(row []string) string {
	var key strings.Builder
	for _, field := range row {
		key.WriteString(strconv.Itoa(len(field)))
		key.WriteByte(':')
		key.WriteString(field)
	}
	return key.String()
}

// Dedup returns a copy of the table with exact duplicate rows removed,
// keeping the first occurrence of each row in order.
func Dedup(t Table) Table {
	seen := make(map[string]struct{}, len(t.Rows))
	out := Table{Columns: t.Columns}

	for _, row := range t.Rows {
		key := rowKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}
