// Package store adapts a grid-shaped record store: named tables, each a
// header row of column names followed by positioned data rows. Callers look
// columns up by header text so physical reordering is tolerated, and all bulk
// reads and writes are single range operations against the backing store.
package store

import (
	"errors"
	"fmt"
)

// ErrTableNotFound is returned when a named table does not exist in the grid.
var ErrTableNotFound = errors.New("table not found")

// Grid is the record store boundary. Row positions are 0-based over the data
// rows (the header is not addressable); deleting a row shifts the rows below
// it up by one, like removing a spreadsheet row.
type Grid interface {
	// EnsureTable creates the table with the given header if it does not
	// exist. Existing tables are left untouched.
	EnsureTable(name string, header []string) error

	// Tables lists the existing table names.
	Tables() ([]string, error)

	// Header returns the column names of the header row.
	Header(name string) ([]string, error)

	// Rows returns all data rows in position order, in one range read.
	Rows(name string) ([][]any, error)

	// SetRow overwrites the data row at pos.
	SetRow(name string, pos int, row []any) error

	// AppendRows appends rows after the last data row in one batch write.
	AppendRows(name string, rows [][]any) error

	// DeleteRow removes the data row at pos; rows below shift up.
	DeleteRow(name string, pos int) error

	// Truncate removes all data rows but keeps the header.
	Truncate(name string) error
}

// ColumnMap maps header text to 0-based cell positions.
func ColumnMap(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := m[name]; !ok {
			m[name] = i
		}
	}
	return m
}

// IsBlankRow reports whether every cell is empty. Blank rows are unused
// capacity, not records.
func IsBlankRow(row []any) bool {
	for _, cell := range row {
		if !IsEmptyCell(cell) {
			return false
		}
	}
	return true
}

// IsEmptyCell reports whether a single cell holds no value.
func IsEmptyCell(cell any) bool {
	if cell == nil {
		return true
	}
	s, ok := cell.(string)
	return ok && s == ""
}

// CellString renders a cell as its string value, or "" for empty cells.
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
