package domain

import "strings"

// RawSheet is an uploaded worksheet read without any header semantics.
// Rows may be ragged; a cell beyond the end of its row is missing.
type RawSheet struct {
	Name string     `json:"name"`
	Rows [][]string `json:"rows"`
}

// Width returns the number of columns of the widest row.
func (s *RawSheet) Width() int {
	width := 0
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

// Cell returns the trimmed cell at (row, col) or "" when it is out of range.
func (s *RawSheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	if col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// IsMissing reports whether a cell value counts as empty.
func IsMissing(value string) bool {
	return strings.TrimSpace(value) == ""
}
