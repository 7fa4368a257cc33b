package dataprocessing

import (
	"fmt"
	"strings"

	"stockdash/pkg/contracts/domain"
)

// NoHeaderRow marks a layout whose columns are named positionally.
const NoHeaderRow = -1

// Layout describes where the data lives inside a raw report sheet.
// All indices are 0-based positions in the raw grid.
type Layout struct {
	Name        string
	SkipRows    []int
	SkipColumns []int
	// HeaderRow is the raw row promoted to field names, or NoHeaderRow.
	// Unskipped rows above it are discarded as report preamble.
	HeaderRow int
	// ColumnNames renames the pruned columns positionally. When set, the
	// pruned width must match exactly.
	ColumnNames      []string
	DropEmptyColumns bool
}

// StockLayout is the stock inventory export layout.
func StockLayout() Layout {
	return Layout{
		Name:             "stock",
		SkipRows:         []int{0, 1, 2, 3, 5, 6},
		SkipColumns:      []int{1, 3, 4, 5, 8, 11, 12, 13, 14, 15, 16, 17, 18},
		HeaderRow:        4,
		DropEmptyColumns: true,
	}
}

// SalesLayout is the sales order export layout.
func SalesLayout() Layout {
	return Layout{
		Name:        "sales",
		SkipRows:    []int{0, 1, 2, 3},
		SkipColumns: []int{0, 1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 15},
		HeaderRow:   NoHeaderRow,
		ColumnNames: append([]string(nil), domain.SalesColumns...),
	}
}

// Validate checks the descriptor for contradictions.
func (l Layout) Validate() error {
	for _, r := range l.SkipRows {
		if r < 0 {
			return fmt.Errorf("layout %s: negative skip row %d", l.Name, r)
		}
		if r == l.HeaderRow {
			return fmt.Errorf("layout %s: header row %d is also skipped", l.Name, r)
		}
	}
	for _, c := range l.SkipColumns {
		if c < 0 {
			return fmt.Errorf("layout %s: negative skip column %d", l.Name, c)
		}
	}
	if l.HeaderRow < NoHeaderRow {
		return fmt.Errorf("layout %s: invalid header row %d", l.Name, l.HeaderRow)
	}
	if l.HeaderRow == NoHeaderRow && len(l.ColumnNames) == 0 {
		return fmt.Errorf("layout %s: needs a header row or column names", l.Name)
	}
	return nil
}

// Grid is a pruned sheet: a header and equally wide data rows.
type Grid struct {
	Header []string
	Rows   [][]string
	// SourceRows maps each data row back to its raw sheet row.
	SourceRows []int
}

// Apply prunes the sheet according to the layout, promotes the header and
// re-indexes rows and columns contiguously.
func (l Layout) Apply(sheet *domain.RawSheet) (*Grid, error) {
	if err := l.Validate(); err != nil {
		return nil, newParseError(l.Name, "invalid layout", err)
	}
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil, newParseError(l.Name, "sheet is empty", nil)
	}

	width := sheet.Width()
	if maxCol := maxIndex(l.SkipColumns); maxCol >= width {
		return nil, newParseError(l.Name,
			fmt.Sprintf("sheet has %d columns, layout expects at least %d", width, maxCol+1), nil)
	}
	if l.HeaderRow >= len(sheet.Rows) {
		return nil, newParseError(l.Name,
			fmt.Sprintf("header row %d not present, sheet has %d rows", l.HeaderRow, len(sheet.Rows)), nil)
	}

	skipCols := toSet(l.SkipColumns)
	cols := make([]int, 0, width)
	for c := 0; c < width; c++ {
		if !skipCols[c] {
			cols = append(cols, c)
		}
	}

	skipRows := toSet(l.SkipRows)
	var kept [][]string
	var source []int
	for r := range sheet.Rows {
		if skipRows[r] || r < l.HeaderRow {
			continue
		}
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = sheet.Cell(r, c)
		}
		kept = append(kept, row)
		source = append(source, r)
	}

	dataWidth := len(cols)
	if l.DropEmptyColumns {
		kept = dropEmptyColumns(kept)
		if len(kept) > 0 {
			dataWidth = len(kept[0])
		}
	}

	grid := &Grid{}
	if l.HeaderRow != NoHeaderRow {
		grid.Header = promoteHeader(kept[0])
		kept, source = kept[1:], source[1:]
	}

	if len(l.ColumnNames) > 0 {
		if dataWidth != len(l.ColumnNames) {
			return nil, newParseError(l.Name,
				fmt.Sprintf("expected %d data columns, found %d", len(l.ColumnNames), dataWidth), nil)
		}
		grid.Header = append([]string(nil), l.ColumnNames...)
	}

	grid.Rows = kept
	grid.SourceRows = source
	return grid, nil
}

// ColumnIndex returns the position of a named column or -1.
func (g *Grid) ColumnIndex(name string) int {
	for i, h := range g.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// promoteHeader turns a row into unique, non-empty field names.
func promoteHeader(row []string) []string {
	header := make([]string, len(row))
	seen := make(map[string]bool, len(row))
	// suffix is the last suffix handed out per base name.
	suffix := make(map[string]int)
	for i, cell := range row {
		name := strings.TrimSpace(cell)
		if name == "" {
			name = fmt.Sprintf("Column %d", i)
		}
		if seen[name] {
			base, n := name, suffix[name]
			for seen[name] {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
			}
			suffix[base] = n
		}
		seen[name] = true
		header[i] = name
	}
	return header
}

func dropEmptyColumns(rows [][]string) [][]string {
	if len(rows) == 0 {
		return rows
	}
	width := len(rows[0])
	keep := make([]int, 0, width)
	for c := 0; c < width; c++ {
		for _, row := range rows {
			if !domain.IsMissing(row[c]) {
				keep = append(keep, c)
				break
			}
		}
	}
	if len(keep) == width {
		return rows
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		pruned := make([]string, len(keep))
		for j, c := range keep {
			pruned[j] = row[c]
		}
		out[i] = pruned
	}
	return out
}

func toSet(indices []int) map[int]bool {
	set := make(map[int]bool, len(indices))
	for _, i := range indices {
		set[i] = true
	}
	return set
}

func maxIndex(indices []int) int {
	hi := -1
	for _, i := range indices {
		if i > hi {
			hi = i
		}
	}
	return hi
}
