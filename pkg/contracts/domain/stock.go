package domain

import "strconv"

// Stock report column names
const (
	ColumnBaleNo         = "Bale No."
	ColumnBalPcs         = "Bal.Pcs"
	ColumnQualityName    = "Quality Name"
	ColumnQualityNameAll = "Quality Name All"
	ColumnGrade          = "Grade"
)

// FilterAll is the dropdown sentinel meaning "no constraint".
const FilterAll = "All"

// ControlledQualities are the Quality Name values that open a new section
// in the stock report.
var ControlledQualities = []string{"BLEACHED GOODS", "FINISH GOODS", "GREY GOODS", "OTHER"}

// StockRecord is one bale of the normalized stock table.
type StockRecord struct {
	BaleNo      string `json:"bale_no"`
	BalPcs      int    `json:"bal_pcs"`
	QualityName string `json:"quality_name"`
	// QualityNameAll is "" for records that precede the first controlled value.
	QualityNameAll string `json:"quality_name_all"`
	Grade          string `json:"grade"`
	// Fields holds every promoted column that has no typed field above.
	Fields map[string]string `json:"fields,omitempty"`
}

// Value returns the record's value for a column name as a string.
func (r *StockRecord) Value(column string) string {
	switch column {
	case ColumnBaleNo:
		return r.BaleNo
	case ColumnBalPcs:
		return strconv.Itoa(r.BalPcs)
	case ColumnQualityName:
		return r.QualityName
	case ColumnQualityNameAll:
		return r.QualityNameAll
	case ColumnGrade:
		return r.Grade
	}
	return r.Fields[column]
}

// StockTable is the normalized, immutable inventory table.
type StockTable struct {
	Columns []string      `json:"columns"`
	Records []StockRecord `json:"records"`
}

// Len returns the number of records.
func (t *StockTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the table carries the named column.
func (t *StockTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// StockFilter is the set of user-selected predicates over a stock table.
// Categorical fields left empty or set to FilterAll are unconstrained, and
// a MinBalPcs of zero or less is unconstrained.
type StockFilter struct {
	QualityNameAll string `json:"quality_name_all"`
	QualityName    string `json:"quality_name"`
	Grade          string `json:"grade"`
	MinBalPcs      int    `json:"min_bal_pcs"`
}

// StockFilterOptions seeds the filter dropdowns.
type StockFilterOptions struct {
	QualityNameAll []string `json:"quality_name_all"`
	QualityName    []string `json:"quality_name"`
	Grade          []string `json:"grade"`
}

// GroupCount is one row of a grouped count.
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupSummary extends a group count with Bal.Pcs statistics.
type GroupSummary struct {
	Value     string  `json:"value"`
	Count     int     `json:"count"`
	TotalPcs  float64 `json:"total_pcs"`
	MeanPcs   float64 `json:"mean_pcs"`
	MedianPcs float64 `json:"median_pcs"`
}
