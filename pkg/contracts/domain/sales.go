package domain

import "github.com/shopspring/decimal"

// Sales order column names, in output order.
const (
	ColumnDate     = "Date"
	ColumnRate     = "Rate"
	ColumnOrderQty = "Order Qty"
	ColumnDspQty   = "Dsp Qty"
	ColumnBalQty   = "Bal Qty"
)

// SalesColumns is the positional column naming of the cleaned sales table.
var SalesColumns = []string{ColumnDate, ColumnRate, ColumnOrderQty, ColumnDspQty, ColumnBalQty}

// SalesRecord is one subtotal row of a sales order report.
// Numeric fields stay invalid when the source cell was empty.
type SalesRecord struct {
	Date     string              `json:"date"`
	Rate     decimal.NullDecimal `json:"rate"`
	OrderQty decimal.NullDecimal `json:"order_qty"`
	DspQty   decimal.NullDecimal `json:"dsp_qty"`
	BalQty   decimal.NullDecimal `json:"bal_qty"`
}

// Row renders the record in SalesColumns order; missing numbers are "".
func (r *SalesRecord) Row() []string {
	return []string{
		r.Date,
		formatNullDecimal(r.Rate),
		formatNullDecimal(r.OrderQty),
		formatNullDecimal(r.DspQty),
		formatNullDecimal(r.BalQty),
	}
}

// SalesTable is the cleaned, subtotal-only sales table.
type SalesTable struct {
	Columns []string      `json:"columns"`
	Records []SalesRecord `json:"records"`
}

// Len returns the number of records.
func (t *SalesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func formatNullDecimal(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// ChartPoint is one bar of the sales chart.
type ChartPoint struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// SalesChart is the bar chart series of the first two numeric sales columns.
// Warning is set instead of Points when there is nothing to plot.
type SalesChart struct {
	XColumn string       `json:"x_column"`
	YColumn string       `json:"y_column"`
	Points  []ChartPoint `json:"points"`
	Warning string       `json:"warning,omitempty"`
}
