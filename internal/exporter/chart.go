package exporter

import "stockdash/pkg/contracts/domain"

// NotEnoughDataWarning is reported when the sales table has nothing to plot.
const NotEnoughDataWarning = "Not enough numeric data to plot."

// SalesChart builds the bar chart of the first two numeric sales columns,
// Rate against Order Qty. Records missing either value are left out.
func SalesChart(table *domain.SalesTable) domain.SalesChart {
	chart := domain.SalesChart{
		XColumn: domain.ColumnRate,
		YColumn: domain.ColumnOrderQty,
		Points:  []domain.ChartPoint{},
	}
	if table != nil {
		for _, rec := range table.Records {
			if !rec.Rate.Valid || !rec.OrderQty.Valid {
				continue
			}
			chart.Points = append(chart.Points, domain.ChartPoint{
				Label: rec.Date,
				X:     rec.Rate.Decimal.InexactFloat64(),
				Y:     rec.OrderQty.Decimal.InexactFloat64(),
			})
		}
	}
	if len(chart.Points) == 0 {
		chart.Warning = NotEnoughDataWarning
	}
	return chart
}
