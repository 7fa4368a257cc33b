package dataprocessing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"stockdash/pkg/contracts/domain"
)

// SalesNormalizer extracts the subtotal rows of a sales order report.
type SalesNormalizer struct {
	layout Layout
	logger *slog.Logger
}

// NewSalesNormalizer creates a normalizer. A nil logger uses slog.Default.
func NewSalesNormalizer(layout Layout, logger *slog.Logger) *SalesNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesNormalizer{
		layout: layout,
		logger: logger.With(slog.String("component", "sales_normalizer")),
	}
}

// Normalize prunes the sheet, backfills missing subtotal rates and keeps
// only the "Total of" rows. Every failure is a *ParseError.
func (n *SalesNormalizer) Normalize(sheet *domain.RawSheet) (*domain.SalesTable, error) {
	grid, err := n.layout.Apply(sheet)
	if err != nil {
		return nil, err
	}
	// Layouts loaded from configuration may rename to a different width.
	if len(grid.Header) != len(domain.SalesColumns) {
		return nil, newParseError(n.layout.Name,
			fmt.Sprintf("expected %d columns, found %d", len(domain.SalesColumns), len(grid.Header)), nil)
	}

	rows := make([][]string, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		if domain.IsMissing(row[0]) {
			continue
		}
		rows = append(rows, row)
	}

	records := make([]domain.SalesRecord, 0)
	for i, row := range rows {
		if !IsSalesSubtotal(row[0]) {
			continue
		}
		rate := row[1]
		if domain.IsMissing(rate) && i > 0 {
			rate = rows[i-1][1]
		}

		rec := domain.SalesRecord{Date: row[0]}
		fields := []struct {
			column string
			value  string
			dst    *decimal.NullDecimal
		}{
			{domain.ColumnRate, rate, &rec.Rate},
			{domain.ColumnOrderQty, row[2], &rec.OrderQty},
			{domain.ColumnDspQty, row[3], &rec.DspQty},
			{domain.ColumnBalQty, row[4], &rec.BalQty},
		}
		for _, f := range fields {
			d, err := parseDecimal(f.value)
			if err != nil {
				return nil, newParseError(n.layout.Name,
					fmt.Sprintf("row %q column '%s': invalid number %q", row[0], f.column, f.value), err)
			}
			*f.dst = d
		}
		records = append(records, rec)
	}

	n.logger.Debug("sales sheet normalized",
		slog.String("sheet", sheet.Name),
		slog.Int("rows", len(rows)),
		slog.Int("subtotals", len(records)))

	return &domain.SalesTable{
		Columns: append([]string(nil), domain.SalesColumns...),
		Records: records,
	}, nil
}

// parseDecimal reads a report number; thousands separators are tolerated
// and an empty cell is an invalid NullDecimal.
func parseDecimal(value string) (decimal.NullDecimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
