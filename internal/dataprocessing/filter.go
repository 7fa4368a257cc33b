package dataprocessing

import "stockdash/pkg/contracts/domain"

// FilterStock applies the filter conjunctively and returns a new table in
// the original record order. The input table is never modified.
func FilterStock(table *domain.StockTable, filter domain.StockFilter) *domain.StockTable {
	if table == nil {
		return &domain.StockTable{}
	}
	out := &domain.StockTable{
		Columns: table.Columns,
		Records: make([]domain.StockRecord, 0, len(table.Records)),
	}
	for _, rec := range table.Records {
		if matchesStockFilter(&rec, filter) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}

func matchesStockFilter(rec *domain.StockRecord, f domain.StockFilter) bool {
	if constrained(f.QualityNameAll) && rec.QualityNameAll != f.QualityNameAll {
		return false
	}
	if constrained(f.QualityName) && rec.QualityName != f.QualityName {
		return false
	}
	if constrained(f.Grade) && rec.Grade != f.Grade {
		return false
	}
	if f.MinBalPcs > 0 && rec.BalPcs < f.MinBalPcs {
		return false
	}
	return true
}

func constrained(value string) bool {
	return value != "" && value != domain.FilterAll
}

// StockFilterOptions seeds each dropdown with "All" followed by the distinct
// non-empty values of its column in first-appearance order.
func StockFilterOptions(table *domain.StockTable) domain.StockFilterOptions {
	opts := domain.StockFilterOptions{
		QualityNameAll: []string{domain.FilterAll},
		QualityName:    []string{domain.FilterAll},
		Grade:          []string{domain.FilterAll},
	}
	if table == nil {
		return opts
	}

	seen := [3]map[string]bool{{}, {}, {}}
	add := func(i int, dst *[]string, value string) {
		if value == "" || seen[i][value] {
			return
		}
		seen[i][value] = true
		*dst = append(*dst, value)
	}
	for _, rec := range table.Records {
		add(0, &opts.QualityNameAll, rec.QualityNameAll)
		add(1, &opts.QualityName, rec.QualityName)
		add(2, &opts.Grade, rec.Grade)
	}
	return opts
}
