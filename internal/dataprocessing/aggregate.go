package dataprocessing

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"stockdash/pkg/contracts/domain"
)

// CountBy counts records per distinct value of field, in first-appearance
// order. The empty value is a group of its own, so counts always sum to
// the number of records.
func CountBy(table *domain.StockTable, field string) ([]domain.GroupCount, error) {
	groups, err := groupStock(table, field)
	if err != nil {
		return nil, err
	}
	counts := make([]domain.GroupCount, len(groups))
	for i, g := range groups {
		counts[i] = domain.GroupCount{Value: g.value, Count: len(g.pcs)}
	}
	return counts, nil
}

// SummarizeBy extends CountBy with Bal.Pcs total, mean and median per group.
func SummarizeBy(table *domain.StockTable, field string) ([]domain.GroupSummary, error) {
	groups, err := groupStock(table, field)
	if err != nil {
		return nil, err
	}
	summaries := make([]domain.GroupSummary, 0, len(groups))
	for _, g := range groups {
		total, err := stats.Sum(g.pcs)
		if err != nil {
			return nil, fmt.Errorf("sum %q: %w", g.value, err)
		}
		mean, err := stats.Mean(g.pcs)
		if err != nil {
			return nil, fmt.Errorf("mean %q: %w", g.value, err)
		}
		median, err := stats.Median(g.pcs)
		if err != nil {
			return nil, fmt.Errorf("median %q: %w", g.value, err)
		}
		summaries = append(summaries, domain.GroupSummary{
			Value:     g.value,
			Count:     len(g.pcs),
			TotalPcs:  total,
			MeanPcs:   mean,
			MedianPcs: median,
		})
	}
	return summaries, nil
}

type stockGroup struct {
	value string
	pcs   stats.Float64Data
}

func groupStock(table *domain.StockTable, field string) ([]*stockGroup, error) {
	if table == nil {
		return nil, nil
	}
	if !table.HasColumn(field) {
		return nil, &MissingColumnError{Column: field}
	}
	var groups []*stockGroup
	index := make(map[string]*stockGroup)
	for i := range table.Records {
		rec := &table.Records[i]
		value := rec.Value(field)
		g, ok := index[value]
		if !ok {
			g = &stockGroup{value: value}
			index[value] = g
			groups = append(groups, g)
		}
		g.pcs = append(g.pcs, float64(rec.BalPcs))
	}
	return groups, nil
}
