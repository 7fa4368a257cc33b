// Package api contains the request and response contracts of the dashboard
// HTTP API, version v1.
package api

import (
	"stockdash/pkg/contracts/domain"
)

// StockQuery carries the stock filter selections from the query string.
// Empty categorical values mean "All".
type StockQuery struct {
	QualityNameAll string `json:"quality_name_all" query:"quality_name_all" validate:"max=256"`
	QualityName    string `json:"quality_name" query:"quality_name" validate:"max=256"`
	Grade          string `json:"grade" query:"grade" validate:"max=256"`
	MinBalPcs      int    `json:"min_bal_pcs" query:"min_bal_pcs" validate:"gte=0"`
}

// Filter converts the query into a domain filter.
func (q StockQuery) Filter() domain.StockFilter {
	return domain.StockFilter{
		QualityNameAll: q.QualityNameAll,
		QualityName:    q.QualityName,
		Grade:          q.Grade,
		MinBalPcs:      q.MinBalPcs,
	}
}

// CountsQuery selects the grouping column for stock counts.
type CountsQuery struct {
	StockQuery
	By string `json:"by" query:"by" validate:"max=256"`
}

// PageRequest switches the session between the stock and sales views.
type PageRequest struct {
	Page string `json:"page" validate:"required,oneof=stock sales"`
}
