package dataprocessing

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"stockdash/pkg/contracts/domain"
)

// requiredStockColumns are checked in this order; the first absent one is reported.
var requiredStockColumns = []string{
	domain.ColumnBaleNo,
	domain.ColumnBalPcs,
	domain.ColumnQualityName,
}

// StockConfig configures a StockNormalizer.
type StockConfig struct {
	Layout              Layout
	Subtotal            SubtotalPolicy
	ControlledQualities []string
}

// DefaultStockConfig returns the configuration for the standard stock export.
func DefaultStockConfig() StockConfig {
	return StockConfig{
		Layout:              StockLayout(),
		Subtotal:            DefaultSubtotalPolicy(),
		ControlledQualities: append([]string(nil), domain.ControlledQualities...),
	}
}

// StockNormalizer turns a raw stock report sheet into a StockTable.
type StockNormalizer struct {
	layout     Layout
	policy     SubtotalPolicy
	controlled map[string]bool
	logger     *slog.Logger
}

// NewStockNormalizer creates a normalizer. A nil logger uses slog.Default.
func NewStockNormalizer(cfg StockConfig, logger *slog.Logger) *StockNormalizer {
	if logger == nil {
		logger = slog.Default()
	}
	controlled := make(map[string]bool, len(cfg.ControlledQualities))
	for _, q := range cfg.ControlledQualities {
		controlled[q] = true
	}
	return &StockNormalizer{
		layout:     cfg.Layout,
		policy:     cfg.Subtotal,
		controlled: controlled,
		logger:     logger.With(slog.String("component", "stock_normalizer")),
	}
}

// Normalize prunes, validates and cleans the sheet. On failure the table is
// nil and the error is a *MissingColumnError, *TypeCoercionError or *ParseError.
func (n *StockNormalizer) Normalize(sheet *domain.RawSheet) (*domain.StockTable, error) {
	grid, err := n.layout.Apply(sheet)
	if err != nil {
		return nil, err
	}

	for _, col := range requiredStockColumns {
		if grid.ColumnIndex(col) < 0 {
			return nil, &MissingColumnError{Column: col}
		}
	}

	baleIdx := grid.ColumnIndex(domain.ColumnBaleNo)
	pcsIdx := grid.ColumnIndex(domain.ColumnBalPcs)
	qualityIdx := grid.ColumnIndex(domain.ColumnQualityName)
	gradeIdx := grid.ColumnIndex(domain.ColumnGrade)

	records := make([]domain.StockRecord, 0, len(grid.Rows))
	var blank, subtotals int
	for i, row := range grid.Rows {
		baleNo := row[baleIdx]
		if domain.IsMissing(baleNo) {
			blank++
			continue
		}
		if n.policy.IsSubtotal(baleNo) {
			subtotals++
			continue
		}

		pcs, err := parseBalPcs(row[pcsIdx])
		if err != nil {
			return nil, &TypeCoercionError{Column: domain.ColumnBalPcs, Row: i, Value: row[pcsIdx], Err: err}
		}

		rec := domain.StockRecord{
			BaleNo:      baleNo,
			BalPcs:      pcs,
			QualityName: row[qualityIdx],
		}
		if gradeIdx >= 0 {
			rec.Grade = row[gradeIdx]
		}
		for c, name := range grid.Header {
			if isTypedStockColumn(name) {
				continue
			}
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[name] = row[c]
		}
		records = append(records, rec)
	}

	columns := append([]string(nil), grid.Header...)
	if grid.ColumnIndex(domain.ColumnQualityNameAll) < 0 {
		columns = append(columns, domain.ColumnQualityNameAll)
	}

	table := &domain.StockTable{
		Columns: columns,
		Records: deriveQualityNameAll(records, n.controlled),
	}

	n.logger.Debug("stock sheet normalized",
		slog.String("sheet", sheet.Name),
		slog.Int("records", len(table.Records)),
		slog.Int("blank_bales", blank),
		slog.Int("subtotal_rows", subtotals))
	return table, nil
}

// deriveQualityNameAll returns a copy of records with QualityNameAll set by
// a single forward-filling scan. Records before the first controlled value
// stay "".
func deriveQualityNameAll(records []domain.StockRecord, controlled map[string]bool) []domain.StockRecord {
	out := make([]domain.StockRecord, len(records))
	last := ""
	for i, rec := range records {
		if controlled[rec.QualityName] {
			last = rec.QualityName
		}
		rec.QualityNameAll = last
		out[i] = rec
	}
	return out
}

var (
	errNegativePieces   = errors.New("negative piece count")
	errPiecesOutOfRange = errors.New("piece count out of range")
)

// parseBalPcs coerces a piece count. Missing counts are zero and fractional
// counts truncate toward zero.
func parseBalPcs(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("not a number: %w", err)
	}
	if d.IsNegative() {
		return 0, errNegativePieces
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, errPiecesOutOfRange
	}
	return int(d.IntPart()), nil
}

func isTypedStockColumn(name string) bool {
	switch name {
	case domain.ColumnBaleNo, domain.ColumnBalPcs, domain.ColumnQualityName,
		domain.ColumnQualityNameAll, domain.ColumnGrade:
		return true
	}
	return false
}
