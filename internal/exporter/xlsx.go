package exporter

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"stockdash/internal/dataprocessing"
	"stockdash/pkg/contracts/domain"
)

// StockSheetName is the single worksheet of a stock export.
const StockSheetName = "Filtered Data"

// WriteStockXLSX writes the table as a one-sheet workbook: a header row of
// table.Columns followed by one row per record, with no index column.
// Bal.Pcs is written as a number, every other field as text.
func WriteStockXLSX(w io.Writer, table *domain.StockTable) error {
	if table == nil {
		return fmt.Errorf("no stock table to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), StockSheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(StockSheetName)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range table.Records {
		rec := &table.Records[i]
		row := make([]interface{}, len(table.Columns))
		for j, c := range table.Columns {
			if c == domain.ColumnBalPcs {
				row[j] = rec.BalPcs
			} else {
				row[j] = rec.Value(c)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ReadStockXLSX reads a workbook written by WriteStockXLSX back into a
// table. Quality Name All is taken as stored and not derived again.
func ReadStockXLSX(r io.Reader) (*domain.StockTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheets[0])
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[h] = i
	}
	for _, required := range []string{domain.ColumnBaleNo, domain.ColumnBalPcs, domain.ColumnQualityName} {
		if _, ok := index[required]; !ok {
			return nil, &dataprocessing.MissingColumnError{Column: required}
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	table := &domain.StockTable{
		Columns: append([]string(nil), header...),
		Records: make([]domain.StockRecord, 0, len(rows)-1),
	}
	for n, row := range rows[1:] {
		pcs := 0
		if v := strings.TrimSpace(cell(row, domain.ColumnBalPcs)); v != "" {
			pcs, err = strconv.Atoi(v)
			if err != nil {
				return nil, &dataprocessing.TypeCoercionError{Column: domain.ColumnBalPcs, Row: n, Value: v, Err: err}
			}
		}
		rec := domain.StockRecord{
			BaleNo:         cell(row, domain.ColumnBaleNo),
			BalPcs:         pcs,
			QualityName:    cell(row, domain.ColumnQualityName),
			QualityNameAll: cell(row, domain.ColumnQualityNameAll),
			Grade:          cell(row, domain.ColumnGrade),
		}
		for _, name := range header {
			switch name {
			case domain.ColumnBaleNo, domain.ColumnBalPcs, domain.ColumnQualityName,
				domain.ColumnQualityNameAll, domain.ColumnGrade:
				continue
			}
			if rec.Fields == nil {
				rec.Fields = make(map[string]string)
			}
			rec.Fields[name] = cell(row, name)
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}
