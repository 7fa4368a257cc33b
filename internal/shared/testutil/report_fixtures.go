package testutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Column positions of the raw exports, matching the built-in layouts.
const (
	stockWidth = 20
	salesWidth = 17
)

// StockRow places values where the stock layout keeps them: Bale No. at 0,
// Quality Name at 2, Bal.Pcs at 6, Grade at 7 and an optional extra column
// at 9. Pruned columns carry junk.
func StockRow(bale, quality, pcs, grade string, extra ...string) []string {
	row := make([]string, stockWidth)
	row[0] = bale
	row[1] = "junk"
	row[2] = quality
	row[6] = pcs
	row[7] = grade
	row[18] = "junk"
	if len(extra) > 0 {
		row[9] = extra[0]
	}
	return row
}

// StockHeader is the header row of a stock export with a "Shade" extra.
func StockHeader() []string {
	return StockRow("Bale No.", "Quality Name", "Bal.Pcs", "Grade", "Shade")
}

// StockReportRows wraps header and data in the four preamble rows and two
// filler rows of a stock export.
func StockReportRows(header []string, data ...[]string) [][]string {
	rows := [][]string{
		{"STOCK REPORT"},
		{"As on 01-01-2024"},
		{"-"},
		{"Company"},
		header,
		{"--------"},
		{"-"},
	}
	return append(rows, data...)
}

// SampleStockRows is a small stock report with two controlled sections, a
// subtotal row and a bale without Bal.Pcs.
func SampleStockRows() [][]string {
	return StockReportRows(StockHeader(),
		StockRow("", "GREY GOODS", "", ""),
		StockRow("B1", "GREY GOODS", "10", "A", "Blue"),
		StockRow("B2", "Cotton 40s", "5", "B"),
		StockRow("Total of GREY GOODS", "", "15", ""),
		StockRow("B3", "FINISH GOODS", "1,200", "A"),
		StockRow("B4", "Poly", "", "C"),
	)
}

// SalesRow places the five kept values at columns 2, 12, 13, 14 and 16 of
// a sales export row.
func SalesRow(date, rate, order, dsp, bal string) []string {
	row := make([]string, salesWidth)
	row[0] = "SO-1"
	row[2] = date
	row[5] = "Customer"
	row[12] = rate
	row[13] = order
	row[14] = dsp
	row[15] = "junk"
	row[16] = bal
	return row
}

// SalesReportRows wraps data rows in the sales export preamble.
func SalesReportRows(data ...[]string) [][]string {
	rows := [][]string{
		{"SALES ORDER REGISTER"},
		{"From 01-01-2024 To 31-01-2024"},
		{"-"},
		SalesRow("Date", "Rate", "Order", "Dispatch", "Balance"),
	}
	return append(rows, data...)
}

// SampleSalesRows has two orders, each followed by a subtotal without Rate.
func SampleSalesRows() [][]string {
	return SalesReportRows(
		SalesRow("A", "5", "10", "8", "2"),
		SalesRow("Total of A", "", "10", "8", "2"),
		SalesRow("B", "7", "4", "4", "0"),
		SalesRow("Total of B", "", "4", "4", "0"),
	)
}

// XLSX renders rows into the first sheet of a workbook.
func XLSX(t testing.TB, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatalf("write row %d: %v", i, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// CSV renders rows as comma separated text.
func CSV(t testing.TB, rows [][]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return buf.Bytes()
}

// StockWorkbook is SampleStockRows as an xlsx upload.
func StockWorkbook(t testing.TB) []byte {
	t.Helper()
	return XLSX(t, SampleStockRows())
}

// SalesCSV is SampleSalesRows as a csv upload.
func SalesCSV(t testing.TB) []byte {
	t.Helper()
	return CSV(t, SampleSalesRows())
}
