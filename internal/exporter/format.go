package exporter

import (
	"fmt"
	"mime"
)

// Download names and content types of the two exports.
const (
	StockExportFilename = "filtered_stock_data.xlsx"
	SalesExportFilename = "cleaned_sales_order.csv"

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv; charset=utf-8"
)

// Attachment formats a Content-Disposition header value for a download.
func Attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}
