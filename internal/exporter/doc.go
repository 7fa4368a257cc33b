// Package exporter encodes normalized tables for download.
//
// WriteStockXLSX writes the filtered stock table as a one-sheet workbook and
// ReadStockXLSX reads such a workbook back. WriteSalesCSV writes the cleaned
// sales table as UTF-8 CSV, with an optional BOM for Excel. SalesChart
// derives the bar chart series shown next to the sales table.
//
// Example usage:
//
//	var buf bytes.Buffer
//	if err := exporter.WriteStockXLSX(&buf, filtered); err != nil {
//	    return err
//	}
//	w.Header().Set("Content-Type", exporter.XLSXContentType)
//	w.Header().Set("Content-Disposition", exporter.Attachment(exporter.StockExportFilename))
package exporter
