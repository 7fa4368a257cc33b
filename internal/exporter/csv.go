package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"stockdash/pkg/contracts/domain"
)

// utf8BOM helps spreadsheet applications recognize UTF-8 CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes a header row followed by the records.
func WriteCSV(w io.Writer, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVOptions configures the sales CSV export.
type CSVOptions struct {
	BOMPrefix bool
}

// WriteSalesCSV writes the cleaned sales table as UTF-8 CSV. Missing
// numbers are written as empty fields.
func WriteSalesCSV(w io.Writer, table *domain.SalesTable, opts CSVOptions) error {
	if table == nil {
		return fmt.Errorf("no sales table to export")
	}
	headers := table.Columns
	if len(headers) == 0 {
		headers = domain.SalesColumns
	}
	records := make([][]string, len(table.Records))
	for i := range table.Records {
		records[i] = table.Records[i].Row()
	}
	return WriteCSV(w, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: opts.BOMPrefix,
	})
}
