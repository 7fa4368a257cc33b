// Package dataprocessing normalizes exported stock and sales order reports
// into clean tables and answers filter and grouping queries over them.
//
// # Architecture
//
// Both pipelines share one shape:
//
//	RawSheet → Layout.Apply (prune rows/columns, promote header) → validate → clean → derive
//
// Readers (ReadSheet) turn .xlsx, .xls and .csv uploads into a RawSheet with
// no header semantics. A Layout describes where the data sits in the raw
// grid; StockLayout and SalesLayout describe the two known report exports
// and may be overridden from configuration.
//
// # Usage
//
//	sheet, err := dataprocessing.ReadSheet(file, dataprocessing.FormatXLSX)
//	if err != nil {
//	    return err
//	}
//	normalizer := dataprocessing.NewStockNormalizer(dataprocessing.DefaultStockConfig(), logger)
//	table, err := normalizer.Normalize(sheet)
//	if err != nil {
//	    return errors.New(dataprocessing.UserMessage(err))
//	}
//	view := dataprocessing.FilterStock(table, domain.StockFilter{Grade: "A"})
//	counts, _ := dataprocessing.CountBy(view, domain.ColumnQualityName)
//
// # Subtotal rows
//
// Stock reports mark subtotal rows in two different ways depending on the
// report variant: a literal "Total_of" prefix or "Total of" in any case.
// SubtotalPolicy makes the rule explicit; ModeRegex is the default.
//
// # Error Handling
//
// The stock pipeline distinguishes *MissingColumnError, *TypeCoercionError
// and *ParseError. The sales pipeline only reports *ParseError. Use Classify
// or UserMessage at the pipeline boundary.
//
// Tables returned by the normalizers are never modified afterwards; filters
// and aggregations build new values.
package dataprocessing
