package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"stockdash/pkg/contracts/domain"
)

// Format is the container format of an uploaded report.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// FormatFromFilename picks the reader from the declared file extension.
func FormatFromFilename(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", newParseError("", fmt.Sprintf("unsupported file extension %q", ext), nil)
	}
}

// ReadSheet reads the first worksheet of r as a raw grid. No row is
// interpreted as a header.
func ReadSheet(r io.Reader, format Format) (*domain.RawSheet, error) {
	switch format {
	case FormatXLSX:
		return readXLSX(r)
	case FormatXLS:
		return readXLS(r)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, newParseError("", fmt.Sprintf("unsupported format %q", format), nil)
	}
}

func readXLSX(r io.Reader) (*domain.RawSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, newParseError("", "failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, newParseError("", "workbook has no sheets", nil)
	}

	// Raw values keep numbers free of display formatting such as "1,234.00".
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, newParseError("", fmt.Sprintf("failed to read sheet %q", sheets[0]), err)
	}
	return &domain.RawSheet{Name: sheets[0], Rows: rows}, nil
}

func readXLS(r io.Reader) (out *domain.RawSheet, err error) {
	// The BIFF decoder panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, newParseError("", "malformed workbook", fmt.Errorf("%v", p))
		}
	}()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, newParseError("", "failed to read workbook", err)
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, newParseError("", "failed to open workbook", err)
	}
	if wb.NumSheets() == 0 {
		return nil, newParseError("", "workbook has no sheets", nil)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, newParseError("", "failed to read first sheet", nil)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return &domain.RawSheet{Name: sheet.Name, Rows: rows}, nil
}

func readCSV(r io.Reader) (*domain.RawSheet, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, newParseError("", "failed to read CSV", err)
	}
	return &domain.RawSheet{Name: "csv", Rows: rows}, nil
}
