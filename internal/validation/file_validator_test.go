package validation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockdash/internal/dataprocessing"
	"stockdash/pkg/contracts/domain"
)

var oleHeader = append([]byte("\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1"), make([]byte, 504)...)

func xlsxBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Bale No."))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestValidator() *FileValidator {
	return NewFileValidator(1<<20, []string{".xlsx", "XLS"}, []string{".xlsx", ".xls", ".csv"}, nil)
}

func TestValidateUpload_Accepts(t *testing.T) {
	v := newTestValidator()
	csv := []byte("\ufeffDate,Rate,Order Qty\n2024-01-01,5,10\n")

	tests := []struct {
		name     string
		kind     domain.UploadKind
		filename string
		data     []byte
		want     dataprocessing.Format
	}{
		{"stock xlsx", domain.UploadStock, "stock.xlsx", xlsxBytes(t), dataprocessing.FormatXLSX},
		{"stock xls upper case", domain.UploadStock, "STOCK.XLS", oleHeader, dataprocessing.FormatXLS},
		{"sales csv", domain.UploadSales, "orders.csv", csv, dataprocessing.FormatCSV},
		{"sales xlsx", domain.UploadSales, "orders.xlsx", xlsxBytes(t), dataprocessing.FormatXLSX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, err := v.ValidateUpload(tt.kind, tt.filename, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}

func TestValidateUpload_Rejects(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name     string
		kind     domain.UploadKind
		filename string
		data     []byte
		want     error
	}{
		{"empty", domain.UploadStock, "stock.xlsx", nil, ErrEmptyFile},
		{"too large", domain.UploadSales, "big.csv", bytes.Repeat([]byte("a,b\n"), 1<<19), ErrFileTooLarge},
		{"csv not allowed for stock", domain.UploadStock, "stock.csv", []byte("a,b\n"), ErrUnsupportedFile},
		{"unknown extension", domain.UploadSales, "orders.pdf", []byte("%PDF-1.4"), ErrUnsupportedFile},
		{"binary named csv", domain.UploadSales, "orders.csv", oleHeader, ErrContentMismatch},
		{"text named xlsx", domain.UploadStock, "stock.xlsx", []byte("just text"), ErrContentMismatch},
		{"unknown kind", domain.UploadKind("returns"), "r.xlsx", []byte("x"), ErrUnknownUploadKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ValidateUpload(tt.kind, tt.filename, tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAllowedExtensions(t *testing.T) {
	v := newTestValidator()
	assert.Equal(t, []string{".xlsx", ".xls"}, v.AllowedExtensions(domain.UploadStock))
	assert.Empty(t, v.AllowedExtensions(domain.UploadKind("other")))
}
