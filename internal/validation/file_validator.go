package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"stockdash/internal/dataprocessing"
	"stockdash/pkg/contracts/domain"
)

// Upload rejection reasons, matched with errors.Is.
var (
	ErrEmptyFile         = errors.New("uploaded file is empty")
	ErrFileTooLarge      = errors.New("uploaded file is too large")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrContentMismatch   = errors.New("file content does not match its extension")
	ErrUnknownUploadKind = errors.New("unknown upload kind")
)

// containerTypes maps a format to the MIME ancestor its content must sniff as.
// xlsx is a zip container, xls an OLE2 compound file, and csv plain text.
var containerTypes = map[dataprocessing.Format]string{
	dataprocessing.FormatXLSX: "application/zip",
	dataprocessing.FormatXLS:  "application/x-ole-storage",
	dataprocessing.FormatCSV:  "text/plain",
}

// FileValidator checks uploaded reports before they reach the normalizers.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
	allowed  map[domain.UploadKind][]string
}

// NewFileValidator creates a validator with per-kind extension allow-lists.
// A maxBytes of zero or less disables the size check.
func NewFileValidator(maxBytes int64, stockExts, salesExts []string, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger.With(slog.String("component", "file_validator")),
		maxBytes: maxBytes,
		allowed: map[domain.UploadKind][]string{
			domain.UploadStock: normalizeExtensions(stockExts),
			domain.UploadSales: normalizeExtensions(salesExts),
		},
	}
}

// ValidateUpload checks name and content of an upload of the given kind and
// returns the format the content should be decoded as.
func (v *FileValidator) ValidateUpload(kind domain.UploadKind, filename string, data []byte) (dataprocessing.Format, error) {
	allowed, ok := v.allowed[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownUploadKind, kind)
	}

	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(data), v.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !contains(allowed, ext) {
		return "", fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedFile, ext, strings.Join(allowed, ", "))
	}

	format, err := dataprocessing.FormatFromFilename(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}

	detected := mimetype.Detect(data)
	if !inherits(detected, containerTypes[format]) {
		v.logger.Warn("upload content mismatch",
			slog.String("kind", string(kind)),
			slog.String("filename", filename),
			slog.String("detected", detected.String()))
		return "", fmt.Errorf("%w: %s looks like %s", ErrContentMismatch, ext, detected.String())
	}

	v.logger.Debug("upload validated",
		slog.String("kind", string(kind)),
		slog.String("filename", filename),
		slog.Int("size", len(data)),
		slog.String("mime", detected.String()))
	return format, nil
}

// AllowedExtensions returns the extension allow-list for kind.
func (v *FileValidator) AllowedExtensions(kind domain.UploadKind) []string {
	return append([]string(nil), v.allowed[kind]...)
}

// inherits reports whether m or one of its ancestors is the MIME type want.
func inherits(m *mimetype.MIME, want string) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(want) {
			return true
		}
	}
	return false
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
