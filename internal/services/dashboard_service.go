package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"stockdash/internal/dataprocessing"
	"stockdash/internal/exporter"
	"stockdash/internal/infrastructure"
	"stockdash/internal/session"
	"stockdash/internal/validation"
	"stockdash/pkg/contracts/domain"
)

// DashboardConfig is the normalization setup shared by every session.
type DashboardConfig struct {
	Stock       dataprocessing.StockConfig
	SalesLayout dataprocessing.Layout
	SalesCSV    exporter.CSVOptions
}

// DashboardService runs uploads through the normalizers and answers view,
// filter and export requests from the per-session tables.
type DashboardService struct {
	cfg       DashboardConfig
	sessions  *session.Store
	validator *validation.FileValidator
	stock     *dataprocessing.StockNormalizer
	sales     *dataprocessing.SalesNormalizer
	tracer    trace.Tracer
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// StockUploadResult is a freshly normalized stock report.
type StockUploadResult struct {
	Session session.Session
	Table   *domain.StockTable
	Options domain.StockFilterOptions
}

// StockView is a filtered stock table and the size of the table it came from.
type StockView struct {
	Filter    domain.StockFilter
	TotalRows int
	Table     *domain.StockTable
}

// SalesUploadResult is a freshly cleaned sales report.
type SalesUploadResult struct {
	Session session.Session
	Table   *domain.SalesTable
}

// NewDashboardService wires the service. tracer and metrics may be nil.
func NewDashboardService(
	cfg DashboardConfig,
	sessions *session.Store,
	validator *validation.FileValidator,
	tracer trace.Tracer,
	metrics *infrastructure.BusinessMetrics,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}
	return &DashboardService{
		cfg:       cfg,
		sessions:  sessions,
		validator: validator,
		stock:     dataprocessing.NewStockNormalizer(cfg.Stock, logger),
		sales:     dataprocessing.NewSalesNormalizer(cfg.SalesLayout, logger),
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "dashboard_service")),
		now:       time.Now,
	}
}

// CreateSession starts a new dashboard session on the stock page.
func (s *DashboardService) CreateSession(ctx context.Context) (session.Session, error) {
	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.WarnContext(ctx, "session not created", slog.String("error", err.Error()))
		return session.Session{}, err
	}
	s.logger.InfoContext(ctx, "session created", slog.String("session_id", sess.ID))
	return sess, nil
}

// GetSession returns the session and refreshes its expiry.
func (s *DashboardService) GetSession(ctx context.Context, id string) (session.Session, error) {
	return s.sessions.Get(id)
}

// SetPage switches the session between the stock and sales views.
func (s *DashboardService) SetPage(ctx context.Context, id string, page domain.Page) (session.Session, error) {
	if !page.IsValid() {
		return session.Session{}, validation.Field("page", "page must be one of: stock, sales")
	}
	return s.sessions.Update(id, func(sess *session.Session) error {
		sess.Page = page
		return nil
	})
}

// DeleteSession drops the session and its tables.
func (s *DashboardService) DeleteSession(ctx context.Context, id string) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "session deleted", slog.String("session_id", id))
	return nil
}

// ActiveSessions counts sessions that have not expired.
func (s *DashboardService) ActiveSessions() int {
	return s.sessions.Len()
}

// UploadStock normalizes a stock report into the session. On failure the
// session's stock table is cleared and the typed error is returned.
func (s *DashboardService) UploadStock(ctx context.Context, id, filename string, r io.Reader) (*StockUploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.upload_stock",
		trace.WithAttributes(attribute.String("upload.filename", filename)))
	defer span.End()

	start := s.now()
	upload, sheet, err := s.readUpload(ctx, id, domain.UploadStock, filename, r)
	if err != nil {
		return nil, err
	}

	table, err := s.stock.Normalize(sheet)
	if err != nil {
		s.failUpload(ctx, id, domain.UploadStock, start, err)
		return nil, fmt.Errorf("normalize stock report: %w", err)
	}

	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		sess.Stock = table
		sess.StockUpload = upload
		sess.Page = domain.PageStock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUpload(ctx, string(domain.UploadStock), "success", s.now().Sub(start), table.Len())
	infrastructure.AddSpanEvent(ctx, "stock.normalized", attribute.Int("records", table.Len()))
	s.logger.InfoContext(ctx, "stock report loaded",
		slog.String("session_id", id),
		slog.String("filename", filename),
		slog.Int("records", table.Len()),
		slog.Int("columns", len(table.Columns)))

	return &StockUploadResult{
		Session: sess,
		Table:   table,
		Options: dataprocessing.StockFilterOptions(table),
	}, nil
}

// StockView returns the session's stock table filtered by filter.
func (s *DashboardService) StockView(ctx context.Context, id string, filter domain.StockFilter) (*StockView, error) {
	table, err := s.stockTable(id)
	if err != nil {
		return nil, err
	}
	filtered := dataprocessing.FilterStock(table, filter)
	s.metrics.RecordFilter(ctx, "stock")

	s.logger.DebugContext(ctx, "stock filtered",
		slog.String("session_id", id),
		slog.Int("total", table.Len()),
		slog.Int("matched", filtered.Len()))
	return &StockView{Filter: filter, TotalRows: table.Len(), Table: filtered}, nil
}

// StockOptions seeds the filter dropdowns from the unfiltered table.
func (s *DashboardService) StockOptions(ctx context.Context, id string) (domain.StockFilterOptions, error) {
	table, err := s.stockTable(id)
	if err != nil {
		return domain.StockFilterOptions{}, err
	}
	return dataprocessing.StockFilterOptions(table), nil
}

// StockCounts groups the filtered stock table by column; an empty column
// groups by Quality Name.
func (s *DashboardService) StockCounts(ctx context.Context, id string, filter domain.StockFilter, by string) ([]domain.GroupCount, []domain.GroupSummary, error) {
	if by == "" {
		by = domain.ColumnQualityName
	}
	view, err := s.StockView(ctx, id, filter)
	if err != nil {
		return nil, nil, err
	}

	counts, err := dataprocessing.CountBy(view.Table, by)
	if err != nil {
		return nil, nil, err
	}
	summary, err := dataprocessing.SummarizeBy(view.Table, by)
	if err != nil {
		return nil, nil, err
	}
	return counts, summary, nil
}

// ExportStock writes the filtered stock table as an xlsx workbook.
func (s *DashboardService) ExportStock(ctx context.Context, id string, filter domain.StockFilter, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.export_stock")
	defer span.End()

	view, err := s.StockView(ctx, id, filter)
	if err != nil {
		return err
	}
	if err := exporter.WriteStockXLSX(w, view.Table); err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("export stock: %w", err)
	}

	s.metrics.RecordExport(ctx, "stock_xlsx")
	s.logger.InfoContext(ctx, "stock exported",
		slog.String("session_id", id),
		slog.Int("records", view.Table.Len()))
	return nil
}

// UploadSales cleans a sales order report into the session. On failure the
// session's sales table is cleared and the typed error is returned.
func (s *DashboardService) UploadSales(ctx context.Context, id, filename string, r io.Reader) (*SalesUploadResult, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.upload_sales",
		trace.WithAttributes(attribute.String("upload.filename", filename)))
	defer span.End()

	start := s.now()
	upload, sheet, err := s.readUpload(ctx, id, domain.UploadSales, filename, r)
	if err != nil {
		return nil, err
	}

	table, err := s.sales.Normalize(sheet)
	if err != nil {
		s.failUpload(ctx, id, domain.UploadSales, start, err)
		return nil, fmt.Errorf("normalize sales report: %w", err)
	}

	sess, err := s.sessions.Update(id, func(sess *session.Session) error {
		sess.Sales = table
		sess.SalesUpload = upload
		sess.Page = domain.PageSales
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordUpload(ctx, string(domain.UploadSales), "success", s.now().Sub(start), table.Len())
	infrastructure.AddSpanEvent(ctx, "sales.normalized", attribute.Int("records", table.Len()))
	s.logger.InfoContext(ctx, "sales report loaded",
		slog.String("session_id", id),
		slog.String("filename", filename),
		slog.Int("records", table.Len()))

	return &SalesUploadResult{Session: sess, Table: table}, nil
}

// Sales returns the session's cleaned sales table and its upload.
func (s *DashboardService) Sales(ctx context.Context, id string) (*domain.SalesTable, *session.Upload, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Sales == nil {
		return nil, nil, session.ErrNoSalesTable
	}
	return sess.Sales, sess.SalesUpload, nil
}

// ExportSales writes the cleaned sales table as CSV.
func (s *DashboardService) ExportSales(ctx context.Context, id string, w io.Writer) error {
	ctx, span := s.tracer.Start(ctx, "dashboard.export_sales")
	defer span.End()

	table, _, err := s.Sales(ctx, id)
	if err != nil {
		return err
	}
	if err := exporter.WriteSalesCSV(w, table, s.cfg.SalesCSV); err != nil {
		infrastructure.RecordError(ctx, err)
		return fmt.Errorf("export sales: %w", err)
	}

	s.metrics.RecordExport(ctx, "sales_csv")
	s.logger.InfoContext(ctx, "sales exported",
		slog.String("session_id", id),
		slog.Int("records", table.Len()))
	return nil
}

// SalesChart returns the bar chart series of the session's sales table.
func (s *DashboardService) SalesChart(ctx context.Context, id string) (domain.SalesChart, error) {
	table, _, err := s.Sales(ctx, id)
	if err != nil {
		return domain.SalesChart{}, err
	}
	return exporter.SalesChart(table), nil
}

// readUpload checks the session exists, validates the file and decodes its
// first sheet.
func (s *DashboardService) readUpload(ctx context.Context, id string, kind domain.UploadKind, filename string, r io.Reader) (*session.Upload, *domain.RawSheet, error) {
	if _, err := s.sessions.Get(id); err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}

	format, err := s.validator.ValidateUpload(kind, filename, data)
	if err != nil {
		s.metrics.RecordUpload(ctx, string(kind), "rejected", 0, 0)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("session_id", id),
			slog.String("kind", string(kind)),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
		return nil, nil, err
	}

	sheet, err := dataprocessing.ReadSheet(bytes.NewReader(data), format)
	if err != nil {
		s.failUpload(ctx, id, kind, s.now(), err)
		return nil, nil, fmt.Errorf("read %s report: %w", kind, err)
	}

	upload := &session.Upload{
		Filename:   filename,
		Size:       int64(len(data)),
		UploadedAt: s.now(),
	}
	return upload, sheet, nil
}

// failUpload records a failed normalization and clears the session's table
// for that kind so no stale result is shown.
func (s *DashboardService) failUpload(ctx context.Context, id string, kind domain.UploadKind, start time.Time, err error) {
	infrastructure.RecordError(ctx, err)
	s.metrics.RecordUpload(ctx, string(kind), "failure", s.now().Sub(start), 0)

	kindName, column := dataprocessing.Classify(err)
	s.logger.WarnContext(ctx, "report normalization failed",
		slog.String("session_id", id),
		slog.String("kind", string(kind)),
		slog.String("failure", string(kindName)),
		slog.String("column", column),
		slog.String("message", dataprocessing.UserMessage(err)))

	_, clearErr := s.sessions.Update(id, func(sess *session.Session) error {
		switch kind {
		case domain.UploadStock:
			sess.Stock, sess.StockUpload = nil, nil
		case domain.UploadSales:
			sess.Sales, sess.SalesUpload = nil, nil
		}
		return nil
	})
	if clearErr != nil {
		s.logger.WarnContext(ctx, "could not clear session table",
			slog.String("session_id", id),
			slog.String("error", clearErr.Error()))
	}
}

func (s *DashboardService) stockTable(id string) (*domain.StockTable, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Stock == nil {
		return nil, session.ErrNoStockTable
	}
	return sess.Stock, nil
}
