package http

import (
	"context"
	"io"

	"stockdash/internal/services"
	"stockdash/internal/session"
	"stockdash/pkg/contracts/domain"
)

// DashboardServiceInterface defines the dashboard operations the handler needs
type DashboardServiceInterface interface {
	CreateSession(ctx context.Context) (session.Session, error)
	GetSession(ctx context.Context, id string) (session.Session, error)
	SetPage(ctx context.Context, id string, page domain.Page) (session.Session, error)
	DeleteSession(ctx context.Context, id string) error

	UploadStock(ctx context.Context, id, filename string, r io.Reader) (*services.StockUploadResult, error)
	StockView(ctx context.Context, id string, filter domain.StockFilter) (*services.StockView, error)
	StockOptions(ctx context.Context, id string) (domain.StockFilterOptions, error)
	StockCounts(ctx context.Context, id string, filter domain.StockFilter, by string) ([]domain.GroupCount, []domain.GroupSummary, error)
	ExportStock(ctx context.Context, id string, filter domain.StockFilter, w io.Writer) error

	UploadSales(ctx context.Context, id, filename string, r io.Reader) (*services.SalesUploadResult, error)
	Sales(ctx context.Context, id string) (*domain.SalesTable, *session.Upload, error)
	ExportSales(ctx context.Context, id string, w io.Writer) error
	SalesChart(ctx context.Context, id string) (domain.SalesChart, error)
}

var _ DashboardServiceInterface = (*services.DashboardService)(nil)
