package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	apierrors "stockdash/internal/errors"
	"stockdash/internal/exporter"
	"stockdash/internal/middleware"
	"stockdash/internal/session"
	"stockdash/internal/validation"
	api "stockdash/pkg/contracts/api/v1"
	"stockdash/pkg/contracts/domain"
)

// defaultMultipartMemory is how much of an upload is buffered in memory
// before spilling to a temp file.
const defaultMultipartMemory = 32 << 20

type sessionIDKey struct{}

// DashboardHandler serves the session, stock and sales endpoints.
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *validation.RequestValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxMemory    int64
}

// NewDashboardHandler creates a dashboard handler with RFC 7807 error handling
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &DashboardHandler{
		service:      service,
		validator:    validation.NewRequestValidator(),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		maxMemory:    defaultMultipartMemory,
	}
}

// Routes returns the session routes, mounted under /api/sessions
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateSession)

	r.Route("/{sessionID}", func(r chi.Router) {
		r.Use(h.SessionCtx)
		r.Get("/", h.GetSession)
		r.Delete("/", h.DeleteSession)
		r.With(middleware.ContentType("application/json")).Put("/page", h.SetPage)

		r.Route("/stock", func(r chi.Router) {
			r.With(middleware.ContentType("multipart/form-data")).Post("/", h.UploadStock)
			r.Get("/", h.GetStock)
			r.Get("/options", h.GetStockOptions)
			r.Get("/counts", h.GetStockCounts)
			r.Get("/export", h.ExportStock)
		})

		r.Route("/sales", func(r chi.Router) {
			r.With(middleware.ContentType("multipart/form-data")).Post("/", h.UploadSales)
			r.Get("/", h.GetSales)
			r.Get("/export", h.ExportSales)
			r.Get("/chart", h.GetSalesChart)
		})
	})

	return r
}

// SessionCtx rejects malformed session IDs and stores the ID in the context.
func (h *DashboardHandler) SessionCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionID")
		if _, err := uuid.Parse(id); err != nil {
			h.errorHandler.HandleError(w, r, session.ErrSessionNotFound)
			return
		}
		ctx := context.WithValue(r.Context(), sessionIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey{}).(string)
	return id
}

// CreateSession handles POST /api/sessions
func (h *DashboardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.CreateSession(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toSessionResponse(sess))
}

// GetSession handles GET /api/sessions/{sessionID}
func (h *DashboardHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.GetSession(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// SetPage handles PUT /api/sessions/{sessionID}/page
func (h *DashboardHandler) SetPage(w http.ResponseWriter, r *http.Request) {
	var req api.PageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	sess, err := h.service.SetPage(r.Context(), sessionID(r), domain.Page(req.Page))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, toSessionResponse(sess))
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (h *DashboardHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), sessionID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadStock handles POST /api/sessions/{sessionID}/stock
func (h *DashboardHandler) UploadStock(w http.ResponseWriter, r *http.Request) {
	file, filename, err := h.formFile(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "stock upload received",
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("session_id", sessionID(r)),
		slog.String("filename", filename))

	result, err := h.service.UploadStock(r.Context(), sessionID(r), filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.StockUploadResponse{
		Upload:  toUploadInfo(result.Session.StockUpload),
		Columns: result.Table.Columns,
		Rows:    result.Table.Len(),
		Options: result.Options,
	})
}

// GetStock handles GET /api/sessions/{sessionID}/stock
func (h *DashboardHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	query, err := h.stockQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.StockView(r.Context(), sessionID(r), query.Filter())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.StockViewResponse{
		Filter:    view.Filter,
		TotalRows: view.TotalRows,
		Rows:      view.Table.Len(),
		Table:     view.Table,
	})
}

// GetStockOptions handles GET /api/sessions/{sessionID}/stock/options
func (h *DashboardHandler) GetStockOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.service.StockOptions(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, options)
}

// GetStockCounts handles GET /api/sessions/{sessionID}/stock/counts
func (h *DashboardHandler) GetStockCounts(w http.ResponseWriter, r *http.Request) {
	query, err := h.stockQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	counts := api.CountsQuery{StockQuery: query, By: strings.TrimSpace(r.URL.Query().Get("by"))}
	if err := h.validator.Struct(counts); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	by := counts.By
	if by == "" {
		by = domain.ColumnQualityName
	}

	groups, summary, err := h.service.StockCounts(r.Context(), sessionID(r), query.Filter(), by)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.StockCountsResponse{By: by, Counts: groups, Summary: summary})
}

// ExportStock handles GET /api/sessions/{sessionID}/stock/export
func (h *DashboardHandler) ExportStock(w http.ResponseWriter, r *http.Request) {
	query, err := h.stockQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportStock(r.Context(), sessionID(r), query.Filter(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.download(w, r, exporter.StockExportFilename, exporter.XLSXContentType, &buf)
}

// UploadSales handles POST /api/sessions/{sessionID}/sales
func (h *DashboardHandler) UploadSales(w http.ResponseWriter, r *http.Request) {
	file, filename, err := h.formFile(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "sales upload received",
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("session_id", sessionID(r)),
		slog.String("filename", filename))

	result, err := h.service.UploadSales(r.Context(), sessionID(r), filename, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	upload := toUploadInfo(result.Session.SalesUpload)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.SalesResponse{Upload: &upload, Rows: result.Table.Len(), Table: result.Table})
}

// GetSales handles GET /api/sessions/{sessionID}/sales
func (h *DashboardHandler) GetSales(w http.ResponseWriter, r *http.Request) {
	table, upload, err := h.service.Sales(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	resp := api.SalesResponse{Rows: table.Len(), Table: table}
	if upload != nil {
		info := toUploadInfo(upload)
		resp.Upload = &info
	}
	render.JSON(w, r, resp)
}

// ExportSales handles GET /api/sessions/{sessionID}/sales/export
func (h *DashboardHandler) ExportSales(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.service.ExportSales(r.Context(), sessionID(r), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.download(w, r, exporter.SalesExportFilename, exporter.CSVContentType, &buf)
}

// GetSalesChart handles GET /api/sessions/{sessionID}/sales/chart
func (h *DashboardHandler) GetSalesChart(w http.ResponseWriter, r *http.Request) {
	chart, err := h.service.SalesChart(r.Context(), sessionID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, chart)
}

// formFile returns the multipart "file" field and its base name.
func (h *DashboardHandler) formFile(r *http.Request) (multipart.File, string, error) {
	if err := r.ParseMultipartForm(h.maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", err
		}
		return nil, "", apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", apierrors.ErrMissingFile
		}
		return nil, "", apierrors.InvalidRequestWithError(err)
	}
	return file, header.Filename, nil
}

// stockQuery reads and validates the filter selections from the query string.
func (h *DashboardHandler) stockQuery(r *http.Request) (api.StockQuery, error) {
	values := r.URL.Query()
	query := api.StockQuery{
		QualityNameAll: values.Get("quality_name_all"),
		QualityName:    values.Get("quality_name"),
		Grade:          values.Get("grade"),
	}
	if raw := strings.TrimSpace(values.Get("min_bal_pcs")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return api.StockQuery{}, validation.Field("min_bal_pcs", "min_bal_pcs must be a whole number")
		}
		query.MinBalPcs = n
	}
	if err := h.validator.Struct(query); err != nil {
		return api.StockQuery{}, err
	}
	return query, nil
}

func (h *DashboardHandler) download(w http.ResponseWriter, r *http.Request, filename, contentType string, body *bytes.Buffer) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", exporter.Attachment(filename))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := body.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "download interrupted",
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

func toSessionResponse(sess session.Session) api.SessionResponse {
	resp := api.SessionResponse{
		ID:        sess.ID,
		Page:      sess.Page,
		CreatedAt: sess.CreatedAt,
		LastSeen:  sess.LastSeen,
		StockRows: sess.Stock.Len(),
		SalesRows: sess.Sales.Len(),
	}
	if sess.StockUpload != nil {
		info := toUploadInfo(sess.StockUpload)
		resp.Stock = &info
	}
	if sess.SalesUpload != nil {
		info := toUploadInfo(sess.SalesUpload)
		resp.Sales = &info
	}
	return resp
}

func toUploadInfo(u *session.Upload) api.UploadInfo {
	if u == nil {
		return api.UploadInfo{}
	}
	return api.UploadInfo{Filename: u.Filename, Size: u.Size, UploadedAt: u.UploadedAt}
}
