package http

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockdash/internal/dataprocessing"
	apierrors "stockdash/internal/errors"
	"stockdash/internal/exporter"
	"stockdash/internal/middleware"
	"stockdash/internal/services"
	"stockdash/internal/session"
	"stockdash/internal/shared/testutil"
	"stockdash/internal/validation"
	api "stockdash/pkg/contracts/api/v1"
)

type testServer struct {
	router chi.Router
}

func newTestServer(t *testing.T, maxBody int64) *testServer {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	store := session.NewStore(session.Config{TTL: time.Hour, MaxSessions: 8}, logger)
	validator := validation.NewFileValidator(1<<20, []string{".xlsx", ".xls"}, []string{".xlsx", ".xls", ".csv"}, logger)
	svc := services.NewDashboardService(services.DashboardConfig{
		Stock:       dataprocessing.DefaultStockConfig(),
		SalesLayout: dataprocessing.SalesLayout(),
	}, store, validator, nil, nil, logger)

	errHandler := apierrors.NewErrorHandler(logger, false)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.MaxBodySize(maxBody))
	r.NotFound(errHandler.NotFound)
	r.Mount("/api/sessions", NewDashboardHandler(svc, logger, errHandler).Routes())
	return &testServer{router: r}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func (s *testServer) upload(t *testing.T, path, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := uploadRequest(t, path, "file", filename, data)
	return s.do(t, req)
}

func uploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// zipWithoutWorkbook is a valid zip container with no spreadsheet inside.
func zipWithoutWorkbook(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("notes/readme.txt")
	require.NoError(t, err)
	_, err = f.Write([]byte("not a workbook"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func problemCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	decodeBody(t, rec, &body)
	code, _ := body["error_code"].(string)
	return code
}

func TestDashboardHandler_SessionLifecycle(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	id := srv.createSession(t)
	base := "/api/sessions/" + id

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sess api.SessionResponse
	decodeBody(t, rec, &sess)
	assert.Equal(t, "stock", string(sess.Page))
	assert.Nil(t, sess.Stock)

	req := httptest.NewRequest(http.MethodPut, base+"/page", strings.NewReader(`{"page":"sales"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = srv.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decodeBody(t, rec, &sess)
	assert.Equal(t, "sales", string(sess.Page))

	rec = srv.do(t, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", problemCode(t, rec))
}

func TestDashboardHandler_SetPageValidation(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	base := "/api/sessions/" + srv.createSession(t)

	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
	}{
		{"unknown page", `{"page":"charts"}`, "application/json", http.StatusBadRequest},
		{"missing page", `{}`, "application/json", http.StatusBadRequest},
		{"malformed json", `{"page":`, "application/json", http.StatusBadRequest},
		{"wrong content type", `page=sales`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, base+"/page", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := srv.do(t, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestDashboardHandler_MalformedSessionID(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	rec := srv.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid/stock", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", problemCode(t, rec))
}

func TestDashboardHandler_StockFlow(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	base := "/api/sessions/" + srv.createSession(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_STOCK_TABLE", problemCode(t, rec))

	rec = srv.upload(t, base+"/stock", "stock.xlsx", testutil.StockWorkbook(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var uploaded api.StockUploadResponse
	decodeBody(t, rec, &uploaded)
	assert.Equal(t, 4, uploaded.Rows)
	assert.Equal(t, "stock.xlsx", uploaded.Upload.Filename)
	assert.Contains(t, uploaded.Columns, "Quality Name All")

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock?quality_name_all=GREY+GOODS&min_bal_pcs=6", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view api.StockViewResponse
	decodeBody(t, rec, &view)
	assert.Equal(t, 4, view.TotalRows)
	assert.Equal(t, 1, view.Rows)
	assert.Equal(t, "B1", view.Table.Records[0].BaleNo)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock?grade=All", nil))
	decodeBody(t, rec, &view)
	assert.Equal(t, 4, view.Rows)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock/options", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var options map[string][]string
	decodeBody(t, rec, &options)
	assert.Equal(t, []string{"All", "A", "B", "C"}, options["grade"])

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock/counts?by=Quality+Name+All", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var counts api.StockCountsResponse
	decodeBody(t, rec, &counts)
	assert.Equal(t, "Quality Name All", counts.By)
	require.Len(t, counts.Counts, 2)
	assert.Equal(t, 2, counts.Counts[0].Count)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock/counts", nil))
	decodeBody(t, rec, &counts)
	assert.Equal(t, "Quality Name", counts.By)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock/export?grade=A", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exporter.XLSXContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), exporter.StockExportFilename)
	table, err := exporter.ReadStockXLSX(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestDashboardHandler_StockQueryValidation(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	base := "/api/sessions/" + srv.createSession(t)
	require.Equal(t, http.StatusCreated, srv.upload(t, base+"/stock", "stock.xlsx", testutil.StockWorkbook(t)).Code)

	for _, query := range []string{"min_bal_pcs=lots", "min_bal_pcs=-1"} {
		t.Run(query, func(t *testing.T) {
			rec := srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock?"+query, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_FAILED", problemCode(t, rec))
		})
	}

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, base+"/stock/counts?by=Colour", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "MISSING_COLUMN", problemCode(t, rec))
}

func TestDashboardHandler_UploadErrors(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	base := "/api/sessions/" + srv.createSession(t)

	header := testutil.StockRow("Bale No.", "Quality Name", "Pieces", "Grade")
	missingColumn := testutil.XLSX(t, testutil.StockReportRows(header, testutil.StockRow("B1", "X", "1", "A")))
	badPieces := testutil.XLSX(t, testutil.StockReportRows(testutil.StockHeader(), testutil.StockRow("B1", "X", "ten", "A")))

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{"missing column", uploadRequest(t, base+"/stock", "file", "stock.xlsx", missingColumn), http.StatusUnprocessableEntity, "MISSING_COLUMN"},
		{"bad number", uploadRequest(t, base+"/stock", "file", "stock.xlsx", badPieces), http.StatusUnprocessableEntity, "TYPE_COERCION"},
		{"wrong extension", uploadRequest(t, base+"/stock", "file", "stock.txt", []byte("a,b")), http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE"},
		{"no file field", uploadRequest(t, base+"/stock", "upload", "stock.xlsx", []byte("x")), http.StatusBadRequest, "MISSING_FILE"},
		{"corrupt workbook", uploadRequest(t, base+"/sales", "file", "sales.xlsx", zipWithoutWorkbook(t)), http.StatusUnprocessableEntity, "PARSE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, problemCode(t, rec))
		})
	}
}

func TestDashboardHandler_UploadTooLarge(t *testing.T) {
	srv := newTestServer(t, 512)
	base := "/api/sessions/" + srv.createSession(t)

	rec := srv.upload(t, base+"/stock", "stock.xlsx", testutil.StockWorkbook(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", problemCode(t, rec))
}

func TestDashboardHandler_SalesFlow(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	base := "/api/sessions/" + srv.createSession(t)

	rec := srv.do(t, httptest.NewRequest(http.MethodGet, base+"/sales/chart", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NO_SALES_TABLE", problemCode(t, rec))

	rec = srv.upload(t, base+"/sales", "sales.csv", testutil.SalesCSV(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var sales api.SalesResponse
	decodeBody(t, rec, &sales)
	assert.Equal(t, 2, sales.Rows)
	require.NotNil(t, sales.Upload)
	assert.Equal(t, "sales.csv", sales.Upload.Filename)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/sales", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &sales)
	assert.Equal(t, "Total of B", sales.Table.Records[1].Date)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/sales/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var chart map[string]interface{}
	decodeBody(t, rec, &chart)
	assert.Equal(t, "Rate", chart["x_column"])
	assert.Len(t, chart["points"], 2)

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base+"/sales/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exporter.CSVContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), exporter.SalesExportFilename)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Date,Rate,Order Qty,Dsp Qty,Bal Qty\n"))

	rec = srv.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	var sess api.SessionResponse
	decodeBody(t, rec, &sess)
	assert.Equal(t, "sales", string(sess.Page))
	assert.Equal(t, 2, sess.SalesRows)
}
