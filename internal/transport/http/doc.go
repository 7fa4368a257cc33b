// Package http implements the HTTP handlers of the dashboard API. Handlers
// stay thin: they parse the request, call a service and render the result.
//
// # Routes
//
//	POST   /api/sessions                       create a session
//	GET    /api/sessions/{id}                  session state
//	PUT    /api/sessions/{id}/page             {"page": "stock"|"sales"}
//	DELETE /api/sessions/{id}                  drop a session
//	POST   /api/sessions/{id}/stock            multipart "file", stock report
//	GET    /api/sessions/{id}/stock            filtered stock table
//	GET    /api/sessions/{id}/stock/options    filter dropdown values
//	GET    /api/sessions/{id}/stock/counts     grouped counts, ?by=<column>
//	GET    /api/sessions/{id}/stock/export     filtered table as xlsx
//	POST   /api/sessions/{id}/sales            multipart "file", sales report
//	GET    /api/sessions/{id}/sales            cleaned sales table
//	GET    /api/sessions/{id}/sales/export     cleaned table as csv
//	GET    /api/sessions/{id}/sales/chart      bar chart series
//	GET    /api/health, /api/health/ready, /api/health/live, /api/version
//	GET    /metrics                            Prometheus exposition
//
// Stock views accept quality_name_all, quality_name, grade and min_bal_pcs
// query parameters. An empty value or "All" leaves that field unconstrained.
//
// # Errors
//
// Every error is rendered as an RFC 7807 problem by the shared
// errors.ErrorHandler, e.g. a report without a required column:
//
//	{
//	    "type": "/errors/report/missing-column",
//	    "title": "Missing Column",
//	    "status": 422,
//	    "detail": "Missing column: 'Bal.Pcs'",
//	    "error_code": "MISSING_COLUMN",
//	    "column": "Bal.Pcs"
//	}
package http
