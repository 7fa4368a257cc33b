// Package services implements the business logic behind the HTTP handlers.
//
// DashboardService owns the upload pipeline: an uploaded file is validated,
// decoded into a raw sheet, normalized into a stock or sales table and
// stored in the caller's session. Views, filters, counts, exports and the
// sales chart are computed from the stored tables on request.
//
// Failures keep their type from the dataprocessing taxonomy
// (MissingColumnError, TypeCoercionError, ParseError) so the HTTP layer can
// map them with errors.As; a failed upload leaves the session without a
// table for that view.
//
// HealthService backs the health, readiness, liveness and version endpoints.
package services
