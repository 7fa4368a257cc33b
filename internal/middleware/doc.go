// Package middleware holds the HTTP middleware chain of the dashboard API:
// request IDs, structured request logging, panic recovery, rate limiting,
// timeouts, body size limits, CORS, security headers and OpenTelemetry
// instrumentation. Error responses are RFC 7807 problem details.
package middleware
