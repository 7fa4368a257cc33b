// Package errors renders failures as RFC 7807 problem details.
//
// ErrorHandler maps the report taxonomy of the dataprocessing package,
// session lookups, upload validation and request validation onto HTTP
// statuses with errors.As / errors.Is:
//
//	MissingColumnError        422 MISSING_COLUMN (column extension)
//	TypeCoercionError         422 TYPE_COERCION
//	ParseError                422 PARSE_ERROR
//	validation.Errors         400 VALIDATION_FAILED
//	session not found/expired 404
//	no table loaded           409
//	upload too large          413
//	unsupported upload        415
package errors
