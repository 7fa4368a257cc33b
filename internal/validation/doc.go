// Package validation guards the HTTP surface: FileValidator checks uploaded
// reports (size, extension allow-list, sniffed content type) and
// RequestValidator checks API request structs by their validate tags.
package validation
