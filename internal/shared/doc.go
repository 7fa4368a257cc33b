// Package shared holds helpers used by tests across packages.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler, a capturing slog handler with log assertions
//   - report fixtures that build raw stock and sales exports in the
//     positions the built-in layouts expect, as xlsx or csv bytes
//
// Nothing here is imported by production code.
package shared
