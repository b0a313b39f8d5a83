// Package utils provides utility functions for the go-graphiti library.
//
// This package contains helper functions for various operations including:
//   - Date and time utilities (datetime.go)
//   - Data validation functions (validation.go)
//   - Bulk processing utilities (bulk_utils.go)
//   - DuckDB table writer (duckdb_writer.go)
//   - General helper functions (helpers.go)
//
// The utilities are designed to support the core graphiti operations while providing
// Go-idiomatic implementations of the Python graphiti_core.helpers and graphiti_core.utils modules.
package utils