// Package catalog maps logical query identifiers to backend SQL text.
//
// The catalog is read once at startup from a properties resource:
// either a file named in configuration or the SQLite defaults compiled into
// the binary. Every identifier returned by Queries must be present; a
// missing key fails Load, and callers treat that as fatal.
//
// A loaded Catalog is immutable and safe for concurrent use.
package catalog
