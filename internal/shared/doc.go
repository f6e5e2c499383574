// Package shared holds cross-cutting utilities that do not belong to any
// specific layer of the profit dashboard.
//
// The testutil subpackage provides a buffered slog handler and log
// assertions used by tests across the internal packages.
package shared
