// Package report filters and aggregates reservation slices for usage reports.
//
// Every function is pure: inputs are never modified and an empty input yields
// zero-filled output rather than an error.
package report
