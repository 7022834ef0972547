// Package types defines the scan configuration, scan unit types, and
// standard errors shared across the datascout packages.
package types
