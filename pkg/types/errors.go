package types

import "errors"

// Configuration errors. These are reported before any scanning starts and
// map to the user-error exit code.
var (
	ErrMissingTerm = errors.New("search term must not be empty")
	ErrBadFormat   = errors.New("unknown output format")
)

// Scan errors. ErrTransport marks failures of the query-execution boundary
// itself (unreachable server, rejected credentials, lost connection, timed
// out query); these abort the run. ErrQuery marks SQL-level failures on a
// single unit (a type-incompatible comparison, for instance); these skip the
// unit and the run continues. ErrEscape marks a failure to produce the
// server-verified literal for the search term and is fatal at startup.
// ErrBadName marks a catalog-returned identifier that decoded to something
// unusable (embedded NUL or newline); the unit is skipped.
var (
	ErrTransport = errors.New("query transport failed")
	ErrQuery     = errors.New("query rejected")
	ErrEscape    = errors.New("cannot escape search term")
	ErrBadName   = errors.New("unusable identifier")
)
