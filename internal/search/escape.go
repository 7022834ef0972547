package search

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dukaforge/datascout/internal/mysqlq"
	"github.com/dukaforge/datascout/pkg/types"
)

// QuoteIdentifier renders an arbitrary database/table/column name as a
// backtick-quoted identifier safe to splice into a query: carriage returns
// and line feeds are stripped (identifiers are single-line), every backtick
// is doubled, and the result is wrapped in backticks.
func QuoteIdentifier(name string) string {
	name = strings.NewReplacer("\r", "", "\n", "").Replace(name)
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// EscapeLiteral obtains the server-verified SQL-literal rendering of the
// search term. The raw term bytes travel to the server base64-encoded, so no
// client-side literal escaping is attempted; the server decodes and re-emits
// the value as a correctly quoted literal via QUOTE(). The returned string
// is the literal with its outer quotes stripped, ready to be wrapped in
// single quotes and spliced into count and fetch queries.
//
// This runs once per run. Any failure wraps types.ErrEscape and is fatal
// before per-database work begins: proceeding would scan with a malformed or
// truncated term.
func EscapeLiteral(ctx context.Context, r mysqlq.Runner, term string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString([]byte(term))
	out, err := r.Query(ctx, fmt.Sprintf("SELECT QUOTE(FROM_BASE64('%s'))", encoded))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrEscape, err)
	}

	// QUOTE output is one row, one field; embedded control characters arrive
	// batch-escaped. Only the transport escaping is undone here, the
	// server's own literal escaping must survive.
	lit := UnescapeBatch(out)
	if len(lit) < 2 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return "", fmt.Errorf("%w: server returned %q instead of a quoted literal", types.ErrEscape, out)
	}
	return lit[1 : len(lit)-1], nil
}

// DecodeName decodes a catalog-returned base64 identifier back to its raw
// bytes. TO_BASE64 wraps its output every 76 characters, so embedded
// newlines (batch-escaped on the wire) are tolerated and removed before
// decoding. A name that decodes to something containing NUL, CR, or LF wraps
// types.ErrBadName; the caller skips that one unit, it never aborts the run.
func DecodeName(field string) (string, error) {
	cleaned := strings.NewReplacer("\n", "", "\r", "", " ", "").Replace(UnescapeBatch(field))
	raw, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrBadName, err)
	}
	for _, b := range raw {
		if b == 0 || b == '\n' || b == '\r' {
			return "", fmt.Errorf("%w: %q contains a forbidden byte", types.ErrBadName, raw)
		}
	}
	return string(raw), nil
}
