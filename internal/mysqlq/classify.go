package mysqlq

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dukaforge/datascout/pkg/types"
)

// errorCodeRE matches the numeric code in the client's stderr, e.g.
// "ERROR 1054 (42S22) at line 1: Unknown column ...".
var errorCodeRE = regexp.MustCompile(`ERROR (\d+)`)

// accessDenied is the one server-side code treated as a transport failure:
// if the credentials are rejected, no query of the run can succeed.
const accessDenied = 1045

// classify maps a failed client invocation onto the error taxonomy. Client
// library codes (2xxx: unreachable host, lost connection, server gone away)
// and rejected credentials are transport errors; every other server error
// code is a query error local to the statement. Stderr without a
// recognizable code means the client itself failed to run, which is also a
// transport error.
func classify(stderr string, runErr error) error {
	line := firstLine(strings.TrimSpace(stderr))

	m := errorCodeRE.FindStringSubmatch(stderr)
	if m == nil {
		if line == "" {
			return fmt.Errorf("%w: %v", types.ErrTransport, runErr)
		}
		return fmt.Errorf("%w: %s", types.ErrTransport, line)
	}

	code, _ := strconv.Atoi(m[1])
	if (code >= 2000 && code < 3000) || code == accessDenied {
		return fmt.Errorf("%w: %s", types.ErrTransport, line)
	}
	return fmt.Errorf("%w: %s", types.ErrQuery, line)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
