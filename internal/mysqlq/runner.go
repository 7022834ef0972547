// Package mysqlq is the query-execution boundary for the database scan. It
// runs queries through the mysql client binary in batch mode and returns the
// decoded tabular text, classifying failures into transport errors (fatal to
// a run) and query errors (local to one scan unit).
package mysqlq

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/dukaforge/datascout/pkg/types"
)

// Runner executes one SQL statement and returns its tabular output:
// tab-separated fields, newline-separated rows. In batch mode the client
// escapes TAB, LF, backslash, and NUL inside field values and renders SQL
// NULL as the bare token NULL, so one output line is always one row.
//
// Zero rows is an empty string with a nil error; failures are never empty
// output.
type Runner interface {
	// Query executes sql and returns rows without a header line.
	Query(ctx context.Context, sql string) (string, error)

	// QueryHeader executes sql and returns rows preceded by one header line
	// of column names.
	QueryHeader(ctx context.Context, sql string) (string, error)
}

// DefaultTimeout bounds a single query execution. A query that exceeds it is
// reported as a transport error, which aborts the run.
const DefaultTimeout = 5 * time.Minute

// passwordEnv is the client's own credential mechanism; set in the child
// environment only, never in the datascout process environment.
const passwordEnv = "MYSQL_PWD"

// ClientRunner implements Runner by invoking the mysql client binary once
// per query. One ClientRunner is reused sequentially for every catalog
// lookup, count, and fetch of a run.
type ClientRunner struct {
	host     string
	port     int
	user     string
	binary   string
	timeout  time.Duration
	password []byte
}

// NewClientRunner builds a runner from connection parameters. The password
// slice is retained (not copied); the caller hands over ownership and must
// call Wipe when the run ends.
func NewClientRunner(cfg types.Config, password []byte) *ClientRunner {
	return &ClientRunner{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		binary:   "mysql",
		timeout:  DefaultTimeout,
		password: password,
	}
}

// Query implements Runner.
func (r *ClientRunner) Query(ctx context.Context, sql string) (string, error) {
	return r.run(ctx, sql, false)
}

// QueryHeader implements Runner.
func (r *ClientRunner) QueryHeader(ctx context.Context, sql string) (string, error) {
	return r.run(ctx, sql, true)
}

// Wipe zeroes the credential bytes. The runner is unusable afterwards.
func (r *ClientRunner) Wipe() {
	for i := range r.password {
		r.password[i] = 0
	}
	r.password = nil
}

func (r *ClientRunner) run(ctx context.Context, sql string, header bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, r.buildArgs(sql, header)...)
	cmd.Env = r.childEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w: query timed out after %s", types.ErrTransport, r.timeout)
	}
	if err != nil {
		return "", classify(stderr.String(), err)
	}

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}

// buildArgs assembles the client invocation. --batch turns on tab-separated
// output with field escaping; --skip-column-names drops the header line.
func (r *ClientRunner) buildArgs(sql string, header bool) []string {
	args := []string{"--batch"}
	if !header {
		args = append(args, "--skip-column-names")
	}
	if r.host != "" {
		args = append(args, "--host", r.host)
	}
	if r.port != 0 {
		args = append(args, "--port", strconv.Itoa(r.port))
	}
	if r.user != "" {
		args = append(args, "--user", r.user)
	}
	return append(args, "--execute", sql)
}

// childEnv returns the parent environment with the credential injected, and
// any inherited credential removed so a wiped runner cannot leak one.
func (r *ClientRunner) childEnv() []string {
	env := make([]string, 0, len(os.Environ())+1)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, passwordEnv+"=") {
			continue
		}
		env = append(env, kv)
	}
	if len(r.password) > 0 {
		env = append(env, passwordEnv+"="+string(r.password))
	}
	return env
}
