package search

import (
	"context"
	"strings"
)

// fakeRunner is a scripted stand-in for the mysql client boundary. Rules are
// matched by substring against the SQL text in order; an unmatched query
// returns zero rows, which is what a quiet database would do.
type fakeRunner struct {
	rules   []fakeRule
	queries []string
}

type fakeRule struct {
	match string
	out   string
	err   error
}

func (f *fakeRunner) on(match, out string) *fakeRunner {
	f.rules = append(f.rules, fakeRule{match: match, out: out})
	return f
}

func (f *fakeRunner) fail(match string, err error) *fakeRunner {
	f.rules = append(f.rules, fakeRule{match: match, err: err})
	return f
}

func (f *fakeRunner) Query(_ context.Context, sql string) (string, error) {
	return f.exec(sql)
}

func (f *fakeRunner) QueryHeader(_ context.Context, sql string) (string, error) {
	return f.exec(sql)
}

func (f *fakeRunner) exec(sql string) (string, error) {
	f.queries = append(f.queries, sql)
	for _, r := range f.rules {
		if strings.Contains(sql, r.match) {
			return r.out, r.err
		}
	}
	return "", nil
}

// queriesContaining returns every recorded query containing sub.
func (f *fakeRunner) queriesContaining(sub string) []string {
	var out []string
	for _, q := range f.queries {
		if strings.Contains(q, sub) {
			out = append(out, q)
		}
	}
	return out
}
