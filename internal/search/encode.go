package search

import (
	"strings"

	"github.com/dukaforge/datascout/pkg/types"
)

// nullToken is how the client's batch mode renders SQL NULL. It is kept
// distinct from the empty string all the way into the CSV output. A stored
// string that is genuinely "NULL" is indistinguishable in batch output; that
// ambiguity is accepted.
const nullToken = "NULL"

// Fixed context columns prefixed to every CSV row.
const csvContextHeader = "database_name,table_name,column_name"

// UnescapeBatch decodes the escape sequences the client's batch mode
// introduces inside field values: \n, \t, \\ and \0 become LF, TAB,
// backslash and NUL. Unknown sequences and a lone trailing backslash pass
// through unchanged.
func UnescapeBatch(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// splitFields splits one batch-mode output line into its raw field values.
// Real tabs inside values arrive as \t escape tokens, so splitting on the
// tab byte is unambiguous.
func splitFields(line string) []string {
	return strings.Split(line, "\t")
}

// quoteCSV force-quotes one CSV field: carriage returns are stripped,
// internal quote characters are doubled, and the result is wrapped in
// quotes.
func quoteCSV(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvHeader renders the header line for one export file: the fixed context
// columns followed by the data column names of the first table written.
func csvHeader(headers []string) string {
	parts := make([]string, 0, len(headers)+1)
	parts = append(parts, csvContextHeader)
	for _, h := range headers {
		parts = append(parts, quoteCSV(h))
	}
	return strings.Join(parts, ",") + "\n"
}

// csvRow renders one matching row: quoted context columns, then each data
// field decoded from its transport escapes and quoted. The NULL token
// renders bare and unquoted so NULL never conflates with the empty string.
func csvRow(u types.Unit, fields []string) string {
	parts := make([]string, 0, len(fields)+3)
	parts = append(parts, quoteCSV(u.Database), quoteCSV(u.Table), quoteCSV(u.Column))
	for _, f := range fields {
		if f == nullToken {
			parts = append(parts, nullToken)
			continue
		}
		parts = append(parts, quoteCSV(UnescapeBatch(f)))
	}
	return strings.Join(parts, ",") + "\n"
}

// textHeader renders the three comment lines naming what a flat-text block
// group reports.
func textHeader(u types.Unit) string {
	var b strings.Builder
	b.WriteString("# Database: " + u.Database + "\n")
	b.WriteString("# Table: " + u.Table + "\n")
	b.WriteString("# Column: " + u.Column + "\n")
	return b.String()
}

// textBlock renders one matching row as a separator line followed by one
// header=value line per column. A row truncated by the transport (fewer
// fields than headers) renders the missing trailing values as empty; extra
// fields beyond the headers keep their position under an empty name.
func textBlock(headers, fields []string) string {
	n := len(headers)
	if len(fields) > n {
		n = len(fields)
	}
	var b strings.Builder
	b.WriteString("---\n")
	for i := 0; i < n; i++ {
		name, value := "", ""
		if i < len(headers) {
			name = headers[i]
		}
		if i < len(fields) {
			value = UnescapeBatch(fields[i])
		}
		b.WriteString(name + "=" + value + "\n")
	}
	return b.String()
}
