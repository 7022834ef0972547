package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukaforge/datascout/pkg/types"
)

func TestUnescapeBatch(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no escapes", in: "plain", want: "plain"},
		{name: "newline token", in: `line1\nline2`, want: "line1\nline2"},
		{name: "tab token", in: `a\tb`, want: "a\tb"},
		{name: "backslash token", in: `c:\\dir`, want: `c:\dir`},
		{name: "nul token", in: `a\0b`, want: "a\x00b"},
		{name: "doubled backslash before n", in: `a\\nb`, want: `a\nb`},
		{name: "unknown sequence passes through", in: `a\qb`, want: `a\qb`},
		{name: "lone trailing backslash kept", in: `tail\`, want: `tail\`},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnescapeBatch(tt.in))
		})
	}
}

func TestQuoteCSV(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "abc", want: `"abc"`},
		{name: "empty", in: "", want: `""`},
		{name: "internal quote doubled", in: `say "hi"`, want: `"say ""hi"""`},
		{name: "carriage return stripped", in: "a\r\nb", want: "\"a\nb\""},
		{name: "comma kept inside quotes", in: "a,b", want: `"a,b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteCSV(tt.in))
		})
	}
}

func TestCSVRow(t *testing.T) {
	unit := types.Unit{Database: "shop", Table: "customers", Column: "note"}

	t.Run("null and empty stay distinct", func(t *testing.T) {
		got := csvRow(unit, []string{"NULL", ""})
		assert.Equal(t, "\"shop\",\"customers\",\"note\",NULL,\"\"\n", got)
	})

	t.Run("transport escapes are decoded before quoting", func(t *testing.T) {
		got := csvRow(unit, []string{`two\nlines`, `a\tb`})
		assert.Equal(t, "\"shop\",\"customers\",\"note\",\"two\nlines\",\"a\tb\"\n", got)
	})

	t.Run("quotes in data are doubled", func(t *testing.T) {
		got := csvRow(unit, []string{`he said "no"`})
		assert.Equal(t, "\"shop\",\"customers\",\"note\",\"he said \"\"no\"\"\"\n", got)
	})
}

func TestCSVHeader(t *testing.T) {
	got := csvHeader([]string{"id", "name"})
	assert.Equal(t, "database_name,table_name,column_name,\"id\",\"name\"\n", got)
}

func TestTextBlock(t *testing.T) {
	t.Run("one line per column", func(t *testing.T) {
		got := textBlock([]string{"id", "name"}, []string{"7", "Ada"})
		assert.Equal(t, "---\nid=7\nname=Ada\n", got)
	})

	t.Run("short row pads missing trailing fields", func(t *testing.T) {
		got := textBlock([]string{"id", "name", "email"}, []string{"7"})
		assert.Equal(t, "---\nid=7\nname=\nemail=\n", got)
	})

	t.Run("extra fields keep their position under an empty name", func(t *testing.T) {
		got := textBlock([]string{"id"}, []string{"7", "stray"})
		assert.Equal(t, "---\nid=7\n=stray\n", got)
	})

	t.Run("embedded newline is not truncated", func(t *testing.T) {
		got := textBlock([]string{"note"}, []string{`first\nsecond`})
		assert.Equal(t, "---\nnote=first\nsecond\n", got)
	})
}

func TestTextHeader(t *testing.T) {
	got := textHeader(types.Unit{Database: "shop", Table: "customers", Column: "note"})
	assert.Equal(t, "# Database: shop\n# Table: customers\n# Column: note\n", got)
}
