package types

import "fmt"

// Unit identifies one scan unit: a single column of a single table in a
// single database. Units are produced by the enumerator and consumed exactly
// once by the scanner.
type Unit struct {
	Database string `json:"database" db:"database_name"`
	Table    string `json:"table" db:"table_name"`
	Column   string `json:"column" db:"column_name"`
}

// String renders the unit as database.table.column for logs and errors.
func (u Unit) String() string {
	return fmt.Sprintf("%s.%s.%s", u.Database, u.Table, u.Column)
}

// Hit records a unit that matched the search term, the number of matching
// rows, and the export file the rows were appended to.
type Hit struct {
	Unit       Unit
	Matches    int64
	ExportPath string
}
