package types

// Output formats for the database scan.
const (
	FormatCSV = "csv"
	FormatTXT = "txt"
)

// knownFormats lists the formats that Validate accepts.
var knownFormats = map[string]bool{
	FormatCSV: true,
	FormatTXT: true,
}

// Config holds connection parameters and scan options for one run. It is
// assembled by the CLI from flags and config.yaml and is immutable once the
// scan starts. The credential is deliberately not part of Config; it is
// acquired separately and scoped to the query runner.
type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Database string `json:"database" yaml:"database"` // empty means all non-system databases
	Format   string `json:"format" yaml:"format"`

	// OutputDir receives the export files; DataDir holds the run logs and
	// the scan-history database.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
}

// Validate checks that the Config is well-formed for a database scan. It
// returns a sentinel error from this package on failure.
func (c Config) Validate() error {
	if !knownFormats[c.Format] {
		return ErrBadFormat
	}
	return nil
}
