// Config loading for the datascout CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/dukaforge/datascout/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyHost       = "host"
	cfgKeyPort       = "port"
	cfgKeyUser       = "user"
	cfgKeyFormat     = "format"
	cfgKeyOutputDir  = "output_dir"
	cfgKeyDataDir    = "data_dir"
	cfgKeyLogDir     = "log_dir"
	cfgKeyLogPattern = "log_pattern"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# datascout configuration

# MySQL connection (password is never stored here; use --ask-pass or the
# MYSQL_PWD environment variable)
host: localhost
port: 3306
user: root

# Default export format for database scans: csv or txt
format: csv

# Export directory (optional; default: <data dir>/exports)
# output_dir:

# Data directory for run logs and scan history (optional; overridable by
# --data-dir)
# data_dir:

# Log-scan defaults
log_dir: /var/log/apache2
log_pattern: access*log*
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run; a missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyHost, "localhost")
	v.SetDefault(cfgKeyPort, 3306)
	v.SetDefault(cfgKeyUser, "root")
	v.SetDefault(cfgKeyFormat, types.FormatCSV)
	v.SetDefault(cfgKeyLogDir, "/var/log/apache2")
	v.SetDefault(cfgKeyLogPattern, "access*log*")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
