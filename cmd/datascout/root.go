// Root command and shared flag/config plumbing for the datascout CLI.
package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dukaforge/datascout/internal/paths"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagVerbose   bool
)

// cfgViper holds the loaded config.yaml. Set by PersistentPreRunE so all
// subcommands can read it.
var cfgViper *viper.Viper

var rootCmd = &cobra.Command{
	Use:     "datascout",
	Short:   "Datascout finds where a value lives",
	Version: version,
	// main prints errors itself so it can map them to exit codes.
	SilenceErrors: true,
	SilenceUsage:  true,
	Long: `Datascout is a data-discovery tool for operators. It scans either every
table and column of a MySQL server (db) or a directory of web-server access
logs (logs) for a caller-supplied value, exports the matches, and keeps a
run log plus a local history of past scans.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// version needs no configuration.
		if cmd.Name() == "version" {
			return nil
		}

		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return err
		}

		v, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		cfgViper = v
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for run logs, history, and default exports")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-column detail")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(historyCmd)
}

// resolveDataDir returns the data directory following the precedence:
// --data-dir flag > config.yaml data_dir > DATASCOUT_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, cfgViper.GetString(cfgKeyDataDir))
}

// stringOpt returns the flag value when the flag was set on the command
// line, otherwise the config.yaml value.
func stringOpt(cmd *cobra.Command, flag, key string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return cfgViper.GetString(key)
}

// intOpt is stringOpt for integer flags.
func intOpt(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return cfgViper.GetInt(key)
}
