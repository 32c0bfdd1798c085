package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clientflow/clientflow/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the configuration file",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file in use",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), configFilePath())
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a dotted configuration key, keeping comments elsewhere in the file.

Examples:
  clientflow config set api.base_url http://localhost:4000
  clientflow config set lookup.cache.backend redis
  clientflow config set lookup.debounce 500ms`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		previous, readErr := os.ReadFile(path) //nolint:gosec // G304: the config path is ours
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return err
		}
		if err := validateFile(path); err != nil {
			if readErr == nil {
				_ = os.WriteFile(path, previous, 0o600)
			}
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
		return nil
	},
}

// validateFile rejects edits that leave the file unusable.
func validateFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, config.Defaults())
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading %s back: %w", path, err)
	}
	var updated config.Config
	if err := v.Unmarshal(&updated); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("rejected, %s would fail validation: %w", path, err)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// configFilePath is the file the current run reads, or the default user
// config when none was found.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return filepath.Join(config.DefaultDir(), "config.yaml")
}
