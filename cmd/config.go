package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after defaults, the config file, the .env
file, DOCS_CHAT_* environment variables and flags have been applied.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where configuration and state are kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config:  %s\n", orDefault(configFile, paths.ConfigFile))
		fmt.Fprintf(out, "env:     %s\n", orDefault(envFile, paths.EnvFile))
		fmt.Fprintf(out, "state:   %s\n", cfg.StoragePath)
		fmt.Fprintf(out, "log:     %s\n", paths.LogFile)
		return nil
	},
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
