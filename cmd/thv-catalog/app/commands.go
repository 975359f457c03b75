// Package app provides the entry point for the ToolHive Catalog application.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/versions"
)

// NewRootCmd creates a new root command for the catalog server. Passing
// --debug lowers level to debug.
func NewRootCmd(level *slog.LevelVar) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "thv-catalog",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "ToolHive Catalog server",
		Long: `ToolHive Catalog aggregates the items published in a configured list of git
repositories into one searchable catalog and serves it over a REST API.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if viper.GetBool("debug") && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			// If no subcommand is provided, print help
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")
	for _, name := range []string{"debug", "config"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newCleanupCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// configPath returns the --config value (or THV_CATALOG_CONFIG)
func configPath() (string, error) {
	path := viper.GetString("config")
	if path == "" {
		return "", fmt.Errorf("a configuration file is required (--config)")
	}
	return path, nil
}

// loadConfigManager loads and validates the configuration file
func loadConfigManager() (config.Manager, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	manager, err := config.NewManager(path)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded configuration", "path", path, "sources", len(manager.GetConfig().Sources))
	return manager, nil
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("error retrieving format flag: %w", err)
			}

			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "thv-catalog %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}
