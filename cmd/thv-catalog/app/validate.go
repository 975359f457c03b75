package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/toolhive-catalog-server/internal/config"
	"github.com/stacklok/toolhive-catalog-server/internal/validators"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configured sources",
		Long: `Check the configuration file: source URLs and names, duplicates, the source
limit and the cache, sync and telemetry settings. Exits non-zero when a problem
is found.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadUnvalidatedConfig(config.WithConfigPath(path))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	srcs := cfg.CatalogSources()
	if errs := validators.ValidateSources(srcs); len(errs) > 0 {
		for _, verr := range errs {
			_, _ = fmt.Fprintf(out, "%s [%s]: %s\n", verr.Field, verr.Code, verr.Message)
		}
		return fmt.Errorf("found %d source validation error(s)", len(errs))
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	_, err = fmt.Fprintf(out, "Configuration is valid (%d sources)\n", len(srcs))
	return err
}
