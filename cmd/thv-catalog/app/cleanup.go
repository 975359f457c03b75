package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove checkouts of sources that are no longer configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, release, err := newLocalService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = release()
			}()

			removed := svc.CleanupCache(cmd.Context())
			out := cmd.OutOrStdout()
			for _, dir := range removed {
				_, _ = fmt.Fprintf(out, "Removed %s\n", dir)
			}
			_, err = fmt.Fprintf(out, "Removed %d stale checkout(s)\n", len(removed))
			return err
		},
	}
}
