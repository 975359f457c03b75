package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	catalogapp "github.com/stacklok/toolhive-catalog-server/internal/app"
	"github.com/stacklok/toolhive-catalog-server/internal/catalog"
	"github.com/stacklok/toolhive-catalog-server/internal/service"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog",
		Long: `Fetch the configured sources and list the items matching the query.

The query matches item names, descriptions and tags without regard to case.
Packages are listed when one of their sub-items matches.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().String("type", "", "Only list items of this type (e.g. mcp-server, mode, prompt)")
	cmd.Flags().StringSlice("tag", nil, "Only list items carrying one of these tags")
	cmd.Flags().String("sort", "name", "Sort key: name, author or lastUpdated")
	cmd.Flags().String("order", "asc", "Sort order: asc or desc")
	cmd.Flags().Bool("sort-subcomponents", false, "Also sort the sub-items of packages")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts, err := searchOptions(cmd, args)
	if err != nil {
		return err
	}

	svc, release, err := newLocalService(cmd.Context())
	if err != nil {
		return err
	}
	defer func() {
		_ = release()
	}()

	result, err := svc.ListItems(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	for _, msg := range result.Errors {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	return renderItems(cmd.OutOrStdout(), result.Items)
}

// searchOptions maps the command line onto ListItems options
func searchOptions(cmd *cobra.Command, args []string) ([]service.Option, error) {
	flags := cmd.Flags()
	itemType, err := flags.GetString("type")
	if err != nil {
		return nil, err
	}
	tags, err := flags.GetStringSlice("tag")
	if err != nil {
		return nil, err
	}
	sortBy, err := flags.GetString("sort")
	if err != nil {
		return nil, err
	}
	order, err := flags.GetString("order")
	if err != nil {
		return nil, err
	}
	sortSub, err := flags.GetBool("sort-subcomponents")
	if err != nil {
		return nil, err
	}

	opts := []service.Option{
		service.WithType(itemType),
		service.WithTags(tags...),
		service.WithSortBy(sortBy),
		service.WithSortOrder(order),
		service.WithSortSubcomponents(sortSub),
	}
	if len(args) > 0 {
		opts = append(opts, service.WithSearch(args[0]))
	}
	return opts, nil
}

// newLocalService loads the configuration and builds a catalog service over
// the data directory
func newLocalService(ctx context.Context) (service.CatalogService, func() error, error) {
	manager, err := loadConfigManager()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return catalogapp.NewLocalService(ctx, catalogapp.WithConfigManager(manager))
}

// renderItems prints items as a table, listing the sub-items of packages
// below their package
func renderItems(w io.Writer, items []catalog.Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No items found")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Name", "Type", "Author", "Source", "Tags")

	for _, item := range items {
		if err := table.Append([]string{
			item.Name,
			string(item.Type),
			item.Author,
			item.SourceName,
			strings.Join(item.Tags, ", "),
		}); err != nil {
			return err
		}
		for i, sub := range item.Items {
			if sub.MatchInfo != nil && !sub.MatchInfo.Matched {
				continue
			}
			name := sub.Path
			var author string
			var tags []string
			if sub.Metadata != nil {
				name = sub.Metadata.Name
				author = sub.Metadata.Author
				tags = sub.Metadata.Tags
			}
			if err := table.Append([]string{
				"  " + strconv.Itoa(i+1) + ". " + name,
				string(sub.Type),
				author,
				"",
				strings.Join(tags, ", "),
			}); err != nil {
				return err
			}
		}
	}

	return table.Render()
}
