// Package list provides commands for listing catalog contents.
package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
)

// DefaultCatalog is read when --catalog is not given.
const DefaultCatalog = "catalog.json"

// NewCommand creates the list command with app dependencies.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:     "list [resource]",
		GroupID: "core",
		Short:   "List resources from a merged catalog",
		Long: `List displays resources from a catalog written by merge.

Available subcommands:
  sites   - canonical sites and their sources
  flags   - review flags and how many sites carry them`,
		Example: `  stonemap list sites                              # List all sites
  stonemap list sites stonehenge                   # Show one site
  stonemap list sites --type dolmen --country France
  stonemap list flags --catalog catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return fmt.Errorf("unknown resource: %s", args[0])
		},
	}

	cmd.PersistentFlags().StringVar(&catalogPath, "catalog", DefaultCatalog,
		"Catalog file to read (json, yaml or .db)")

	cmd.AddCommand(NewSitesCommand(app, &catalogPath))
	cmd.AddCommand(NewFlagsCommand(app, &catalogPath))

	return cmd
}
