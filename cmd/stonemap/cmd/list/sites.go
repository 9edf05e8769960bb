package list

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/catalog"
	"github.com/agentstation/stonemap/internal/cmd/cmdutil"
	"github.com/agentstation/stonemap/internal/cmd/output"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/sites"
)

// NewSitesCommand creates the list sites subcommand.
func NewSitesCommand(app appcontext.Interface, catalogPath *string) *cobra.Command {
	var flags *cmdutil.ResourceFlags

	cmd := &cobra.Command{
		Use:     "sites [canonical-id]",
		Short:   "List canonical sites",
		Aliases: []string{"site"},
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(cmd.Context(), *catalogPath)
			if err != nil {
				return err
			}
			format := output.Format(app.OutputFormat())

			if len(args) == 1 {
				site, ok := c.Get(args[0])
				if !ok {
					return errors.NewNotFoundError("site", args[0])
				}
				if format.IsTable() {
					format = output.FormatWide
				}
				return output.FormatSites(cmd.OutOrStdout(), []*sites.CanonicalSite{site}, format)
			}

			f, err := flags.SiteFilter()
			if err != nil {
				return err
			}
			list := f.Apply(c.Sites())
			if flags.Limit > 0 && len(list) > flags.Limit {
				list = list[:flags.Limit]
			}

			if format.IsTable() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Found %d sites\n", len(list))
			}
			return output.FormatSites(cmd.OutOrStdout(), list, format)
		},
	}

	flags = cmdutil.AddResourceFlags(cmd)
	return cmd
}
