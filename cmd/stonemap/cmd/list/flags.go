package list

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/catalog"
	"github.com/agentstation/stonemap/internal/cmd/output"
	"github.com/agentstation/stonemap/internal/cmd/table"
	"github.com/agentstation/stonemap/pkg/sites"
)

// FlagCount is the number of sites carrying one flag.
type FlagCount struct {
	Flag  string `json:"flag" yaml:"flag"`
	Sites int    `json:"sites" yaml:"sites"`
}

// NewFlagsCommand creates the list flags subcommand.
func NewFlagsCommand(app appcontext.Interface, catalogPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "List review flags and their site counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := catalog.Load(cmd.Context(), *catalogPath)
			if err != nil {
				return err
			}
			counts := CountFlags(c.Sites())

			format := output.Format(app.OutputFormat())
			if !format.IsTable() {
				return output.FormatAny(cmd.OutOrStdout(), counts, format)
			}
			rows := make([][]string, 0, len(counts))
			for _, fc := range counts {
				rows = append(rows, []string{fc.Flag, table.FormatNumber(fc.Sites)})
			}
			return output.FormatAny(cmd.OutOrStdout(), table.Data{
				Headers:         []string{"Flag", "Sites"},
				Rows:            rows,
				ColumnAlignment: []table.Align{table.AlignLeft, table.AlignRight},
			}, format)
		},
	}
}

// CountFlags counts sites per flag, most common first.
func CountFlags(list []*sites.CanonicalSite) []FlagCount {
	byFlag := make(map[string]int)
	for _, s := range list {
		for _, f := range s.Flags {
			byFlag[f]++
		}
	}
	counts := make([]FlagCount, 0, len(byFlag))
	for f, n := range byFlag {
		counts = append(counts, FlagCount{Flag: f, Sites: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Sites != counts[j].Sites {
			return counts[i].Sites > counts[j].Sites
		}
		return counts[i].Flag < counts[j].Flag
	})
	return counts
}
