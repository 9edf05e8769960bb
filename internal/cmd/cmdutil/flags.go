// Package cmdutil provides shared flags for stonemap commands.
package cmdutil

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/cmd/filter"
	"github.com/agentstation/stonemap/internal/sources"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

// InputFlags holds flags for commands that read batches.
type InputFlags struct {
	Format     string
	LandPolicy string
}

// AddInputFlags adds batch input flags to a command.
func AddInputFlags(cmd *cobra.Command) *InputFlags {
	flags := &InputFlags{}

	cmd.Flags().StringVar(&flags.Format, "input-format", string(sources.FormatAuto),
		"Batch format: auto, native, overpass, sparql")
	cmd.Flags().StringVar(&flags.LandPolicy, "land-policy", "",
		"Records outside every land box: flag or reject (default from config)")

	return flags
}

// LoaderOptions converts the flags into loader options.
func (f *InputFlags) LoaderOptions() ([]sources.LoaderOption, error) {
	format, err := sources.ParseFormat(f.Format)
	if err != nil {
		return nil, err
	}
	return []sources.LoaderOption{sources.WithFormat(format)}, nil
}

// Policy returns the land policy flag value, empty when unset.
func (f *InputFlags) Policy() validity.LandPolicy {
	return validity.LandPolicy(f.LandPolicy)
}

// ResourceFlags holds flags for commands that list catalog sites.
type ResourceFlags struct {
	Type     string
	Country  string
	Kind     string
	Flag     string
	MinScore int
	Search   string
	Limit    int
}

// AddResourceFlags adds site listing flags to a command.
func AddResourceFlags(cmd *cobra.Command) *ResourceFlags {
	flags := &ResourceFlags{}

	cmd.Flags().StringVar(&flags.Type, "type", "", "Filter by site type")
	cmd.Flags().StringVar(&flags.Country, "country", "", "Filter by country")
	cmd.Flags().StringVar(&flags.Kind, "kind", "", "Filter by contributing source kind")
	cmd.Flags().StringVar(&flags.Flag, "flag", "", "Only sites carrying this flag")
	cmd.Flags().IntVar(&flags.MinScore, "min-score", 0, "Minimum quality score")
	cmd.Flags().StringVarP(&flags.Search, "search", "s", "", "Search names and ids")
	cmd.Flags().IntVarP(&flags.Limit, "limit", "l", 0, "Maximum number of results (0 = all)")

	return flags
}

// SiteFilter converts the flags into a site filter.
func (f *ResourceFlags) SiteFilter() (*filter.SiteFilter, error) {
	var kind sites.SourceKind
	if f.Kind != "" {
		k, err := sites.ParseSourceKind(f.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return &filter.SiteFilter{
		Type:     f.Type,
		Country:  f.Country,
		Kind:     kind,
		Flag:     f.Flag,
		MinScore: f.MinScore,
		Search:   f.Search,
	}, nil
}
