// Package validate provides the validate command.
package validate

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/cmdutil"
	"github.com/agentstation/stonemap/internal/cmd/emoji"
	"github.com/agentstation/stonemap/internal/cmd/output"
	"github.com/agentstation/stonemap/internal/cmd/table"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/normalize"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

// Flags holds the validate command flags.
type Flags struct {
	Input        *cmdutil.InputFlags
	All          bool
	FailOnReject bool
}

// Result is the validity verdict of one record.
type Result struct {
	Batch   string           `json:"batch" yaml:"batch"`
	Record  sites.SourceRef  `json:"record" yaml:"record"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Verdict validity.Verdict `json:"verdict" yaml:"verdict"`
}

// NewCommand creates the validate command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "validate <batch...>",
		GroupID: "management",
		Short:   "Check batches against the validity filter",
		Long: `Validate loads batches and runs every record through normalization and
the validity filter without merging anything. Rejected and flagged records
are listed with the rule that fired; use --all to list accepted records too.`,
		Example: `  stonemap validate osm.json
  stonemap validate --all --land-policy reject wikidata.json
  stonemap validate -o json osm.json | jq '.[] | select(.verdict.accepted | not)'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, app, flags, args)
		},
	}

	flags.Input = cmdutil.AddInputFlags(cmd)
	cmd.Flags().BoolVar(&flags.All, "all", false, "list accepted records too")
	cmd.Flags().BoolVar(&flags.FailOnReject, "fail-on-reject", false, "exit with an error when any record is rejected")

	return cmd
}

func run(cmd *cobra.Command, app appcontext.Interface, flags *Flags, args []string) error {
	ctx := cmd.Context()

	loaderOpts, err := flags.Input.LoaderOptions()
	if err != nil {
		return err
	}
	batches, malformed, err := app.Loader(loaderOpts...).LoadAll(ctx, args)
	if err != nil {
		return err
	}

	settings := *app.Settings()
	if p := flags.Input.Policy(); p != "" {
		settings.Validity.LandPolicy = string(p)
	}
	filter, err := settings.Filter()
	if err != nil {
		return err
	}

	results := Check(filter, batches)
	rejected := 0
	for _, r := range results {
		if !r.Verdict.Accepted {
			rejected++
		}
	}

	if err := printResults(cmd.OutOrStdout(), app, results, flags.All); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	for _, e := range malformed {
		_, _ = fmt.Fprintf(stderr, "%s %v\n", emoji.Error, e)
	}
	_, _ = fmt.Fprintf(stderr, "%s %s records checked, %s rejected, %d malformed batches\n",
		emoji.Info, table.FormatNumber(len(results)), table.FormatNumber(rejected), len(malformed))

	if flags.FailOnReject && (rejected > 0 || len(malformed) > 0) {
		return errors.NewValidationError("batches", args,
			fmt.Sprintf("%d records rejected, %d batches malformed", rejected, len(malformed)))
	}
	return nil
}

// Check normalizes and filters every record of every batch, in order.
// Batches that fail validation are skipped.
func Check(filter *validity.Filter, batches []sites.Batch) []Result {
	var results []Result
	for _, b := range batches {
		if err := b.Validate(); err != nil {
			continue
		}
		for _, rec := range b.Sites {
			results = append(results, Result{
				Batch:   b.Name,
				Record:  rec.Ref(),
				Name:    rec.RawName,
				Verdict: filter.Check(normalize.Record(rec)),
			})
		}
	}
	return results
}

func printResults(w io.Writer, app appcontext.Interface, results []Result, all bool) error {
	format := output.Format(app.OutputFormat())
	if !format.IsTable() {
		if !all {
			kept := results[:0:0]
			for _, r := range results {
				if !r.Verdict.Accepted || len(r.Verdict.Flags) > 0 {
					kept = append(kept, r)
				}
			}
			results = kept
		}
		return output.FormatAny(w, results, format)
	}

	recs := make([]sites.SourceRecord, len(results))
	verdicts := make([]validity.Verdict, len(results))
	for i, r := range results {
		recs[i] = sites.SourceRecord{SourceKind: r.Record.Kind, SourceID: r.Record.ID, RawName: r.Name}
		verdicts[i] = r.Verdict
	}
	return output.FormatAny(w, table.VerdictsToTableData(recs, verdicts, all), format)
}
