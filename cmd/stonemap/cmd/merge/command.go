// Package merge provides the merge command.
package merge

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/stonemap/internal/appcontext"
	"github.com/agentstation/stonemap/internal/cmd/catalog"
	"github.com/agentstation/stonemap/internal/cmd/cmdutil"
	"github.com/agentstation/stonemap/internal/cmd/output"
	"github.com/agentstation/stonemap/internal/cmd/table"
	"github.com/agentstation/stonemap/internal/store"
	"github.com/agentstation/stonemap/pkg/differ"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/logging"
	"github.com/agentstation/stonemap/pkg/provenance"
	"github.com/agentstation/stonemap/pkg/reconciler"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Flags holds the merge command flags.
type Flags struct {
	Input           *cmdutil.InputFlags
	Baseline        string
	CatalogAsBatch  string
	Out             string
	Report          string
	SQLite          string
	MetricsTextfile string
	Provenance      bool
	Enrich          bool
	NoSummary       bool
}

// NewCommand creates the merge command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "merge [batch...]",
		GroupID: "core",
		Short:   "Merge batches into a canonical catalog",
		Long: `Merge reads batches from files or URLs and merges them, in order, into
one deduplicated catalog.

Batches may be native {"sites": [...]} documents (JSON or YAML), OSM Overpass
results or Wikidata SPARQL results; the format is detected unless
--input-format is given. Malformed batches are reported and skipped.

The catalog is written to --out (or stdout). Pass the previous catalog with
--baseline to extend it; re-running the same batches leaves it unchanged.`,
		Example: `  stonemap merge osm.json wikidata.json --out catalog.json
  stonemap merge --baseline catalog.json new.json --out catalog.json --report report.json
  stonemap merge --catalog-as-batch old.json --out catalog.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.CatalogAsBatch == "" {
				return errors.NewValidationError("batches", args, "at least one batch or --catalog-as-batch is required")
			}
			return run(cmd.Context(), app, flags, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags.Input = cmdutil.AddInputFlags(cmd)
	cmd.Flags().StringVar(&flags.Baseline, "baseline", "", "previous catalog to extend (json, yaml or .db)")
	cmd.Flags().StringVar(&flags.CatalogAsBatch, "catalog-as-batch", "", "restore a previous catalog, keeping its ids and sources, before the other batches")
	cmd.Flags().StringVar(&flags.Out, "out", "", "write the catalog to this file (json, yaml or .db); stdout if empty")
	cmd.Flags().StringVar(&flags.Report, "report", "", "write the run report (json or yaml) to this file")
	cmd.Flags().StringVar(&flags.SQLite, "sqlite", "", "also export the catalog to this SQLite file")
	cmd.Flags().StringVar(&flags.MetricsTextfile, "metrics-textfile", "", "write pipeline metrics in Prometheus textfile format")
	cmd.Flags().BoolVar(&flags.Provenance, "provenance", false, "record field provenance in the report")
	cmd.Flags().BoolVar(&flags.Enrich, "enrich", false, "enrich records from Wikimedia (overrides config)")
	cmd.Flags().BoolVar(&flags.NoSummary, "no-summary", false, "do not print the summary table on stderr")

	return cmd
}

func run(ctx context.Context, app appcontext.Interface, flags *Flags, args []string, stdout, stderr io.Writer) error {
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)

	loaderOpts, err := flags.Input.LoaderOptions()
	if err != nil {
		return err
	}
	batches, malformed, err := app.Loader(loaderOpts...).LoadAll(ctx, args)
	if err != nil {
		return err
	}

	opts, err := reconcilerOptions(ctx, app, flags)
	if err != nil {
		return err
	}

	if flags.CatalogAsBatch != "" {
		previous, err := catalog.Load(ctx, flags.CatalogAsBatch)
		if err != nil {
			return err
		}
		pseudo := sites.CatalogAsBatch(previous, flags.CatalogAsBatch)
		batches = append([]sites.Batch{pseudo}, batches...)
	}

	r, err := app.Reconciler(opts...)
	if err != nil {
		return err
	}
	result, err := r.Run(ctx, batches)
	if err != nil {
		return err
	}
	for _, e := range malformed {
		result.Report.AddBatchError(e)
	}

	if err := writeOutputs(ctx, app, flags, result, stdout); err != nil {
		return err
	}

	if !flags.NoSummary {
		if err := printSummary(stderr, result); err != nil {
			return err
		}
	}

	logger.Info().
		Str("run_id", result.Metadata.RunID).
		Int("sites", result.Catalog.Len()).
		Dur("duration", result.Metadata.Duration).
		Msg(result.Summary())
	return nil
}

func reconcilerOptions(ctx context.Context, app appcontext.Interface, flags *Flags) ([]reconciler.Option, error) {
	var opts []reconciler.Option
	if flags.Baseline != "" {
		baseline, err := catalog.Load(ctx, flags.Baseline)
		if err != nil {
			return nil, err
		}
		opts = append(opts, reconciler.WithBaseline(baseline))
	}
	if p := flags.Input.Policy(); p != "" {
		opts = append(opts, reconciler.WithLandPolicy(p))
	}
	if flags.Provenance {
		opts = append(opts, reconciler.WithProvenance(true))
	}
	if flags.Enrich {
		settings := *app.Settings()
		settings.Enrichment.Enabled = true
		opts = append(opts, reconciler.WithEnhancers(settings.Enhancers()...))
	}
	return opts, nil
}

// report is the document written by --report.
type report struct {
	*reconciler.Report `yaml:",inline"`
	Changeset          *differ.Changeset         `json:"changeset" yaml:"changeset"`
	Metadata           reconciler.ResultMetadata `json:"metadata" yaml:"metadata"`
	Provenance         *provenance.Report        `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

func writeOutputs(ctx context.Context, app appcontext.Interface, flags *Flags, result *reconciler.Result, stdout io.Writer) error {
	if flags.Out != "" {
		if err := catalog.Save(ctx, flags.Out, result.Catalog); err != nil {
			return err
		}
	} else {
		format := sites.FormatJSON
		if output.Format(app.OutputFormat()) == output.FormatYAML {
			format = sites.FormatYAML
		}
		data, err := sites.Encode(result.Catalog, format)
		if err != nil {
			return err
		}
		if _, err := stdout.Write(data); err != nil {
			return err
		}
	}

	if flags.SQLite != "" {
		if err := store.Export(ctx, flags.SQLite, result.Catalog); err != nil {
			return err
		}
	}

	if flags.Report != "" {
		doc := report{Report: result.Report, Changeset: result.Changeset, Metadata: result.Metadata}
		if flags.Provenance {
			doc.Provenance = result.ProvenanceReport()
		}
		format := output.FormatJSON
		if sites.FormatFromPath(flags.Report) == sites.FormatYAML {
			format = output.FormatYAML
		}
		if err := writeFile(flags.Report, doc, format); err != nil {
			return err
		}
	}

	if flags.MetricsTextfile != "" {
		if err := app.Metrics().WriteTextfile(flags.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data any, format output.Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return output.FormatAny(f, data, format)
}

func printSummary(w io.Writer, result *reconciler.Result) error {
	if err := output.FormatReport(w, result.Report, output.FormatTable); err != nil {
		return err
	}
	if result.HasChanges() {
		return output.FormatAny(w, table.ChangesetToTableData(result.Changeset), output.FormatTable)
	}
	return nil
}
