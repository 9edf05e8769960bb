package output

import (
	"io"

	"github.com/agentstation/stonemap/internal/cmd/table"
	"github.com/agentstation/stonemap/pkg/reconciler"
	"github.com/agentstation/stonemap/pkg/sites"
)

// FormatSites writes sites as a table or, for json/yaml, as a catalog document.
func FormatSites(w io.Writer, list []*sites.CanonicalSite, format Format) error {
	formatter := NewFormatter(format)
	if format.IsTable() {
		return formatter.Format(w, table.SitesToTableData(list, format == FormatWide))
	}
	c, err := sites.FromSites(list)
	if err != nil {
		return err
	}
	return formatter.Format(w, c)
}

// FormatReport writes a run report. Tables show the counts, the per-batch
// statistics and any conflicts; json/yaml write the full report.
func FormatReport(w io.Writer, r *reconciler.Report, format Format) error {
	formatter := NewFormatter(format)
	if !format.IsTable() {
		return formatter.Format(w, r)
	}

	if err := formatter.Format(w, table.ReportToTableData(r)); err != nil {
		return err
	}
	if len(r.Batches) > 0 {
		if err := formatter.Format(w, table.BatchesToTableData(r.Batches)); err != nil {
			return err
		}
	}
	if len(r.Conflicts) > 0 {
		return formatter.Format(w, table.ConflictsToTableData(r.Conflicts))
	}
	return nil
}

// FormatAny writes any value in the requested format.
func FormatAny(w io.Writer, data any, format Format) error {
	return NewFormatter(format).Format(w, data)
}
