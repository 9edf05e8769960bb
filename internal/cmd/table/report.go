package table

import (
	"fmt"
	"sort"

	"github.com/agentstation/stonemap/internal/cmd/emoji"
	"github.com/agentstation/stonemap/pkg/differ"
	"github.com/agentstation/stonemap/pkg/reconciler"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

// ReportToTableData summarizes run counts as a two-column table.
func ReportToTableData(r *reconciler.Report) Data {
	c := r.Counts
	rows := [][]string{
		{"Received", FormatNumber(c.Received)},
		{"Accepted", FormatNumber(c.Accepted)},
		{"Rejected", FormatNumber(c.Rejected)},
	}

	reasons := make([]string, 0, len(c.RejectedByReason))
	for reason := range c.RejectedByReason {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		rows = append(rows, []string{"  " + reason, FormatNumber(c.RejectedByReason[reason])})
	}

	rows = append(rows,
		[]string{"Created", FormatNumber(c.Created)},
		[]string{"Merged", FormatNumber(c.Merged)},
		[]string{"Restored", FormatNumber(c.Restored)},
		[]string{"Already merged", FormatNumber(c.AlreadyMerged)},
		[]string{"Conflicts", FormatNumber(c.Conflicts)},
		[]string{"Flagged", FormatNumber(c.Flagged)},
		[]string{"Enrichment failures", FormatNumber(c.EnrichmentFailures)},
		[]string{"Failures", FormatNumber(c.Failures)},
		[]string{"Batch errors", FormatNumber(c.BatchErrors)},
	)

	return Data{
		Headers:         []string{"Metric", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// BatchesToTableData shows per-batch statistics in input order.
func BatchesToTableData(stats []reconciler.BatchStats) Data {
	rows := make([][]string, 0, len(stats))
	for _, b := range stats {
		status := emoji.Success
		if b.Skipped {
			status = emoji.Error
		} else if b.Conflicts > 0 || b.EnrichmentFailures > 0 {
			status = emoji.Warning
		}
		rows = append(rows, []string{
			status,
			orDash(b.Name),
			FormatNumber(b.Received),
			FormatNumber(b.Accepted),
			FormatNumber(b.Rejected),
			FormatNumber(b.Created),
			FormatNumber(b.Merged),
			FormatNumber(b.Conflicts),
		})
	}
	return Data{
		Headers: []string{"", "Batch", "Received", "Accepted", "Rejected", "Created", "Merged", "Conflicts"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignCenter, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight,
		},
	}
}

// VerdictsToTableData pairs records with their filter verdicts. Accepted
// records without flags are omitted unless all is set.
func VerdictsToTableData(recs []sites.SourceRecord, verdicts []validity.Verdict, all bool) Data {
	var rows [][]string
	for i, rec := range recs {
		if i >= len(verdicts) {
			break
		}
		v := verdicts[i]
		if v.Accepted && len(v.Flags) == 0 && !all {
			continue
		}

		status, reason, detail := emoji.Success, "accepted", ""
		switch {
		case !v.Accepted:
			status, reason, detail = emoji.Error, string(v.Reason), v.Pattern
		case len(v.Flags) > 0:
			status, detail = emoji.Warning, fmt.Sprint(v.Flags)
		}

		rows = append(rows, []string{
			status,
			rec.Ref().String(),
			orDash(Truncate(rec.RawName, 40)),
			reason,
			orDash(detail),
		})
	}
	return Data{
		Headers:         []string{"", "Record", "Name", "Verdict", "Detail"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignCenter, AlignLeft, AlignLeft, AlignLeft, AlignLeft},
	}
}

// ConflictsToTableData lists conflicting matches.
func ConflictsToTableData(conflicts []reconciler.Conflict) Data {
	rows := make([][]string, 0, len(conflicts))
	for _, c := range conflicts {
		d := c.Decision
		rows = append(rows, []string{
			orDash(c.Batch),
			d.Ref().String(),
			d.MatchedCanonicalID,
			fmt.Sprintf("%.1f", d.DistanceMeters),
			fmt.Sprint(d.ConflictingIDs),
		})
	}
	return Data{
		Headers:         []string{"Batch", "Record", "Attached To", "Distance (m)", "Candidates"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
}

// ChangesetToTableData lists catalog changes, one row per site.
func ChangesetToTableData(c *differ.Changeset) Data {
	var rows [][]string
	if c != nil {
		for _, s := range c.Added {
			rows = append(rows, []string{"+", s.ID, Truncate(s.Name, 40), "-"})
		}
		for _, s := range c.Updated {
			fields := make([]string, len(s.Changes))
			for i, f := range s.Changes {
				fields[i] = f.Path
			}
			rows = append(rows, []string{"~", s.ID, Truncate(s.Name, 40), fmt.Sprint(fields)})
		}
		for _, s := range c.Removed {
			rows = append(rows, []string{"-", s.ID, Truncate(s.Name, 40), "-"})
		}
	}
	return Data{
		Headers:         []string{"", "ID", "Name", "Fields"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignCenter, AlignLeft, AlignLeft, AlignLeft},
	}
}
