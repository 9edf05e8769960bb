package table

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/stonemap/pkg/provenance"
)

// ProvenanceToTableData converts a provenance report to table format.
// Each field lists its decisions in order; the arrow marks the decision
// that set the current value. Fields not matching patterns are skipped.
func ProvenanceToTableData(report *provenance.Report, patterns []string) Data {
	var rows [][]string
	if report == nil {
		return provenanceData(rows)
	}

	for _, site := range report.Sites {
		siteShown := false
		for _, field := range site.Fields {
			if !MatchField(field.Name, patterns) {
				continue
			}
			for i, entry := range field.History {
				siteID := ""
				if !siteShown {
					siteID = site.SiteID
					siteShown = true
				}
				fieldName := ""
				if i == 0 {
					fieldName = field.Name
				}
				current := ""
				if field.Current != nil && field.Current.Seq == entry.Seq {
					current = "→"
				}
				applied := "kept"
				if entry.Applied {
					applied = "applied"
				}

				rows = append(rows, []string{
					siteID,
					fieldName,
					current,
					Truncate(formatValueAsYAML(entry.Value), 60),
					entry.Source.String(),
					fmt.Sprintf("%d", entry.Score),
					applied,
					entry.Reason,
				})
			}
		}
	}

	return provenanceData(rows)
}

func provenanceData(rows [][]string) Data {
	return Data{
		Headers: []string{"Site", "Field", "Curr", "Value", "Source", "Score", "Decision", "Reason"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignLeft,   // Site
			AlignLeft,   // Field
			AlignCenter, // Curr
			AlignLeft,   // Value
			AlignLeft,   // Source
			AlignRight,  // Score
			AlignLeft,   // Decision
			AlignLeft,   // Reason
		},
	}
}

// MatchField checks if a field matches any of the provided patterns.
// Supports wildcard matching (e.g., "source*" matches "sourceIds").
// Matching is case-insensitive.
func MatchField(field string, patterns []string) bool {
	if len(patterns) == 0 {
		return true // No patterns means match all
	}

	fieldLower := strings.ToLower(field)
	for _, pattern := range patterns {
		patternLower := strings.ToLower(strings.TrimSpace(pattern))
		if matched, err := filepath.Match(patternLower, fieldLower); err == nil && matched {
			return true
		}
	}
	return false
}

// formatValueAsYAML formats a provenance value for display. Complex values
// are rendered as flow YAML on one line.
func formatValueAsYAML(val any) string {
	if val == nil {
		return "<nil>"
	}

	switch v := val.(type) {
	case string:
		if v == "" {
			return "<empty>"
		}
		return v
	case int, int64:
		return fmt.Sprintf("%d", v)
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.5f", v)
	case bool:
		return fmt.Sprintf("%t", v)
	}

	out, err := yaml.MarshalWithOptions(val, yaml.Flow(true))
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return strings.TrimSuffix(string(out), "\n")
}
