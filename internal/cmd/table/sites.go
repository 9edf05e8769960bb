package table

import (
	"fmt"
	"strings"

	"github.com/agentstation/stonemap/pkg/sites"
)

// SitesToTableData converts canonical sites to table format. Wide output
// adds sources, flags and links.
func SitesToTableData(list []*sites.CanonicalSite, wide bool) Data {
	headers := []string{"ID", "Name", "Type", "Lat", "Lon", "Country", "Score"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft, AlignRight}
	if wide {
		headers = append(headers, "Sources", "Flags", "Image", "Reference")
		align = append(align, AlignLeft, AlignLeft, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		row := []string{
			s.CanonicalID,
			Truncate(s.Name, 40),
			orDash(s.SiteType),
			fmt.Sprintf("%.5f", s.Coordinates.Lat),
			fmt.Sprintf("%.5f", s.Coordinates.Lon),
			orDash(s.Country),
			fmt.Sprintf("%d", s.QualityScore),
		}
		if wide {
			row = append(row,
				sourcesString(s.ContributingSources),
				orDash(strings.Join(s.Flags, ",")),
				orDash(Truncate(s.ImageURL, 50)),
				orDash(Truncate(s.ReferenceURL, 50)),
			)
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// sourcesString lists refs compactly, e.g. "crowd_geo:node/1, manual:avebury".
func sourcesString(refs []sites.SourceRef) string {
	if len(refs) == 0 {
		return "-"
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}
