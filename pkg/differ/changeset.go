// Package differ compares two catalogs and reports the sites that were
// added, updated or removed.
package differ

import (
	"fmt"
	"io"
	"strings"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates an item was added.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeUpdate indicates an item was updated.
	ChangeTypeUpdate ChangeType = "update"
	// ChangeTypeRemove indicates an item was removed.
	ChangeTypeRemove ChangeType = "remove"
)

// FieldChange represents a change to a specific field.
type FieldChange struct {
	Path     string     `json:"path" yaml:"path"`
	OldValue string     `json:"old,omitempty" yaml:"old,omitempty"`
	NewValue string     `json:"new,omitempty" yaml:"new,omitempty"`
	Type     ChangeType `json:"type" yaml:"type"`
}

// SiteChange identifies an added or removed site.
type SiteChange struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// SiteUpdate represents an update to an existing site.
type SiteUpdate struct {
	ID      string        `json:"id" yaml:"id"`
	Name    string        `json:"name" yaml:"name"`
	Changes []FieldChange `json:"changes" yaml:"changes"`
}

// Changeset represents all changes between two catalogs, in catalog order.
type Changeset struct {
	Added   []SiteChange `json:"added" yaml:"added"`
	Updated []SiteUpdate `json:"updated" yaml:"updated"`
	Removed []SiteChange `json:"removed" yaml:"removed"`
	Summary Summary      `json:"summary" yaml:"summary"`
}

// Summary provides summary statistics for a changeset.
type Summary struct {
	Added        int `json:"added" yaml:"added"`
	Updated      int `json:"updated" yaml:"updated"`
	Removed      int `json:"removed" yaml:"removed"`
	FieldChanges int `json:"fieldChanges" yaml:"fieldChanges"`
	TotalChanges int `json:"totalChanges" yaml:"totalChanges"`
}

func calculateSummary(c *Changeset) Summary {
	fields := 0
	for _, u := range c.Updated {
		fields += len(u.Changes)
	}
	return Summary{
		Added:        len(c.Added),
		Updated:      len(c.Updated),
		Removed:      len(c.Removed),
		FieldChanges: fields,
		TotalChanges: len(c.Added) + len(c.Updated) + len(c.Removed),
	}
}

// HasChanges returns true if the changeset contains any changes.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// String returns a one-line summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return "No changes detected"
	}

	var parts []string
	if n := len(c.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("%d added", n))
	}
	if n := len(c.Updated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if n := len(c.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", n))
	}
	return fmt.Sprintf("Sites: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// Print writes a detailed, human-readable view of the changeset.
func (c *Changeset) Print(w io.Writer) {
	fmt.Fprintln(w, c.String())
	if c.IsEmpty() {
		return
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))

	if len(c.Added) > 0 {
		fmt.Fprintf(w, "\n➕ Added Sites (%d):\n", len(c.Added))
		for _, s := range c.Added {
			fmt.Fprintf(w, "  • %s (%s)\n", s.ID, s.Name)
		}
	}

	if len(c.Updated) > 0 {
		fmt.Fprintf(w, "\n🔄 Updated Sites (%d):\n", len(c.Updated))
		for _, u := range c.Updated {
			fmt.Fprintf(w, "  • %s (%s)\n", u.ID, u.Name)
			for _, ch := range u.Changes {
				fmt.Fprintf(w, "    - %s: %s → %s\n", ch.Path, display(ch.OldValue), display(ch.NewValue))
			}
		}
	}

	if len(c.Removed) > 0 {
		fmt.Fprintf(w, "\n➖ Removed Sites (%d):\n", len(c.Removed))
		for _, s := range c.Removed {
			fmt.Fprintf(w, "  • %s (%s)\n", s.ID, s.Name)
		}
	}
}

func display(v string) string {
	if v == "" {
		return "(empty)"
	}
	return v
}
