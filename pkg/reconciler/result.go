package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/stonemap/pkg/differ"
	"github.com/agentstation/stonemap/pkg/provenance"
	"github.com/agentstation/stonemap/pkg/sites"
)

// Result represents the outcome of a merge run.
type Result struct {
	// Core data
	Catalog   *sites.Catalog
	Report    *Report
	Changeset *differ.Changeset

	// Provenance tracking, empty unless enabled
	Provenance provenance.Map

	// Metadata
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the run.
type ResultMetadata struct {
	RunID         string
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
	Batches       []string
	BaselineSites int
	Enhancers     []string
}

// NewResult creates a new result with defaults.
func NewResult(runID string) *Result {
	return &Result{
		Report:     NewReport(runID),
		Provenance: make(provenance.Map),
		Metadata: ResultMetadata{
			RunID:     runID,
			StartTime: time.Now(),
			Batches:   []string{},
		},
	}
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
}

// HasChanges returns true if the catalog differs from the baseline.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// ProvenanceReport returns the provenance grouped by site and field.
func (r *Result) ProvenanceReport() *provenance.Report {
	return provenance.GenerateReport(r.Provenance)
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	if r.HasChanges() {
		return fmt.Sprintf("Merge completed: %s. %s", r.Report, r.Changeset)
	}
	return fmt.Sprintf("Merge completed: %s. No changes detected.", r.Report)
}
