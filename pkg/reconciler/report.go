package reconciler

import (
	"fmt"
	"strings"

	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/match"
	"github.com/agentstation/stonemap/pkg/sites"
	"github.com/agentstation/stonemap/pkg/validity"
)

// Counts are the totals of a run.
type Counts struct {
	Received           int            `json:"received" yaml:"received"`
	Accepted           int            `json:"accepted" yaml:"accepted"`
	Rejected           int            `json:"rejected" yaml:"rejected"`
	RejectedByReason   map[string]int `json:"rejectedByReason" yaml:"rejectedByReason"`
	Merged             int            `json:"merged" yaml:"merged"`
	Created            int            `json:"created" yaml:"created"`
	Restored           int            `json:"restored" yaml:"restored"`
	AlreadyMerged      int            `json:"alreadyMerged" yaml:"alreadyMerged"`
	Conflicts          int            `json:"conflicts" yaml:"conflicts"`
	Flagged            int            `json:"flagged" yaml:"flagged"`
	EnrichmentFailures int            `json:"enrichmentFailures" yaml:"enrichmentFailures"`
	Failures           int            `json:"failures" yaml:"failures"`
	BatchErrors        int            `json:"batchErrors" yaml:"batchErrors"`
}

// Rejection describes one record refused by the validity filter.
type Rejection struct {
	Batch          string           `json:"batch" yaml:"batch"`
	SourceRecordID string           `json:"sourceRecordId" yaml:"sourceRecordId"`
	SourceKind     sites.SourceKind `json:"sourceKind" yaml:"sourceKind"`
	Name           string           `json:"name,omitempty" yaml:"name,omitempty"`
	Reason         validity.Reason  `json:"reason" yaml:"reason"`
	Pattern        string           `json:"pattern" yaml:"pattern"`
}

// Conflict is a decision that qualified against more than one site.
type Conflict struct {
	Batch    string         `json:"batch" yaml:"batch"`
	Decision match.Decision `json:"decision" yaml:"decision"`
}

// Issue is a non-fatal error attached to a batch and, when known, a record.
type Issue struct {
	Batch  string `json:"batch" yaml:"batch"`
	Record string `json:"record,omitempty" yaml:"record,omitempty"`
	Error  string `json:"error" yaml:"error"`
}

// BatchStats are the per-batch counts.
type BatchStats struct {
	Name               string `json:"name" yaml:"name"`
	Skipped            bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Received           int    `json:"received" yaml:"received"`
	Accepted           int    `json:"accepted" yaml:"accepted"`
	Rejected           int    `json:"rejected" yaml:"rejected"`
	Merged             int    `json:"merged" yaml:"merged"`
	Created            int    `json:"created" yaml:"created"`
	Restored           int    `json:"restored" yaml:"restored"`
	AlreadyMerged      int    `json:"alreadyMerged" yaml:"alreadyMerged"`
	Conflicts          int    `json:"conflicts" yaml:"conflicts"`
	Flagged            int    `json:"flagged" yaml:"flagged"`
	EnrichmentFailures int    `json:"enrichmentFailures" yaml:"enrichmentFailures"`
}

// Report is the audit output of a run.
type Report struct {
	RunID              string       `json:"runId" yaml:"runId"`
	Counts             Counts       `json:"counts" yaml:"counts"`
	Rejections         []Rejection  `json:"rejections" yaml:"rejections"`
	Conflicts          []Conflict   `json:"conflicts" yaml:"conflicts"`
	Failures           []Issue      `json:"failures" yaml:"failures"`
	EnrichmentFailures []Issue      `json:"enrichmentFailures" yaml:"enrichmentFailures"`
	BatchErrors        []Issue      `json:"batchErrors" yaml:"batchErrors"`
	Batches            []BatchStats `json:"batches" yaml:"batches"`
}

// NewReport creates an empty report.
func NewReport(runID string) *Report {
	return &Report{
		RunID:              runID,
		Counts:             Counts{RejectedByReason: make(map[string]int)},
		Rejections:         []Rejection{},
		Conflicts:          []Conflict{},
		Failures:           []Issue{},
		EnrichmentFailures: []Issue{},
		BatchErrors:        []Issue{},
		Batches:            []BatchStats{},
	}
}

// AddBatchError records a batch that was skipped. Batches that failed to
// load can be added by callers after the run.
func (r *Report) AddBatchError(err error) {
	name := ""
	var be *errors.BatchError
	if errors.As(err, &be) {
		name = be.Batch
	}
	r.Counts.BatchErrors++
	r.BatchErrors = append(r.BatchErrors, Issue{Batch: name, Error: err.Error()})
	r.Batches = append(r.Batches, BatchStats{Name: name, Skipped: true})
}

func (r *Report) addRejection(rej Rejection) {
	r.Counts.Rejected++
	r.Counts.RejectedByReason[string(rej.Reason)]++
	r.Rejections = append(r.Rejections, rej)
}

func (r *Report) addConflict(batch string, d match.Decision) {
	r.Counts.Conflicts++
	r.Conflicts = append(r.Conflicts, Conflict{Batch: batch, Decision: d})
}

func (r *Report) addFailure(batch, record string, err error) {
	r.Counts.Failures++
	r.Failures = append(r.Failures, Issue{Batch: batch, Record: record, Error: err.Error()})
}

func (r *Report) addEnrichmentFailure(batch string, err error) {
	record := ""
	var ee *errors.EnrichmentError
	if errors.As(err, &ee) {
		record = ee.RecordID
	}
	r.Counts.EnrichmentFailures++
	r.EnrichmentFailures = append(r.EnrichmentFailures, Issue{Batch: batch, Record: record, Error: err.Error()})
}

// String returns a one-line summary.
func (r *Report) String() string {
	c := r.Counts
	parts := []string{
		fmt.Sprintf("%d received", c.Received),
		fmt.Sprintf("%d accepted", c.Accepted),
		fmt.Sprintf("%d rejected", c.Rejected),
		fmt.Sprintf("%d created", c.Created),
		fmt.Sprintf("%d merged", c.Merged),
	}
	if c.Restored > 0 {
		parts = append(parts, fmt.Sprintf("%d restored", c.Restored))
	}
	if c.AlreadyMerged > 0 {
		parts = append(parts, fmt.Sprintf("%d already merged", c.AlreadyMerged))
	}
	if c.Conflicts > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts", c.Conflicts))
	}
	if c.BatchErrors > 0 {
		parts = append(parts, fmt.Sprintf("%d batch errors", c.BatchErrors))
	}
	return strings.Join(parts, ", ")
}
