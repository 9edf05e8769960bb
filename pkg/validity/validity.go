// Package validity rejects implausible source records before they reach the
// matcher: out-of-range coordinates, spam and disallowed categories. Records
// that fall outside every land box are flagged, or rejected under the
// reject land policy.
package validity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/stonemap/internal/patterns"
	"github.com/agentstation/stonemap/pkg/errors"
	"github.com/agentstation/stonemap/pkg/normalize"
)

// Reason is the rejection category of a verdict.
type Reason string

// Rejection reasons.
const (
	ReasonNone               Reason = ""
	ReasonInvalidCoordinates Reason = "invalid_coordinates"
	ReasonGarbageContent     Reason = "garbage_content"
)

// Err returns the sentinel error for the reason.
func (r Reason) Err() error {
	switch r {
	case ReasonInvalidCoordinates:
		return errors.ErrInvalidCoordinates
	case ReasonGarbageContent:
		return errors.ErrGarbageContent
	default:
		return nil
	}
}

// Flags attached to accepted records.
const (
	FlagOutsideLandBoxes = "outside_land_boxes"
)

// Pattern names for rejections that are not produced by a pattern rule.
const (
	PatternOutOfRange  = "out_of_range"
	PatternNullIsland  = "null_island"
	PatternOutsideLand = "outside_land_boxes"
	PatternEmptyName   = "empty_name"
)

// LandPolicy decides what happens to coordinates outside every land box.
type LandPolicy string

// Land policies.
const (
	LandPolicyFlag   LandPolicy = "flag"
	LandPolicyReject LandPolicy = "reject"
)

// DefaultAllowedTypes are site types that override a garbage match.
var DefaultAllowedTypes = []string{
	"stone circle", "dolmen", "menhir", "cairn", "henge", "barrow", "nuraghe", "megalith", "sanctuary",
}

// Config tunes the filter.
type Config struct {
	LandPolicy   LandPolicy
	AllowedTypes []string // appended to DefaultAllowedTypes
	LandBoxes    []LandBox
}

// DefaultConfig returns the standard filter configuration.
func DefaultConfig() Config {
	return Config{
		LandPolicy: LandPolicyFlag,
		LandBoxes:  DefaultLandBoxes(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.LandPolicy {
	case LandPolicyFlag, LandPolicyReject, "":
	default:
		return errors.NewConfigError("validity", fmt.Sprintf("unknown land policy %q", c.LandPolicy), nil)
	}
	return nil
}

// Verdict is the outcome of checking one record.
type Verdict struct {
	Accepted bool     `json:"accepted"`
	Reason   Reason   `json:"reason,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Flags    []string `json:"flags,omitempty"`
}

// Err returns the rejection as a typed error, or nil when accepted.
func (v Verdict) Err(recordID string) error {
	if v.Accepted {
		return nil
	}
	return errors.NewRejectionError(v.Reason.Err(), recordID, v.Pattern)
}

// Filter checks normalized records. It holds no mutable state and is safe
// for concurrent use.
type Filter struct {
	policy     LandPolicy
	boxes      []LandBox
	garbage    *patterns.Set
	shouting   *patterns.Set
	vocabulary *patterns.Set
	allowed    []string
}

// New creates a filter from configuration.
func New(cfg Config) (*Filter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LandPolicy == "" {
		cfg.LandPolicy = LandPolicyFlag
	}
	if cfg.LandBoxes == nil {
		cfg.LandBoxes = DefaultLandBoxes()
	}

	allowed := slices.Clone(DefaultAllowedTypes)
	for _, t := range cfg.AllowedTypes {
		t = normalize.Fold(normalize.Clean(t))
		if t != "" && !slices.Contains(allowed, t) {
			allowed = append(allowed, t)
		}
	}

	return &Filter{
		policy:     cfg.LandPolicy,
		boxes:      cfg.LandBoxes,
		garbage:    patterns.Garbage(),
		shouting:   patterns.Shouting(),
		vocabulary: patterns.Vocabulary(),
		allowed:    allowed,
	}, nil
}

// Check returns the verdict for a normalized record.
func (f *Filter) Check(n normalize.Normalized) Verdict {
	rec := n.Record
	c := rec.Coordinates

	if !c.Valid() {
		return reject(ReasonInvalidCoordinates, PatternOutOfRange)
	}
	if c.IsNullIsland() {
		return reject(ReasonInvalidCoordinates, PatternNullIsland)
	}

	if n.Key == "" {
		return reject(ReasonGarbageContent, PatternEmptyName)
	}

	if rule, ok := f.garbageRule(n); ok && !f.overridden(n) {
		return reject(ReasonGarbageContent, rule)
	}

	v := Verdict{Accepted: true}
	if !InLand(f.boxes, c) {
		if f.policy == LandPolicyReject {
			return reject(ReasonInvalidCoordinates, PatternOutsideLand)
		}
		v.Flags = append(v.Flags, FlagOutsideLandBoxes)
	}
	return v
}

// garbageRule returns the name of the first spam rule that fires.
func (f *Filter) garbageRule(n normalize.Normalized) (string, bool) {
	rec := n.Record
	text := normalize.Fold(strings.Join([]string{rec.RawName, rec.RawSummary, rec.SiteTypeLabel}, " "))
	if m, ok := f.garbage.First(text); ok {
		return m.Name(), true
	}
	if m, ok := f.shouting.First(normalize.StripMarks(rec.RawName)); ok {
		return m.Name(), true
	}
	return "", false
}

// overridden reports whether the declared type is allow-listed or the
// summary uses archaeological vocabulary.
func (f *Filter) overridden(n normalize.Normalized) bool {
	if f.AllowedType(n.Record.SiteTypeLabel) {
		return true
	}
	return n.Record.RawSummary != "" && f.vocabulary.Any(normalize.Fold(n.Record.RawSummary))
}

// AllowedType reports whether a site type label contains an allow-listed type.
func (f *Filter) AllowedType(label string) bool {
	label = normalize.Fold(label)
	if label == "" {
		return false
	}
	for _, t := range f.allowed {
		if strings.Contains(label, t) {
			return true
		}
	}
	return false
}

func reject(reason Reason, pattern string) Verdict {
	return Verdict{Reason: reason, Pattern: pattern}
}
