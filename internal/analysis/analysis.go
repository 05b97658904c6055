package analysis

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// RiskLevel is the discrete bucket derived from a numeric score.
type RiskLevel string

const (
	LevelLow    RiskLevel = "low"
	LevelMedium RiskLevel = "medium"
	LevelHigh   RiskLevel = "high"
)

// Risk-level thresholds, shared by every category and the overall score.
// The frontend's green/yellow/red color coding assumes these exact breakpoints.
const (
	MediumThreshold = 30
	HighThreshold   = 60
)

// LevelForScore maps a 0-100 score onto a RiskLevel.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= HighThreshold:
		return LevelHigh
	case score >= MediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Match is a single (segment, rule) hit: the literal keyword that fired and
// the containing clause shown as context in the UI. Validation and Citation
// are populated only when AI enrichment ran for this match.
type Match struct {
	MatchedKeyword string `json:"matched_keyword"`
	Text           string `json:"text"`
	SegmentIndex   int    `json:"-"`
	Validation     string `json:"ai_validation,omitempty"`
	Citation       string `json:"gdpr_citation,omitempty"`
}

// CategoryResult aggregates all matches for one risk category.
type CategoryResult struct {
	Score        int       `json:"score"`
	RiskLevel    RiskLevel `json:"risk_level"`
	TotalMatches int       `json:"total_matches"`
	Matches      []*Match  `json:"matches"`
}

// OverallResult is derived from the category scores, never set directly.
type OverallResult struct {
	Score     int       `json:"score"`
	RiskLevel RiskLevel `json:"risk_level"`
}

// Timings captures per-stage latency for logging and audit events.
type Timings struct {
	Segment time.Duration
	Match   time.Duration
	Enrich  time.Duration
}

// Result is the full analysis payload: one CategoryResult per fixed category
// id plus the overall aggregate. Immutable once assembled (enrichment fills
// optional Match fields in place before the result is handed out).
type Result struct {
	Categories map[string]*CategoryResult
	Overall    OverallResult
	Timings    Timings
}

// MarshalJSON flattens the result into the wire shape the dashboard consumes:
// {<category_id>: CategoryResult, ..., "overall": OverallResult}.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Categories)+1)
	for id, cr := range r.Categories {
		b, err := json.Marshal(cr)
		if err != nil {
			return nil, fmt.Errorf("marshal category %s: %w", id, err)
		}
		out[id] = b
	}
	b, err := json.Marshal(r.Overall)
	if err != nil {
		return nil, fmt.Errorf("marshal overall: %w", err)
	}
	out["overall"] = b
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON; it exists so cached results
// can be rehydrated.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Categories = make(map[string]*CategoryResult, len(raw))
	for id, msg := range raw {
		if id == "overall" {
			if err := json.Unmarshal(msg, &r.Overall); err != nil {
				return fmt.Errorf("unmarshal overall: %w", err)
			}
			continue
		}
		var cr CategoryResult
		if err := json.Unmarshal(msg, &cr); err != nil {
			return fmt.Errorf("unmarshal category %s: %w", id, err)
		}
		if cr.Matches == nil {
			cr.Matches = []*Match{}
		}
		r.Categories[id] = &cr
	}
	return nil
}

// CategoryIDs returns the category ids present in the result, sorted.
func (r *Result) CategoryIDs() []string {
	ids := make([]string, 0, len(r.Categories))
	for id := range r.Categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
