// Package events emits one structured audit event per analysis. Delivery is
// asynchronous and best-effort: a slow or broken sink drops events, it never
// blocks or fails a request.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/policyxray/policyxray/internal/analysis"
)

// CategorySummary is the per-category slice of an audit event. Only
// aggregates are recorded; clause text never leaves the request path.
type CategorySummary struct {
	Score     int    `json:"score"`
	RiskLevel string `json:"risk_level"`
	Matches   int    `json:"matches"`
}

// Event summarizes one analysis request.
type Event struct {
	ID                 string                     `json:"id"`
	Timestamp          time.Time                  `json:"timestamp"`
	RequestID          string                     `json:"request_id"`
	PolicyLength       int                        `json:"policy_length"`
	UseAI              bool                       `json:"use_ai"`
	CacheHit           bool                       `json:"cache_hit"`
	Categories         map[string]CategorySummary `json:"categories"`
	OverallScore       int                        `json:"overall_score"`
	OverallRiskLevel   string                     `json:"overall_risk_level"`
	EnrichmentFailures int                        `json:"enrichment_failures,omitempty"`
	LatencyMS          float64                    `json:"latency_ms"`
}

// NewEvent builds an audit event from an assembled result.
func NewEvent(requestID string, policyLen int, useAI, cacheHit bool, res *analysis.Result, enrichFailures int, latency time.Duration) *Event {
	ev := &Event{
		ID:                 uuid.NewString(),
		Timestamp:          time.Now().UTC(),
		RequestID:          requestID,
		PolicyLength:       policyLen,
		UseAI:              useAI,
		CacheHit:           cacheHit,
		Categories:         make(map[string]CategorySummary, len(res.Categories)),
		OverallScore:       res.Overall.Score,
		OverallRiskLevel:   string(res.Overall.RiskLevel),
		EnrichmentFailures: enrichFailures,
		LatencyMS:          float64(latency.Microseconds()) / 1000.0,
	}
	for id, cr := range res.Categories {
		ev.Categories[id] = CategorySummary{
			Score:     cr.Score,
			RiskLevel: string(cr.RiskLevel),
			Matches:   cr.TotalMatches,
		}
	}
	return ev
}
