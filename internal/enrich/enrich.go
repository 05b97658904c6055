// Package enrich adds best-effort AI commentary to rule-based matches.
//
// Enrichment never gates an analysis: every failure path falls back to the
// unenriched match and the request still succeeds with rule-only results.
package enrich

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/policyxray/policyxray/internal/analysis"
)

// Annotation is the free-text output attached to a match: a validation
// verdict and, when the verdict is affirmative, a regulatory citation.
type Annotation struct {
	Validation string
	Citation   string
}

// Enricher is the capability interface for the external reasoning service.
// Implementations must honor ctx cancellation; a nil annotation with nil
// error means the service had nothing to say for this category.
type Enricher interface {
	Enrich(ctx context.Context, categoryID, clause string) (*Annotation, error)
}

// Noop is the use_ai=false path: no annotations, never fails.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) Enrich(ctx context.Context, categoryID, clause string) (*Annotation, error) {
	return nil, nil
}

// Runner walks an assembled result and annotates the leading matches of each
// category, bounded by a per-call timeout with a single retry.
type Runner struct {
	Enricher    Enricher
	PerCategory int           // matches annotated per category
	CallTimeout time.Duration // per upstream call
	RetryDelay  time.Duration // backoff before the single retry
	Logger      *slog.Logger
}

const (
	defaultPerCategory = 2
	defaultCallTimeout = 10 * time.Second
	defaultRetryDelay  = 500 * time.Millisecond
)

// Run annotates the result in place and returns the number of failed
// enrichment calls. Failures are logged and swallowed.
func (r *Runner) Run(ctx context.Context, res *analysis.Result) int {
	if r.Enricher == nil {
		return 0
	}
	perCategory := r.PerCategory
	if perCategory <= 0 {
		perCategory = defaultPerCategory
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	failures := 0
	for _, id := range res.CategoryIDs() {
		cr := res.Categories[id]
		for i, m := range cr.Matches {
			if i >= perCategory {
				break
			}
			if ctx.Err() != nil {
				return failures + 1
			}
			ann, err := r.call(ctx, id, m.Text)
			if err != nil {
				failures++
				logger.Warn("enrichment failed, keeping rule-only match",
					"category", id, "match", i, "error", err)
				continue
			}
			if ann == nil {
				continue
			}
			m.Validation = ann.Validation
			m.Citation = ann.Citation
		}
	}
	res.Timings.Enrich = time.Since(start)
	return failures
}

// call performs one enrichment with a timeout and a single retry.
func (r *Runner) call(ctx context.Context, categoryID, clause string) (*Annotation, error) {
	ann, err := r.callOnce(ctx, categoryID, clause)
	if err == nil || ctx.Err() != nil {
		return ann, err
	}
	delay := r.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}
	return r.callOnce(ctx, categoryID, clause)
}

func (r *Runner) callOnce(ctx context.Context, categoryID, clause string) (*Annotation, error) {
	timeout := r.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Enricher.Enrich(callCtx, categoryID, clause)
}

// IsPlaceholderKey reports whether an API key is unset or a template value,
// in which case enrichment silently downgrades to rule-only.
func IsPlaceholderKey(key string) bool {
	key = strings.TrimSpace(key)
	return len(key) <= 20 || key == "your_api_key_here"
}
