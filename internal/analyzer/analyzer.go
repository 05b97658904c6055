// Package analyzer runs the rule-based risk pipeline: segment the policy,
// scan every clause against every category rule, score the hits and shape
// the response contract.
package analyzer

import (
	"time"
	"unicode/utf8"

	"github.com/policyxray/policyxray/internal/analysis"
	"github.com/policyxray/policyxray/internal/rules"
	"github.com/policyxray/policyxray/internal/segment"
)

// maxClauseRunes bounds the context text attached to a match so the UI never
// renders an entire unbroken policy blob.
const maxClauseRunes = 400

// Options tune matching behavior. The zero value is not valid; use the
// defaults applied by New.
type Options struct {
	// DedupePerSegment counts a keyword repeated inside one clause once.
	// A clause containing distinct keywords still yields one match each.
	DedupePerSegment bool
}

// DefaultOptions is the documented engine policy: repeated identical
// keywords in a single clause count once.
func DefaultOptions() Options {
	return Options{DedupePerSegment: true}
}

// Analyzer is stateless per request: it holds only the immutable compiled
// rule set and is safe for concurrent use.
type Analyzer struct {
	set  *rules.Set
	opts Options
}

func New(set *rules.Set, opts Options) *Analyzer {
	return &Analyzer{set: set, opts: opts}
}

// Analyze runs the full rule-based pipeline over a policy document. The
// result always contains every configured category, zero matches or not,
// plus the derived overall aggregate.
func (a *Analyzer) Analyze(text string) *analysis.Result {
	segStart := time.Now()
	segs := segment.Split(text)
	segDur := time.Since(segStart)

	matchStart := time.Now()
	cats := a.set.Categories()
	res := &analysis.Result{
		Categories: make(map[string]*analysis.CategoryResult, len(cats)),
	}
	for i := range cats {
		cat := &cats[i]
		matches, score := a.scanCategory(cat, segs)
		res.Categories[cat.ID] = &analysis.CategoryResult{
			Score:        score,
			RiskLevel:    analysis.LevelForScore(score),
			TotalMatches: len(matches),
			Matches:      matches,
		}
	}
	res.Overall = overall(cats, res.Categories)
	res.Timings = analysis.Timings{Segment: segDur, Match: time.Since(matchStart)}
	return res
}

// scanCategory walks segments in order and keywords in rule order, so match
// ordering is stable across runs on identical input.
func (a *Analyzer) scanCategory(cat *rules.Category, segs []segment.Segment) ([]*analysis.Match, int) {
	matches := []*analysis.Match{}
	weightSum := 0
	for si := range segs {
		seg := &segs[si]
		for ki := range cat.Keywords {
			kw := &cat.Keywords[ki]
			hits := 1
			if !kw.Matches(seg.Text) {
				continue
			}
			if !a.opts.DedupePerSegment {
				hits = kw.Count(seg.Text)
			}
			for h := 0; h < hits; h++ {
				matches = append(matches, &analysis.Match{
					MatchedKeyword: kw.Token,
					Text:           truncateRunes(seg.Text, maxClauseRunes),
					SegmentIndex:   seg.Index,
				})
				weightSum += cat.EffectiveWeight(kw)
			}
		}
	}
	return matches, capScore(weightSum)
}

// overall is the fixed aggregation policy: the integer-rounded arithmetic
// mean of the category scores. Versioned behavior, do not re-derive.
func overall(cats []rules.Category, results map[string]*analysis.CategoryResult) analysis.OverallResult {
	if len(cats) == 0 {
		return analysis.OverallResult{Score: 0, RiskLevel: analysis.LevelLow}
	}
	sum := 0
	for i := range cats {
		sum += results[cats[i].ID].Score
	}
	score := (sum + len(cats)/2) / len(cats)
	return analysis.OverallResult{Score: score, RiskLevel: analysis.LevelForScore(score)}
}

func capScore(sum int) int {
	if sum > 100 {
		return 100
	}
	if sum < 0 {
		return 0
	}
	return sum
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
