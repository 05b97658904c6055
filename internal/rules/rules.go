// Package rules holds the per-category keyword/pattern definitions the
// matcher scans with. The set is built once at startup, compiled, and never
// mutated afterwards, so concurrent analyses can share it without locking.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// MatchKind fixes the matching semantics of a keyword. It is declared per
// rule, never inferred, so results stay deterministic.
type MatchKind string

const (
	// KindSubstring matches the token anywhere, case-insensitively.
	KindSubstring MatchKind = "substring"
	// KindWord matches on word boundaries, with morphological variants
	// when the rule carries an explicit pattern.
	KindWord MatchKind = "word"
)

// Keyword is one trigger inside a category. Token is the literal reported as
// matched_keyword. Pattern, when set, overrides the derived word regex (used
// for variants like "biometric(s)"). Weight 0 means the category base weight.
type Keyword struct {
	Token   string    `yaml:"token"`
	Kind    MatchKind `yaml:"kind"`
	Pattern string    `yaml:"pattern,omitempty"`
	Weight  int       `yaml:"weight,omitempty"`

	re    *regexp.Regexp
	lower string
}

// Category is one dimension of privacy risk with its own keyword list.
type Category struct {
	ID         string    `yaml:"id"`
	Label      string    `yaml:"label"`
	BaseWeight int       `yaml:"base_weight"`
	Keywords   []Keyword `yaml:"keywords"`
}

// Set is an immutable, compiled rule set.
type Set struct {
	categories []Category
}

// Compile validates and compiles category definitions into a Set.
func Compile(defs []Category) (*Set, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("rules: empty category set")
	}
	seen := make(map[string]struct{}, len(defs))
	out := make([]Category, len(defs))
	for i, c := range defs {
		if strings.TrimSpace(c.ID) == "" {
			return nil, fmt.Errorf("rules: category %d has no id", i)
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("rules: duplicate category %q", c.ID)
		}
		seen[c.ID] = struct{}{}
		if c.BaseWeight <= 0 {
			return nil, fmt.Errorf("rules: category %q: base_weight must be positive", c.ID)
		}
		if len(c.Keywords) == 0 {
			return nil, fmt.Errorf("rules: category %q has no keywords", c.ID)
		}
		kws := make([]Keyword, len(c.Keywords))
		for j, k := range c.Keywords {
			compiled, err := compileKeyword(k)
			if err != nil {
				return nil, fmt.Errorf("rules: category %q keyword %q: %w", c.ID, k.Token, err)
			}
			kws[j] = compiled
		}
		out[i] = Category{ID: c.ID, Label: c.Label, BaseWeight: c.BaseWeight, Keywords: kws}
	}
	return &Set{categories: out}, nil
}

func compileKeyword(k Keyword) (Keyword, error) {
	if strings.TrimSpace(k.Token) == "" {
		return k, fmt.Errorf("empty token")
	}
	switch k.Kind {
	case KindSubstring:
		k.lower = strings.ToLower(k.Token)
	case KindWord:
		pattern := k.Pattern
		if pattern == "" {
			pattern = wordPattern(k.Token)
		}
		re, err := regexp.Compile(`(?i)` + pattern)
		if err != nil {
			return k, fmt.Errorf("compile pattern: %w", err)
		}
		k.re = re
	default:
		return k, fmt.Errorf("unknown kind %q", k.Kind)
	}
	return k, nil
}

// wordPattern derives a boundary-aware regex from a plain token; spaces in
// multi-word tokens also match hyphens.
func wordPattern(token string) string {
	words := strings.Fields(token)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return `\b` + strings.Join(quoted, `[\s-]+`) + `\b`
}

// Categories returns the compiled categories in definition order. Callers
// must not mutate the returned slice.
func (s *Set) Categories() []Category {
	return s.categories
}

// IDs returns the category ids in definition order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.categories))
	for i, c := range s.categories {
		ids[i] = c.ID
	}
	return ids
}

// Matches reports whether the keyword fires on the given segment text.
func (k *Keyword) Matches(text string) bool {
	if k.re != nil {
		return k.re.MatchString(text)
	}
	return strings.Contains(strings.ToLower(text), k.lower)
}

// Count returns the number of non-overlapping occurrences of the keyword in
// the segment text. Used when per-occurrence counting is enabled.
func (k *Keyword) Count(text string) int {
	if k.re != nil {
		return len(k.re.FindAllStringIndex(text, -1))
	}
	return strings.Count(strings.ToLower(text), k.lower)
}

// EffectiveWeight resolves the keyword weight against the category base.
func (c *Category) EffectiveWeight(k *Keyword) int {
	if k.Weight > 0 {
		return k.Weight
	}
	return c.BaseWeight
}
