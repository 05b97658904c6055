package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCompiles(t *testing.T) {
	set := Default()
	ids := set.IDs()
	want := []string{CategoryDataResale, CategoryBiometric, CategoryIndefiniteRetention, CategoryVagueLanguage}
	if len(ids) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Errorf("category %d: got %q, want %q", i, ids[i], id)
		}
	}
}

func TestCompileRejectsBadDefs(t *testing.T) {
	valid := Keyword{Token: "sell", Kind: KindWord}
	tests := []struct {
		name string
		defs []Category
	}{
		{"empty set", nil},
		{"missing id", []Category{{BaseWeight: 10, Keywords: []Keyword{valid}}}},
		{"duplicate id", []Category{
			{ID: "a", BaseWeight: 10, Keywords: []Keyword{valid}},
			{ID: "a", BaseWeight: 10, Keywords: []Keyword{valid}},
		}},
		{"zero weight", []Category{{ID: "a", Keywords: []Keyword{valid}}}},
		{"no keywords", []Category{{ID: "a", BaseWeight: 10}}},
		{"empty token", []Category{{ID: "a", BaseWeight: 10, Keywords: []Keyword{{Kind: KindWord}}}}},
		{"bad pattern", []Category{{ID: "a", BaseWeight: 10, Keywords: []Keyword{
			{Token: "x", Kind: KindWord, Pattern: `([unclosed`},
		}}}},
		{"unknown kind", []Category{{ID: "a", BaseWeight: 10, Keywords: []Keyword{
			{Token: "x", Kind: "fuzzy"},
		}}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compile(tc.defs); err == nil {
				t.Fatal("expected compile error")
			}
		})
	}
}

func TestKeywordMatchesSubstring(t *testing.T) {
	kw, err := compileKeyword(Keyword{Token: "as long as necessary", Kind: KindSubstring})
	if err != nil {
		t.Fatal(err)
	}
	if !kw.Matches("We keep data AS LONG AS NECESSARY for the service.") {
		t.Error("case-insensitive substring should match")
	}
	if kw.Matches("We keep data briefly.") {
		t.Error("unrelated text should not match")
	}
}

func TestKeywordMatchesWordBoundary(t *testing.T) {
	kw, err := compileKeyword(Keyword{Token: "may", Kind: KindWord})
	if err != nil {
		t.Fatal(err)
	}
	if !kw.Matches("We may share data.") {
		t.Error("word should match")
	}
	if kw.Matches("Come back in Mayfair.") {
		t.Error("embedded word should not match")
	}
}

func TestKeywordPatternVariants(t *testing.T) {
	set := Default()
	var biometric *Category
	for i := range set.Categories() {
		if set.Categories()[i].ID == CategoryBiometric {
			biometric = &set.Categories()[i]
		}
	}
	if biometric == nil {
		t.Fatal("biometric category missing")
	}

	hits := func(text string) []string {
		var out []string
		for i := range biometric.Keywords {
			if biometric.Keywords[i].Matches(text) {
				out = append(out, biometric.Keywords[i].Token)
			}
		}
		return out
	}

	if got := hits("We store biometrics and fingerprints."); len(got) != 2 {
		t.Errorf("plural variants: got %v", got)
	}
	if got := hits("Facial-recognition features are enabled."); len(got) != 1 || got[0] != "facial recognition" {
		t.Errorf("hyphenated multi-word: got %v", got)
	}
}

func TestKeywordCount(t *testing.T) {
	kw, err := compileKeyword(Keyword{Token: "indefinitely", Kind: KindWord})
	if err != nil {
		t.Fatal(err)
	}
	text := "Stored indefinitely. Kept indefinitely. Gone."
	if got := kw.Count(text); got != 2 {
		t.Errorf("count: got %d, want 2", got)
	}
}

func TestEffectiveWeight(t *testing.T) {
	cat := Category{BaseWeight: 30}
	if w := cat.EffectiveWeight(&Keyword{}); w != 30 {
		t.Errorf("default weight: got %d", w)
	}
	if w := cat.EffectiveWeight(&Keyword{Weight: 40}); w != 40 {
		t.Errorf("override weight: got %d", w)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `categories:
  - id: tracking
    label: Tracking
    base_weight: 10
    keywords:
      - token: cookie
        kind: word
      - token: pixel tag
        kind: substring
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := set.IDs(); len(got) != 1 || got[0] != "tracking" {
		t.Fatalf("ids: %v", got)
	}

	cat := set.Categories()[0]
	if !cat.Keywords[0].Matches("This site sets a cookie.") {
		t.Error("loaded word keyword should match")
	}
	if !cat.Keywords[1].Matches("We use Pixel Tags everywhere.") {
		t.Error("loaded substring keyword should match case-insensitively")
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("categories: [{id: x}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil || !strings.Contains(err.Error(), "base_weight") {
		t.Errorf("invalid rule file should surface the compile error, got %v", err)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	set, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(set.IDs()) != 4 {
		t.Fatalf("expected built-in set, got %v", set.IDs())
	}
}
