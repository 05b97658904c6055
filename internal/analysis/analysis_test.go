package analysis

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelForScoreBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  RiskLevel
	}{
		{0, LevelLow},
		{29, LevelLow},
		{30, LevelMedium},
		{59, LevelMedium},
		{60, LevelHigh},
		{100, LevelHigh},
	}
	for _, tc := range tests {
		if got := LevelForScore(tc.score); got != tc.want {
			t.Errorf("LevelForScore(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestResultMarshalShape(t *testing.T) {
	res := &Result{
		Categories: map[string]*CategoryResult{
			"biometric": {
				Score:        70,
				RiskLevel:    LevelHigh,
				TotalMatches: 1,
				Matches: []*Match{
					{MatchedKeyword: "biometric", Text: "We collect biometric data."},
				},
			},
			"data_resale": {
				Score:     0,
				RiskLevel: LevelLow,
				Matches:   []*Match{},
			},
		},
		Overall: OverallResult{Score: 35, RiskLevel: LevelMedium},
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"biometric", "data_resale", "overall"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q in payload", key)
		}
	}

	// An empty category serializes with an empty array, never null.
	if !strings.Contains(string(raw["data_resale"]), `"matches":[]`) {
		t.Errorf("empty category should carry an empty matches array: %s", raw["data_resale"])
	}

	// Unenriched matches omit the optional AI fields entirely.
	if strings.Contains(string(raw["biometric"]), "ai_validation") {
		t.Errorf("unenriched match should omit ai_validation: %s", raw["biometric"])
	}
}

func TestResultRoundTrip(t *testing.T) {
	res := &Result{
		Categories: map[string]*CategoryResult{
			"vague_language": {
				Score:        45,
				RiskLevel:    LevelMedium,
				TotalMatches: 2,
				Matches: []*Match{
					{MatchedKeyword: "may", Text: "We may do things.", Validation: "YES - broad discretion.", Citation: "Article: 5"},
					{MatchedKeyword: "could", Text: "We could expand usage."},
				},
			},
		},
		Overall: OverallResult{Score: 11, RiskLevel: LevelLow},
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var back Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}

	if back.Overall != res.Overall {
		t.Errorf("overall mismatch: %+v vs %+v", back.Overall, res.Overall)
	}
	cr := back.Categories["vague_language"]
	if cr == nil || cr.TotalMatches != 2 || len(cr.Matches) != 2 {
		t.Fatalf("category did not survive round trip: %+v", cr)
	}
	if cr.Matches[0].Validation != "YES - broad discretion." || cr.Matches[0].Citation != "Article: 5" {
		t.Errorf("annotations lost: %+v", cr.Matches[0])
	}
	if cr.Matches[1].Validation != "" {
		t.Errorf("unexpected annotation on second match: %+v", cr.Matches[1])
	}
}
