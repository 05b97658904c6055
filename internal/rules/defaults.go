package rules

// Fixed category ids. The dashboard indexes results by these keys, so every
// analysis reports all of them even when a category never fires.
const (
	CategoryDataResale          = "data_resale"
	CategoryBiometric           = "biometric"
	CategoryIndefiniteRetention = "indefinite_retention"
	CategoryVagueLanguage       = "vague_language"
)

// Default returns the built-in rule set. The definitions are compiled at
// startup; a panic here means a broken built-in pattern, not bad user input.
func Default() *Set {
	s, err := Compile(defaultDefs())
	if err != nil {
		panic("rules: built-in rule set failed to compile: " + err.Error())
	}
	return s
}

func defaultDefs() []Category {
	return []Category{
		{
			ID:         CategoryDataResale,
			Label:      "Data Resale & Monetization",
			BaseWeight: 25,
			Keywords: []Keyword{
				{Token: "sell", Kind: KindWord, Pattern: `\bsell(?:s|ing)?\b`},
				{Token: "monetize", Kind: KindWord, Pattern: `\bmoneti[sz]e(?:s|d)?\b`},
				{Token: "share with affiliates", Kind: KindWord, Pattern: `\bshar(?:e|es|ed|ing)\b.{0,60}\bwith\b.{0,60}\baffiliates\b`},
				{Token: "third-party marketing", Kind: KindWord, Pattern: `\bthird[\s-]?part(?:y|ies)\b.{0,60}\bmarketing\b`},
				{Token: "commercial purposes", Kind: KindWord, Pattern: `\bcommercial\b.{0,30}\bpurposes\b`},
			},
		},
		{
			ID:         CategoryBiometric,
			Label:      "Biometric Data Collection",
			BaseWeight: 30,
			Keywords: []Keyword{
				{Token: "biometric", Kind: KindWord, Pattern: `\bbiometrics?\b`},
				{Token: "fingerprint", Kind: KindWord, Pattern: `\bfingerprints?\b`},
				// Escalated: explicit facial recognition is a stronger signal
				// than a generic biometric mention.
				{Token: "facial recognition", Kind: KindWord, Pattern: `\bfacial[\s-]+recognition\b`, Weight: 40},
				{Token: "face scan", Kind: KindWord, Pattern: `\bface[\s-]?scan(?:s|ning)?\b`},
				{Token: "iris scan", Kind: KindWord, Pattern: `\biris[\s-]?scan(?:s|ning)?\b`, Weight: 35},
				{Token: "voiceprint", Kind: KindWord, Pattern: `\bvoice[\s-]?prints?\b`},
				{Token: "retina", Kind: KindWord, Pattern: `\bretinal?\b`},
			},
		},
		{
			ID:         CategoryIndefiniteRetention,
			Label:      "Indefinite Data Retention",
			BaseWeight: 20,
			Keywords: []Keyword{
				{Token: "as long as necessary", Kind: KindSubstring},
				{Token: "indefinitely", Kind: KindWord},
				{Token: "permanently", Kind: KindWord},
				{Token: "for the duration of", Kind: KindWord, Pattern: `\bfor\b.{0,30}\bduration\b.{0,30}\bof\b`},
				{Token: "until you delete", Kind: KindWord, Pattern: `\buntil\b.{0,30}\byou\b.{0,30}\bdelete\b`},
			},
		},
		{
			ID:         CategoryVagueLanguage,
			Label:      "Vague or Discretionary Language",
			BaseWeight: 15,
			Keywords: []Keyword{
				{Token: "may", Kind: KindWord},
				{Token: "might", Kind: KindWord},
				{Token: "could", Kind: KindWord},
				{Token: "reasonably", Kind: KindWord},
				{Token: "appropriate discretion", Kind: KindWord, Pattern: `\bappropriate\b.{0,30}\bdiscretion\b`},
				{Token: "necessary purposes", Kind: KindWord, Pattern: `\bnecessary\b.{0,30}\bpurposes\b`},
			},
		},
	}
}
