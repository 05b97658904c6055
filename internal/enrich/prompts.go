package enrich

import (
	"fmt"

	"github.com/policyxray/policyxray/internal/rules"
)

const systemPrompt = "You are a privacy policy expert. Analyze clauses for privacy risks and GDPR compliance. Be concise and factual."

type categoryPrompt struct {
	validation  string
	gdprArticle string
}

// categoryPrompts fixes the questions asked per category. A category without
// an entry is simply not enriched.
var categoryPrompts = map[string]categoryPrompt{
	rules.CategoryDataResale: {
		validation:  "Does this clause allow the company to SELL or MONETIZE user data to third parties?",
		gdprArticle: "which GDPR article restricts companies from selling user data without explicit consent",
	},
	rules.CategoryBiometric: {
		validation:  "Does this clause allow collection of BIOMETRIC data (fingerprints, facial recognition, etc.)?",
		gdprArticle: "which GDPR article governs the processing of biometric data for identification purposes",
	},
	rules.CategoryIndefiniteRetention: {
		validation:  "Does this clause allow the company to retain data INDEFINITELY without clear time limits?",
		gdprArticle: "which GDPR article requires data to be kept only as long as necessary (storage limitation)",
	},
	rules.CategoryVagueLanguage: {
		validation:  "Does this clause use vague language that gives the company excessive discretion?",
		gdprArticle: "which GDPR article requires transparency and specific purposes for data processing",
	},
}

func validationPrompt(question, clause string) string {
	return fmt.Sprintf(`Analyze this privacy policy clause:

%q

Question: %s

Answer with: YES or NO, followed by a 1-sentence explanation.
Keep your response under 100 words.`, clause, question)
}

func citationPrompt(article string) string {
	return fmt.Sprintf(`Identify %s.

Then explain in 1 sentence how this clause potentially conflicts with that article.

Format:
Article: [GDPR Article number]
Conflict: [Brief explanation]

Keep response under 100 words.`, article)
}
