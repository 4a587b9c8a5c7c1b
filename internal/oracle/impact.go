package oracle

import "strings"

// questionImpact is the emotional effect of one question before
// clamping.
type questionImpact struct {
	trustDelta       int
	nervousnessDelta int
	probing          bool
}

var (
	aggressiveWords = []string{
		"liar", "lying", "lied", "killed", "murderer", "murdered",
		"guilty", "admit it", "confess", "you did it",
	}
	friendlyWords = []string{
		"please", "thank you", "i understand", "must be hard",
		"help me", "i believe you", "sorry",
	}
	confrontationWords = []string{
		"evidence", "proof", "witness", "saw you", "contradicts",
		"doesn't add up", "blood", "fingerprints", "found this",
	}
	probingWords = []string{
		"secret", "hiding", "the truth", "really doing", "honest",
		"what aren't you", "holding back", "something else",
	}
)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// classifyQuestion maps a question's tone onto trust and nervousness
// deltas. Guilty suspects feel pressure more sharply; a friendly tone
// calms everyone.
func classifyQuestion(question string, isGuilty bool) questionImpact {
	lower := strings.ToLower(question)
	impact := questionImpact{probing: containsAny(lower, probingWords)}

	switch {
	case containsAny(lower, confrontationWords):
		impact.trustDelta = -5
		impact.nervousnessDelta = 20
		if isGuilty {
			impact.nervousnessDelta = 30
		}
	case containsAny(lower, aggressiveWords):
		impact.trustDelta = -10
		impact.nervousnessDelta = 15
		if isGuilty {
			impact.nervousnessDelta = 25
		}
	case containsAny(lower, friendlyWords):
		impact.trustDelta = 10
		impact.nervousnessDelta = -5
	default:
		// Neutral questions build a little rapport over time.
		impact.trustDelta = 3
		impact.nervousnessDelta = 0
		if isGuilty {
			impact.nervousnessDelta = 2
		}
	}

	return impact
}
