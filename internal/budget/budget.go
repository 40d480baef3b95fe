// Package budget estimates the token footprint of a translation prompt.
// Chat backends use different tokenizers, so the estimate is a
// character heuristic: 1 token ≈ 4 characters of English prose or Cypher.
// The translator only warns on an oversized prompt; retrieved documents are
// never dropped.
package budget

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// perTurnOverhead approximates the framing tokens most chat APIs add to
	// every message.
	perTurnOverhead = 4

	// DefaultMaxPromptTokens fits within 8k-context models (gpt-3.5-turbo,
	// Llama 3 8B) while leaving room for the generated statement.
	DefaultMaxPromptTokens = 6000
)

// Turn is one role/content pair of a chat prompt.
type Turn struct {
	Role    string
	Content string
}

// Estimate returns a rough token count for s.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateTurns returns the estimated total token count of turns, summing
// role and content plus per-turn overhead.
func EstimateTurns(turns []Turn) int {
	total := 0
	for _, t := range turns {
		total += perTurnOverhead
		total += Estimate(t.Role)
		total += Estimate(t.Content)
	}
	return total
}

// Check estimates turns and reports whether the estimate exceeds maxTokens.
// A non-positive maxTokens disables the check.
func Check(turns []Turn, maxTokens int) (estimated int, over bool) {
	estimated = EstimateTurns(turns)
	return estimated, maxTokens > 0 && estimated > maxTokens
}
