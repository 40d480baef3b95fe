package translator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		input         string
		wantQuery     string
		wantAddressed bool
	}{
		{"empty", "", "", false},
		{"plain cypher", "MATCH (n) RETURN n", "MATCH (n) RETURN n", false},
		{"prefix not at start", "hi 🤖, there", "hi 🤖, there", false},
		{"emoji without separator", "🤖how many", "🤖how many", false},
		{"lowercase first letter", "🤖, how many nodes", "How many nodes", true},
		{"already uppercase", "🤖, How many nodes", "How many nodes", true},
		{"rest untouched", "🤖, count 'message' NODES", "Count 'message' NODES", true},
		{"multibyte first rune", "🤖, ñandú count", "Ñandú count", true},
		{"non-letter first rune", "🤖, (n) count", "(n) count", true},
		{"prefix only", "🤖, ", "", true},
		{"double prefix", "🤖, 🤖, x", "🤖, x", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gotQuery, gotAddressed := Gate(tc.input)
			assert.Equal(t, tc.wantAddressed, gotAddressed, "addressed")
			assert.Equal(t, tc.wantQuery, gotQuery, "query")
		})
	}
}
