package snapshot

import (
	"math"
	"strings"
	"testing"
)

func TestScoreEvidence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		role Role
		text string
		want float64
	}{
		{"assistant plain", RoleAssistant, "hello", 0},
		{"user plain", RoleUser, "hello", 0.8},
		{"markers", RoleUser, "I'm building a prototype. How do I deploy it?", 0.8 + 3 + 1 + 2 + 0.6},
		{"problem marker", RoleUser, "I need to plan garden irrigation for spring.", 0.8 + 2},
		{"question mark not at end", RoleUser, "why? because", 0.8},
		{"question bonus is user only", RoleAssistant, "Shall we?", 0},
		{"fence and length", RoleAssistant, "```" + strings.Repeat("a", 600), 1.2 + 0.4},
		{"marker counted once", RoleUser, "book book book", 0.8 + 1},
	}
	for _, tc := range cases {
		got := ScoreEvidence(tc.role, tc.text)
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("%s: ScoreEvidence=%v, want %v", tc.name, got, tc.want)
		}
	}
}
