package snapshot

import "strings"

var (
	lowerProjectMarkers = lowerAll(Detection.ExplicitProjectMarkers)
	lowerArtifactTerms  = lowerAll(Detection.ArtifactTerms)
	lowerProblemMarkers = lowerAll(Detection.ProblemMarkers)
)

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// ScoreEvidence rates how much a message says about the author's projects and problems.
// Each marker contributes once no matter how often it occurs.
//
//	user author                 +0.8
//	explicit project marker     +3.0 each
//	artifact term               +1.0 each
//	problem marker              +2.0 each
//	user text ending in "?"     +0.6
//	contains a code fence       +1.2
//	longer than 500 chars       +0.4
func ScoreEvidence(role Role, text string) float64 {
	t := strings.ToLower(text)
	score := 0.0
	if role == RoleUser {
		score += 0.8
	}
	for _, p := range lowerProjectMarkers {
		if strings.Contains(t, p) {
			score += 3.0
		}
	}
	for _, a := range lowerArtifactTerms {
		if strings.Contains(t, a) {
			score += 1.0
		}
	}
	for _, d := range lowerProblemMarkers {
		if strings.Contains(t, d) {
			score += 2.0
		}
	}
	if role == RoleUser && strings.HasSuffix(strings.TrimSpace(text), "?") {
		score += 0.6
	}
	if strings.Contains(text, codeFence) {
		score += 1.2
	}
	if textLen(text) > 500 {
		score += 0.4
	}
	return score
}
