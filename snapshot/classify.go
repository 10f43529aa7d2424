package snapshot

import (
	"regexp"
	"strings"
)

const codeFence = "```"

var codeLinePattern = regexp.MustCompile(
	`^\s*(?:[{}\[\]();=<>/#]|(?:import|export|const|let|var|function|class|def|return|if|else|for|while)\b|[a-zA-Z_]\w*\()`,
)

// estimateCodeRatio returns the fraction of newline-separated lines that look like code.
func estimateCodeRatio(text string) float64 {
	lines := strings.Split(text, "\n")
	code := 0
	for _, l := range lines {
		if codeLinePattern.MatchString(l) {
			code++
		}
	}
	return float64(code) / float64(len(lines))
}

// classifyByStructure is the fallback used when no keyword matched. It returns "" when the
// text has no decisive shape.
func classifyByStructure(text string) string {
	hasFence := strings.Contains(text, codeFence)
	ratio := estimateCodeRatio(text)
	n := textLen(text)

	switch {
	case hasFence || ratio > 0.4:
		return CategoryTechnicalCoding
	case n < 120 && strings.HasSuffix(strings.TrimSpace(text), "?"):
		return CategoryResearchExplanation
	case n > 500 && ratio < 0.1:
		return CategoryWritingEditing
	}
	return ""
}

// Classifier assigns a usage category to a single user message.
type Classifier struct {
	maxChars int
}

func NewClassifier(t Tuning) *Classifier {
	return &Classifier{maxChars: t.ClassifierMaxChars}
}

// Classify runs three passes: keyword scoring over the lowercased prefix of text, then the
// structural fallback, then signal matching against the conversation title. Anything left
// over is other_mixed.
func (c *Classifier) Classify(text string, title *string) string {
	lower := truncateUnits(strings.ToLower(text), c.maxChars)

	bestID, bestScore := CategoryOtherMixed, 0
	for _, cat := range UsageCategories {
		score := 0
		for _, s := range cat.Signals {
			if strings.Contains(lower, s) {
				score++
			}
		}
		if score > bestScore {
			bestID, bestScore = cat.ID, score
		}
	}
	if bestScore >= 1 {
		return bestID
	}

	if id := classifyByStructure(text); id != "" {
		return id
	}

	if title != nil && *title != "" {
		titleLower := strings.ToLower(*title)
		for _, cat := range UsageCategories {
			if cat.ID == CategoryOtherMixed {
				continue
			}
			for _, s := range cat.Signals {
				if strings.Contains(titleLower, s) {
					return cat.ID
				}
			}
		}
	}
	return CategoryOtherMixed
}
