package snapshot

import (
	"strings"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestClassifier_Classify(t *testing.T) {
	t.Parallel()

	prose := strings.Repeat("The sun rose over the quiet hills and the birds sang softly. ", 12)

	cases := []struct {
		name  string
		text  string
		title *string
		want  string
	}{
		{name: "keyword", text: "help me think through my plan", want: CategoryIdeaSensemaking},
		{name: "keyword beats title", text: "rewrite this paragraph", title: strPtr("python bug"), want: CategoryWritingEditing},
		{name: "code fence", text: "```\nx := 1\n```", want: CategoryTechnicalCoding},
		{name: "code lines", text: "x := 1\nfoo(2)\n}\n", want: CategoryTechnicalCoding},
		{name: "short question", text: "Who won the 1998 world cup?", want: CategoryResearchExplanation},
		{name: "long prose", text: prose, want: CategoryWritingEditing},
		{name: "title hint", text: "Tell me a joke", title: strPtr("Explain photosynthesis"), want: CategoryResearchExplanation},
		{name: "fallback", text: "Tell me a joke", title: strPtr("Saturday"), want: CategoryOtherMixed},
		{name: "nil title", text: "Tell me a joke", want: CategoryOtherMixed},
	}

	c := NewClassifier(DefaultTuning())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := c.Classify(tc.text, tc.title); got != tc.want {
				t.Fatalf("Classify=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestClassifier_TieGoesToEarlierCategory(t *testing.T) {
	t.Parallel()

	// One idea signal ("brainstorm") and one writing signal ("rephrase").
	c := NewClassifier(DefaultTuning())
	if got := c.Classify("brainstorm and rephrase", nil); got != CategoryIdeaSensemaking {
		t.Fatalf("Classify=%q, want %q", got, CategoryIdeaSensemaking)
	}
}

func TestClassifier_OnlyScansPrefix(t *testing.T) {
	t.Parallel()

	tuning := DefaultTuning()
	tuning.ClassifierMaxChars = 20
	c := NewClassifier(tuning)

	text := "Tell me a joke today and then debug the python stack trace"
	// Keywords sit past the prefix; the text is short prose without a question mark, so
	// every pass falls through.
	if got := c.Classify(text, nil); got != CategoryOtherMixed {
		t.Fatalf("Classify=%q, want %q", got, CategoryOtherMixed)
	}
}

func TestEstimateCodeRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want float64
	}{
		{"plain words", 0},
		{"import os\nprint(1)", 1},
		{"# heading\nsome prose\nmore prose\n// comment", 0.5},
		{"", 0},
	}
	for _, tc := range cases {
		if got := estimateCodeRatio(tc.text); got != tc.want {
			t.Fatalf("estimateCodeRatio(%q)=%v, want %v", tc.text, got, tc.want)
		}
	}
}
