package synopsis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_JSON(t *testing.T) {
	t.Parallel()

	in := `{"headline":"Systems thinker","bio":"Builds tools.","thinks_about":["Civic tech",3,"Open data"],"energized_by":["Co-ops"],"background_signal":"Planner","cta":"Say hi"}`
	got := Parse(in)
	want := ProfileSynopsis{
		Headline:         "Systems thinker",
		Bio:              "Builds tools.",
		ThinksAbout:      []string{"Civic tech", "Open data"},
		EnergizedBy:      []string{"Co-ops"},
		BackgroundSignal: "Planner",
		CTA:              "Say hi",
		RawText:          in,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FencedJSON(t *testing.T) {
	t.Parallel()

	in := "Here is your profile:\n```json\n{\"headline\":\"H\",\"bio\":\"B\",\"thinks_about\":[],\"energized_by\":[]}\n```"
	got := Parse(in)
	if got.Headline != "H" || got.Bio != "B" {
		t.Fatalf("headline=%q bio=%q", got.Headline, got.Bio)
	}
	if len(got.ThinksAbout) != 0 {
		t.Fatalf("ThinksAbout=%v, want empty", got.ThinksAbout)
	}
	if got.RawText != in {
		t.Fatalf("RawText not preserved")
	}
}

func TestParse_InvalidJSONFallsBackToSections(t *testing.T) {
	t.Parallel()

	// Valid JSON, but not a synopsis shape.
	got := Parse(`{"headline": 42}`)
	if got.Headline != "Profile" {
		t.Fatalf("Headline=%q, want Profile", got.Headline)
	}
	if diff := cmp.Diff([]string{Pending}, got.ThinksAbout); diff != "" {
		t.Fatalf("ThinksAbout mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Sections(t *testing.T) {
	t.Parallel()

	in := `## Headline
Community-minded product builder

## Bio
I build small tools for neighborhood groups.

## Thinks About
- Mutual aid logistics
- Open civic data
- ok

## Energized by
• Cooperative ownership models
• Teaching workshops
## Background
Former librarian.
CTA: Reach out about civic tech.`

	got := Parse(in)
	want := ProfileSynopsis{
		Headline:         "Community-minded product builder",
		Bio:              "I build small tools for neighborhood groups.",
		ThinksAbout:      []string{"Mutual aid logistics", "Open civic data"},
		EnergizedBy:      []string{"Cooperative ownership models", "Teaching workshops"},
		BackgroundSignal: "Former librarian.\nCTA: Reach out about civic tech.",
		CTA:              "Reach out about civic tech.",
		RawText:          in,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_InlineLabels(t *testing.T) {
	t.Parallel()

	got := Parse("Headline: Curious generalist\nBio: Reads a lot.")
	if got.Headline != "Curious generalist" {
		t.Fatalf("Headline=%q", got.Headline)
	}
	if got.Bio != "Reads a lot." {
		t.Fatalf("Bio=%q", got.Bio)
	}
	if got.CTA != "" {
		t.Fatalf("CTA=%q, want empty", got.CTA)
	}
}

func TestParse_BoldLabels(t *testing.T) {
	t.Parallel()

	got := Parse("**Headline:** Bold builder\n**Bio:** Short.")
	if got.Headline != "Bold builder" {
		t.Fatalf("Headline=%q", got.Headline)
	}
	if got.Bio != "Short." {
		t.Fatalf("Bio=%q", got.Bio)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "synopsis.txt")
	if err := os.WriteFile(path, []byte("  Headline: From disk  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.Headline != "From disk" {
		t.Fatalf("Headline=%q", got.Headline)
	}
	if got.RawText != "Headline: From disk" {
		t.Fatalf("RawText=%q", got.RawText)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
