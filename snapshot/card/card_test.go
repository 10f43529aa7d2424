package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/synopsis"
)

func sampleSnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		ConversationCount: 12,
		MessageCount:      80,
		UsageSignature: []snapshot.UsageCategory{
			{ID: "technical_coding", Label: "Technical / coding help", Count: 5, Pct: 41},
			{ID: "idea_generation", Label: "Idea generation / brainstorming", Count: 3, Pct: 25},
			{ID: "writing_creative", Label: "Writing & creative", Count: 2, Pct: 17},
			{ID: "research_explanation", Label: "Research & explanation", Count: 1, Pct: 9},
			{ID: "planning_organization", Label: "Planning & organization", Count: 1, Pct: 8},
		},
		TopProjects: []snapshot.ProjectSummary{
			{Name: "A very long project name that keeps going on", FirstDate: "2025-01-01", LastDate: "2025-03-01"},
			{Name: "Garden", LastDate: "2025-04-02"},
			{Name: "Undated"},
			{Name: "Fourth"},
		},
		InterestTags: []string{"garden irrigation", "sourdough", "Rust", "chess", "birding", "maps", "tides"},
	}
}

func TestFromSnapshot_Defaults(t *testing.T) {
	t.Parallel()

	d := FromSnapshot(sampleSnapshot(), Customization{}, nil)

	assert.Equal(t, DefaultName, d.Name)
	assert.Equal(t, "Technical. Idea generation. Writing.", d.Tagline)

	require.Len(t, d.Tags, 5)
	assert.Equal(t, Tag{Label: "Garden irrigation", Variant: TagFilled}, d.Tags[0])
	assert.Equal(t, TagTonal, d.Tags[1].Variant)
	assert.Equal(t, TagTonal, d.Tags[2].Variant)
	assert.Equal(t, TagOutlined, d.Tags[3].Variant)

	require.Len(t, d.UsageModes, 4)
	assert.Equal(t, "Technical / coding help", d.UsageModes[0].Label)
	assert.Equal(t, "Idea generation / brainstorming", d.UsageModes[1].Label)
	assert.Equal(t, 100-41-25-17, d.UsageModes[3].Percent)
	assert.Equal(t, "quaternary", d.UsageModes[3].Color)
	sum := 0
	for _, m := range d.UsageModes {
		sum += m.Percent
	}
	assert.Equal(t, 100, sum)

	require.Len(t, d.Projects, 3)
	assert.Equal(t, "A very long project name that ke", d.Projects[0].Name)
	assert.Equal(t, "2025-01-01 — 2025-03-01", d.Projects[0].Description)
	assert.Equal(t, "2025-04-02", d.Projects[1].Description)
	assert.Equal(t, DefaultDescription, d.Projects[2].Description)
	assert.Equal(t, "tertiary", d.Projects[2].PipColor)

	assert.Equal(t, []string{"Garden irrigation", "Sourdough", "Rust", "Chess", "Birding", "Maps"}, d.Lenses)
}

func TestFromSnapshot_CustomizationAndSynopsis(t *testing.T) {
	t.Parallel()

	c := Customization{DisplayName: "Sam", Role: "Organizer", Location: "Oakland", Tagline: "Custom line"}

	d := FromSnapshot(sampleSnapshot(), c, nil)
	assert.Equal(t, "Sam", d.Name)
	assert.Equal(t, "Organizer", d.Role)
	assert.Equal(t, "Oakland", d.Location)
	assert.Equal(t, "Custom line", d.Tagline)

	syn := &synopsis.ProfileSynopsis{
		Headline:    "Civic technologist",
		ThinksAbout: []string{"Mutual aid", "Open data"},
		EnergizedBy: []string{"Workshops"},
	}
	d = FromSnapshot(sampleSnapshot(), c, syn)
	assert.Equal(t, "Civic technologist", d.Tagline)
	assert.Equal(t, []Tag{{Label: "Mutual aid", Variant: TagFilled}, {Label: "Open data", Variant: TagTonal}}, d.Tags)
	assert.Equal(t, []string{"Workshops"}, d.Lenses)
}

func TestFromSnapshot_Empty(t *testing.T) {
	t.Parallel()

	d := FromSnapshot(snapshot.Snapshot{}, Customization{}, nil)
	assert.Equal(t, "", d.Tagline)
	assert.Empty(t, d.Tags)
	assert.Empty(t, d.UsageModes)
	assert.Empty(t, d.Projects)
	assert.Empty(t, d.Lenses)
}

func TestUsageModes_SingleCategory(t *testing.T) {
	t.Parallel()

	modes := usageModes([]snapshot.UsageCategory{{Label: "Writing & creative", Pct: 100}, {Label: "Other", Pct: 0}})
	require.Len(t, modes, 1)
	assert.Equal(t, UsageMode{Label: "Writing", Percent: 100, Color: "primary"}, modes[0])
}
