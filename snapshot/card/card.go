// Package card derives the data for a shareable networking card from a snapshot, optional
// user customization and an optional profile synopsis.
package card

import (
	"strings"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
	"github.com/theimaginaryfoundation/pdt/snapshot/synopsis"
)

const (
	DefaultName        = "ChatGPT user"
	DefaultDescription = "From your conversation history."

	maxTags          = 5
	maxUsageModes    = 4
	maxProjects      = 3
	maxLenses        = 6
	maxTagline       = 80
	maxSynopsisTag   = 40
	maxInterestTag   = 28
	maxUsageLabel    = 32
	maxProjectName   = 32
	maxSynopsisLens  = 32
	maxInterestLens  = 24
	autoTaglineModes = 3
)

type TagVariant string

const (
	TagFilled   TagVariant = "filled"
	TagTonal    TagVariant = "tonal"
	TagOutlined TagVariant = "outlined"
)

type Tag struct {
	Label   string     `json:"label"`
	Variant TagVariant `json:"variant"`
}

type UsageMode struct {
	Label   string `json:"label"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PipColor    string `json:"pipColor"`
}

// Data is the render-ready card payload.
type Data struct {
	Name        string      `json:"name"`
	Role        string      `json:"role"`
	Tagline     string      `json:"tagline"`
	Location    string      `json:"location"`
	Tags        []Tag       `json:"tags"`
	UsageModes  []UsageMode `json:"usageModes"`
	Projects    []Project   `json:"projects"`
	Lenses      []string    `json:"lenses"`
	Attribution string      `json:"attribution,omitempty"`
}

// Customization holds user-supplied overrides. Empty fields fall back to defaults.
type Customization struct {
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
	Location    string `json:"location,omitempty"`
	Tagline     string `json:"tagline,omitempty"`
}

var (
	usageColors = []string{"primary", "secondary", "tertiary", "quaternary"}
	pipColors   = []string{"primary", "secondary", "tertiary"}
)

// FromSnapshot builds card data. Synopsis content, when present, takes priority over
// snapshot-derived tags, lenses and tagline; usage modes and projects always come from the
// snapshot.
func FromSnapshot(snap snapshot.Snapshot, c Customization, syn *synopsis.ProfileSynopsis) Data {
	d := Data{
		Name:     firstNonEmpty(c.DisplayName, DefaultName),
		Role:     c.Role,
		Location: c.Location,
	}

	headline := ""
	if syn != nil {
		headline = syn.Headline
	}
	d.Tagline = truncate(firstNonEmpty(headline, c.Tagline, autoTagline(snap.UsageSignature)), maxTagline)

	d.Tags = tags(snap, syn)
	d.UsageModes = usageModes(snap.UsageSignature)
	d.Projects = projects(snap.TopProjects)
	d.Lenses = lenses(snap, syn)
	return d
}

// autoTagline turns the top usage labels into short sentences, e.g.
// "Idea generation. Writing. Technical."
func autoTagline(sig []snapshot.UsageCategory) string {
	var parts []string
	for _, u := range sig {
		if u.Pct <= 0 {
			continue
		}
		label := strings.SplitN(u.Label, " &", 2)[0]
		label = strings.SplitN(label, " /", 2)[0]
		parts = append(parts, label+".")
		if len(parts) == autoTaglineModes {
			break
		}
	}
	return strings.Join(parts, " ")
}

func variantFor(i int) TagVariant {
	switch {
	case i == 0:
		return TagFilled
	case i <= 2:
		return TagTonal
	}
	return TagOutlined
}

func tags(snap snapshot.Snapshot, syn *synopsis.ProfileSynopsis) []Tag {
	out := make([]Tag, 0, maxTags)
	if syn != nil && len(syn.ThinksAbout) > 0 {
		for i, t := range head(syn.ThinksAbout, maxTags) {
			out = append(out, Tag{Label: truncate(t, maxSynopsisTag), Variant: variantFor(i)})
		}
		return out
	}
	for i, t := range head(snap.InterestTags, maxTags) {
		out = append(out, Tag{Label: truncate(fileutils.Capitalize(t), maxInterestTag), Variant: variantFor(i)})
	}
	return out
}

// usageModes keeps the top four categories; the last one absorbs rounding so the shown
// percentages add to 100.
func usageModes(sig []snapshot.UsageCategory) []UsageMode {
	var top []snapshot.UsageCategory
	for _, u := range sig {
		if u.Pct > 0 {
			top = append(top, u)
		}
	}
	top = head(top, maxUsageModes)

	out := make([]UsageMode, 0, len(top))
	sum := 0
	for i, u := range top {
		pct := u.Pct
		if i == len(top)-1 {
			pct = max(0, 100-sum)
		}
		sum += u.Pct
		out = append(out, UsageMode{
			Label:   truncate(strings.SplitN(u.Label, " &", 2)[0], maxUsageLabel),
			Percent: pct,
			Color:   usageColors[i],
		})
	}
	return out
}

func projects(ps []snapshot.ProjectSummary) []Project {
	out := make([]Project, 0, maxProjects)
	for i, p := range head(ps, maxProjects) {
		out = append(out, Project{
			Name:        truncate(p.Name, maxProjectName),
			Description: ProjectDescription(p),
			PipColor:    pipColors[i],
		})
	}
	return out
}

// ProjectDescription is the known dates joined by an em dash, else a generic line.
func ProjectDescription(p snapshot.ProjectSummary) string {
	var dates []string
	for _, d := range []string{p.FirstDate, p.LastDate} {
		if d != "" {
			dates = append(dates, d)
		}
	}
	if len(dates) > 0 {
		return strings.Join(dates, " — ")
	}
	return DefaultDescription
}

func lenses(snap snapshot.Snapshot, syn *synopsis.ProfileSynopsis) []string {
	out := make([]string, 0, maxLenses)
	if syn != nil && len(syn.EnergizedBy) > 0 {
		for _, l := range head(syn.EnergizedBy, maxLenses) {
			out = append(out, truncate(l, maxSynopsisLens))
		}
		return out
	}
	for _, t := range head(snap.InterestTags, maxLenses) {
		out = append(out, truncate(fileutils.Capitalize(t), maxInterestLens))
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
