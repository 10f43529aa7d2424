// Package synopsis parses a free-text profile summary (typically pasted from an assistant
// reply) into a structured ProfileSynopsis.
package synopsis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
)

// Pending is the placeholder used when a bullet list could not be recovered.
const Pending = "(Synopsis pending)"

const defaultHeadline = "Profile"

type ProfileSynopsis struct {
	Headline         string   `json:"headline"`
	Bio              string   `json:"bio"`
	ThinksAbout      []string `json:"thinks_about"`
	EnergizedBy      []string `json:"energized_by"`
	BackgroundSignal string   `json:"background_signal"`
	CTA              string   `json:"cta"`
	RawText          string   `json:"raw_text"`
}

// Parse never fails: text that is not a JSON synopsis falls back to header-based section
// extraction, and missing sections get defaults.
func Parse(text string) ProfileSynopsis {
	raw := strings.TrimSpace(text)

	var w wireSynopsis
	if err := fileutils.DecodeEmbeddedJSON(raw, &w); err == nil {
		s := w.synopsis()
		s.RawText = raw
		return s
	}
	return parseSections(raw)
}

// LoadFile reads and parses a synopsis file.
func LoadFile(path string) (ProfileSynopsis, error) {
	if path == "" {
		return ProfileSynopsis{}, errors.New("synopsis.LoadFile: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return ProfileSynopsis{}, fmt.Errorf("synopsis.LoadFile: %w", err)
	}
	return Parse(string(b)), nil
}

var errNotSynopsis = errors.New("json object is not a synopsis")

// wireSynopsis accepts any object whose headline and bio are strings and whose
// thinks_about and energized_by are arrays.
type wireSynopsis struct {
	Headline         string
	Bio              string
	ThinksAbout      []string
	EnergizedBy      []string
	BackgroundSignal string
	CTA              string
}

func (w *wireSynopsis) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	if obj == nil {
		return errNotSynopsis
	}
	var ok bool
	if w.Headline, ok = rawString(obj["headline"]); !ok {
		return errNotSynopsis
	}
	if w.Bio, ok = rawString(obj["bio"]); !ok {
		return errNotSynopsis
	}
	if w.ThinksAbout, ok = rawStrings(obj["thinks_about"]); !ok {
		return errNotSynopsis
	}
	if w.EnergizedBy, ok = rawStrings(obj["energized_by"]); !ok {
		return errNotSynopsis
	}
	w.BackgroundSignal, _ = rawString(obj["background_signal"])
	w.CTA, _ = rawString(obj["cta"])
	return nil
}

func (w wireSynopsis) synopsis() ProfileSynopsis {
	return ProfileSynopsis{
		Headline:         w.Headline,
		Bio:              w.Bio,
		ThinksAbout:      w.ThinksAbout,
		EnergizedBy:      w.EnergizedBy,
		BackgroundSignal: w.BackgroundSignal,
		CTA:              w.CTA,
	}
}

func rawString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// rawStrings decodes a JSON array, keeping only its string elements.
func rawStrings(raw json.RawMessage) ([]string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := rawString(it); ok {
			out = append(out, s)
		}
	}
	return out, true
}

var (
	headlineKeys   = []string{"headline", "identity", "title"}
	bioKeys        = []string{"bio", "identity statement", "about"}
	thinksKeys     = []string{"think about", "thinks about", "i think about", "worldview"}
	energizedKeys  = []string{"energized by", "excited by", "i'm energized", "looking for"}
	backgroundKeys = []string{"background signal", "background", "context"}
	ctaKeys        = []string{"cta", "call to action", "if you"}
)

func parseSections(text string) ProfileSynopsis {
	s := ProfileSynopsis{
		Headline:         extractSection(text, headlineKeys),
		Bio:              extractSection(text, bioKeys),
		ThinksAbout:      extractBullets(text, thinksKeys),
		EnergizedBy:      extractBullets(text, energizedKeys),
		BackgroundSignal: extractSection(text, backgroundKeys),
		CTA:              extractSection(text, ctaKeys),
		RawText:          text,
	}
	if s.Headline == "" {
		s.Headline = defaultHeadline
	}
	if len(s.ThinksAbout) == 0 {
		s.ThinksAbout = []string{Pending}
	}
	if len(s.EnergizedBy) == 0 {
		s.EnergizedBy = []string{Pending}
	}
	return s
}

// extractSection finds the first keyword that heads a section in one of three shapes:
// a "## Keyword" markdown header, a "**Keyword:**" bold label, or a "Keyword: value" line.
// The first match wins even if its body is blank.
func extractSection(text string, keywords []string) string {
	for _, kw := range keywords {
		q := regexp.QuoteMeta(kw)

		if loc := regexp.MustCompile(`(?i)(?:^|\n)##\s*` + q + `[:\s]*\n`).FindStringIndex(text); loc != nil {
			if body := sectionBody(text[loc[1]:], "\n##"); body != "" {
				return strings.TrimSpace(body)
			}
		}
		if loc := regexp.MustCompile(`(?i)(?:^|\n)\*\*` + q + `[:\s]*\*\*[:\s]*\n?`).FindStringIndex(text); loc != nil {
			if body := sectionBody(text[loc[1]:], "\n**", "\n##"); body != "" {
				return strings.TrimSpace(body)
			}
		}
		if m := regexp.MustCompile(`(?i)(?:^|\n)` + q + `[:\s]+([^\n]+)`).FindStringSubmatch(text); m != nil && m[1] != "" {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// sectionBody returns rest up to the earliest of the given terminators.
func sectionBody(rest string, terminators ...string) string {
	end := len(rest)
	for _, t := range terminators {
		if i := strings.Index(rest, t); i >= 0 && i < end {
			end = i
		}
	}
	return rest[:end]
}

var bulletPrefix = regexp.MustCompile(`^[\s*\-•]+`)

func extractBullets(text string, keywords []string) []string {
	section := extractSection(text, keywords)
	if section == "" {
		return nil
	}
	var out []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if len([]rune(line)) > 5 {
			out = append(out, line)
		}
	}
	return out
}
