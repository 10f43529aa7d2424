package archive

import (
	"fmt"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/card"
	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
)

const (
	FormatID     = "PORTABLE_CHATGPT_DATA_TRANSFORMER_V0"
	ArtifactName = "Continuity Snapshot"

	maxProjects = 20
	maxConcepts = 15

	lowConfidence = "low"
	accessFull    = "full"
)

// Entry names inside the archive.
const (
	IndexFile       = "index.json"
	OverviewFile    = "overview.md"
	UsageModesFile  = "usage_modes.json"
	ProjectsFile    = "projects.json"
	ConceptsFile    = "concepts.json"
	EvidenceFile    = "evidence.jsonl"
	DigestFile      = "evidence_digest.md"
	DecisionsFile   = "decisions_open_questions.md"
	ReadmeFile      = "README.md"
	SynopsisFile    = "profile_synopsis.txt"
	SchemaDirectory = "schema/"
)

type indexDoc struct {
	Format              string              `json:"format"`
	ArtifactName        string              `json:"artifact_name"`
	ExportID            string              `json:"export_id"`
	GeneratedAt         string              `json:"generated_at"`
	Source              indexSource         `json:"source"`
	Privacy             indexPrivacy        `json:"privacy"`
	Files               indexFiles          `json:"files"`
	PreviewExpectations previewExpectations `json:"preview_expectations"`
}

type indexSource struct {
	Platform    string      `json:"platform"`
	ExportType  string      `json:"export_type"`
	ExportRange exportRange `json:"export_range"`
	Notes       string      `json:"notes"`
}

type exportRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type indexPrivacy struct {
	StoragePolicy  string `json:"storage_policy"`
	ProcessingNote string `json:"processing_note"`
	RedactionNote  string `json:"redaction_note"`
}

type indexFiles struct {
	Overview               string `json:"overview"`
	Readme                 string `json:"readme"`
	UsageModes             string `json:"usage_modes"`
	Projects               string `json:"projects"`
	Concepts               string `json:"concepts"`
	DecisionsOpenQuestions string `json:"decisions_open_questions"`
	Evidence               string `json:"evidence"`
	EvidenceDigest         string `json:"evidence_digest"`
	Synopsis               string `json:"profile_synopsis,omitempty"`
}

type previewExpectations struct {
	NoUserEditing bool   `json:"no_user_editing"`
	TrustBuilding string `json:"trust_building"`
}

func buildIndex(snap snapshot.Snapshot, exportID string, now time.Time, withSynopsis bool) indexDoc {
	doc := indexDoc{
		Format:       FormatID,
		ArtifactName: ArtifactName,
		ExportID:     exportID,
		GeneratedAt:  now.UTC().Format(time.RFC3339Nano),
		Source: indexSource{
			Platform:    "chatgpt",
			ExportType:  "json",
			ExportRange: exportRange{Start: snap.DateRange.First, End: snap.DateRange.Last},
			Notes:       "Derived from a representative sample for usage classification and a high-signal subset for evidence.",
		},
		Privacy: indexPrivacy{
			StoragePolicy:  "no_accounts_no_persistence",
			ProcessingNote: "Upload is processed once to generate outputs; no user accounts; no return access.",
			RedactionNote:  "This MVP does not guarantee perfect redaction. Avoid uploading if export includes highly sensitive data.",
		},
		Files: indexFiles{
			Overview:               OverviewFile,
			Readme:                 ReadmeFile,
			UsageModes:             UsageModesFile,
			Projects:               ProjectsFile,
			Concepts:               ConceptsFile,
			DecisionsOpenQuestions: DecisionsFile,
			Evidence:               EvidenceFile,
			EvidenceDigest:         DigestFile,
		},
		PreviewExpectations: previewExpectations{
			NoUserEditing: true,
			TrustBuilding: "Preview should show evidence snippets that support surfaced projects/concepts/usage categories.",
		},
	}
	if withSynopsis {
		doc.Files.Synopsis = SynopsisFile
	}
	return doc
}

type usageModesDoc struct {
	Method       usageMethod                         `json:"method"`
	Categories   []snapshot.UsageCategoryDef         `json:"categories"`
	Distribution *orderedmap.OrderedMap[string, int] `json:"distribution"`
}

type usageMethod struct {
	ClassificationUnit string `json:"classification_unit"`
	Approach           string `json:"approach"`
	Notes              string `json:"notes"`
}

// buildUsageModes lists every category in taxonomy order, with 0 for categories absent
// from the signature.
func buildUsageModes(snap snapshot.Snapshot) usageModesDoc {
	pct := make(map[string]int, len(snap.UsageSignature))
	for _, u := range snap.UsageSignature {
		pct[u.ID] = u.Pct
	}
	dist := orderedmap.New[string, int]()
	for _, c := range snapshot.UsageCategories {
		dist.Set(c.ID, pct[c.ID])
	}
	return usageModesDoc{
		Method: usageMethod{
			ClassificationUnit: "user_messages",
			Approach:           "representative_sampling_plus_intent_signals",
			Notes:              "Percentages are approximate. Low-confidence items are assigned to 'other_mixed'.",
		},
		Categories:   snapshot.UsageCategories,
		Distribution: dist,
	}
}

type projectsDoc struct {
	ProblemTypes      []snapshot.Labeled         `json:"problem_types"`
	ProjectTypes      []snapshot.Labeled         `json:"project_types"`
	DetectionMetadata snapshot.DetectionMetadata `json:"detection_metadata"`
	SummaryByProblem  []problemCount             `json:"summary_by_problem"`
	Projects          []projectDoc               `json:"projects"`
}

type problemCount struct {
	ProblemType   string `json:"problem_type"`
	CountEstimate int    `json:"count_estimate"`
}

type projectDoc struct {
	ProjectID        string            `json:"project_id"`
	Name             string            `json:"name"`
	Aliases          []string          `json:"aliases"`
	ProjectType      string            `json:"project_type"`
	ProblemType      string            `json:"problem_type"`
	ProblemStatement string            `json:"problem_statement"`
	SuccessLooksLike []string          `json:"success_looks_like"`
	Description      string            `json:"description"`
	Status           string            `json:"status"`
	PrimaryDomains   []string          `json:"primary_domains"`
	Timeline         projectTimeline   `json:"timeline"`
	Outputs          []any             `json:"outputs"`
	Decisions        []any             `json:"decisions"`
	OpenQuestions    []any             `json:"open_questions"`
	KeyMoments       []any             `json:"key_moments"`
	PromptPack       []any             `json:"prompt_pack"`
	Confidence       projectConfidence `json:"confidence"`
	Privacy          privacyDoc        `json:"privacy"`
}

type projectTimeline struct {
	FirstMentioned       *string `json:"first_mentioned"`
	LastMentioned        *string `json:"last_mentioned"`
	ActiveSpanLabel      *string `json:"active_span_label"`
	MentionCountEstimate *int    `json:"mention_count_estimate"`
}

type projectConfidence struct {
	ProjectDetected  string `json:"project_detected"`
	ProblemStatement string `json:"problem_statement"`
	Status           string `json:"status"`
}

type privacyDoc struct {
	AccessLevel string `json:"access_level"`
	Notes       string `json:"notes"`
}

// projectTypeIDs maps clusterer labels to the archive's project type ids.
var projectTypeIDs = map[string]string{
	"Writing · Publishing":    "writing_publishing",
	"Product · Platform":      "product_tool_building",
	"Technical · Engineering": "product_tool_building",
	"Business · Strategy":     "business_strategy",
	"Research · Frameworks":   "research_frameworks",
	"Design · Creative":       "creative_experimental",
	"Community · Organizing":  "other_mixed",
}

const otherMixed = "other_mixed"

func projectTypeID(label string) string {
	if id, ok := projectTypeIDs[label]; ok {
		return id
	}
	return otherMixed
}

func buildProjects(snap snapshot.Snapshot) projectsDoc {
	summary := make([]problemCount, 0, len(snapshot.ProblemTypes))
	for _, p := range snapshot.ProblemTypes {
		summary = append(summary, problemCount{ProblemType: p.ID})
	}

	projects := make([]projectDoc, 0, min(len(snap.TopProjects), maxProjects))
	for i, p := range snap.TopProjects {
		if i == maxProjects {
			break
		}
		status := string(p.Status)
		if status == "" {
			status = string(snapshot.StatusActive)
		}
		projects = append(projects, projectDoc{
			ProjectID:        fmt.Sprintf("proj_%03d", i+1),
			Name:             p.Name,
			Aliases:          []string{},
			ProjectType:      projectTypeID(p.ProjectType),
			ProblemType:      otherMixed,
			ProblemStatement: "Detected from conversation titles and recurrence.",
			SuccessLooksLike: []string{},
			Description:      card.ProjectDescription(p),
			Status:           status,
			PrimaryDomains:   []string{},
			Timeline:         timeline(p),
			Outputs:          []any{},
			Decisions:        []any{},
			OpenQuestions:    []any{},
			KeyMoments:       []any{},
			PromptPack:       []any{},
			Confidence:       projectConfidence{ProjectDetected: lowConfidence, ProblemStatement: lowConfidence, Status: lowConfidence},
			Privacy:          privacyDoc{AccessLevel: accessFull},
		})
	}

	return projectsDoc{
		ProblemTypes:      snapshot.ProblemTypes,
		ProjectTypes:      snapshot.ProjectTypes,
		DetectionMetadata: snapshot.Detection,
		SummaryByProblem:  summary,
		Projects:          projects,
	}
}

func timeline(p snapshot.ProjectSummary) projectTimeline {
	tl := projectTimeline{
		FirstMentioned: optional(p.FirstDate),
		LastMentioned:  optional(p.LastDate),
	}
	if p.FirstDate != "" || p.LastDate != "" {
		span := orUnknown(p.FirstDate) + " → " + orUnknown(p.LastDate)
		tl.ActiveSpanLabel = &span
	}
	return tl
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}

type conceptsDoc struct {
	SchemaVersion          string       `json:"schema_version"`
	ValuesTaxonomySchwartz enabledFlag  `json:"values_taxonomy_schwartz"`
	WorldviewLenses        []lensDoc    `json:"worldview_lenses"`
	ValuesTagsSchwartz     []any        `json:"values_tags_schwartz"`
	Concepts               []conceptDoc `json:"concepts"`
}

type enabledFlag struct {
	Enabled bool `json:"enabled"`
}

type lensDoc struct {
	snapshot.WorldviewLens
	ConceptIDs            []string     `json:"concept_ids"`
	SupportingEvidenceIDs []string     `json:"supporting_evidence_ids"`
	Coverage              lensCoverage `json:"coverage"`
	Confidence            string       `json:"confidence"`
}

type lensCoverage struct {
	ProjectCount              *int `json:"project_count"`
	ConversationCountEstimate int  `json:"conversation_count_estimate"`
	EvidenceCount             int  `json:"evidence_count"`
}

type conceptDoc struct {
	ConceptID             string            `json:"concept_id"`
	Name                  string            `json:"name"`
	Aliases               []string          `json:"aliases"`
	WorkingDefinition     string            `json:"working_definition"`
	SupportsWorldviewLens *string           `json:"supports_worldview_lens"`
	Tensions              []string          `json:"tensions"`
	RelatedProjects       []string          `json:"related_projects"`
	Timeline              conceptTimeline   `json:"timeline"`
	KeyConversations      []any             `json:"key_conversations"`
	EvidenceTop           []string          `json:"evidence_top"`
	Confidence            conceptConfidence `json:"confidence"`
	Privacy               privacyDoc        `json:"privacy"`
}

type conceptTimeline struct {
	FirstMentioned       *string `json:"first_mentioned"`
	LastMentioned        *string `json:"last_mentioned"`
	MentionCountEstimate int     `json:"mention_count_estimate"`
}

type conceptConfidence struct {
	ConceptDetected string `json:"concept_detected"`
	Definition      string `json:"definition"`
}

func buildConcepts(snap snapshot.Snapshot) conceptsDoc {
	lenses := make([]lensDoc, 0, len(snapshot.WorldviewLenses))
	for _, l := range snapshot.WorldviewLenses {
		lenses = append(lenses, lensDoc{
			WorldviewLens:         l,
			ConceptIDs:            []string{},
			SupportingEvidenceIDs: []string{},
			Confidence:            lowConfidence,
		})
	}

	concepts := make([]conceptDoc, 0, min(len(snap.InterestTags), maxConcepts))
	for i, tag := range snap.InterestTags {
		if i == maxConcepts {
			break
		}
		concepts = append(concepts, conceptDoc{
			ConceptID:         fmt.Sprintf("con_%03d", i+1),
			Name:              fileutils.Capitalize(tag),
			Aliases:           []string{},
			WorkingDefinition: "Recurring theme derived from your conversation language.",
			Tensions:          []string{},
			RelatedProjects:   []string{},
			KeyConversations:  []any{},
			EvidenceTop:       []string{},
			Confidence:        conceptConfidence{ConceptDetected: lowConfidence, Definition: lowConfidence},
			Privacy:           privacyDoc{AccessLevel: accessFull},
		})
	}

	return conceptsDoc{
		SchemaVersion:          "0.1",
		ValuesTaxonomySchwartz: enabledFlag{Enabled: true},
		WorldviewLenses:        lenses,
		ValuesTagsSchwartz:     []any{},
		Concepts:               concepts,
	}
}

// joinNonEmpty joins the non-empty parts with sep.
func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
