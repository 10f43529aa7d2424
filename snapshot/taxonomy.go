package snapshot

// Usage category ids. Declaration order in UsageCategories is significant: it breaks
// keyword-score ties and drives the title-hint pass.
const (
	CategoryIdeaSensemaking     = "idea_sensemaking"
	CategoryWritingEditing      = "writing_editing"
	CategoryBusinessPlanning    = "business_planning"
	CategoryResearchExplanation = "research_explanation"
	CategoryTechnicalCoding     = "technical_coding"
	CategoryPersonalReflection  = "personal_reflection"
	CategoryOtherMixed          = "other_mixed"
)

// UsageCategoryDef is one row of the fixed usage taxonomy.
type UsageCategoryDef struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Definition string   `json:"definition"`
	Seeds      []string `json:"examples_of_signals"`

	// Signals is the full keyword list scanned by the classifier: the seeds followed by
	// naturalistic phrasings. All entries are lowercase.
	Signals []string `json:"-"`
}

// UsageCategories is the usage taxonomy in declaration order.
var UsageCategories = []UsageCategoryDef{
	{
		ID:         CategoryIdeaSensemaking,
		Label:      "Idea generation & sensemaking",
		Definition: "Exploring ideas, pressure-testing assumptions, working through complex questions, thinking out loud.",
		Seeds:      []string{"what if", "help me think", "pressure test", "does this make sense", "map out"},
		Signals: []string{
			"what if", "help me think", "pressure test", "does this make sense", "map out",
			"brainstorm", "think through", "make sense of", "how would you approach",
			"trade-off", "tradeoff", "pros and cons", "mental model", "framework",
			"thought experiment", "hypothetically", "synthesize", "gut check",
			"sanity check", "stress test", "poke holes", "explore the idea",
			"weigh the options", "rethink", "riff on", "unpack", "disentangle",
			"i'm torn", "on the one hand", "thoughts on", "wondering if",
			"would it work", "figure out", "wrap my head", "thinking about",
			"consider", "evaluate", "alternative", "perspective", "angle",
			"implications", "what do you think", "your take", "feedback on",
			"react to", "push back", "devil's advocate", "play out",
		},
	},
	{
		ID:         CategoryWritingEditing,
		Label:      "Writing & editing",
		Definition: "Drafting, rewriting, refining tone, summarizing, restructuring text.",
		Seeds:      []string{"rewrite", "edit", "tighten", "make this clearer", "tone", "draft"},
		Signals: []string{
			"rewrite", "edit", "tighten", "make this clearer", "tone", "draft",
			"rephrase", "shorten", "write me", "write a", "proofread", "revise",
			"polish", "summarize", "blog post", "article", "essay", "headline",
			"caption", "bio", "blurb", "outline", "script", "newsletter",
			"tweet", "copy for", "draft a", "word choice", "more concise",
			"substack", "email draft", "subject line", "talking points",
			"flow", "structure", "paragraph", "sentence", "wording", "phrasing",
			"narrative", "voice", "audience", "reader", "iteration",
			"punch up", "tighten up", "wordsmith", "messaging",
		},
	},
	{
		ID:         CategoryBusinessPlanning,
		Label:      "Business & project planning",
		Definition: "Product strategy, planning next steps, positioning, roadmaps, prioritization.",
		Seeds:      []string{"mvp", "roadmap", "strategy", "positioning", "launch plan", "next steps"},
		Signals: []string{
			"mvp", "roadmap", "strategy", "positioning", "launch plan", "next steps",
			"priorit", "milestone", "timeline", "scope", "pricing", "revenue",
			"market", "competitor", "go-to-market", "business model", "pitch",
			"investor", "funnel", "growth", "onboarding", "user journey",
			"okr", "kpi", "deliverable", "sprint", "project plan",
			"product strategy", "value prop", "pricing model",
			"target audience", "user persona", "competitive", "differentiation",
			"cost", "budget", "forecast", "metrics", "conversion", "retention",
			"churn", "segment", "stakeholder", "deadline", "backlog",
		},
	},
	{
		ID:         CategoryResearchExplanation,
		Label:      "Research & explanation",
		Definition: "Asking for background, definitions, comparisons, explanations to build understanding.",
		Seeds:      []string{"what is", "why does", "explain", "compare", "definition", "research"},
		Signals: []string{
			"what is", "why does", "explain", "compare", "definition", "research",
			"how does", "tell me about", "difference between", "history of",
			"overview of", "example of", "define", "clarify", "meaning of",
			"literature", "study", "paper", "reference", "citation", "evidence",
			"according to", "can you explain", "in simple terms",
			"background on", "context for", "elaborate", "instance",
			"specifically", "dig into", "walk me through", "break down",
			"layman", "simplified", "detail", "nuance", "source", "fact check",
		},
	},
	{
		ID:         CategoryTechnicalCoding,
		Label:      "Technical / coding help",
		Definition: "Coding, debugging, technical design, implementation guidance.",
		Seeds:      []string{"error", "stack trace", "function", "api", "schema", "python", "javascript"},
		Signals: []string{
			"error", "stack trace", "function", "api", "schema", "python", "javascript",
			"typescript", "code", "debug", "bug", "fix this",
			"compile", "runtime", "syntax", "import", "module", "npm",
			"docker", "deploy", "endpoint", "database", "query", "sql",
			"json", "html", "css", "react", "component", "refactor", "git",
			"commit", "server", "backend", "frontend", "localhost", "async",
			"implementation", "algorithm", "regex", "parse", "render", "state",
			"hook", "middleware", "route", "migration", "test", "spec", "lint",
			"build", "package", "dependency", "config", "environment",
			"loop", "array", "map", "filter", "reduce",
		},
	},
	{
		ID:         CategoryPersonalReflection,
		Label:      "Personal reflection & sensemaking",
		Definition: "Values exploration, emotional processing, identity/meaning questions.",
		Seeds:      []string{"i feel", "i'm struggling", "what does it mean", "relationship", "values"},
		Signals: []string{
			"i feel", "i'm struggling", "what does it mean", "relationship", "values",
			"emotional", "overwhelmed", "anxious", "excited about",
			"grateful", "frustrated", "burned out", "self-care", "boundary",
			"identity", "purpose", "calling", "passion", "fear",
			"personal growth", "healing", "therapy", "self-reflection",
			"who am i", "what matters to me", "processing", "sitting with",
			"bothered", "inspired", "motivated", "unmotivated", "stuck",
			"breakthrough", "clarity", "confused", "conflicted", "proud",
			"disappointed", "hopeful", "worried", "uncertain", "vulnerable",
			"authentic", "meaningful",
		},
	},
	{
		ID:         CategoryOtherMixed,
		Label:      "Other / mixed",
		Definition: "Items that do not cleanly fit a primary category or are low-confidence.",
		Seeds:      []string{},
	},
}

// UsageCategoryByID returns the taxonomy row for id.
func UsageCategoryByID(id string) (UsageCategoryDef, bool) {
	for _, c := range UsageCategories {
		if c.ID == id {
			return c, true
		}
	}
	return UsageCategoryDef{}, false
}

// DetectionMetadata holds the marker phrases used by the evidence scorer. It is also
// published verbatim in the archive's projects.json.
type DetectionMetadata struct {
	ExplicitProjectMarkers []string          `json:"explicit_project_markers"`
	ArtifactTerms          []string          `json:"artifact_terms"`
	ProblemMarkers         []string          `json:"problem_markers"`
	PromotionRules         map[string]string `json:"promotion_rules"`
}

var Detection = DetectionMetadata{
	ExplicitProjectMarkers: []string{
		"my project is", "I'm working on a project", "this project is about", "for this project",
		"the project I'm building", "I'm calling this", "I want to turn this into a project",
		"this started as a project", "I've been developing", "I'm prototyping", "I'm launching",
		"I'm building", "I'm designing", "I'm writing", "I'm working on", "I've been working on",
		"I want to ship", "I want to release", "I want to publish",
	},
	ArtifactTerms: []string{
		"project", "mvp", "roadmap", "feature", "deck", "prototype", "spec", "schema", "outline",
		"draft", "article", "essay", "book", "calculator", "tool", "framework", "model",
	},
	ProblemMarkers: []string{
		"I'm trying to", "I need to", "the problem is", "I'm stuck", "I'm worried", "how do I",
	},
	PromotionRules: map[string]string{
		"project_threshold": ">= 3 distinct conversations OR >= 1 sustained deep thread OR explicit project naming",
		"problem_required":  "Each project should attempt a 'problem_statement' and 'problem_type'. If unclear, set to 'other_mixed' with low confidence.",
	},
}

// Labeled is an id/label pair used by the archive taxonomies.
type Labeled struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

var ProblemTypes = []Labeled{
	{ID: "work_process", Label: "Work process & workflow"},
	{ID: "product_strategy", Label: "Product strategy & go-to-market"},
	{ID: "tooling_build", Label: "Tooling & infrastructure building"},
	{ID: "writing_publishing", Label: "Writing & publishing"},
	{ID: "research_sensemaking", Label: "Research & sensemaking"},
	{ID: "community_organizing", Label: "Community & organizing"},
	{ID: "personal_life", Label: "Personal life & relationships"},
	{ID: "other_mixed", Label: "Other / mixed"},
}

var ProjectTypes = []Labeled{
	{ID: "writing_publishing", Label: "Writing / Publishing"},
	{ID: "product_tool_building", Label: "Product / Tool Building"},
	{ID: "research_frameworks", Label: "Research / Framework Development"},
	{ID: "business_strategy", Label: "Business / Strategy"},
	{ID: "creative_experimental", Label: "Creative / Experimental"},
	{ID: "other_mixed", Label: "Other / Mixed"},
}

// WorldviewLens is a descriptive lens published in concepts.json and overview.md.
type WorldviewLens struct {
	ID          string `json:"lens_id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var WorldviewLenses = []WorldviewLens{
	{ID: "power_ethics_impacts", Label: "Power, ethics, and downstream impacts", Description: "A recurring lens that emphasizes who benefits, who bears risk, and what consequences follow."},
	{ID: "systems_over_isolated_fixes", Label: "Systems over isolated fixes", Description: "Focus on systemic patterns and interdependencies rather than one-off solutions."},
	{ID: "anti_extractive_skepticism", Label: "Skepticism of extractive or centralized models", Description: "Recurring caution about models that extract value or centralize control without reciprocity."},
	{ID: "agency_context_preservation", Label: "Preserving agency and context", Description: "Emphasis on keeping agency, context, and meaning intact when designing or deploying systems."},
}
