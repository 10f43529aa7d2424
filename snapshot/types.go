package snapshot

// Role is the author role of a message. Only these three roles survive extraction.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const (
	sourcePlatform     = "chatgpt"
	sourceExportFormat = "openai_export"
)

// EvidenceSource points an evidence row back into the export.
type EvidenceSource struct {
	Platform        string `json:"platform"`
	ExportFormat    string `json:"export_format"`
	ConversationRef string `json:"conversation_ref"`
	NodeID          string `json:"node_id,omitempty"`
}

// EvidenceRow is one extracted message. Date is nil when the message had no plausible
// timestamp; ConversationTitle is nil when the conversation had no string title.
type EvidenceRow struct {
	ID                string         `json:"id"`
	Date              *string        `json:"date"`
	Role              Role           `json:"role"`
	Text              string         `json:"text"`
	ConversationID    string         `json:"conversation_id"`
	ConversationTitle *string        `json:"conversation_title"`
	TurnIndex         int            `json:"turn_index"`
	Source            EvidenceSource `json:"source"`
}

// DateString returns the row date or "".
func (r EvidenceRow) DateString() string {
	if r.Date == nil {
		return ""
	}
	return *r.Date
}

// TitleString returns the conversation title or "".
func (r EvidenceRow) TitleString() string {
	if r.ConversationTitle == nil {
		return ""
	}
	return *r.ConversationTitle
}

type DateRange struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// UsageCategory is one row of the usage signature.
type UsageCategory struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Pct   int    `json:"pct"`
}

type ProjectStatus string

const (
	StatusActive   ProjectStatus = "active"
	StatusOngoing  ProjectStatus = "ongoing"
	StatusComplete ProjectStatus = "complete"
)

// ProjectSummary is a clustered group of similarly titled conversations.
type ProjectSummary struct {
	Name              string        `json:"name"`
	FirstDate         string        `json:"first_date,omitempty"`
	LastDate          string        `json:"last_date,omitempty"`
	ProjectType       string        `json:"project_type"`
	Status            ProjectStatus `json:"status"`
	ConversationCount int           `json:"conversation_count"`
}

type MonthlyActivity struct {
	Label     string `json:"label"`
	YearMonth string `json:"yearMonth"`
	Count     int    `json:"count"`
}

// Snapshot is the aggregate profile of an export.
type Snapshot struct {
	ConversationCount int               `json:"conversation_count"`
	MessageCount      int               `json:"message_count"`
	DateRange         DateRange         `json:"date_range"`
	UsageSignature    []UsageCategory   `json:"usage_signature"`
	TopProjects       []ProjectSummary  `json:"top_projects"`
	InterestTags      []string          `json:"interest_tags"`
	PrimaryLens       string            `json:"primary_lens,omitempty"`
	ActivityByMonth   []MonthlyActivity `json:"activity_by_month"`
}

// Result is the output of a parse: the snapshot plus every evidence row in emission order.
type Result struct {
	Snapshot Snapshot      `json:"snapshot"`
	Evidence []EvidenceRow `json:"evidence"`
}

// LinearMessage is a message that passed extraction, ready for time ordering.
type LinearMessage struct {
	Role       Role
	Text       string
	CreateTime float64
	NodeID     string
}

// HighSignalItem is a user message whose evidence score cleared the threshold.
type HighSignalItem struct {
	Text   string
	ConvID string
}
