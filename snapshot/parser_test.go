package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow sits well after every fixture timestamp.
var fixedNow = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

// baseTS is 2025-01-15T00:00:00Z.
const baseTS = 1736899200

type msg struct {
	id   string
	role string
	text string
	ts   float64
}

func conversation(id, title string, msgs ...msg) map[string]any {
	mapping := map[string]any{
		"root": map[string]any{"id": "root", "message": nil, "children": []string{}},
	}
	for _, m := range msgs {
		node := map[string]any{
			"message": map[string]any{
				"author":      map[string]any{"role": m.role},
				"create_time": m.ts,
				"content":     map[string]any{"content_type": "text", "parts": []any{m.text}},
			},
		}
		if m.id != "" {
			node["id"] = m.id
		}
		mapping[m.id+"-key"] = node
	}
	conv := map[string]any{"mapping": mapping}
	if id != "" {
		conv["id"] = id
	}
	if title != "" {
		conv["title"] = title
	}
	return conv
}

func exportJSON(t *testing.T, convs ...map[string]any) []byte {
	t.Helper()
	if convs == nil {
		convs = []map[string]any{}
	}
	b, err := json.Marshal(convs)
	require.NoError(t, err)
	return b
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(ParseOptions{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	return p
}

func TestParse_EmptyArray(t *testing.T) {
	t.Parallel()

	res, err := newTestParser(t).Parse([]byte(`[]`))
	require.NoError(t, err)

	snap := res.Snapshot
	assert.Equal(t, 0, snap.ConversationCount)
	assert.Equal(t, 0, snap.MessageCount)
	assert.Equal(t, DateRange{}, snap.DateRange)
	assert.Empty(t, snap.UsageSignature)
	assert.Empty(t, snap.TopProjects)
	assert.Empty(t, snap.InterestTags)
	assert.Empty(t, snap.ActivityByMonth)
	assert.Empty(t, snap.PrimaryLens)
	assert.Empty(t, res.Evidence)

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"evidence":[]`)
	assert.Contains(t, string(b), `"usage_signature":[]`)
}

func TestParse_NotArray(t *testing.T) {
	t.Parallel()

	for _, in := range []string{`{"conversations":[]}`, `"hello"`, `null`, `42`} {
		_, err := newTestParser(t).Parse([]byte(in))
		if !errors.Is(err, ErrNotArray) {
			t.Fatalf("Parse(%s) err=%v, want ErrNotArray", in, err)
		}
	}

	_, err := newTestParser(t).Parse([]byte(`[{"mapping": {}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotArray))
}

func TestParse_EvidenceRows(t *testing.T) {
	t.Parallel()

	data := exportJSON(t,
		conversation("conv-a", "Garden plan",
			msg{id: "a2", role: "assistant", text: "Sure, here is a plan.", ts: baseTS + 60},
			msg{id: "a1", role: "user", text: "Help me think through my garden.", ts: baseTS},
			msg{id: "a3", role: "tool", text: "ignored", ts: baseTS + 90},
		),
		map[string]any{"mapping": "garbage"},
		conversation("", "",
			msg{id: "b1", role: "user", text: "no title here", ts: baseTS + 86400},
		),
	)

	res, err := newTestParser(t).Parse(data)
	require.NoError(t, err)
	require.Len(t, res.Evidence, 3)

	assert.Equal(t, 3, res.Snapshot.ConversationCount)
	assert.Equal(t, 3, res.Snapshot.MessageCount)

	first := res.Evidence[0]
	assert.Equal(t, "ev_00000", first.ID)
	assert.Equal(t, RoleUser, first.Role)
	assert.Equal(t, 0, first.TurnIndex)
	assert.Equal(t, "2025-01-15", first.DateString())
	assert.Equal(t, "Garden plan", first.TitleString())
	assert.Equal(t, "chatgpt", first.Source.Platform)
	assert.Equal(t, "openai_export", first.Source.ExportFormat)
	assert.Equal(t, "conv-a", first.Source.ConversationRef)
	assert.Equal(t, "a1", first.Source.NodeID)
	assert.True(t, strings.HasPrefix(first.ConversationID, "conv_"))

	assert.Equal(t, "ev_00001", res.Evidence[1].ID)
	assert.Equal(t, RoleAssistant, res.Evidence[1].Role)
	assert.Equal(t, 1, res.Evidence[1].TurnIndex)
	assert.Equal(t, first.ConversationID, res.Evidence[1].ConversationID)

	untitled := res.Evidence[2]
	assert.Equal(t, "ev_00002", untitled.ID)
	assert.Nil(t, untitled.ConversationTitle)
	assert.Equal(t, "conv_index_2", untitled.Source.ConversationRef)
	assert.Equal(t, 0, untitled.TurnIndex)

	assert.Equal(t, DateRange{First: "2025-01-15", Last: "2025-01-16"}, res.Snapshot.DateRange)
	assert.Equal(t, []MonthlyActivity{{Label: "Jan 2025", YearMonth: "2025-01", Count: 2}}, res.Snapshot.ActivityByMonth)
}

func TestParse_EvidenceIDsAreSequential(t *testing.T) {
	t.Parallel()

	var convs []map[string]any
	for c := 0; c < 5; c++ {
		var msgs []msg
		for m := 0; m < 4; m++ {
			msgs = append(msgs, msg{id: fmt.Sprintf("n%d-%d", c, m), role: "user", text: fmt.Sprintf("message %d", m), ts: float64(baseTS + c*1000 + m)})
		}
		convs = append(convs, conversation(fmt.Sprintf("conv-%d", c), fmt.Sprintf("Thread number %d", c), msgs...))
	}

	res, err := newTestParser(t).Parse(exportJSON(t, convs...))
	require.NoError(t, err)
	require.Len(t, res.Evidence, 20)
	for i, row := range res.Evidence {
		if want := fmt.Sprintf("ev_%05d", i); row.ID != want {
			t.Fatalf("Evidence[%d].ID=%q, want %q", i, row.ID, want)
		}
	}
}

func TestParse_ImplausibleDatesAreNull(t *testing.T) {
	t.Parallel()

	data := exportJSON(t,
		conversation("c1", "Dates",
			msg{id: "old", role: "user", text: "from 2019", ts: 1546300800},
			msg{id: "zero", role: "user", text: "no timestamp", ts: 0},
			msg{id: "future", role: "user", text: "from the future", ts: float64(fixedNow.Unix() + 31*86400)},
			msg{id: "edge", role: "user", text: "on the horizon", ts: float64(fixedNow.Unix() + 30*86400)},
		),
	)
	res, err := newTestParser(t).Parse(data)
	require.NoError(t, err)

	dates := map[string]string{}
	for _, row := range res.Evidence {
		dates[row.Text] = row.DateString()
	}
	assert.Equal(t, "", dates["from 2019"])
	assert.Equal(t, "", dates["no timestamp"])
	assert.Equal(t, "", dates["from the future"])
	assert.Equal(t, "2025-07-31", dates["on the horizon"])

	for _, row := range res.Evidence {
		if d := row.DateString(); d != "" {
			assert.GreaterOrEqual(t, d, "2022-01-01")
		}
	}
}

func TestParse_UsageSignature_SingleCategory(t *testing.T) {
	t.Parallel()

	var msgs []msg
	for i := 0; i < 10; i++ {
		msgs = append(msgs, msg{id: fmt.Sprintf("m%d", i), role: "user", text: "help me think through my plan", ts: float64(baseTS + i)})
	}
	res, err := newTestParser(t).Parse(exportJSON(t, conversation("c1", "Thinking", msgs...)))
	require.NoError(t, err)

	want := []UsageCategory{{ID: CategoryIdeaSensemaking, Label: "Idea generation & sensemaking", Count: 10, Pct: 100}}
	if diff := cmp.Diff(want, res.Snapshot.UsageSignature); diff != "" {
		t.Fatalf("UsageSignature mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_UsageSignature_SumsTo100(t *testing.T) {
	t.Parallel()

	data := exportJSON(t, conversation("c1", "Mixed bag",
		msg{id: "1", role: "user", text: "help me think through my plan", ts: baseTS},
		msg{id: "2", role: "user", text: "rewrite this paragraph", ts: baseTS + 1},
		msg{id: "3", role: "user", text: "Who won the 1998 world cup?", ts: baseTS + 2},
	))
	res, err := newTestParser(t).Parse(data)
	require.NoError(t, err)

	sig := res.Snapshot.UsageSignature
	require.Len(t, sig, 3)
	sum := 0
	for i, u := range sig {
		sum += u.Pct
		assert.Positive(t, u.Pct)
		if i > 0 {
			assert.LessOrEqual(t, u.Pct, sig[i-1].Pct)
		}
	}
	assert.Equal(t, 100, sum)
	// 33/33/33 rounds to 99; the first largest category absorbs the remainder.
	assert.Equal(t, CategoryIdeaSensemaking, sig[0].ID)
	assert.Equal(t, 34, sig[0].Pct)
}

func TestParse_UsageSignature_StridedSample(t *testing.T) {
	t.Parallel()

	// 2500 user messages give a stride of 2, so the sample of 1000 ends at index 1998 and
	// never reaches the writing requests at the tail.
	var msgs []msg
	for i := 0; i < 2500; i++ {
		text := "help me think through my plan"
		if i >= 2000 {
			text = "rewrite this paragraph"
		}
		msgs = append(msgs, msg{id: fmt.Sprintf("m%04d", i), role: "user", text: text, ts: float64(baseTS + i)})
	}
	res, err := newTestParser(t).Parse(exportJSON(t, conversation("c1", "", msgs...)))
	require.NoError(t, err)
	require.Equal(t, 2500, res.Snapshot.MessageCount)

	want := []UsageCategory{{ID: CategoryIdeaSensemaking, Label: "Idea generation & sensemaking", Count: 1000, Pct: 100}}
	if diff := cmp.Diff(want, res.Snapshot.UsageSignature); diff != "" {
		t.Fatalf("UsageSignature mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_LongProseIsWriting(t *testing.T) {
	t.Parallel()

	prose := strings.Repeat("The sun rose over the quiet hills and the birds sang softly. ", 11)
	require.Greater(t, len(prose), 600)
	res, err := newTestParser(t).Parse(exportJSON(t, conversation("c1", "Morning",
		msg{id: "1", role: "user", text: prose, ts: baseTS},
	)))
	require.NoError(t, err)
	require.NotEmpty(t, res.Snapshot.UsageSignature)
	assert.Equal(t, CategoryWritingEditing, res.Snapshot.UsageSignature[0].ID)
	assert.Equal(t, 100, res.Snapshot.UsageSignature[0].Pct)
}

func TestParse_ProjectClustering(t *testing.T) {
	t.Parallel()

	data := exportJSON(t,
		conversation("c1", "Book Outline",
			msg{id: "1", role: "user", text: "Draft the first chapter outline", ts: baseTS},
			msg{id: "2", role: "assistant", text: "Here is an outline.", ts: baseTS + 10},
		),
		conversation("c2", "book outline - continued",
			msg{id: "3", role: "user", text: "Continue the outline", ts: baseTS + 86400*20},
		),
		conversation("c3", "Untitled",
			msg{id: "4", role: "user", text: "random", ts: baseTS + 86400*30},
		),
		conversation("c4", "New chat",
			msg{id: "5", role: "user", text: "random", ts: baseTS + 86400*31},
		),
	)

	res, err := newTestParser(t).Parse(data)
	require.NoError(t, err)

	projects := res.Snapshot.TopProjects
	require.Len(t, projects, 1)
	assert.Equal(t, "Book Outline", projects[0].Name)
	assert.Equal(t, 2, projects[0].ConversationCount)
	assert.Equal(t, "2025-01-15", projects[0].FirstDate)
	assert.Equal(t, "2025-02-04", projects[0].LastDate)
	assert.Equal(t, "Writing · Publishing", projects[0].ProjectType)
	assert.Equal(t, StatusOngoing, projects[0].Status)
	for _, p := range projects {
		assert.False(t, IsJunkTitle(p.Name), "junk title %q leaked into projects", p.Name)
	}
}

func TestParse_InterestTagsAndPrimaryLens(t *testing.T) {
	t.Parallel()

	var convs []map[string]any
	for i := 0; i < 3; i++ {
		convs = append(convs, conversation(fmt.Sprintf("c%d", i), fmt.Sprintf("Spring chores %d", i),
			msg{id: fmt.Sprintf("u%d", i), role: "user", text: "I need to plan garden irrigation for spring.", ts: float64(baseTS + i*86400)},
		))
	}
	res, err := newTestParser(t).Parse(exportJSON(t, convs...))
	require.NoError(t, err)

	require.NotEmpty(t, res.Snapshot.InterestTags)
	assert.Equal(t, "Garden Irrigation", res.Snapshot.InterestTags[0])
	assert.Equal(t, res.Snapshot.InterestTags[0], res.Snapshot.PrimaryLens)
	assert.LessOrEqual(t, len(res.Snapshot.InterestTags), DefaultTuning().ThemeCount)
}

func TestParse_PrimaryLensFallsBackToUsage(t *testing.T) {
	t.Parallel()

	res, err := newTestParser(t).Parse(exportJSON(t, conversation("c1", "Quiet",
		msg{id: "1", role: "user", text: "Who won the 1998 world cup?", ts: baseTS},
	)))
	require.NoError(t, err)
	assert.Empty(t, res.Snapshot.InterestTags)
	assert.Equal(t, "Research & explanation", res.Snapshot.PrimaryLens)
}

func TestParse_Idempotent(t *testing.T) {
	t.Parallel()

	data := exportJSON(t,
		conversation("c1", "Book Outline",
			msg{id: "1", role: "user", text: "I'm writing a book. How do I structure the outline?", ts: baseTS},
			msg{id: "2", role: "assistant", text: "Start with the arc.", ts: baseTS + 5},
		),
		conversation("c2", "Launch plan",
			msg{id: "3", role: "user", text: "I need to prioritize the MVP roadmap", ts: baseTS + 86400*40},
		),
	)

	p := newTestParser(t)
	first, err := p.Parse(data)
	require.NoError(t, err)
	second, err := p.Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("Parse not idempotent (-first +second):\n%s", diff)
	}
}

func TestParseReader_HonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := exportJSON(t, conversation("c1", "Anything", msg{id: "1", role: "user", text: "hi there", ts: baseTS}))
	_, err := newTestParser(t).ParseReader(ctx, strings.NewReader(string(data)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "conversations.json")
	data := exportJSON(t, conversation("c1", "Anything", msg{id: "1", role: "user", text: "hi there", ts: baseTS}))
	require.NoError(t, os.WriteFile(path, data, 0o644))

	res, err := newTestParser(t).ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Snapshot.MessageCount)

	_, err = newTestParser(t).ParseFile(context.Background(), filepath.Join(dir, "missing.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewParser_RejectsBadTuning(t *testing.T) {
	t.Parallel()

	tuning := DefaultTuning()
	tuning.ClassifierSampleSize = 0
	_, err := NewParser(ParseOptions{Tuning: &tuning})
	require.Error(t, err)
}

func TestParse_PackageLevel(t *testing.T) {
	t.Parallel()

	res, err := Parse([]byte(`[{"title":"x","mapping":null}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Snapshot.ConversationCount)
	assert.Equal(t, 0, res.Snapshot.MessageCount)
}
