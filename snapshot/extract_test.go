package snapshot

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

func TestNodeText_JoinsStringPartsAndTrims(t *testing.T) {
	t.Parallel()

	node := gjson.Parse(`{"message":{"content":{"parts":["  first", {"asset":"img"}, "second  ", 42]}}}`)
	if got, want := nodeText(node), "first\nsecond"; got != want {
		t.Fatalf("nodeText=%q, want %q", got, want)
	}

	for _, raw := range []string{
		`{"message":{"content":{"parts":"not-an-array"}}}`,
		`{"message":{"content":{}}}`,
		`{"message":null}`,
		`{}`,
	} {
		if got := nodeText(gjson.Parse(raw)); got != "" {
			t.Fatalf("nodeText(%s)=%q, want empty", raw, got)
		}
	}
}

func TestNodeRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw    string
		want   Role
		wantOK bool
	}{
		{`{"message":{"author":{"role":"user"}}}`, RoleUser, true},
		{`{"message":{"author":{"role":"assistant"}}}`, RoleAssistant, true},
		{`{"message":{"author":{"role":"system"}}}`, RoleSystem, true},
		{`{"message":{"author":{"role":"tool"}}}`, "", false},
		{`{"message":{"author":{"role":7}}}`, "", false},
		{`{"message":{}}`, "", false},
	}
	for _, tc := range cases {
		got, ok := nodeRole(gjson.Parse(tc.raw))
		if got != tc.want || ok != tc.wantOK {
			t.Fatalf("nodeRole(%s)=(%q,%v), want (%q,%v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNodeCreateTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want float64
	}{
		{`{"message":{"create_time":1700000000.5}}`, 1700000000.5},
		{`{"message":{"create_time":"1700000000"}}`, 1700000000},
		{`{"message":{"create_time":" 12 "}}`, 12},
		{`{"message":{"create_time":"soon"}}`, 0},
		{`{"message":{"create_time":"Infinity"}}`, 0},
		{`{"message":{"create_time":null}}`, 0},
		{`{"message":{}}`, 0},
	}
	for _, tc := range cases {
		if got := nodeCreateTime(gjson.Parse(tc.raw)); got != tc.want {
			t.Fatalf("nodeCreateTime(%s)=%v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestIsValidTimestamp_InclusiveBounds(t *testing.T) {
	t.Parallel()

	const minEpoch = 1640995200
	maxEpoch := float64(1800000000)
	cases := []struct {
		ts   float64
		want bool
	}{
		{minEpoch - 1, false},
		{minEpoch, true},
		{1700000000, true},
		{maxEpoch, true},
		{maxEpoch + 1, false},
		{0, false},
	}
	for _, tc := range cases {
		if got := isValidTimestamp(tc.ts, minEpoch, maxEpoch); got != tc.want {
			t.Fatalf("isValidTimestamp(%v)=%v, want %v", tc.ts, got, tc.want)
		}
	}
}

func TestDateFromEpoch_UTC(t *testing.T) {
	t.Parallel()

	if got, want := dateFromEpoch(1700000000), "2023-11-14"; got != want {
		t.Fatalf("dateFromEpoch=%q, want %q", got, want)
	}
	// 23:59:59.9 on 2024-02-29 UTC must not round into March.
	if got, want := dateFromEpoch(1709251199.9), "2024-02-29"; got != want {
		t.Fatalf("dateFromEpoch=%q, want %q", got, want)
	}
}

func TestLinearize_OrdersByTimeAndFilters(t *testing.T) {
	t.Parallel()

	mapping := gjson.Parse(`{
		"root": {"id": "root", "message": null},
		"c": {"id": "c", "message": {"author": {"role": "assistant"}, "create_time": 30, "content": {"parts": ["third"]}}},
		"a": {"id": "a", "message": {"author": {"role": "user"}, "create_time": 10, "content": {"parts": ["first"]}}},
		"blank": {"id": "blank", "message": {"author": {"role": "user"}, "create_time": 5, "content": {"parts": ["   "]}}},
		"tool": {"id": "tool", "message": {"author": {"role": "tool"}, "create_time": 6, "content": {"parts": ["x"]}}},
		"b1": {"id": "b1", "message": {"author": {"role": "user"}, "create_time": 20, "content": {"parts": ["tie one"]}}},
		"b2": {"message": {"author": {"role": "user"}, "create_time": 20, "content": {"parts": ["tie two"]}}}
	}`)

	got := linearize(mapping)
	var texts []string
	for _, m := range got {
		texts = append(texts, m.Text)
	}
	if want := "first|tie one|tie two|third"; strings.Join(texts, "|") != want {
		t.Fatalf("order=%q, want %q", strings.Join(texts, "|"), want)
	}
	if got[0].NodeID != "a" {
		t.Fatalf("NodeID=%q, want %q", got[0].NodeID, "a")
	}
	if got[2].NodeID != "" {
		t.Fatalf("NodeID=%q, want empty for node without id", got[2].NodeID)
	}
}

func TestStableID(t *testing.T) {
	t.Parallel()

	if got, want := stableID("conv", "abc"), "conv_17862"; got != want {
		t.Fatalf("stableID=%q, want %q", got, want)
	}
	// Empty parts are dropped before joining.
	if a, b := stableID("conv", "abc", ""), stableID("conv", "abc"); a != b {
		t.Fatalf("stableID with empty part=%q, want %q", a, b)
	}
	if a, b := stableID("conv", "x", "Title"), stableID("conv", "x", "Other"); a == b {
		t.Fatalf("stableID collided for different titles: %q", a)
	}

	long := stableID("conv", strings.Repeat("conversation-id-", 40), "A fairly long title")
	hex := strings.TrimPrefix(long, "conv_")
	if len(hex) == 0 || len(hex) > 10 {
		t.Fatalf("hex length=%d, want 1..10 (%q)", len(hex), long)
	}
	if again := stableID("conv", strings.Repeat("conversation-id-", 40), "A fairly long title"); again != long {
		t.Fatalf("stableID not deterministic: %q vs %q", again, long)
	}
}

func TestConversationRefFallsBackToIndex(t *testing.T) {
	t.Parallel()

	if got := conversationRef(gjson.Parse(`{"title":"x"}`), 4); got != "conv_index_4" {
		t.Fatalf("conversationRef=%q, want conv_index_4", got)
	}
	if got := conversationRef(gjson.Parse(`{"id":"abc-123"}`), 4); got != "abc-123" {
		t.Fatalf("conversationRef=%q, want abc-123", got)
	}
	if got := conversationTitle(gjson.Parse(`{"title":null}`)); got != nil {
		t.Fatalf("conversationTitle=%q, want nil", *got)
	}
}
