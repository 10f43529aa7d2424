package snapshot

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/tidwall/gjson"
)

// nodeRole returns the author role of a mapping node, or false when it is missing or not
// one of user, assistant, system.
func nodeRole(node gjson.Result) (Role, bool) {
	r := node.Get("message.author.role")
	if r.Type != gjson.String {
		return "", false
	}
	switch role := Role(r.Str); role {
	case RoleUser, RoleAssistant, RoleSystem:
		return role, true
	}
	return "", false
}

// nodeText joins the string entries of message.content.parts with newlines and trims the
// result. Non-string parts (images, tool payloads) are skipped.
func nodeText(node gjson.Result) string {
	parts := node.Get("message.content.parts")
	if !parts.IsArray() {
		return ""
	}
	var texts []string
	parts.ForEach(func(_, p gjson.Result) bool {
		if p.Type == gjson.String {
			texts = append(texts, p.Str)
		}
		return true
	})
	return strings.TrimSpace(strings.Join(texts, "\n"))
}

// nodeCreateTime returns message.create_time as unix seconds. Numeric strings are
// accepted; anything missing or non-finite reads as 0.
func nodeCreateTime(node gjson.Result) float64 {
	ct := node.Get("message.create_time")
	var v float64
	switch ct.Type {
	case gjson.Number:
		v = ct.Num
	case gjson.String:
		s := strings.TrimSpace(ct.Str)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		v = f
	default:
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// nodeID returns the node's own id field, if any.
func nodeID(node gjson.Result) string {
	id := node.Get("id")
	if !id.Exists() || id.Type == gjson.Null {
		return ""
	}
	return id.String()
}

// isValidTimestamp reports whether ts falls inside [minEpoch, now+skew], inclusive.
func isValidTimestamp(ts float64, minEpoch int64, maxEpoch float64) bool {
	return ts >= float64(minEpoch) && ts <= maxEpoch
}

// dateFromEpoch formats unix seconds as a UTC YYYY-MM-DD date.
func dateFromEpoch(ts float64) string {
	return time.Unix(int64(math.Floor(ts)), 0).UTC().Format(time.DateOnly)
}

// isMessageNode reports whether a mapping value carries a non-empty message object.
func isMessageNode(node gjson.Result) bool {
	if !node.IsObject() {
		return false
	}
	msg := node.Get("message")
	switch msg.Type {
	case gjson.Null, gjson.False:
		return false
	case gjson.String:
		return msg.Str != ""
	case gjson.Number:
		return msg.Num != 0
	}
	return msg.Exists()
}

// linearize extracts the qualifying messages of a conversation mapping and orders them by
// create time. Equal timestamps keep the document order of the mapping.
func linearize(mapping gjson.Result) []LinearMessage {
	var out []LinearMessage
	mapping.ForEach(func(_, node gjson.Result) bool {
		if !isMessageNode(node) {
			return true
		}
		role, ok := nodeRole(node)
		if !ok {
			return true
		}
		text := nodeText(node)
		if text == "" {
			return true
		}
		out = append(out, LinearMessage{
			Role:       role,
			Text:       text,
			CreateTime: nodeCreateTime(node),
			NodeID:     nodeID(node),
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreateTime < out[j].CreateTime })
	return out
}

// stableID derives a deterministic id from the non-empty parts. The hash is the 32-bit
// shift-subtract string hash over UTF-16 code units, rendered as up to 10 hex digits.
func stableID(prefix string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	base := strings.Join(nonEmpty, "|")

	var h int64
	for _, c := range utf16.Encode([]rune(base)) {
		shifted := int64(int32(uint32(int32(h)) << 5))
		h = shifted - h + int64(c)
	}
	if h < 0 {
		h = -h
	}
	hex := strconv.FormatInt(h, 16)
	if len(hex) > 10 {
		hex = hex[:10]
	}
	return prefix + "_" + hex
}

// conversationRef returns the raw conversation id, falling back to its position.
func conversationRef(conv gjson.Result, index int) string {
	id := conv.Get("id")
	if !id.Exists() || id.Type == gjson.Null {
		return "conv_index_" + strconv.Itoa(index)
	}
	return id.String()
}

// conversationTitle returns the title when it is a JSON string.
func conversationTitle(conv gjson.Result) *string {
	t := conv.Get("title")
	if t.Type != gjson.String {
		return nil
	}
	s := t.Str
	return &s
}
