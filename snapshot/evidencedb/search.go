package evidencedb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

const defaultSearchLimit = 20

// Hit is one search result.
type Hit struct {
	ID                string
	Date              string
	Role              string
	ConversationID    string
	ConversationTitle string
	Snippet           string
	Rank              float64
}

// Search runs a full-text query over evidence text. Terms are matched as literal tokens and
// all must appear. CJK queries fall back to substring matching, which the unicode61
// tokenizer cannot serve.
func (d *DB) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if containsCJK(query) {
		return d.searchLike(ctx, query, limit)
	}
	return d.searchFTS(ctx, query, limit)
}

func (d *DB) searchFTS(ctx context.Context, query string, limit int) ([]Hit, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			e.id,
			COALESCE(e.date, ''),
			e.role,
			e.conversation_id,
			COALESCE(e.conversation_title, ''),
			snippet(evidence_fts, 0, '>>>', '<<<', '...', 24) AS snip,
			bm25(evidence_fts) AS rank
		FROM evidence_fts
		JOIN evidence e ON evidence_fts.rowid = e.rowid
		WHERE evidence_fts MATCH ?
		ORDER BY rank, e.id
		LIMIT ?`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

func (d *DB) searchLike(ctx context.Context, query string, limit int) ([]Hit, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			id,
			COALESCE(date, ''),
			role,
			conversation_id,
			COALESCE(conversation_title, ''),
			text,
			0.0
		FROM evidence
		WHERE text LIKE ?
		ORDER BY id
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search like: %w", err)
	}
	defer rows.Close()

	hits, err := scanHits(rows)
	if err != nil {
		return nil, err
	}
	for i := range hits {
		hits[i].Snippet = makeSnippet(hits[i].Snippet, query, 24)
	}
	return hits, nil
}

func scanHits(rows *sql.Rows) ([]Hit, error) {
	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ID, &h.Date, &h.Role, &h.ConversationID, &h.ConversationTitle, &h.Snippet, &h.Rank); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes each whitespace-separated term so punctuation in user input is never
// parsed as FTS5 syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(fields, " ")
}

func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet cuts text to contextChars runes either side of the first case-insensitive
// match and marks it. Matching runs on runes so case folding never shifts offsets.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	pos := indexFold(runes, []rune(query))
	if pos < 0 {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}
	n := len([]rune(query))
	start := max(0, pos-contextChars)
	end := min(len(runes), pos+n+contextChars)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:pos]))
	b.WriteString(">>>")
	b.WriteString(string(runes[pos : pos+n]))
	b.WriteString("<<<")
	b.WriteString(string(runes[pos+n : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// indexFold returns the rune index of the first case-insensitive occurrence of sub in s,
// or -1.
func indexFold(s, sub []rune) int {
	if len(sub) == 0 {
		return -1
	}
outer:
	for i := 0; i+len(sub) <= len(s); i++ {
		for j, r := range sub {
			if !strings.EqualFold(string(s[i+j]), string(r)) {
				continue outer
			}
		}
		return i
	}
	return -1
}
