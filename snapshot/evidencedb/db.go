// Package evidencedb exports an evidence log to a local SQLite file with an FTS5 index so
// other tools can query it without re-parsing the export.
package evidencedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/theimaginaryfoundation/pdt/snapshot"
)

const schema = `
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS evidence (
    id                 TEXT PRIMARY KEY,
    date               TEXT,
    role               TEXT NOT NULL,
    text               TEXT NOT NULL,
    conversation_id    TEXT NOT NULL,
    conversation_title TEXT,
    turn_index         INTEGER NOT NULL DEFAULT 0,
    conversation_ref   TEXT NOT NULL DEFAULT '',
    platform           TEXT NOT NULL DEFAULT '',
    export_format      TEXT NOT NULL DEFAULT '',
    node_id            TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS evidence_conversation ON evidence(conversation_id, turn_index);

CREATE VIRTUAL TABLE IF NOT EXISTS evidence_fts USING fts5(
    text,
    content=evidence,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS evidence_ai AFTER INSERT ON evidence BEGIN
    INSERT INTO evidence_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS evidence_ad AFTER DELETE ON evidence BEGIN
    INSERT INTO evidence_fts(evidence_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS evidence_au AFTER UPDATE ON evidence BEGIN
    INSERT INTO evidence_fts(evidence_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO evidence_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS snapshot_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS usage (
    id    TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    count INTEGER NOT NULL,
    pct   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
    rank               INTEGER PRIMARY KEY,
    name               TEXT NOT NULL,
    project_type       TEXT NOT NULL,
    status             TEXT NOT NULL,
    first_date         TEXT NOT NULL DEFAULT '',
    last_date          TEXT NOT NULL DEFAULT '',
    conversation_count INTEGER NOT NULL
);
`

// schemaVersion is recorded in snapshot_meta for readers.
const schemaVersion = "1"

const snapshotKey = "snapshot"

type DB struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("evidencedb.Open: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Write replaces any file at path with a fresh database holding snap and evidence.
func Write(ctx context.Context, path string, snap snapshot.Snapshot, evidence []snapshot.EvidenceRow) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("evidencedb.Write: remove old db: %w", err)
	}
	d, err := Open(ctx, path)
	if err != nil {
		return fmt.Errorf("evidencedb.Write: %w", err)
	}
	if err := d.Store(ctx, snap, evidence); err != nil {
		d.Close()
		return fmt.Errorf("evidencedb.Write: %w", err)
	}
	return d.Close()
}

// Store replaces the database contents in a single transaction.
func (d *DB) Store(ctx context.Context, snap snapshot.Snapshot, evidence []snapshot.EvidenceRow) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"evidence", "snapshot_meta", "usage", "projects"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	ins, err := tx.PrepareContext(ctx, `INSERT INTO evidence
		(id, date, role, text, conversation_id, conversation_title, turn_index,
		 conversation_ref, platform, export_format, node_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare evidence insert: %w", err)
	}
	defer ins.Close()
	for _, r := range evidence {
		if _, err := ins.ExecContext(ctx,
			r.ID, nullable(r.Date), string(r.Role), r.Text, r.ConversationID, nullable(r.ConversationTitle),
			r.TurnIndex, r.Source.ConversationRef, r.Source.Platform, r.Source.ExportFormat, r.Source.NodeID,
		); err != nil {
			return fmt.Errorf("insert evidence %s: %w", r.ID, err)
		}
	}

	for _, u := range snap.UsageSignature {
		if _, err := tx.ExecContext(ctx, "INSERT INTO usage (id, label, count, pct) VALUES (?, ?, ?, ?)",
			u.ID, u.Label, u.Count, u.Pct); err != nil {
			return fmt.Errorf("insert usage %s: %w", u.ID, err)
		}
	}

	for i, p := range snap.TopProjects {
		if _, err := tx.ExecContext(ctx, `INSERT INTO projects
			(rank, name, project_type, status, first_date, last_date, conversation_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i+1, p.Name, p.ProjectType, string(p.Status), p.FirstDate, p.LastDate, p.ConversationCount); err != nil {
			return fmt.Errorf("insert project %q: %w", p.Name, err)
		}
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	meta := [][2]string{
		{"schema_version", schemaVersion},
		{snapshotKey, string(raw)},
		{"conversation_count", fmt.Sprint(snap.ConversationCount)},
		{"message_count", fmt.Sprint(snap.MessageCount)},
		{"date_first", snap.DateRange.First},
		{"date_last", snap.DateRange.Last},
		{"primary_lens", snap.PrimaryLens},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO snapshot_meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert meta %s: %w", kv[0], err)
		}
	}

	return tx.Commit()
}

// Snapshot reads back the stored snapshot.
func (d *DB) Snapshot(ctx context.Context) (snapshot.Snapshot, error) {
	var raw string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = ?", snapshotKey).Scan(&raw)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap snapshot.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func (d *DB) EvidenceCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM evidence").Scan(&n)
	return n, err
}

// Conversation returns the rows of one conversation in turn order.
func (d *DB) Conversation(ctx context.Context, conversationID string) ([]snapshot.EvidenceRow, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, date, role, text, conversation_id, conversation_title, turn_index,
		       conversation_ref, platform, export_format, node_id
		FROM evidence WHERE conversation_id = ? ORDER BY turn_index, id`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []snapshot.EvidenceRow
	for rows.Next() {
		var (
			r           snapshot.EvidenceRow
			role        string
			date, title sql.NullString
		)
		if err := rows.Scan(&r.ID, &date, &role, &r.Text, &r.ConversationID, &title, &r.TurnIndex,
			&r.Source.ConversationRef, &r.Source.Platform, &r.Source.ExportFormat, &r.Source.NodeID); err != nil {
			return nil, err
		}
		r.Role = snapshot.Role(role)
		r.Date = fromNullable(date)
		r.ConversationTitle = fromNullable(title)
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullable(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
