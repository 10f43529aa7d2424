// Package archive packs a snapshot and its evidence into the portable zip archive: markdown
// for people, JSON and JSONL for tools, and JSON Schemas describing the row shapes.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
	"github.com/theimaginaryfoundation/pdt/snapshot/synopsis"
)

// DefaultFileName is the conventional name for a downloaded archive.
const DefaultFileName = "pdt-export.zip"

// Options controls archive assembly. Zero values are filled in by Build.
type Options struct {
	// Synopsis adds profile_synopsis.txt with its raw text.
	Synopsis *synopsis.ProfileSynopsis

	// Now stamps generated_at and the zip entry times. Defaults to time.Now.
	Now func() time.Time

	// ExportID is written to index.json. Defaults to a random UUID.
	ExportID string

	Logger *zap.Logger
}

// File is one archive entry.
type File struct {
	Name string
	Data []byte
}

// Files renders every archive entry in a fixed order. With a fixed Now and ExportID the
// output is byte-for-byte reproducible.
func Files(snap snapshot.Snapshot, evidence []snapshot.EvidenceRow, opts Options) ([]File, error) {
	opts = withDefaults(opts)
	now := opts.Now()

	var files []File
	add := func(name string, data []byte) {
		files = append(files, File{Name: name, Data: data})
	}
	addJSON := func(name string, v any) error {
		b, err := marshalDoc(v)
		if err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		add(name, b)
		return nil
	}

	if err := addJSON(IndexFile, buildIndex(snap, opts.ExportID, now, opts.Synopsis != nil)); err != nil {
		return nil, err
	}
	add(OverviewFile, []byte(renderOverview(snap)))
	if err := addJSON(UsageModesFile, buildUsageModes(snap)); err != nil {
		return nil, err
	}
	if err := addJSON(ProjectsFile, buildProjects(snap)); err != nil {
		return nil, err
	}
	if err := addJSON(ConceptsFile, buildConcepts(snap)); err != nil {
		return nil, err
	}
	jsonl, err := EvidenceJSONL(evidence)
	if err != nil {
		return nil, err
	}
	add(EvidenceFile, jsonl)
	add(DigestFile, []byte(renderDigest(evidence)))
	add(DecisionsFile, []byte(decisionsMarkdown))
	add(ReadmeFile, []byte(readmeMarkdown))
	if opts.Synopsis != nil {
		add(SynopsisFile, []byte(opts.Synopsis.RawText))
	}

	schemas, err := schemaFiles()
	if err != nil {
		return nil, err
	}
	return append(files, schemas...), nil
}

// Build writes the archive as a zip stream to w.
func Build(w io.Writer, snap snapshot.Snapshot, evidence []snapshot.EvidenceRow, opts Options) error {
	if w == nil {
		return errors.New("archive.Build: nil writer")
	}
	opts = withDefaults(opts)
	modified := opts.Now().UTC()
	opts.Now = func() time.Time { return modified }

	files, err := Files(snap, evidence, opts)
	if err != nil {
		return fmt.Errorf("archive.Build: %w", err)
	}

	zw := zip.NewWriter(w)
	total := 0
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("archive.Build: create %s: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("archive.Build: write %s: %w", f.Name, err)
		}
		total += len(f.Data)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive.Build: close zip: %w", err)
	}

	opts.Logger.Debug("archive built",
		zap.Int("entries", len(files)),
		zap.Int("uncompressed_bytes", total),
		zap.Int("evidence_rows", len(evidence)),
		zap.String("export_id", opts.ExportID),
	)
	return nil
}

// WriteFile builds the archive in memory and writes it atomically to path.
func WriteFile(path string, snap snapshot.Snapshot, evidence []snapshot.EvidenceRow, opts Options) error {
	var buf bytes.Buffer
	if err := Build(&buf, snap, evidence, opts); err != nil {
		return err
	}
	if err := fileutils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("archive.WriteFile: %w", err)
	}
	return nil
}

// EvidenceJSONL renders one JSON object per line, each terminated by a newline.
func EvidenceJSONL(evidence []snapshot.EvidenceRow) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, r := range evidence {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encode evidence %s: %w", r.ID, err)
		}
	}
	return buf.Bytes(), nil
}

func withDefaults(opts Options) Options {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportID == "" {
		opts.ExportID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

func marshalDoc(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
