package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/pdt/api"
	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/archive"
	"github.com/theimaginaryfoundation/pdt/snapshot/card"
	"github.com/theimaginaryfoundation/pdt/snapshot/evidencedb"
	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
	"github.com/theimaginaryfoundation/pdt/snapshot/synopsis"
)

func (a *app) buildCmd() *cobra.Command {
	cfg := defaultBuildConfig()
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Parse an export and write the snapshot archive (zip)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return usage(err)
			}
			if err := fileutils.EnsureWritable(cfg.OutPath, cfg.Overwrite); err != nil {
				return usage(err)
			}
			if cfg.SQLitePath != "" {
				if err := fileutils.EnsureWritable(cfg.SQLitePath, cfg.Overwrite); err != nil {
					return usage(err)
				}
			}

			var syn *synopsis.ProfileSynopsis
			if cfg.SynopsisPath != "" {
				s, err := synopsis.LoadFile(cfg.SynopsisPath)
				if err != nil {
					return err
				}
				syn = &s
			}

			res, err := a.parseExport(cmd, cfg.InPath)
			if err != nil {
				return err
			}

			if err := archive.WriteFile(cfg.OutPath, res.Snapshot, res.Evidence, archive.Options{Synopsis: syn, Logger: a.logger}); err != nil {
				return err
			}
			size := uint64(0)
			if st, err := os.Stat(cfg.OutPath); err == nil {
				size = uint64(st.Size())
			}

			if cfg.SQLitePath != "" {
				if err := evidencedb.Write(cmd.Context(), cfg.SQLitePath, res.Snapshot, res.Evidence); err != nil {
					return err
				}
				a.logger.Info("wrote evidence db", zap.String("path", cfg.SQLitePath))
			}

			fmt.Fprintf(a.stdout, "conversations=%d messages=%d evidence=%d projects=%d out=%s size=%s\n",
				res.Snapshot.ConversationCount, res.Snapshot.MessageCount, len(res.Evidence),
				len(res.Snapshot.TopProjects), cfg.OutPath, humanize.Bytes(size))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.InPath, "in", cfg.InPath, "path to conversations.json")
	f.StringVar(&cfg.OutPath, "out", cfg.OutPath, "archive output path")
	f.StringVar(&cfg.SynopsisPath, "synopsis", cfg.SynopsisPath, "optional profile synopsis file (JSON or sectioned text)")
	f.StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "optional SQLite evidence database output path")
	f.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "overwrite existing outputs")
	return cmd
}

type inspectOutput struct {
	Snapshot      snapshot.Snapshot      `json:"snapshot"`
	EvidenceCount int                    `json:"evidence_count"`
	Evidence      []snapshot.EvidenceRow `json:"evidence,omitempty"`
}

func (a *app) inspectCmd() *cobra.Command {
	cfg := defaultInspectConfig()
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Parse an export and print the snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return usage(err)
			}
			if cfg.OutPath != "" {
				if err := fileutils.EnsureWritable(cfg.OutPath, cfg.Overwrite); err != nil {
					return usage(err)
				}
			}
			res, err := a.parseExport(cmd, cfg.InPath)
			if err != nil {
				return err
			}
			out := inspectOutput{Snapshot: res.Snapshot, EvidenceCount: len(res.Evidence)}
			if cfg.Evidence > 0 {
				out.Evidence = res.Evidence[:min(cfg.Evidence, len(res.Evidence))]
			}
			if cfg.OutPath == "" {
				return a.printJSON(out, cfg.Pretty)
			}
			if err := fileutils.WriteJSONFileAtomic(cfg.OutPath, out, cfg.Pretty); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "conversations=%d messages=%d out=%s\n",
				res.Snapshot.ConversationCount, res.Snapshot.MessageCount, cfg.OutPath)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.InPath, "in", cfg.InPath, "path to conversations.json")
	f.StringVar(&cfg.OutPath, "out", cfg.OutPath, "write JSON to this file instead of stdout")
	f.IntVar(&cfg.Evidence, "evidence", cfg.Evidence, "include the first N evidence rows")
	f.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "indent JSON output")
	f.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "overwrite an existing --out file")
	return cmd
}

func (a *app) cardCmd() *cobra.Command {
	cfg := defaultCardConfig()
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Parse an export and print networking card data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return usage(err)
			}
			var syn *synopsis.ProfileSynopsis
			if cfg.SynopsisPath != "" {
				s, err := synopsis.LoadFile(cfg.SynopsisPath)
				if err != nil {
					return err
				}
				syn = &s
			}
			res, err := a.parseExport(cmd, cfg.InPath)
			if err != nil {
				return err
			}
			c := card.Customization{
				DisplayName: cfg.Name,
				Role:        cfg.Role,
				Location:    cfg.Location,
				Tagline:     cfg.Tagline,
			}
			return a.printJSON(card.FromSnapshot(res.Snapshot, c, syn), true)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.InPath, "in", cfg.InPath, "path to conversations.json")
	f.StringVar(&cfg.Name, "name", cfg.Name, "display name")
	f.StringVar(&cfg.Role, "role", cfg.Role, "role line")
	f.StringVar(&cfg.Location, "location", cfg.Location, "location line")
	f.StringVar(&cfg.Tagline, "tagline", cfg.Tagline, "tagline override")
	f.StringVar(&cfg.SynopsisPath, "synopsis", cfg.SynopsisPath, "optional profile synopsis file")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	cfg := defaultSearchConfig()
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Full-text search an evidence database written by build --sqlite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return usage(err)
			}
			if !fileutils.FileExists(cfg.DBPath) {
				return usage(fmt.Errorf("database not found: %s", cfg.DBPath))
			}
			db, err := evidencedb.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			hits, err := db.Search(cmd.Context(), args[0], cfg.Limit)
			if err != nil {
				return err
			}
			for _, h := range hits {
				date := h.Date
				if date == "" {
					date = "-"
				}
				fmt.Fprintf(a.stdout, "%s\t%s\t%s\t%s\n", h.ID, date, h.Role, fileutils.SingleLine(h.Snippet))
			}
			fmt.Fprintf(a.stdout, "hits=%d\n", len(hits))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to the evidence database")
	f.IntVar(&cfg.Limit, "limit", cfg.Limit, "maximum hits")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	cfg := defaultServeConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snapshot pipeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := cfg.resolve(a.file.Serve, cmd.Flags().Changed("addr"), cmd.Flags().Changed("max-upload-mb"))
			if err := resolved.Validate(); err != nil {
				return usage(err)
			}
			t := a.file.Tuning
			srv, err := api.NewServer(api.Config{
				Addr:           resolved.Addr,
				MaxUploadBytes: int64(resolved.MaxUploadMB) << 20,
				Tuning:         &t,
				Logger:         a.logger,
			})
			if err != nil {
				return usage(err)
			}
			return srv.Start(cmd.Context())
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address (env "+envAddr+")")
	f.IntVar(&cfg.MaxUploadMB, "max-upload-mb", cfg.MaxUploadMB, "maximum upload size in MiB")
	return cmd
}

func (a *app) printJSON(v any, pretty bool) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
