package archive

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/theimaginaryfoundation/pdt/snapshot"
	"github.com/theimaginaryfoundation/pdt/snapshot/fileutils"
)

const (
	overviewProjects  = 10
	overviewConcepts  = 10
	digestRowsPerConv = 20
	digestTextChars   = 200
)

func renderOverview(snap snapshot.Snapshot) string {
	pct := make(map[string]int, len(snap.UsageSignature))
	for _, u := range snap.UsageSignature {
		pct[u.ID] = u.Pct
	}

	var cats []string
	for _, c := range snapshot.UsageCategories {
		cats = append(cats, fmt.Sprintf("- %s — **%d%%**", c.Label, pct[c.ID]))
	}

	var projects []string
	for i, p := range snap.TopProjects {
		if i == overviewProjects {
			break
		}
		dates := "—"
		if d := joinNonEmpty(" · ", p.FirstDate, p.LastDate); d != "" {
			dates = "First mentioned: " + d
		}
		status := string(p.Status)
		if status == "" {
			status = "unclear"
		}
		projects = append(projects, fmt.Sprintf("- **%s** (%s)  \n  Detected from your conversation history.  \n  Status: %s",
			escapeMarkdownInline(p.Name), dates, status))
	}
	projectLines := strings.Join(projects, "\n\n")
	if projectLines == "" {
		projectLines = "- (None detected from conversation titles. Run a fuller pipeline for project extraction.)"
	}

	var lenses []string
	for _, l := range snapshot.WorldviewLenses {
		lenses = append(lenses, "- "+l.Label)
	}

	var concepts []string
	for i, t := range snap.InterestTags {
		if i == overviewConcepts {
			break
		}
		concepts = append(concepts, fmt.Sprintf("- **%s** — recurring theme from your conversations", fileutils.Capitalize(t)))
	}
	conceptLines := strings.Join(concepts, "\n")
	if conceptLines == "" {
		conceptLines = "- (Derived from word frequency in your messages. Run a fuller pipeline for concept definitions.)"
	}

	var b strings.Builder
	b.WriteString("# Continuity Snapshot\n\n")
	b.WriteString("This document summarizes how I used ChatGPT, what I worked on, and the ideas I explored.\n")
	b.WriteString("It is a best-effort synthesis generated from my ChatGPT export.\n\n")
	b.WriteString("This is not a full transcript.\n")
	b.WriteString("It is a continuity snapshot — designed to preserve meaning, not volume.\n\n")
	fmt.Fprintf(&b, "Source: %s conversations, %s messages", humanize.Comma(int64(snap.ConversationCount)), humanize.Comma(int64(snap.MessageCount)))
	if r := joinNonEmpty(" to ", snap.DateRange.First, snap.DateRange.Last); r != "" {
		fmt.Fprintf(&b, " (%s)", r)
	}
	b.WriteString(".\n\n---\n\n")

	b.WriteString("## How I Used ChatGPT\n\n")
	b.WriteString("Based on patterns in my messages, my usage clustered around the activities below.\n")
	b.WriteString("Percentages are approximate.\n\n")
	b.WriteString(strings.Join(cats, "\n"))
	b.WriteString("\n\nOverall, ChatGPT was used primarily as a thinking and synthesis partner rather than for one-off answers.\n\n")
	b.WriteString("(Details: `usage_modes.json`)\n\n---\n\n")

	b.WriteString("## Types of Projects I Worked On\n\n")
	b.WriteString("Across my conversations, my work clustered around several kinds of projects:\n\n")
	b.WriteString("- Writing & publishing (e.g., articles, essays, Substack drafts)\n")
	b.WriteString("- Product & tool building\n")
	b.WriteString("- Research & framework development\n")
	b.WriteString("- Business & strategy exploration\n")
	b.WriteString("- Creative / experimental work\n\n")
	b.WriteString("(Details: `projects.json`)\n\n---\n\n")

	b.WriteString("## Active & Recurring Projects\n\n")
	b.WriteString("The following projects appeared repeatedly or with sustained depth:\n\n")
	b.WriteString(projectLines)
	b.WriteString("\n\n(Details + references: `projects.json` and `evidence.jsonl`)\n\n---\n\n")

	b.WriteString("## Worldview Signals (Descriptive)\n\n")
	b.WriteString("Across conversations, several recurring lenses may appear:\n\n")
	b.WriteString(strings.Join(lenses, "\n"))
	b.WriteString("\n\nThese are descriptive patterns, not definitive traits.\n")
	b.WriteString("They are grounded in recurring concepts and evidence excerpts rather than inferred personality claims.\n\n")
	b.WriteString("(Details: `concepts.json` and `evidence.jsonl`)\n\n---\n\n")

	b.WriteString("## Core Concepts & Frameworks\n\n")
	b.WriteString("These ideas recur across conversations and shape how I reason:\n\n")
	b.WriteString(conceptLines)
	b.WriteString("\n\n(Details + tensions + evolution: `concepts.json`)\n\n---\n\n")

	b.WriteString("## How to Use This With Other AIs\n\n")
	b.WriteString("This folder is designed to be portable (Markdown + JSON).\n\n")
	b.WriteString("Suggested flow for Claude (or another AI):\n")
	b.WriteString("1. Start with this file (`overview.md`)\n")
	b.WriteString("2. Use `projects.json` for timelines, status, and key references\n")
	b.WriteString("3. Use `concepts.json` for definitions and tensions\n")
	b.WriteString("4. Use `evidence.jsonl` when you want grounding or citations\n\n")
	b.WriteString("This snapshot reflects how I was thinking at the time of export.\n")
	return b.String()
}

// renderDigest groups evidence by conversation in first-seen order and lists up to
// digestRowsPerConv excerpts per group.
func renderDigest(evidence []snapshot.EvidenceRow) string {
	var order []string
	groups := make(map[string][]snapshot.EvidenceRow)
	for _, r := range evidence {
		if _, ok := groups[r.ConversationID]; !ok {
			order = append(order, r.ConversationID)
		}
		groups[r.ConversationID] = append(groups[r.ConversationID], r)
	}

	var sections []string
	for _, id := range order {
		rows := groups[id]
		first := rows[0]
		date := first.DateString()
		if date == "" {
			date = "—"
		}
		title := first.TitleString()
		if first.ConversationTitle == nil {
			title = first.ConversationID
		}
		sections = append(sections, fmt.Sprintf("### %s — %s", date, escapeMarkdownInline(title)))
		for i, r := range rows {
			if i == digestRowsPerConv {
				break
			}
			sections = append(sections, fmt.Sprintf("- **%s** (%s)  \n  %s", r.ID, r.Role, fileutils.Truncate(r.Text, digestTextChars)))
		}
	}

	var b strings.Builder
	b.WriteString("# Evidence Digest (Selected Excerpts)\n\n")
	b.WriteString("This is a curated set of excerpts pulled from the original ChatGPT export.\n")
	b.WriteString("It exists to support trust, troubleshooting, and portability.\n\n")
	b.WriteString("- It is not comprehensive.\n")
	b.WriteString("- It prioritizes: project naming, decisions/constraints, definitions, outputs, and repeated questions.\n")
	b.WriteString("- Use evidence IDs (e.g., `ev_00012`) to reference exact excerpts in other tools.\n\n")
	b.WriteString("---\n\n")
	b.WriteString("## How to read this\n")
	b.WriteString("- Scan by date to see evolution over time.\n")
	b.WriteString("- Use it as a bridge when moving to another AI.\n")
	b.WriteString("- If something in `overview.md` feels wrong, this is where to verify.\n\n")
	b.WriteString("---\n\n")
	b.WriteString("## Excerpts (Chronological)\n\n")
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n")
	return b.String()
}

const decisionsMarkdown = "# Decisions & Open Questions\n\n" +
	"This file is a placeholder. A full pipeline would infer decisions (e.g. \"I will…\", \"we're doing…\") and open questions from evidence.\n\n" +
	"- Decisions: (run fuller extraction to populate)\n" +
	"- Open questions: (run fuller extraction to populate)\n\n" +
	"(Reference `evidence.jsonl` and `projects.json` for grounding.)\n"

const readmeMarkdown = "# Portable ChatGPT Data Transformer — Continuity Snapshot\n\n" +
	"This folder contains a summarized snapshot of how I used ChatGPT:\n" +
	"- what I worked on\n" +
	"- what ideas recur\n" +
	"- what decisions I made\n" +
	"- what questions remain open\n" +
	"- and evidence excerpts from original conversations\n\n" +
	"This is a summary, not a full transcript.\n\n" +
	"---\n\n" +
	"## Use this with Claude\n\n" +
	"1) Upload this folder (or paste key files) into Claude.\n" +
	"2) Start with `overview.md`.\n" +
	"3) Then use structured files depending on what you need:\n" +
	"   - `projects.json` for active work, timelines, and references\n" +
	"   - `concepts.json` for frameworks and worldview signals\n" +
	"   - `evidence.jsonl` for grounding and citation\n\n" +
	"### Example prompts for Claude\n\n" +
	"- \"Summarize my active projects and what I was trying to achieve. Use evidence when possible.\"\n" +
	"- \"What concepts recur across my work? Give definitions and tensions, and cite evidence IDs.\"\n" +
	"- \"Generate stance pages from concepts and projects. Keep claims grounded in evidence.\"\n" +
	"- \"Find my open questions and propose next steps, referencing supporting excerpts.\"\n\n" +
	"---\n\n" +
	"## Evidence file\n\n" +
	"`evidence.jsonl` contains short, high-signal excerpts from the original conversations.\n" +
	"Each item includes:\n" +
	"- where it came from (conversation ID/title/date)\n" +
	"- role (user/assistant)\n" +
	"- and a stable evidence ID you can cite\n\n" +
	"The `schema/` folder has JSON Schemas for the evidence rows, the snapshot and the profile synopsis.\n\n" +
	"---\n\n" +
	"## Works with other AI tools too\n\n" +
	"These files are plain Markdown and JSON.\n" +
	"Any AI or tool that can read text files can use them as context.\n\n" +
	"Suggested workflow:\n" +
	"- Feed `overview.md` first\n" +
	"- Add `projects.json` and `concepts.json`\n" +
	"- Pull supporting items from `evidence.jsonl` when you need citations\n"

// escapeMarkdownInline keeps titles on one line so they cannot open a new block.
func escapeMarkdownInline(s string) string {
	return fileutils.SingleLine(s)
}
