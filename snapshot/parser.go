// Package snapshot turns a ChatGPT conversations.json export into an aggregate profile
// (usage signature, top projects, interest tags, monthly activity) plus a flat list of
// evidence rows, one per extracted message.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// ErrNotArray is returned when the top-level JSON value is not a list of conversations.
var ErrNotArray = errors.New("expected conversations.json to be a list of conversations")

// ParseOptions configures a Parser. Zero fields take defaults.
type ParseOptions struct {
	// Tuning overrides the heuristic thresholds (defaults to DefaultTuning()).
	Tuning *Tuning

	// Now is the reference clock for the future-timestamp bound and project status.
	Now func() time.Time

	Logger *zap.Logger
}

// Parser is safe for concurrent use; each parse builds its own accumulator.
type Parser struct {
	tuning     Tuning
	now        func() time.Time
	logger     *zap.Logger
	classifier *Classifier
}

func NewParser(opts ParseOptions) (*Parser, error) {
	t := DefaultTuning()
	if opts.Tuning != nil {
		t = *opts.Tuning
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	p := &Parser{
		tuning:     t,
		now:        opts.Now,
		logger:     opts.Logger,
		classifier: NewClassifier(t),
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p, nil
}

// Tuning returns the thresholds in effect.
func (p *Parser) Tuning() Tuning { return p.tuning }

// Parse parses an in-memory export with default options.
func Parse(data []byte) (Result, error) {
	p, err := NewParser(ParseOptions{})
	if err != nil {
		return Result{}, err
	}
	return p.Parse(data)
}

func (p *Parser) Parse(data []byte) (Result, error) {
	return p.ParseReader(context.Background(), bytes.NewReader(data))
}

// ParseFile streams the export at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (Result, error) {
	if path == "" {
		return Result{}, errors.New("ParseFile: path is empty")
	}
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("ParseFile: open input: %w", err)
	}
	defer f.Close()
	return p.ParseReader(ctx, f)
}

// ParseReader decodes the top-level array one conversation at a time, so memory use is
// bounded by the largest single conversation plus the accumulated results.
func (p *Parser) ParseReader(ctx context.Context, r io.Reader) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("ParseReader: ctx is nil")
	}
	if r == nil {
		return Result{}, errors.New("ParseReader: reader is nil")
	}

	// Exports are typically one huge line.
	dec := json.NewDecoder(bufio.NewReaderSize(r, 1<<20))

	tok, err := dec.Token()
	if err != nil {
		return Result{}, fmt.Errorf("ParseReader: read first token: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return Result{}, ErrNotArray
	}

	started := time.Now()
	acc := p.newAccumulator()
	for i := 0; dec.More(); i++ {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Result{}, fmt.Errorf("ParseReader: decode conversation %d: %w", i, err)
		}
		acc.addConversation(i, gjson.ParseBytes(raw))
	}
	if tok, err := dec.Token(); err != nil {
		return Result{}, fmt.Errorf("ParseReader: read closing array token: %w", err)
	} else if d, ok := tok.(json.Delim); !ok || d != ']' {
		return Result{}, fmt.Errorf("ParseReader: expected closing ']', got %v", tok)
	}

	res := acc.finish()
	p.logger.Debug("parsed export",
		zap.Int("conversations", res.Snapshot.ConversationCount),
		zap.Int("messages", res.Snapshot.MessageCount),
		zap.Int("projects", len(res.Snapshot.TopProjects)),
		zap.Int("interest_tags", len(res.Snapshot.InterestTags)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return res, nil
}

type userMessage struct {
	text  string
	title *string
}

// accumulator holds the running state of one parse.
type accumulator struct {
	p        *Parser
	now      time.Time
	maxEpoch float64

	conversations int
	evidence      []EvidenceRow
	userMsgs      []userMessage
	highSignal    []HighSignalItem
	titles        []string
	titleIndex    *titleIndex
	monthCounts   map[string]int
	firstDate     string
	lastDate      string
	skipped       int
}

func (p *Parser) newAccumulator() *accumulator {
	now := p.now()
	return &accumulator{
		p:           p,
		now:         now,
		maxEpoch:    float64(now.Unix()) + float64(p.tuning.FutureSkewDays)*86400,
		evidence:    make([]EvidenceRow, 0, 256),
		titleIndex:  newTitleIndex(),
		monthCounts: make(map[string]int),
	}
}

func (a *accumulator) date(ts float64) string {
	if !isValidTimestamp(ts, a.p.tuning.MinValidEpoch, a.maxEpoch) {
		return ""
	}
	return dateFromEpoch(ts)
}

func (a *accumulator) addConversation(index int, conv gjson.Result) {
	a.conversations++

	mapping := conv.Get("mapping")
	switch mapping.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		a.skipped++
		a.p.logger.Debug("skipping conversation with scalar mapping", zap.Int("index", index))
		return
	}

	title := conversationTitle(conv)
	ref := conversationRef(conv, index)
	titleText := ""
	if title != nil {
		titleText = *title
	}
	convID := stableID("conv", ref, titleText)

	trimmedTitle := strings.TrimSpace(titleText)
	if trimmedTitle != "" {
		a.titles = append(a.titles, trimmedTitle)
	}

	nodes := linearize(mapping)
	var convUserMsgs []string
	convFirst, convLast := "", ""

	for t, m := range nodes {
		d := a.date(m.CreateTime)
		var datePtr *string
		if d != "" {
			datePtr = &d
			if convFirst == "" || d < convFirst {
				convFirst = d
			}
			if d > convLast {
				convLast = d
			}
			if a.firstDate == "" || d < a.firstDate {
				a.firstDate = d
			}
			if d > a.lastDate {
				a.lastDate = d
			}
		}

		a.evidence = append(a.evidence, EvidenceRow{
			ID:                fmt.Sprintf("ev_%05d", len(a.evidence)),
			Date:              datePtr,
			Role:              m.Role,
			Text:              m.Text,
			ConversationID:    convID,
			ConversationTitle: title,
			TurnIndex:         t,
			Source: EvidenceSource{
				Platform:        sourcePlatform,
				ExportFormat:    sourceExportFormat,
				ConversationRef: ref,
				NodeID:          m.NodeID,
			},
		})

		if m.Role == RoleUser {
			a.userMsgs = append(a.userMsgs, userMessage{text: m.Text, title: title})
			convUserMsgs = append(convUserMsgs, m.Text)
			if ScoreEvidence(m.Role, m.Text) >= a.p.tuning.HighSignalThreshold {
				a.highSignal = append(a.highSignal, HighSignalItem{Text: m.Text, ConvID: convID})
			}
		}
	}

	if trimmedTitle != "" && !IsJunkTitle(trimmedTitle) {
		key := truncateUnits(trimmedTitle, a.p.tuning.TitleKeyMaxChars)
		a.titleIndex.observe(key, convFirst, convLast, len(nodes), convUserMsgs)
	}
	if convFirst != "" {
		a.monthCounts[convFirst[:7]]++
	}
}

func (a *accumulator) finish() Result {
	usage := a.usageSignature()
	projects := clusterProjects(a.titleIndex, a.now, a.p.tuning)
	tags := ExtractThemes(a.highSignal, a.titles, a.p.tuning)

	snap := Snapshot{
		ConversationCount: a.conversations,
		MessageCount:      len(a.evidence),
		DateRange:         DateRange{First: a.firstDate, Last: a.lastDate},
		UsageSignature:    usage,
		TopProjects:       projects,
		InterestTags:      tags,
		ActivityByMonth:   monthlyActivity(a.monthCounts),
	}
	switch {
	case len(tags) > 0:
		snap.PrimaryLens = tags[0]
	case len(usage) > 0:
		snap.PrimaryLens = usage[0].Label
	}
	if a.skipped > 0 {
		a.p.logger.Warn("conversations skipped", zap.Int("count", a.skipped))
	}
	return Result{Snapshot: snap, Evidence: a.evidence}
}

// usageSignature classifies an evenly strided sample of user messages and converts the
// counts to integer percentages that sum to exactly 100.
func (a *accumulator) usageSignature() []UsageCategory {
	n := len(a.userMsgs)
	sampleSize := min(a.p.tuning.ClassifierSampleSize, n)
	step := 1
	if n > 0 {
		step = max(1, n/sampleSize)
	}

	counts := make(map[string]int, len(UsageCategories))
	sampled := 0
	for i := 0; i < n && sampled < sampleSize; i += step {
		m := a.userMsgs[i]
		counts[a.p.classifier.Classify(m.text, m.title)]++
		sampled++
	}
	total := float64(max(sampled, 1))

	sig := make([]UsageCategory, len(UsageCategories))
	sum := 0
	for i, c := range UsageCategories {
		pct := int(math.Round(float64(counts[c.ID]) / total * 100))
		sig[i] = UsageCategory{ID: c.ID, Label: c.Label, Count: counts[c.ID], Pct: pct}
		sum += pct
	}
	if sum != 100 && sum > 0 {
		largest := 0
		for i := range sig {
			if sig[i].Pct > sig[largest].Pct {
				largest = i
			}
		}
		sig[largest].Pct += 100 - sum
	}
	sort.SliceStable(sig, func(i, j int) bool { return sig[i].Pct > sig[j].Pct })

	out := make([]UsageCategory, 0, len(sig))
	for _, u := range sig {
		if u.Pct > 0 {
			out = append(out, u)
		}
	}
	return out
}

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func monthlyActivity(counts map[string]int) []MonthlyActivity {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]MonthlyActivity, 0, len(keys))
	for _, ym := range keys {
		label := ym
		if t, err := time.Parse("2006-01", ym); err == nil {
			label = fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
		}
		out = append(out, MonthlyActivity{Label: label, YearMonth: ym, Count: counts[ym]})
	}
	return out
}
