package snapshot

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var junkTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^new chat$`),
	regexp.MustCompile(`(?i)^untitled$`),
	regexp.MustCompile(`(?i)^chat$`),
	regexp.MustCompile(`(?i)^test$`),
	regexp.MustCompile(`(?i)^(hi|hello|hey|yo|sup)$`),
	regexp.MustCompile(`^.{0,3}$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`(?i)^(continue|continued|part \d|follow up)$`),
}

// IsJunkTitle reports whether a title carries no project signal (placeholders, greetings,
// bare numbers, anything three characters or shorter).
func IsJunkTitle(title string) bool {
	t := strings.TrimSpace(title)
	for _, p := range junkTitlePatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

var (
	titleSuffixNoise = regexp.MustCompile(`(?i)\s*[-–—:]\s*(continued|cont|part\s*\d+|v\d+|draft|revised|updated|final)\s*$`)
	titlePrefixNoise = regexp.MustCompile(`(?i)^\s*(re|fwd|fw|continued|updated)[\s:]+`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// normalizeTitle lowercases a title and strips continuation suffixes and reply prefixes.
func normalizeTitle(title string) string {
	s := strings.ToLower(title)
	s = titleSuffixNoise.ReplaceAllString(s, "")
	s = titlePrefixNoise.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var similarityStopwords = toSet(
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "for", "with", "this", "that",
	"my", "your", "how", "to", "of", "in", "on", "help", "me", "can", "you", "about", "from",
	"what", "i", "do", "it",
)

func contentWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(s) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := similarityStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// titlesSimilar compares two normalized titles by content-word overlap relative to the
// shorter word list.
func titlesSimilar(a, b string, ratio float64) bool {
	wa, wb := contentWords(a), contentWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return false
	}
	setA := toSet(wa...)
	shared := 0
	for _, w := range wb {
		if _, ok := setA[w]; ok {
			shared++
		}
	}
	return shared >= 1 && float64(shared)/float64(min(len(wa), len(wb))) >= ratio
}

type projectTypeRule struct {
	pattern *regexp.Regexp
	label   string
}

const ProjectTypeGeneric = "Project"

var projectTypeRules = []projectTypeRule{
	{regexp.MustCompile(`(?i)\b(api|code|debug|script|function|component|deploy|server|database|schema|typescript|react|python|css|html|webpack|docker|kubernetes|aws|lambda|endpoint|repo|github)\b`), "Technical · Engineering"},
	{regexp.MustCompile(`(?i)\b(mvp|product|feature|roadmap|launch|platform|saas|app|prototype|mockup|wireframe|onboarding)\b`), "Product · Platform"},
	{regexp.MustCompile(`(?i)\b(article|essay|blog|write|draft|substack|book|publish|edit|newsletter|manuscript|chapter)\b`), "Writing · Publishing"},
	{regexp.MustCompile(`(?i)\b(strategy|business|pricing|market|revenue|growth|positioning|pitch|investor|funding)\b`), "Business · Strategy"},
	{regexp.MustCompile(`(?i)\b(community|network|chapter|organizing|collective|meetup|event|volunteer|coalition)\b`), "Community · Organizing"},
	{regexp.MustCompile(`(?i)\b(research|framework|methodology|theory|analysis|study|literature|taxonomy)\b`), "Research · Frameworks"},
	{regexp.MustCompile(`(?i)\b(design|visual|ui|ux|layout|brand|logo|style|figma|illustration)\b`), "Design · Creative"},
}

// ProjectTypeLabels lists every label InferProjectType can return, generic last.
func ProjectTypeLabels() []string {
	out := make([]string, 0, len(projectTypeRules)+1)
	for _, r := range projectTypeRules {
		out = append(out, r.label)
	}
	return append(out, ProjectTypeGeneric)
}

// InferProjectType matches the name against the domain rules, then the first sampleSize
// user messages joined by spaces.
func InferProjectType(name string, samples []string, sampleSize int) string {
	lower := strings.ToLower(name)
	for _, r := range projectTypeRules {
		if r.pattern.MatchString(lower) {
			return r.label
		}
	}
	if len(samples) > sampleSize {
		samples = samples[:sampleSize]
	}
	sample := strings.ToLower(strings.Join(samples, " "))
	for _, r := range projectTypeRules {
		if r.pattern.MatchString(sample) {
			return r.label
		}
	}
	return ProjectTypeGeneric
}

// InferProjectStatus buckets a project by days since its last activity.
func InferProjectStatus(lastDate string, now time.Time, t Tuning) ProjectStatus {
	if lastDate == "" {
		return StatusOngoing
	}
	last, err := time.Parse(time.DateOnly, lastDate)
	if err != nil {
		return StatusOngoing
	}
	days := now.Sub(last).Hours() / 24
	switch {
	case days < float64(t.ActiveWithinDays):
		return StatusActive
	case days < float64(t.OngoingWithinDays):
		return StatusOngoing
	}
	return StatusComplete
}

// maxProjectSamples stops sample collection; the last append may overshoot by one.
const maxProjectSamples = 8

// titleStats aggregates every conversation sharing one title key.
type titleStats struct {
	count        int
	firstDate    string
	lastDate     string
	messageCount int
	samples      []string
}

func (s *titleStats) widen(first, last string) {
	if first != "" && (s.firstDate == "" || first < s.firstDate) {
		s.firstDate = first
	}
	if last != "" && (s.lastDate == "" || last > s.lastDate) {
		s.lastDate = last
	}
}

// titleIndex keeps title stats in first-seen order.
type titleIndex struct {
	keys  []string
	stats map[string]*titleStats
}

func newTitleIndex() *titleIndex {
	return &titleIndex{stats: make(map[string]*titleStats)}
}

// observe records one conversation under key.
func (ix *titleIndex) observe(key, first, last string, messages int, userMsgs []string) {
	st, ok := ix.stats[key]
	if !ok {
		ix.keys = append(ix.keys, key)
		ix.stats[key] = &titleStats{
			count:        1,
			firstDate:    first,
			lastDate:     last,
			messageCount: messages,
			samples:      append([]string(nil), userMsgs[:min(3, len(userMsgs))]...),
		}
		return
	}
	st.count++
	st.messageCount += messages
	if len(st.samples) < maxProjectSamples {
		st.samples = append(st.samples, userMsgs[:min(2, len(userMsgs))]...)
	}
	st.widen(first, last)
}

type cluster struct {
	name   string
	titles []string
	stats  titleStats
}

// clusterProjects greedily merges similar title keys and returns the top projects.
func clusterProjects(ix *titleIndex, now time.Time, t Tuning) []ProjectSummary {
	assigned := make(map[string]struct{}, len(ix.keys))
	var clusters []*cluster

	for _, key := range ix.keys {
		if _, ok := assigned[key]; ok {
			continue
		}
		base := ix.stats[key]
		c := &cluster{
			name:   key,
			titles: []string{key},
			stats: titleStats{
				count:        base.count,
				firstDate:    base.firstDate,
				lastDate:     base.lastDate,
				messageCount: base.messageCount,
				samples:      append([]string(nil), base.samples...),
			},
		}
		assigned[key] = struct{}{}
		norm := normalizeTitle(key)

		for _, other := range ix.keys {
			if _, ok := assigned[other]; ok {
				continue
			}
			otherNorm := normalizeTitle(other)
			if otherNorm != norm && !titlesSimilar(norm, otherNorm, t.TitleOverlapRatio) {
				continue
			}
			st := ix.stats[other]
			c.titles = append(c.titles, other)
			c.stats.count += st.count
			c.stats.messageCount += st.messageCount
			c.stats.widen(st.firstDate, st.lastDate)
			if len(c.stats.samples) < maxProjectSamples {
				c.stats.samples = append(c.stats.samples, st.samples[:min(2, len(st.samples))]...)
			}
			assigned[other] = struct{}{}
		}

		if len(c.titles) > 1 {
			if best := shortestNonJunk(c.titles); best != "" {
				c.name = best
			}
		}
		clusters = append(clusters, c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		si := clusters[i].stats.count*3 + clusters[i].stats.messageCount
		sj := clusters[j].stats.count*3 + clusters[j].stats.messageCount
		if si != sj {
			return si > sj
		}
		return clusters[i].stats.lastDate > clusters[j].stats.lastDate
	})
	if len(clusters) > t.TopProjectCount {
		clusters = clusters[:t.TopProjectCount]
	}

	out := make([]ProjectSummary, 0, len(clusters))
	for _, c := range clusters {
		out = append(out, ProjectSummary{
			Name:              c.name,
			FirstDate:         c.stats.firstDate,
			LastDate:          c.stats.lastDate,
			ProjectType:       InferProjectType(c.name, c.stats.samples, t.ProjectSampleMessages),
			Status:            InferProjectStatus(c.stats.lastDate, now, t),
			ConversationCount: c.stats.count,
		})
	}
	return out
}

func shortestNonJunk(titles []string) string {
	best := ""
	for _, t := range titles {
		if IsJunkTitle(t) {
			continue
		}
		if best == "" || textLen(t) < textLen(best) {
			best = t
		}
	}
	return best
}
