package snapshot

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var themeStopwords = toSet(
	// function words
	"the", "a", "an", "and", "or", "but", "is", "are", "was", "were", "to", "of", "in", "on", "for",
	"with", "this", "that", "it", "i", "my", "me", "we", "you", "can", "could", "would", "should",
	"have", "has", "do", "does", "what", "how", "why", "when", "if", "about", "just", "like", "also",
	"some", "from", "been", "more", "they", "them", "your", "will", "each", "make", "than", "here",
	"want", "need", "into", "over", "only", "very", "much", "well", "then", "there", "these", "those",
	"where", "thing", "things", "something", "being", "other", "which", "their", "our", "its", "not",
	"all", "any", "had", "did", "get", "got", "give", "take", "say", "said", "tell", "know", "think",
	"come", "go", "see", "look", "use", "used", "try", "keep", "let", "put", "set", "seem", "help",
	"show", "turn", "call", "work", "may", "might", "still", "way", "own", "most", "too", "even",
	"back", "now", "long", "great", "little", "good", "new", "first", "last", "next", "same", "few",
	"right", "big", "high", "old", "different", "small", "large", "important", "enough",
	// fillers
	"yeah", "yes", "okay", "sure", "thanks", "thank", "please", "sorry", "actually", "basically",
	"really", "probably", "maybe", "definitely", "already", "always", "never", "often",
	// pronouns and quantifiers
	"everything", "anything", "nothing", "everyone", "anyone", "someone", "people", "person",
	"time", "times", "part", "kind", "sort", "type", "able", "based", "specific", "general",
	// gerunds
	"going", "looking", "doing", "making", "getting", "coming", "taking", "working", "writing",
	"reading", "running", "trying", "saying", "talking", "feeling", "thinking", "using",
	// verbs and contractions
	"start", "create", "don't", "doesn", "didn", "that's", "it's", "let's", "i'm", "he's",
	"she's", "we're", "they're", "i've", "we've", "i'll", "we'll", "won't", "can't",
	// assistant noise
	"chatgpt", "chat", "gpt", "openai", "message", "response", "conversation", "prompt",
	"context", "output", "input", "text", "content", "information", "version", "model",
	"assistant", "user", "system", "token", "tokens", "claude",
	// code and design noise
	"code", "page", "section", "header", "card", "button", "component", "style", "color",
	"layout", "function", "file", "data", "list", "form", "table", "image", "link", "error",
	"debug", "config", "class", "method", "variable", "array", "string", "number", "object",
	"null", "undefined", "true", "false", "return", "const", "import", "export",
	// title noise
	"help", "question", "issue", "problem", "update", "review", "discuss",
	"plan", "idea", "draft", "notes", "meeting", "title", "name",
	"build", "test", "check", "fix", "setup", "configure", "quick",
)

func toSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var nonThemeChars = regexp.MustCompile(`[^\w\s'-]`)

// themeWords lowercases s, blanks out everything except word chars, whitespace,
// apostrophes and hyphens, and keeps non-stopword tokens longer than minLen.
func themeWords(s string, minLen int) []string {
	cleaned := nonThemeChars.ReplaceAllString(strings.ToLower(s), " ")
	var out []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) <= minLen {
			continue
		}
		if _, stop := themeStopwords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

type phraseStat struct {
	phrase  string
	count   int
	sources map[string]struct{}
}

// themeExtractor ranks recurring phrases across high-signal messages and titles.
type themeExtractor struct {
	t     Tuning
	texts []string

	properNoun map[string]bool
}

// ExtractThemes returns up to Tuning.ThemeCount title-cased interest tags. Bigrams must recur
// in at least ThemeMinConversations distinct sources; distinctive title words fill the rest.
// Words that read as proper nouns in the high-signal texts are never emitted.
func ExtractThemes(items []HighSignalItem, titles []string, t Tuning) []string {
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	x := &themeExtractor{t: t, texts: texts, properNoun: make(map[string]bool)}
	return x.extract(items, titles)
}

func (x *themeExtractor) extract(items []HighSignalItem, titles []string) []string {
	var order []*phraseStat
	stats := make(map[string]*phraseStat)
	add := func(words []string, source string) {
		for j := 0; j+1 < len(words); j++ {
			bg := words[j] + " " + words[j+1]
			if len(bg) < x.t.ThemeMinBigramLength {
				continue
			}
			st, ok := stats[bg]
			if !ok {
				st = &phraseStat{phrase: bg, sources: make(map[string]struct{})}
				stats[bg] = st
				order = append(order, st)
			}
			st.count++
			st.sources[source] = struct{}{}
		}
	}

	limit := min(len(items), x.t.ThemeMaxItems)
	for _, it := range items[:limit] {
		add(themeWords(it.Text, 2), it.ConvID)
	}
	for i, title := range titles {
		add(themeWords(title, 2), fmt.Sprintf("title_%d", i))
	}

	ranked := make([]*phraseStat, 0, len(order))
	for _, st := range order {
		if st.count >= x.t.ThemeMinOccurrences && len(st.sources) >= x.t.ThemeMinConversations {
			ranked = append(ranked, st)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if len(ranked[i].sources) != len(ranked[j].sources) {
			return len(ranked[i].sources) > len(ranked[j].sources)
		}
		return ranked[i].count > ranked[j].count
	})
	if len(ranked) > x.t.ThemeMaxRanked {
		ranked = ranked[:x.t.ThemeMaxRanked]
	}

	results := make([]string, 0, x.t.ThemeCount)
	used := make(map[string]struct{})
	for _, st := range ranked {
		if len(results) >= x.t.ThemeCount {
			break
		}
		words := strings.Split(st.phrase, " ")
		skip := false
		for _, w := range words {
			if x.looksLikeProperNoun(w) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		nice := make([]string, len(words))
		for i, w := range words {
			nice[i] = upperFirst(w)
			used[w] = struct{}{}
		}
		results = append(results, strings.Join(nice, " "))
	}

	for _, w := range x.distinctiveTitleWords(titles, used) {
		if len(results) >= x.t.ThemeCount {
			break
		}
		results = append(results, upperFirst(w))
		used[w] = struct{}{}
	}
	return results
}

type titleWordStat struct {
	word  string
	count int
}

// distinctiveTitleWords returns title words that appear in enough titles to matter but
// few enough to be distinctive, most frequent first.
func (x *themeExtractor) distinctiveTitleWords(titles []string, used map[string]struct{}) []string {
	var order []*titleWordStat
	stats := make(map[string]*titleWordStat)
	for _, title := range titles {
		seen := make(map[string]struct{})
		for _, w := range themeWords(title, 3) {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			st, ok := stats[w]
			if !ok {
				st = &titleWordStat{word: w}
				stats[w] = st
				order = append(order, st)
			}
			st.count++
		}
	}

	total := float64(max(len(titles), 1))
	candidates := make([]*titleWordStat, 0, len(order))
	for _, st := range order {
		pct := float64(st.count) / total
		if pct < x.t.TitleWordMinFreq || pct > x.t.TitleWordMaxFreq || st.count < x.t.TitleWordMinTitles {
			continue
		}
		if _, ok := used[st.word]; ok {
			continue
		}
		if x.looksLikeProperNoun(st.word) {
			continue
		}
		candidates = append(candidates, st)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].count > candidates[j].count })

	out := make([]string, len(candidates))
	for i, st := range candidates {
		out[i] = st.word
	}
	return out
}

// looksLikeProperNoun counts, over the first ProperNounSampleTexts texts, how often word
// appears capitalized right after a lowercase letter versus how often it appears at all.
func (x *themeExtractor) looksLikeProperNoun(word string) bool {
	if v, ok := x.properNoun[word]; ok {
		return v
	}
	v := properNounRatio(word, x.texts, x.t)
	x.properNoun[word] = v
	return v
}

func properNounRatio(word string, texts []string, t Tuning) bool {
	if word == "" {
		return false
	}
	quoted := regexp.QuoteMeta(word)
	mid := regexp.MustCompile(`[a-z]\s+` + regexp.QuoteMeta(upperFirst(word)) + `\b`)
	all := regexp.MustCompile(`(?i)\b` + quoted + `\b`)

	sample := texts
	if len(sample) > t.ProperNounSampleTexts {
		sample = sample[:t.ProperNounSampleTexts]
	}
	midCount, total := 0, 0
	for _, s := range sample {
		midCount += len(mid.FindAllStringIndex(s, -1))
		total += len(all.FindAllStringIndex(s, -1))
	}
	return total >= t.ProperNounMinAppearances && float64(midCount)/float64(total) > t.ProperNounRatio
}
