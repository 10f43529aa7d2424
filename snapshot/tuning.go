package snapshot

import (
	"errors"
	"fmt"
)

// Tuning holds every heuristic threshold the parser uses. The zero value is not usable;
// start from DefaultTuning and override fields (the CLI overlays a TOML or YAML file).
type Tuning struct {
	// Usage classification.
	ClassifierSampleSize int `json:"classifier_sample_size" toml:"classifier_sample_size" yaml:"classifier_sample_size"`
	ClassifierMaxChars   int `json:"classifier_max_chars" toml:"classifier_max_chars" yaml:"classifier_max_chars"`

	// Evidence scoring.
	HighSignalThreshold float64 `json:"high_signal_threshold" toml:"high_signal_threshold" yaml:"high_signal_threshold"`

	// Theme extraction.
	ThemeCount               int     `json:"theme_count" toml:"theme_count" yaml:"theme_count"`
	ThemeMaxItems            int     `json:"theme_max_items" toml:"theme_max_items" yaml:"theme_max_items"`
	ThemeMaxRanked           int     `json:"theme_max_ranked" toml:"theme_max_ranked" yaml:"theme_max_ranked"`
	ThemeMinOccurrences      int     `json:"theme_min_occurrences" toml:"theme_min_occurrences" yaml:"theme_min_occurrences"`
	ThemeMinConversations    int     `json:"theme_min_conversations" toml:"theme_min_conversations" yaml:"theme_min_conversations"`
	ThemeMinBigramLength     int     `json:"theme_min_bigram_length" toml:"theme_min_bigram_length" yaml:"theme_min_bigram_length"`
	ProperNounSampleTexts    int     `json:"proper_noun_sample_texts" toml:"proper_noun_sample_texts" yaml:"proper_noun_sample_texts"`
	ProperNounMinAppearances int     `json:"proper_noun_min_appearances" toml:"proper_noun_min_appearances" yaml:"proper_noun_min_appearances"`
	ProperNounRatio          float64 `json:"proper_noun_ratio" toml:"proper_noun_ratio" yaml:"proper_noun_ratio"`
	TitleWordMinFreq         float64 `json:"title_word_min_freq" toml:"title_word_min_freq" yaml:"title_word_min_freq"`
	TitleWordMaxFreq         float64 `json:"title_word_max_freq" toml:"title_word_max_freq" yaml:"title_word_max_freq"`
	TitleWordMinTitles       int     `json:"title_word_min_titles" toml:"title_word_min_titles" yaml:"title_word_min_titles"`

	// Project clustering.
	TitleKeyMaxChars      int     `json:"title_key_max_chars" toml:"title_key_max_chars" yaml:"title_key_max_chars"`
	TitleOverlapRatio     float64 `json:"title_overlap_ratio" toml:"title_overlap_ratio" yaml:"title_overlap_ratio"`
	TopProjectCount       int     `json:"top_project_count" toml:"top_project_count" yaml:"top_project_count"`
	ProjectSampleMessages int     `json:"project_sample_messages" toml:"project_sample_messages" yaml:"project_sample_messages"`
	ActiveWithinDays      int     `json:"active_within_days" toml:"active_within_days" yaml:"active_within_days"`
	OngoingWithinDays     int     `json:"ongoing_within_days" toml:"ongoing_within_days" yaml:"ongoing_within_days"`

	// Timestamp plausibility window: [MinValidEpoch, now + FutureSkewDays].
	MinValidEpoch  int64 `json:"min_valid_epoch" toml:"min_valid_epoch" yaml:"min_valid_epoch"`
	FutureSkewDays int   `json:"future_skew_days" toml:"future_skew_days" yaml:"future_skew_days"`
}

const (
	defaultClassifierSampleSize = 1000
	defaultClassifierMaxChars   = 1500
	defaultHighSignalThreshold  = 2.0
	defaultThemeCount           = 10
	defaultTopProjectCount      = 6

	// 2022-01-01T00:00:00Z
	defaultMinValidEpoch = 1640995200
)

// DefaultTuning returns the stock thresholds.
func DefaultTuning() Tuning {
	return Tuning{
		ClassifierSampleSize: defaultClassifierSampleSize,
		ClassifierMaxChars:   defaultClassifierMaxChars,

		HighSignalThreshold: defaultHighSignalThreshold,

		ThemeCount:               defaultThemeCount,
		ThemeMaxItems:            500,
		ThemeMaxRanked:           20,
		ThemeMinOccurrences:      3,
		ThemeMinConversations:    3,
		ThemeMinBigramLength:     8,
		ProperNounSampleTexts:    50,
		ProperNounMinAppearances: 3,
		ProperNounRatio:          0.4,
		TitleWordMinFreq:         0.01,
		TitleWordMaxFreq:         0.15,
		TitleWordMinTitles:       3,

		TitleKeyMaxChars:      80,
		TitleOverlapRatio:     0.5,
		TopProjectCount:       defaultTopProjectCount,
		ProjectSampleMessages: 8,
		ActiveWithinDays:      60,
		OngoingWithinDays:     180,

		MinValidEpoch:  defaultMinValidEpoch,
		FutureSkewDays: 30,
	}
}

// Validate reports the first threshold that cannot produce a sensible snapshot.
func (t Tuning) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"classifier_sample_size", t.ClassifierSampleSize},
		{"classifier_max_chars", t.ClassifierMaxChars},
		{"theme_max_items", t.ThemeMaxItems},
		{"theme_max_ranked", t.ThemeMaxRanked},
		{"title_key_max_chars", t.TitleKeyMaxChars},
		{"project_sample_messages", t.ProjectSampleMessages},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("tuning: %s must be > 0 (got %d)", p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    int
	}{
		{"theme_count", t.ThemeCount},
		{"top_project_count", t.TopProjectCount},
		{"theme_min_occurrences", t.ThemeMinOccurrences},
		{"theme_min_conversations", t.ThemeMinConversations},
		{"theme_min_bigram_length", t.ThemeMinBigramLength},
		{"proper_noun_sample_texts", t.ProperNounSampleTexts},
		{"proper_noun_min_appearances", t.ProperNounMinAppearances},
		{"title_word_min_titles", t.TitleWordMinTitles},
		{"future_skew_days", t.FutureSkewDays},
	}
	for _, p := range nonNegative {
		if p.v < 0 {
			return fmt.Errorf("tuning: %s must be >= 0 (got %d)", p.name, p.v)
		}
	}
	if t.TitleWordMinFreq < 0 || t.TitleWordMaxFreq < t.TitleWordMinFreq {
		return errors.New("tuning: title word frequency window is empty")
	}
	if t.TitleOverlapRatio <= 0 || t.TitleOverlapRatio > 1 {
		return fmt.Errorf("tuning: title_overlap_ratio must be in (0,1] (got %v)", t.TitleOverlapRatio)
	}
	if t.ProperNounRatio < 0 || t.ProperNounRatio > 1 {
		return fmt.Errorf("tuning: proper_noun_ratio must be in [0,1] (got %v)", t.ProperNounRatio)
	}
	if t.ActiveWithinDays <= 0 || t.OngoingWithinDays < t.ActiveWithinDays {
		return errors.New("tuning: status windows must satisfy 0 < active_within_days <= ongoing_within_days")
	}
	return nil
}
