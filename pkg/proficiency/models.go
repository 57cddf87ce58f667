package proficiency

import "time"

// UserProficiency is the singleton learner profile.
type UserProficiency struct {
	Level Level

	TotalCharactersRead     int
	TotalTokensRead         int
	TotalLookups            int
	TotalReadingTimeSeconds int

	// Rolling rates, re-derived on every session.
	AvgLookupRate   float64 // lookups per 100 tokens
	AvgReadingSpeed float64 // characters per minute

	EasyRatings      int
	JustRightRatings int
	HardRatings      int

	// Per-dimension proficiency, 0..1, higher is stronger.
	KanjiProficiency   float64
	LexicalProficiency float64
	GrammarProficiency float64
	ReadingProficiency float64

	// Per-dimension targets used when selecting or generating content.
	TargetKanjiDifficulty   float64
	TargetLexicalDifficulty float64
	TargetGrammarDifficulty float64

	AutoFuriganaThreshold float64
	AutoMeaningsThreshold float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FuriganaMode says which words get furigana in the reader.
type FuriganaMode string

const (
	FuriganaAll     FuriganaMode = "all"
	FuriganaUnknown FuriganaMode = "unknown"
	FuriganaNone    FuriganaMode = "none"
)

// Recommendations are reader settings derived from the current level.
type Recommendations struct {
	ShowFurigana      FuriganaMode
	FuriganaThreshold float64 // words scoring below this get furigana
	ShowMeanings      bool
	HighlightUnknown  bool
	SuggestedLevel    Level
}

// Targets are per-dimension difficulty targets for new content (i+1).
type Targets struct {
	Kanji   float64
	Lexical float64
	Grammar float64
}

// Average is the single-value difficulty target.
func (t Targets) Average() float64 {
	return (t.Kanji + t.Lexical + t.Grammar) / 3
}
