// Package vocab tracks per-word mastery from reading and lookup events.
package vocab

import "time"

// Source records how a vocabulary entry entered the set.
type Source string

const (
	SourceReading  Source = "reading"
	SourceManual   Source = "manual"
	SourceImported Source = "imported"
)

// Vocabulary is a distinct dictionary-form entry.
type Vocabulary struct {
	ID             int64
	DictionaryForm string
	Surface        string
	Reading        string
	PitchAccent    string
	Source         Source
	CreatedAt      time.Time
}

// Score holds the mastery counters for one vocabulary entry. The score field
// is always re-derived from the counters, never set directly.
type Score struct {
	VocabularyID       int64
	Score              float64
	TimesSeen          int
	TimesLookedUp      int
	ConsecutiveCorrect int
	LastSeen           time.Time
}

// ScoreUpdate describes the result of one recorded event.
type ScoreUpdate struct {
	VocabularyID       int64
	DictionaryForm     string
	OldScore           float64
	NewScore           float64
	TimesSeen          int
	TimesLookedUp      int
	ConsecutiveCorrect int
}

// WeakEntry pairs a vocabulary entry with its score for weakest-first queries.
type WeakEntry struct {
	Vocabulary Vocabulary
	Score      Score
}

// Summary aggregates mastery across the whole vocabulary set.
type Summary struct {
	TotalTracked   int
	KnownWords     int
	LearningWords  int
	AverageScore   float64
	MasteryPercent float64
	TotalLookups   int
	TotalSeen      int
}
