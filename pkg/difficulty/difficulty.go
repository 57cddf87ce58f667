// Package difficulty computes a multi-dimensional difficulty vector for
// Japanese text. External scorers are injected and every one of them may be
// absent or failing; analysis always degrades to a documented fallback and
// never propagates collaborator errors.
package difficulty

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Metrics is the result of analyzing one text.
type Metrics struct {
	Overall  float64
	Kanji    float64
	Lexical  float64
	Grammar  float64
	Sentence float64
	Level    string

	TotalCharacters   int
	KanjiCount        int
	UniqueKanji       int
	AvgSentenceLength float64
}

// Combined is the simple average of the five component scores, the value the
// categorical level is derived from.
func (m Metrics) Combined() float64 {
	return (m.Overall + m.Kanji + m.Lexical + m.Grammar + m.Sentence) / 5
}

// Difficulty level display names.
const (
	LevelBeginner     = "Beginner"
	LevelElementary   = "Elementary"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
	LevelExpert       = "Expert"
)

// levelThresholds is scanned in ascending order; the first band whose upper
// bound contains the score wins.
var levelThresholds = []struct {
	max   float64
	label string
}{
	{0.2, LevelBeginner},
	{0.4, LevelElementary},
	{0.6, LevelIntermediate},
	{0.8, LevelAdvanced},
}

// LevelForScore maps a combined 0..1 score to its display level.
func LevelForScore(score float64) string {
	for _, band := range levelThresholds {
		if score <= band.max {
			return band.label
		}
	}
	return LevelExpert
}

const (
	// unknownKanjiGrade is assumed for characters the grade source does not
	// know: beyond the jouyou grades, treated as uncommon.
	unknownKanjiGrade = 9
	// fallbackKanjiGrade is assumed when a grade lookup fails outright.
	fallbackKanjiGrade = 5
)

var (
	wordRe     = regexp.MustCompile(`[\x{4e00}-\x{9faf}\x{3040}-\x{309f}\x{30a0}-\x{30ff}]+`)
	sentenceRe = regexp.MustCompile(`[。！？\n]+`)
)

// Analyzer estimates text difficulty. All collaborators are optional; a nil
// collaborator means the corresponding fallback applies. The kanji-grade
// cache lives for the Analyzer's lifetime.
type Analyzer struct {
	readability ReadabilityScorer
	frequency   FrequencySource
	grades      GradeSource
	logger      *zap.Logger

	mu         sync.Mutex
	gradeCache map[rune]int
}

// NewAnalyzer creates an Analyzer with the given collaborators, any of which
// may be nil. logger may also be nil.
func NewAnalyzer(readability ReadabilityScorer, frequency FrequencySource, grades GradeSource, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		readability: readability,
		frequency:   frequency,
		grades:      grades,
		logger:      logger,
		gradeCache:  make(map[rune]int),
	}
}

// Analyze computes the difficulty vector for text. Empty (or whitespace-only)
// input short-circuits to an all-zero Beginner result.
func (a *Analyzer) Analyze(ctx context.Context, text string) Metrics {
	if strings.TrimSpace(text) == "" {
		return Metrics{Level: LevelBeginner}
	}

	m := Metrics{
		Overall:  round3(a.overallScore(ctx, text)),
		Kanji:    round3(a.kanjiScore(ctx, text)),
		Lexical:  round3(a.lexicalScore(text)),
		Grammar:  round3(grammarScore(text)),
		Sentence: round3(sentenceScore(text)),
	}
	m.Level = LevelForScore(m.Combined())

	kanji := extractKanji(text)
	m.TotalCharacters = len([]rune(text))
	m.KanjiCount = len(kanji)
	m.UniqueKanji = len(uniqueRunes(kanji))
	m.AvgSentenceLength = avgSentenceLength(text)
	return m
}

// overallScore prefers the external readability scorer (inverted so 1 = hard)
// and falls back to a kanji-density heuristic.
func (a *Analyzer) overallScore(ctx context.Context, text string) float64 {
	if a.readability != nil {
		score, err := a.readability.Score(ctx, text)
		if err == nil {
			return 1.0 - clamp01(score)
		}
		a.logger.Debug("readability scorer unavailable", zap.Error(err))
	}
	return estimateFromChars(text)
}

// estimateFromChars is the readability fallback: kanji density scaled so a
// text that is half kanji saturates the scale.
func estimateFromChars(text string) float64 {
	runes := []rune(text)
	if len(runes) == 0 {
		return 0
	}
	kanjiRatio := float64(len(extractKanji(text))) / float64(len(runes))
	return math.Min(1.0, kanjiRatio*2)
}

// kanjiScore averages the grade of each distinct kanji, normalized by the
// 10-grade scale. Grade lookups are cached per Analyzer.
func (a *Analyzer) kanjiScore(ctx context.Context, text string) float64 {
	distinct := uniqueRunes(extractKanji(text))
	if len(distinct) == 0 {
		return 0
	}
	total := 0
	for _, k := range distinct {
		total += a.gradeOf(ctx, k)
	}
	avg := float64(total) / float64(len(distinct))
	return math.Min(1.0, avg/10)
}

func (a *Analyzer) gradeOf(ctx context.Context, kanji rune) int {
	a.mu.Lock()
	if g, ok := a.gradeCache[kanji]; ok {
		a.mu.Unlock()
		return g
	}
	a.mu.Unlock()

	grade := fallbackKanjiGrade
	if a.grades != nil {
		g, err := a.grades.Grade(ctx, kanji)
		if err == nil {
			grade = g
		} else {
			a.logger.Debug("kanji grade lookup failed",
				zap.String("kanji", string(kanji)), zap.Error(err))
		}
	}

	a.mu.Lock()
	a.gradeCache[kanji] = grade
	a.mu.Unlock()
	return grade
}

// lexicalScore averages per-word difficulty derived from corpus frequency.
// Without a frequency source the dimension is a flat 0.5.
func (a *Analyzer) lexicalScore(text string) float64 {
	if a.frequency == nil {
		return 0.5
	}
	words := wordRe.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	total := 0.0
	for _, w := range words {
		freq, ok := a.frequency.Frequency(w)
		if ok && freq > 0 {
			total += 1.0 - math.Min(1.0, (freq+0.0001)*100)
		} else {
			total += 0.9
		}
	}
	return total / float64(len(words))
}

// grammarScore weighs occurrences of known grammar patterns. Text with no
// matches gets the basic-text prior of 0.3.
func grammarScore(text string) float64 {
	complexity := 0.0
	totalMatches := 0
	for _, p := range grammarPatterns {
		n := len(p.re.FindAllStringIndex(text, -1))
		if n > 0 {
			complexity += p.weight * float64(n)
			totalMatches += n
		}
	}
	if totalMatches == 0 {
		return 0.3
	}
	return math.Min(1.0, complexity/(float64(totalMatches)*0.5))
}

// sentenceScore derives structural difficulty from sentence-length mean and
// spread.
func sentenceScore(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return 0
	}
	mean := 0.0
	for _, s := range sentences {
		mean += float64(len([]rune(s)))
	}
	mean /= float64(len(sentences))

	variance := 0.0
	for _, s := range sentences {
		d := float64(len([]rune(s))) - mean
		variance += d * d
	}
	variance /= float64(len(sentences))
	stdDev := math.Sqrt(variance)

	lengthScore := clamp01((mean - 10) / 70)
	varianceScore := math.Min(0.3, stdDev/50)
	return math.Min(1.0, lengthScore+varianceScore)
}

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func avgSentenceLength(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, s := range sentences {
		total += len([]rune(s))
	}
	return float64(total) / float64(len(sentences))
}

func extractKanji(text string) []rune {
	var out []rune
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9faf {
			out = append(out, r)
		}
	}
	return out
}

func uniqueRunes(rs []rune) []rune {
	seen := make(map[rune]bool, len(rs))
	var out []rune
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
