package proficiency

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// minTokensForLevel is the minimum total tokens read before the level is
// recomputed, so a handful of early lookups cannot whipsaw the level.
const minTokensForLevel = 1000

// DefaultChallenge is the default i+1 offset above current proficiency.
const DefaultChallenge = 0.1

// Estimator maintains the singleton proficiency profile.
type Estimator struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewEstimator creates an Estimator. logger may be nil.
func NewEstimator(conn *sql.DB, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{conn: conn, logger: logger}
}

// Get loads the profile, creating the singleton row on first use.
func (e *Estimator) Get() (UserProficiency, error) {
	p, err := loadProfile(e.conn)
	if err == sql.ErrNoRows {
		if _, err := e.conn.Exec(`INSERT INTO user_proficiency (id) VALUES (1)`); err != nil {
			return p, fmt.Errorf("create proficiency row: %w", err)
		}
		return loadProfile(e.conn)
	}
	return p, err
}

func loadProfile(conn *sql.DB) (UserProficiency, error) {
	var p UserProficiency
	var level string
	err := conn.QueryRow(
		`SELECT level, total_characters_read, total_tokens_read, total_lookups,
		        total_reading_time_seconds, avg_lookup_rate, avg_reading_speed,
		        easy_ratings, just_right_ratings, hard_ratings,
		        kanji_proficiency, lexical_proficiency, grammar_proficiency, reading_proficiency,
		        target_kanji_difficulty, target_lexical_difficulty, target_grammar_difficulty,
		        auto_furigana_threshold, auto_meanings_threshold,
		        created_at, updated_at
		 FROM user_proficiency WHERE id = 1`,
	).Scan(
		&level, &p.TotalCharactersRead, &p.TotalTokensRead, &p.TotalLookups,
		&p.TotalReadingTimeSeconds, &p.AvgLookupRate, &p.AvgReadingSpeed,
		&p.EasyRatings, &p.JustRightRatings, &p.HardRatings,
		&p.KanjiProficiency, &p.LexicalProficiency, &p.GrammarProficiency, &p.ReadingProficiency,
		&p.TargetKanjiDifficulty, &p.TargetLexicalDifficulty, &p.TargetGrammarDifficulty,
		&p.AutoFuriganaThreshold, &p.AutoMeaningsThreshold,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}
	parsed, perr := ParseLevel(level)
	if perr != nil {
		parsed = LevelBeginner
	}
	p.Level = parsed
	return p, nil
}

// RecordSession accumulates one reading session's metrics, recomputes the
// rolling rates and, once enough tokens have been read, the level.
func (e *Estimator) RecordSession(characters, tokens, lookups, seconds int) (UserProficiency, error) {
	if characters < 0 || tokens < 0 || lookups < 0 || seconds < 0 {
		return UserProficiency{}, fmt.Errorf("session metrics must be non-negative")
	}

	p, err := e.Get()
	if err != nil {
		return p, err
	}

	p.TotalCharactersRead += characters
	p.TotalTokensRead += tokens
	p.TotalLookups += lookups
	p.TotalReadingTimeSeconds += seconds

	if p.TotalTokensRead > 0 {
		p.AvgLookupRate = float64(p.TotalLookups) / float64(p.TotalTokensRead) * 100
	}
	if p.TotalReadingTimeSeconds > 0 {
		p.AvgReadingSpeed = float64(p.TotalCharactersRead) / float64(p.TotalReadingTimeSeconds) * 60
	}

	if p.TotalTokensRead >= minTokensForLevel {
		newLevel := LevelForLookupRate(p.AvgLookupRate)
		if newLevel != p.Level {
			e.logger.Info("proficiency level changed",
				zap.String("from", string(p.Level)),
				zap.String("to", string(newLevel)),
				zap.Float64("lookup_rate", p.AvgLookupRate))
			p.Level = newLevel
		}
	}
	p.UpdatedAt = time.Now()

	_, err = e.conn.Exec(
		`UPDATE user_proficiency
		 SET level = ?, total_characters_read = ?, total_tokens_read = ?, total_lookups = ?,
		     total_reading_time_seconds = ?, avg_lookup_rate = ?, avg_reading_speed = ?,
		     updated_at = ?
		 WHERE id = 1`,
		string(p.Level), p.TotalCharactersRead, p.TotalTokensRead, p.TotalLookups,
		p.TotalReadingTimeSeconds, p.AvgLookupRate, p.AvgReadingSpeed, p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("save session metrics: %w", err)
	}
	return p, nil
}

// RecordRating appends a difficulty rating for content and bumps the matching
// counter on the profile. contentID must reference stored content.
func (e *Estimator) RecordRating(contentID int64, rating Rating, feedback string, chunkPosition int) error {
	if _, err := ParseRating(string(rating)); err != nil {
		return err
	}
	if _, err := e.Get(); err != nil {
		return err
	}

	tx, err := e.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var fb interface{}
	if feedback != "" {
		fb = feedback
	}
	var pos interface{}
	if chunkPosition >= 0 {
		pos = chunkPosition
	}
	if _, err := tx.Exec(
		`INSERT INTO difficulty_ratings (content_id, rating, feedback, chunk_position) VALUES (?, ?, ?, ?)`,
		contentID, string(rating), fb, pos,
	); err != nil {
		return fmt.Errorf("insert rating: %w", err)
	}

	var column string
	switch rating {
	case RatingEasy:
		column = "easy_ratings"
	case RatingJustRight:
		column = "just_right_ratings"
	case RatingHard:
		column = "hard_ratings"
	}
	if _, err := tx.Exec(
		`UPDATE user_proficiency SET `+column+` = `+column+` + 1, updated_at = ? WHERE id = 1`,
		time.Now(),
	); err != nil {
		return fmt.Errorf("bump rating counter: %w", err)
	}
	return tx.Commit()
}

// Recommendations derives reader settings from the current level.
func (e *Estimator) Recommendations() (Recommendations, error) {
	p, err := e.Get()
	if err != nil {
		return Recommendations{}, err
	}
	return RecommendationsForLevel(p.Level), nil
}

// RecommendationsForLevel is the pure mapping from level to reader settings.
func RecommendationsForLevel(level Level) Recommendations {
	r := Recommendations{
		ShowMeanings:     level != LevelAdvanced,
		HighlightUnknown: level != LevelAdvanced,
	}
	switch level {
	case LevelBeginner, LevelElementary:
		r.ShowFurigana = FuriganaAll
		r.FuriganaThreshold = 0.9
	case LevelIntermediate:
		r.ShowFurigana = FuriganaUnknown
		r.FuriganaThreshold = 0.5
	case LevelUpperIntermediate:
		r.ShowFurigana = FuriganaUnknown
		r.FuriganaThreshold = 0.3
	default: // advanced
		r.ShowFurigana = FuriganaNone
		r.FuriganaThreshold = 0.1
	}
	switch level {
	case LevelUpperIntermediate, LevelAdvanced:
		r.SuggestedLevel = LevelAdvanced
	default:
		r.SuggestedLevel = level
	}
	return r
}

// GenerationTargets applies the i+1 policy: each dimension's target is the
// current proficiency plus a bounded challenge offset, capped at 1.
func (e *Estimator) GenerationTargets(challenge float64) (Targets, error) {
	if challenge < 0 || challenge > 1 {
		return Targets{}, fmt.Errorf("challenge must be in [0,1], got %v", challenge)
	}
	p, err := e.Get()
	if err != nil {
		return Targets{}, err
	}
	return Targets{
		Kanji:   capAt1(p.KanjiProficiency + challenge),
		Lexical: capAt1(p.LexicalProficiency + challenge),
		Grammar: capAt1(p.GrammarProficiency + challenge),
	}, nil
}

// UpdateThresholds manually overrides the auto furigana/meaning thresholds.
// Negative values leave the stored threshold unchanged.
func (e *Estimator) UpdateThresholds(furigana, meanings float64) (UserProficiency, error) {
	if furigana > 1 || meanings > 1 {
		return UserProficiency{}, fmt.Errorf("thresholds must be at most 1")
	}
	p, err := e.Get()
	if err != nil {
		return p, err
	}
	if furigana >= 0 {
		p.AutoFuriganaThreshold = furigana
	}
	if meanings >= 0 {
		p.AutoMeaningsThreshold = meanings
	}
	p.UpdatedAt = time.Now()
	_, err = e.conn.Exec(
		`UPDATE user_proficiency
		 SET auto_furigana_threshold = ?, auto_meanings_threshold = ?, updated_at = ?
		 WHERE id = 1`,
		p.AutoFuriganaThreshold, p.AutoMeaningsThreshold, p.UpdatedAt,
	)
	if err != nil {
		return p, fmt.Errorf("save thresholds: %w", err)
	}
	return p, nil
}

func capAt1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
