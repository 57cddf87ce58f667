package vocab

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkobayashi/dokusho/pkg/db"
)

// Tracker records mastery events against the vocabulary store. Each per-item
// update runs inside one transaction so counter updates never interleave
// partially.
type Tracker struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewTracker creates a Tracker. logger may be nil.
func NewTracker(conn *sql.DB, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{conn: conn, logger: logger}
}

// getOrCreate returns the vocabulary row for a dictionary form, creating it
// (and its score row) on first encounter.
func getOrCreate(ex db.Executor, form string, source Source) (Vocabulary, Score, error) {
	var v Vocabulary
	form = strings.TrimSpace(form)
	if form == "" {
		return v, Score{}, fmt.Errorf("dictionary form must be non-empty")
	}

	var pitch sql.NullString
	err := ex.QueryRow(
		`SELECT id, dictionary_form, surface, reading, pitch_accent, source, created_at
		 FROM vocabulary WHERE dictionary_form = ?`, form,
	).Scan(&v.ID, &v.DictionaryForm, &v.Surface, &v.Reading, &pitch, &v.Source, &v.CreatedAt)
	if err == sql.ErrNoRows {
		res, insErr := ex.Exec(
			`INSERT INTO vocabulary (dictionary_form, surface, source) VALUES (?, ?, ?)`,
			form, form, string(source),
		)
		if insErr != nil {
			return v, Score{}, fmt.Errorf("create vocabulary %q: %w", form, insErr)
		}
		id, _ := res.LastInsertId()
		v = Vocabulary{ID: id, DictionaryForm: form, Surface: form, Source: source}
	} else if err != nil {
		return v, Score{}, fmt.Errorf("load vocabulary %q: %w", form, err)
	}
	if pitch.Valid {
		v.PitchAccent = pitch.String
	}

	var s Score
	err = ex.QueryRow(
		`SELECT vocabulary_id, score, times_seen, times_looked_up, consecutive_correct, last_seen
		 FROM vocabulary_scores WHERE vocabulary_id = ?`, v.ID,
	).Scan(&s.VocabularyID, &s.Score, &s.TimesSeen, &s.TimesLookedUp, &s.ConsecutiveCorrect, &s.LastSeen)
	if err == sql.ErrNoRows {
		if _, insErr := ex.Exec(
			`INSERT INTO vocabulary_scores (vocabulary_id) VALUES (?)`, v.ID,
		); insErr != nil {
			return v, s, fmt.Errorf("create score row for %q: %w", form, insErr)
		}
		s = Score{VocabularyID: v.ID}
	} else if err != nil {
		return v, s, fmt.Errorf("load score for %q: %w", form, err)
	}
	return v, s, nil
}

// RecordLookup records that the learner looked the word up: the word was seen
// but not read unassisted, so the streak resets.
func (t *Tracker) RecordLookup(form string) (ScoreUpdate, error) {
	return t.record(form, true)
}

// RecordRead records an unassisted read, extending the streak.
func (t *Tracker) RecordRead(form string) (ScoreUpdate, error) {
	return t.record(form, false)
}

func (t *Tracker) record(form string, lookedUp bool) (ScoreUpdate, error) {
	tx, err := t.conn.Begin()
	if err != nil {
		return ScoreUpdate{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	update, err := recordTx(tx, form, lookedUp)
	if err != nil {
		return ScoreUpdate{}, err
	}
	if err := tx.Commit(); err != nil {
		return ScoreUpdate{}, fmt.Errorf("commit: %w", err)
	}
	t.logger.Debug("score updated",
		zap.String("form", form),
		zap.Bool("lookup", lookedUp),
		zap.Float64("score", update.NewScore))
	return update, nil
}

func recordTx(ex db.Executor, form string, lookedUp bool) (ScoreUpdate, error) {
	v, s, err := getOrCreate(ex, form, SourceReading)
	if err != nil {
		return ScoreUpdate{}, err
	}
	old := s.Score

	s.TimesSeen++
	if lookedUp {
		s.TimesLookedUp++
		s.ConsecutiveCorrect = 0
	} else {
		s.ConsecutiveCorrect++
	}
	s.Score = CalculateScore(s.TimesSeen, s.TimesLookedUp, s.ConsecutiveCorrect)
	s.LastSeen = time.Now()

	_, err = ex.Exec(
		`UPDATE vocabulary_scores
		 SET score = ?, times_seen = ?, times_looked_up = ?, consecutive_correct = ?, last_seen = ?
		 WHERE vocabulary_id = ?`,
		s.Score, s.TimesSeen, s.TimesLookedUp, s.ConsecutiveCorrect, s.LastSeen, v.ID,
	)
	if err != nil {
		return ScoreUpdate{}, fmt.Errorf("update score for %q: %w", form, err)
	}

	return ScoreUpdate{
		VocabularyID:       v.ID,
		DictionaryForm:     v.DictionaryForm,
		OldScore:           old,
		NewScore:           s.Score,
		TimesSeen:          s.TimesSeen,
		TimesLookedUp:      s.TimesLookedUp,
		ConsecutiveCorrect: s.ConsecutiveCorrect,
	}, nil
}

// RecordBatch records every dictionary form read in one session. Forms in the
// lookedUp set are recorded as lookups, the rest as unassisted reads. The
// whole batch commits as a unit.
func (t *Tracker) RecordBatch(forms []string, lookedUp map[string]bool) ([]ScoreUpdate, error) {
	tx, err := t.conn.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	updates := make([]ScoreUpdate, 0, len(forms))
	for _, form := range forms {
		update, err := recordTx(tx, form, lookedUp[form])
		if err != nil {
			return nil, err
		}
		updates = append(updates, update)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	t.logger.Debug("batch recorded", zap.Int("words", len(forms)), zap.Int("lookups", len(lookedUp)))
	return updates, nil
}

// Add registers a vocabulary entry without touching its counters, for manual
// or imported words.
func (t *Tracker) Add(form, surface, reading, pitchAccent string, source Source) (Vocabulary, error) {
	tx, err := t.conn.Begin()
	if err != nil {
		return Vocabulary{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	v, _, err := getOrCreate(tx, form, source)
	if err != nil {
		return Vocabulary{}, err
	}
	if surface == "" {
		surface = v.Surface
	}
	if reading == "" {
		reading = v.Reading
	}
	if pitchAccent == "" {
		pitchAccent = v.PitchAccent
	}
	if _, err := tx.Exec(
		`UPDATE vocabulary SET surface = ?, reading = ?, pitch_accent = ? WHERE id = ?`,
		surface, reading, pitchAccent, v.ID,
	); err != nil {
		return Vocabulary{}, fmt.Errorf("update vocabulary %q: %w", form, err)
	}
	if err := tx.Commit(); err != nil {
		return Vocabulary{}, fmt.Errorf("commit: %w", err)
	}
	v.Surface, v.Reading, v.PitchAccent = surface, reading, pitchAccent
	return v, nil
}

// Weakest returns up to limit tracked words ordered ascending by score.
// Words never seen are excluded.
func (t *Tracker) Weakest(limit int) ([]WeakEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := t.conn.Query(
		`SELECT v.id, v.dictionary_form, v.surface, v.reading, v.source,
		        s.score, s.times_seen, s.times_looked_up, s.consecutive_correct, s.last_seen
		 FROM vocabulary_scores s
		 JOIN vocabulary v ON v.id = s.vocabulary_id
		 WHERE s.times_seen > 0
		 ORDER BY s.score ASC, v.id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WeakEntry
	for rows.Next() {
		var e WeakEntry
		if err := rows.Scan(
			&e.Vocabulary.ID, &e.Vocabulary.DictionaryForm, &e.Vocabulary.Surface,
			&e.Vocabulary.Reading, &e.Vocabulary.Source,
			&e.Score.Score, &e.Score.TimesSeen, &e.Score.TimesLookedUp,
			&e.Score.ConsecutiveCorrect, &e.Score.LastSeen,
		); err != nil {
			return nil, err
		}
		e.Score.VocabularyID = e.Vocabulary.ID
		out = append(out, e)
	}
	return out, rows.Err()
}

// KnownForms returns the set of dictionary forms whose score is at least
// minScore, for marking known tokens in analyzed text.
func (t *Tracker) KnownForms(minScore float64) (map[string]bool, error) {
	rows, err := t.conn.Query(
		`SELECT v.dictionary_form
		 FROM vocabulary_scores s
		 JOIN vocabulary v ON v.id = s.vocabulary_id
		 WHERE s.score >= ? AND s.times_seen > 0`, minScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]bool)
	for rows.Next() {
		var form string
		if err := rows.Scan(&form); err != nil {
			return nil, err
		}
		known[form] = true
	}
	return known, rows.Err()
}

// Summarize aggregates mastery across all tracked vocabulary.
func (t *Tracker) Summarize() (Summary, error) {
	var s Summary
	var avg sql.NullFloat64
	err := t.conn.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN score >= ? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN score < ? AND times_seen > 0 THEN 1 ELSE 0 END), 0),
		        AVG(CASE WHEN times_seen > 0 THEN score END),
		        COALESCE(SUM(times_looked_up), 0),
		        COALESCE(SUM(times_seen), 0)
		 FROM vocabulary_scores`, knownThreshold, knownThreshold,
	).Scan(&s.TotalTracked, &s.KnownWords, &s.LearningWords, &avg, &s.TotalLookups, &s.TotalSeen)
	if err != nil {
		return s, err
	}
	if avg.Valid {
		s.AverageScore = avg.Float64
	}
	if total := s.KnownWords + s.LearningWords; total > 0 {
		s.MasteryPercent = float64(s.KnownWords) / float64(total) * 100
	}
	return s, nil
}
