package proficiency

import (
	"database/sql"
	"math"
	"testing"

	"github.com/mkobayashi/dokusho/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLevelForLookupRate(t *testing.T) {
	tests := []struct {
		rate float64
		want Level
	}{
		{0, LevelAdvanced},
		{1.9, LevelAdvanced},
		{2.0, LevelUpperIntermediate},
		{4.9, LevelUpperIntermediate},
		{5.0, LevelIntermediate},
		{9.9, LevelIntermediate},
		{10.0, LevelElementary},
		{19.9, LevelElementary},
		{20.0, LevelBeginner},
		{100, LevelBeginner},
	}
	for _, tt := range tests {
		if got := LevelForLookupRate(tt.rate); got != tt.want {
			t.Errorf("LevelForLookupRate(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

// rank orders levels so monotonicity can be asserted numerically.
func rank(l Level) int {
	switch l {
	case LevelBeginner:
		return 0
	case LevelElementary:
		return 1
	case LevelIntermediate:
		return 2
	case LevelUpperIntermediate:
		return 3
	default:
		return 4
	}
}

func TestLevelMonotonicInLookupRate(t *testing.T) {
	prev := rank(LevelForLookupRate(0))
	for rate := 0.5; rate <= 30; rate += 0.5 {
		cur := rank(LevelForLookupRate(rate))
		if cur > prev {
			t.Fatalf("level rose with worse lookup rate at %v", rate)
		}
		prev = cur
	}
}

func TestGetCreatesSingleton(t *testing.T) {
	e := NewEstimator(setupTestDB(t), nil)
	p, err := e.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Level != LevelBeginner {
		t.Errorf("fresh profile level = %v, want beginner", p.Level)
	}
	if p.TargetKanjiDifficulty != 0.3 {
		t.Errorf("default kanji target = %v, want 0.3", p.TargetKanjiDifficulty)
	}
	// Second Get must reuse the same row.
	if _, err := e.Get(); err != nil {
		t.Fatalf("second Get: %v", err)
	}
}

func TestRecordSessionAccumulatesAndRates(t *testing.T) {
	e := NewEstimator(setupTestDB(t), nil)

	p, err := e.RecordSession(600, 200, 10, 120)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if p.TotalTokensRead != 200 || p.TotalLookups != 10 {
		t.Fatalf("counters wrong: %+v", p)
	}
	// 10 lookups / 200 tokens * 100 = 5 per 100 tokens.
	if p.AvgLookupRate != 5.0 {
		t.Errorf("lookup rate = %v, want 5.0", p.AvgLookupRate)
	}
	// 600 chars / 120 s * 60 = 300 chars/min.
	if p.AvgReadingSpeed != 300.0 {
		t.Errorf("reading speed = %v, want 300", p.AvgReadingSpeed)
	}
	// Below the 1000-token minimum the level must not move.
	if p.Level != LevelBeginner {
		t.Errorf("level recomputed too early: %v", p.Level)
	}
}

func TestRecordSessionLevelAfterMinimumTokens(t *testing.T) {
	e := NewEstimator(setupTestDB(t), nil)

	// 1200 tokens with 12 lookups: rate 1.0 → advanced.
	p, err := e.RecordSession(3000, 1200, 12, 600)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if p.Level != LevelAdvanced {
		t.Errorf("level = %v, want advanced at lookup rate %v", p.Level, p.AvgLookupRate)
	}

	// Level persists across loads.
	p2, err := e.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p2.Level != LevelAdvanced {
		t.Errorf("persisted level = %v, want advanced", p2.Level)
	}
}

func TestRecordSessionZeroDenominators(t *testing.T) {
	e := NewEstimator(setupTestDB(t), nil)
	p, err := e.RecordSession(0, 0, 0, 0)
	if err != nil {
		t.Fatalf("RecordSession: %v", err)
	}
	if p.AvgReadingSpeed != 0 {
		t.Errorf("reading speed = %v with zero time, want 0", p.AvgReadingSpeed)
	}
}

func TestRecordSessionRejectsNegative(t *testing.T) {
	e := NewEstimator(setupTestDB(t), nil)
	if _, err := e.RecordSession(-1, 0, 0, 0); err == nil {
		t.Fatal("expected validation error for negative metrics")
	}
}

func TestRecommendationsForLevel(t *testing.T) {
	beginner := RecommendationsForLevel(LevelBeginner)
	if beginner.ShowFurigana != FuriganaAll || beginner.FuriganaThreshold != 0.9 {
		t.Errorf("beginner recommendations wrong: %+v", beginner)
	}
	if !beginner.ShowMeanings || !beginner.HighlightUnknown {
		t.Errorf("beginner should get meanings and highlighting: %+v", beginner)
	}

	advanced := RecommendationsForLevel(LevelAdvanced)
	if advanced.ShowFurigana != FuriganaNone {
		t.Errorf("advanced furigana = %v, want none", advanced.ShowFurigana)
	}
	if advanced.ShowMeanings {
		t.Error("advanced should not get meaning hints")
	}
	if advanced.FuriganaThreshold >= beginner.FuriganaThreshold {
		t.Error("furigana threshold should shrink with level")
	}
}

func TestGenerationTargetsCapped(t *testing.T) {
	conn := setupTestDB(t)
	e := NewEstimator(conn, nil)
	if _, err := e.Get(); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := conn.Exec(
		`UPDATE user_proficiency SET kanji_proficiency = 0.95, lexical_proficiency = 0.4, grammar_proficiency = 0.2 WHERE id = 1`,
	); err != nil {
		t.Fatalf("seed proficiency: %v", err)
	}

	targets, err := e.GenerationTargets(DefaultChallenge)
	if err != nil {
		t.Fatalf("GenerationTargets: %v", err)
	}
	if targets.Kanji != 1.0 {
		t.Errorf("kanji target = %v, want capped at 1.0", targets.Kanji)
	}
	if math.Abs(targets.Lexical-0.5) > 1e-9 {
		t.Errorf("lexical target = %v, want 0.5", targets.Lexical)
	}
	if math.Abs(targets.Grammar-0.3) > 1e-9 {
		t.Errorf("grammar target = %v, want 0.3", targets.Grammar)
	}
}

func TestRecordRating(t *testing.T) {
	conn := setupTestDB(t)
	e := NewEstimator(conn, nil)

	res, err := conn.Exec(`INSERT INTO content (title) VALUES ('テスト')`)
	if err != nil {
		t.Fatalf("insert content: %v", err)
	}
	contentID, _ := res.LastInsertId()

	if err := e.RecordRating(contentID, RatingHard, "難しすぎる", 2); err != nil {
		t.Fatalf("RecordRating: %v", err)
	}
	if err := e.RecordRating(contentID, Rating("impossible"), "", -1); err == nil {
		t.Fatal("expected validation error for unknown rating")
	}

	p, err := e.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.HardRatings != 1 || p.EasyRatings != 0 {
		t.Errorf("rating counters wrong: %+v", p)
	}
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM difficulty_ratings`).Scan(&n); err != nil {
		t.Fatalf("count ratings: %v", err)
	}
	if n != 1 {
		t.Errorf("stored ratings = %d, want 1", n)
	}
}
