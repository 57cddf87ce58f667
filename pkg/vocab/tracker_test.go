package vocab

import (
	"database/sql"
	"testing"

	"github.com/mkobayashi/dokusho/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	conn.SetMaxOpenConns(1)
	if err := db.InitDB(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRecordReadCreatesVocabulary(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	update, err := tracker.RecordRead("新しい")
	if err != nil {
		t.Fatalf("RecordRead: %v", err)
	}
	if update.TimesSeen != 1 || update.TimesLookedUp != 0 || update.ConsecutiveCorrect != 1 {
		t.Fatalf("unexpected counters: %+v", update)
	}
	if update.OldScore != 0 {
		t.Errorf("old score = %v, want 0 for a fresh word", update.OldScore)
	}
	if update.NewScore <= 0 {
		t.Errorf("new score = %v, want > 0 after unassisted read", update.NewScore)
	}
}

func TestRecordLookupResetsStreak(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	for i := 0; i < 3; i++ {
		if _, err := tracker.RecordRead("難しい"); err != nil {
			t.Fatalf("RecordRead %d: %v", i, err)
		}
	}
	update, err := tracker.RecordLookup("難しい")
	if err != nil {
		t.Fatalf("RecordLookup: %v", err)
	}
	if update.ConsecutiveCorrect != 0 {
		t.Errorf("streak = %d after lookup, want 0", update.ConsecutiveCorrect)
	}
	if update.TimesSeen != 4 {
		t.Errorf("times seen = %d, want 4", update.TimesSeen)
	}
	if update.TimesLookedUp != 1 {
		t.Errorf("times looked up = %d, want 1", update.TimesLookedUp)
	}
	if update.TimesLookedUp > update.TimesSeen {
		t.Errorf("invariant violated: looked up %d > seen %d", update.TimesLookedUp, update.TimesSeen)
	}
	if update.NewScore >= update.OldScore {
		t.Errorf("lookup did not lower score: %v -> %v", update.OldScore, update.NewScore)
	}
}

func TestRecordBatchRoutesEvents(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	forms := []string{"猫", "犬", "鳥"}
	updates, err := tracker.RecordBatch(forms, map[string]bool{"犬": true})
	if err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}
	if len(updates) != 3 {
		t.Fatalf("expected 3 updates, got %d", len(updates))
	}
	byForm := map[string]ScoreUpdate{}
	for _, u := range updates {
		byForm[u.DictionaryForm] = u
	}
	if byForm["犬"].TimesLookedUp != 1 {
		t.Errorf("犬 should be a lookup: %+v", byForm["犬"])
	}
	if byForm["猫"].TimesLookedUp != 0 || byForm["猫"].ConsecutiveCorrect != 1 {
		t.Errorf("猫 should be an unassisted read: %+v", byForm["猫"])
	}
}

func TestRecordBatchEmptyFormRejectedAsUnit(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	_, err := tracker.RecordBatch([]string{"猫", "  "}, nil)
	if err == nil {
		t.Fatal("expected error for empty dictionary form")
	}
	// The whole batch must roll back: 猫 was in the failed batch.
	weakest, err := tracker.Weakest(10)
	if err != nil {
		t.Fatalf("Weakest: %v", err)
	}
	if len(weakest) != 0 {
		t.Fatalf("failed batch left partial state: %+v", weakest)
	}
}

func TestWeakestOrdersAscending(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	// 強い is read cleanly, 弱い is always looked up.
	for i := 0; i < 5; i++ {
		if _, err := tracker.RecordRead("強い"); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
		if _, err := tracker.RecordLookup("弱い"); err != nil {
			t.Fatalf("RecordLookup: %v", err)
		}
	}
	// Never-seen manual entry must not appear.
	if _, err := tracker.Add("未見", "", "", "", SourceManual); err != nil {
		t.Fatalf("Add: %v", err)
	}

	weakest, err := tracker.Weakest(10)
	if err != nil {
		t.Fatalf("Weakest: %v", err)
	}
	if len(weakest) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(weakest))
	}
	if weakest[0].Vocabulary.DictionaryForm != "弱い" {
		t.Errorf("weakest entry = %q, want 弱い", weakest[0].Vocabulary.DictionaryForm)
	}
	if weakest[0].Score.Score > weakest[1].Score.Score {
		t.Errorf("not ascending: %v > %v", weakest[0].Score.Score, weakest[1].Score.Score)
	}
}

func TestKnownFormsThreshold(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	for i := 0; i < 10; i++ {
		if _, err := tracker.RecordRead("簡単"); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
		if _, err := tracker.RecordLookup("複雑"); err != nil {
			t.Fatalf("RecordLookup: %v", err)
		}
	}
	known, err := tracker.KnownForms(0.8)
	if err != nil {
		t.Fatalf("KnownForms: %v", err)
	}
	if !known["簡単"] {
		t.Error("expected 簡単 to be known")
	}
	if known["複雑"] {
		t.Error("did not expect 複雑 to be known")
	}
}

func TestSummarize(t *testing.T) {
	tracker := NewTracker(setupTestDB(t), nil)

	for i := 0; i < 10; i++ {
		if _, err := tracker.RecordRead("水"); err != nil {
			t.Fatalf("RecordRead: %v", err)
		}
	}
	if _, err := tracker.RecordLookup("火"); err != nil {
		t.Fatalf("RecordLookup: %v", err)
	}

	s, err := tracker.Summarize()
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.TotalTracked != 2 {
		t.Errorf("total tracked = %d, want 2", s.TotalTracked)
	}
	if s.KnownWords != 1 || s.LearningWords != 1 {
		t.Errorf("known/learning = %d/%d, want 1/1", s.KnownWords, s.LearningWords)
	}
	if s.TotalSeen != 11 || s.TotalLookups != 1 {
		t.Errorf("seen/lookups = %d/%d, want 11/1", s.TotalSeen, s.TotalLookups)
	}
	if s.AverageScore <= 0 || s.AverageScore > 1 {
		t.Errorf("average score = %v out of range", s.AverageScore)
	}
}
