package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// TestInitDBCreatesSchema verifies InitDB creates every table the engine
// depends on, so fresh databases are usable without manual setup.
func TestInitDBCreatesSchema(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if err := InitDB(conn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}

	tables := []string{
		"vocabulary",
		"vocabulary_scores",
		"user_proficiency",
		"content",
		"content_chunks",
		"difficulty_ratings",
	}
	for _, table := range tables {
		var name string
		err := conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}

	// InitDB must be idempotent for reopened databases.
	if err := InitDB(conn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}
}

func TestVocabularyScoresUniquePerVocabulary(t *testing.T) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	if err := InitDB(conn); err != nil {
		t.Fatalf("InitDB: %v", err)
	}

	res, err := conn.Exec(`INSERT INTO vocabulary (dictionary_form) VALUES ('走る')`)
	if err != nil {
		t.Fatalf("insert vocabulary: %v", err)
	}
	vocabID, _ := res.LastInsertId()

	if _, err := conn.Exec(`INSERT INTO vocabulary_scores (vocabulary_id) VALUES (?)`, vocabID); err != nil {
		t.Fatalf("insert score: %v", err)
	}
	if _, err := conn.Exec(`INSERT INTO vocabulary_scores (vocabulary_id) VALUES (?)`, vocabID); err == nil {
		t.Fatal("expected unique constraint violation for duplicate score row")
	}
}
