package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupWriterDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(`CREATE TABLE entries (n INTEGER NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func countEntries(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func insertN(n int) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO entries (n) VALUES (?)`, n)
		return err
	}
}

func TestBatchWriterFlushesOnClose(t *testing.T) {
	conn := setupWriterDB(t)
	bw := NewBatchWriter(conn, 100, 0)
	for i := 0; i < 7; i++ {
		if err := bw.Submit(insertN(i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := countEntries(t, conn); got != 7 {
		t.Errorf("wrote %d rows, want 7", got)
	}
}

func TestBatchWriterFlushesAtCapacity(t *testing.T) {
	conn := setupWriterDB(t)
	bw := NewBatchWriter(conn, 3, 0)
	for i := 0; i < 3; i++ {
		if err := bw.Submit(insertN(i)); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	// The full batch flushes without Close; poll because the commit is async.
	deadline := time.Now().Add(2 * time.Second)
	for countEntries(t, conn) != 3 {
		if time.Now().After(deadline) {
			t.Fatalf("batch never committed, have %d rows", countEntries(t, conn))
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBatchWriterTimerFlush(t *testing.T) {
	conn := setupWriterDB(t)
	bw := NewBatchWriter(conn, 1000, 20*time.Millisecond)
	if err := bw.Submit(insertN(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for countEntries(t, conn) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("timer flush never committed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestBatchWriterBatchRollsBackAsUnit(t *testing.T) {
	conn := setupWriterDB(t)
	bw := NewBatchWriter(conn, 100, 0)
	_ = bw.Submit(insertN(1))
	_ = bw.Submit(func(context.Context, *sql.Tx) error {
		return fmt.Errorf("poisoned write")
	})
	_ = bw.Submit(insertN(2))

	err := bw.Close()
	if err == nil {
		t.Fatal("Close should surface the write error")
	}
	if got := countEntries(t, conn); got != 0 {
		t.Errorf("%d rows survived a failed batch, want 0", got)
	}
}

func TestBatchWriterSubmitAfterClose(t *testing.T) {
	bw := NewBatchWriter(setupWriterDB(t), 10, 0)
	if err := bw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bw.Submit(insertN(1)); !errors.Is(err, ErrWriterClosed) {
		t.Errorf("Submit after Close = %v, want ErrWriterClosed", err)
	}
}
