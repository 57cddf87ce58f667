package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrWriterClosed is returned by Submit after Close.
var ErrWriterClosed = errors.New("batch writer closed")

// WriteFunc performs writes inside the batch's transaction.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter buffers WriteFuncs and commits them in grouped transactions,
// either when the buffer fills or on a timer. All funcs in a batch commit or
// roll back together.
type BatchWriter struct {
	conn *sql.DB

	mu     sync.Mutex
	buf    []WriteFunc
	cap    int
	closed bool

	batches chan []WriteFunc
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup

	errMu    sync.Mutex
	firstErr error
}

// NewBatchWriter creates a writer flushing every batchSize submissions, or
// after flushInterval if sooner (0 disables the timer).
func NewBatchWriter(conn *sql.DB, batchSize int, flushInterval time.Duration) *BatchWriter {
	if batchSize <= 0 {
		batchSize = 10
	}
	bw := &BatchWriter{
		conn:    conn,
		buf:     make([]WriteFunc, 0, batchSize),
		cap:     batchSize,
		batches: make(chan []WriteFunc, 2),
		done:    make(chan struct{}),
	}

	bw.wg.Add(1)
	go bw.commitLoop()

	if flushInterval > 0 {
		bw.ticker = time.NewTicker(flushInterval)
		bw.wg.Add(1)
		go bw.tickLoop()
	}
	return bw
}

// Submit enqueues one write. Blocks for backpressure when the committer is
// behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.cap {
		bw.flushLocked()
	}
	return nil
}

func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.cap)
	bw.batches <- batch
}

func (bw *BatchWriter) tickLoop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.done:
			return
		case <-bw.ticker.C:
			bw.mu.Lock()
			if !bw.closed {
				bw.flushLocked()
			}
			bw.mu.Unlock()
		}
	}
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if err := bw.commit(batch); err != nil {
			bw.errMu.Lock()
			if bw.firstErr == nil {
				bw.firstErr = err
			}
			bw.errMu.Unlock()
		}
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Flushes run to completion even during shutdown, so use a fresh context.
	ctx := context.Background()

	tx, err := bw.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer tx.Rollback()

	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch of %d: %w", len(batch), err)
	}
	return nil
}

// Close flushes the remaining buffer, waits for all batches to commit, and
// returns the first write error seen, if any.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrWriterClosed
	}
	bw.closed = true
	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	close(bw.done)
	bw.flushLocked()
	close(bw.batches)
	bw.mu.Unlock()

	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}

// Err reports the first write error seen so far without closing the writer.
func (bw *BatchWriter) Err() error {
	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.firstErr
}
