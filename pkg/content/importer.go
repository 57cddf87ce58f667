package content

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkobayashi/dokusho/pkg/ingest"
	"github.com/mkobayashi/dokusho/pkg/segment"
	"github.com/mkobayashi/dokusho/pkg/tokenize"
)

// Importer turns raw text into stored, pre-tokenized content: segment into
// chunks, persist them, then analyze every chunk on a worker pool with the
// token streams committed in batches.
type Importer struct {
	store  *Store
	logger *zap.Logger

	// ChunkSize caps chunk length in runes.
	ChunkSize int
	// Granularity selects the morphological unit size for pre-tokenization.
	Granularity tokenize.Granularity
	// MergeConjugations folds inflected verb/adjective phrases into single
	// tokens.
	MergeConjugations bool
	// Workers sets the analysis pool size. Each worker owns its own analyzer.
	Workers int
	// BatchSize sets how many chunk writes share one transaction.
	BatchSize int
}

// NewImporter creates an Importer with the default pipeline settings. logger
// may be nil.
func NewImporter(store *Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		store:             store,
		logger:            logger,
		ChunkSize:         segment.DefaultChunkSize,
		Granularity:       tokenize.GranularityMedium,
		MergeConjugations: true,
		Workers:           4,
		BatchSize:         16,
	}
}

// ImportText imports one text as new content. The content row and its raw
// chunks are committed before analysis starts, so a failed analysis leaves
// readable (if untokenized) content behind; the returned error reports the
// analysis failure in that case.
func (im *Importer) ImportText(ctx context.Context, title string, kind SourceKind, originalURL, text string) (Content, error) {
	chunks := segment.Segment(text, im.ChunkSize)
	if len(chunks) == 0 {
		return Content{}, fmt.Errorf("no usable text in %q", title)
	}

	c, err := im.store.Create(title, kind, originalURL)
	if err != nil {
		return Content{}, err
	}
	if err := im.insertChunks(c.ID, chunks); err != nil {
		return Content{}, err
	}
	im.logger.Info("content chunked",
		zap.Int64("content_id", c.ID),
		zap.Int("chunks", len(chunks)))

	if err := im.analyzeChunks(ctx, c.ID, chunks); err != nil {
		return c, fmt.Errorf("analyze content %d: %w", c.ID, err)
	}
	return im.store.Get(c.ID)
}

func (im *Importer) insertChunks(contentID int64, chunks []string) error {
	tx, err := im.store.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	for i, raw := range chunks {
		if _, err := InsertChunk(tx, contentID, i, raw, ""); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// analyzeChunks tokenizes every chunk concurrently and stores the encoded
// token streams, then writes the aggregate stats once.
func (im *Importer) analyzeChunks(ctx context.Context, contentID int64, chunks []string) error {
	pool := ingest.NewPool(im.Workers, im.Workers*2)

	// One analyzer per worker: each loads its dictionaries once and is never
	// contended across workers.
	analyzers := make([]*tokenize.Analyzer, pool.Workers())
	for i := range analyzers {
		analyzers[i] = tokenize.NewAnalyzer()
	}

	bw := ingest.NewBatchWriter(im.store.conn, im.BatchSize, 100*time.Millisecond)

	var mu sync.Mutex
	totalTokens := 0
	uniqueVocab := make(map[string]bool)
	var firstErr error

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	pool.Start(ctx)
	for i, raw := range chunks {
		index, text := i, raw
		err := pool.SubmitCtx(ctx, func(ctx context.Context, workerID int) error {
			tokens, err := analyzers[workerID].Tokenize(text, im.Granularity)
			if err != nil {
				fail(fmt.Errorf("tokenize chunk %d: %w", index, err))
				return err
			}
			tokens = tokenize.MergeConjugations(tokens, im.MergeConjugations)
			encoded, err := tokenize.EncodeTokens(tokens)
			if err != nil {
				fail(fmt.Errorf("encode chunk %d: %w", index, err))
				return err
			}

			mu.Lock()
			totalTokens += len(tokens)
			for _, t := range tokens {
				if tokenize.IsContentWord(t) {
					uniqueVocab[t.DictionaryForm] = true
				}
			}
			mu.Unlock()

			return bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
				return SetChunkTokens(tx, contentID, index, encoded)
			})
		})
		if err != nil {
			fail(err)
			break
		}
	}
	pool.Close()
	if err := bw.Close(); err != nil {
		fail(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}

	difficulty := estimateDifficulty(totalTokens, len(uniqueVocab))
	if err := im.store.UpdateStats(contentID, totalTokens, len(uniqueVocab), difficulty); err != nil {
		return err
	}
	im.logger.Info("content analyzed",
		zap.Int64("content_id", contentID),
		zap.Int("tokens", totalTokens),
		zap.Int("unique_vocabulary", len(uniqueVocab)),
		zap.Float64("difficulty", difficulty))
	return nil
}

// estimateDifficulty derives a coarse 0..1 difficulty from lexical variety:
// the unique-vocabulary share of the token stream, scaled so half-unique text
// saturates.
func estimateDifficulty(totalTokens, uniqueVocab int) float64 {
	if totalTokens == 0 {
		return 0
	}
	d := float64(uniqueVocab) / float64(totalTokens) * 2
	if d > 1 {
		return 1
	}
	return d
}
