// Package content stores imported reading material and its chunked form, and
// recommends the next item to read against a target difficulty.
package content

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mkobayashi/dokusho/pkg/db"
)

// ErrNotFound reports that no content row matched the request.
var ErrNotFound = errors.New("content not found")

const defaultListLimit = 50

// Store persists content and chunks.
type Store struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewStore creates a Store. logger may be nil.
func NewStore(conn *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{conn: conn, logger: logger}
}

// Create inserts a content row. The difficulty estimate and token counters
// start empty and are filled in by analysis.
func (s *Store) Create(title string, kind SourceKind, originalURL string) (Content, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Content{}, fmt.Errorf("content title must be non-empty")
	}
	switch kind {
	case SourceText, SourceURL, SourcePDF, SourceArchive:
	default:
		return Content{}, fmt.Errorf("unknown source kind %q", kind)
	}

	res, err := s.conn.Exec(
		`INSERT INTO content (title, source_type, original_url) VALUES (?, ?, ?)`,
		title, string(kind), nullIfEmpty(originalURL),
	)
	if err != nil {
		return Content{}, fmt.Errorf("create content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Content{}, err
	}
	s.logger.Info("content created", zap.Int64("id", id), zap.String("title", title))
	return s.Get(id)
}

// Get loads one content row by id.
func (s *Store) Get(id int64) (Content, error) {
	return scanContent(s.conn.QueryRow(
		`SELECT id, title, source_type, original_url, difficulty_estimate,
		        total_tokens, unique_vocabulary, created_at
		 FROM content WHERE id = ?`, id))
}

// InsertChunk writes one chunk inside the caller's transaction. tokenizedJSON
// may be empty when the chunk has not been analyzed yet.
func InsertChunk(ex db.Executor, contentID int64, index int, rawText, tokenizedJSON string) (int64, error) {
	res, err := ex.Exec(
		`INSERT INTO content_chunks (content_id, chunk_index, raw_text, tokenized_json)
		 VALUES (?, ?, ?, ?)`,
		contentID, index, rawText, nullIfEmpty(tokenizedJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert chunk %d of content %d: %w", index, contentID, err)
	}
	return res.LastInsertId()
}

// SetChunkTokens stores the analyzed token JSON for one chunk.
func SetChunkTokens(ex db.Executor, contentID int64, index int, tokenizedJSON string) error {
	res, err := ex.Exec(
		`UPDATE content_chunks SET tokenized_json = ? WHERE content_id = ? AND chunk_index = ?`,
		tokenizedJSON, contentID, index,
	)
	if err != nil {
		return fmt.Errorf("store tokens for chunk %d of content %d: %w", index, contentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Chunk loads one chunk by content id and position.
func (s *Store) Chunk(contentID int64, index int) (Chunk, error) {
	var c Chunk
	var tokens sql.NullString
	err := s.conn.QueryRow(
		`SELECT id, content_id, chunk_index, raw_text, tokenized_json
		 FROM content_chunks WHERE content_id = ? AND chunk_index = ?`,
		contentID, index,
	).Scan(&c.ID, &c.ContentID, &c.Index, &c.RawText, &tokens)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("load chunk %d of content %d: %w", index, contentID, err)
	}
	c.TokenizedJSON = tokens.String
	return c, nil
}

// ChunkCount reports how many chunks a content item has.
func (s *Store) ChunkCount(contentID int64) (int, error) {
	var n int
	err := s.conn.QueryRow(
		`SELECT COUNT(*) FROM content_chunks WHERE content_id = ?`, contentID,
	).Scan(&n)
	return n, err
}

// UpdateStats records the analysis results for a content item.
func (s *Store) UpdateStats(contentID int64, totalTokens, uniqueVocabulary int, difficulty float64) error {
	res, err := s.conn.Exec(
		`UPDATE content SET total_tokens = ?, unique_vocabulary = ?, difficulty_estimate = ?
		 WHERE id = ?`,
		totalTokens, uniqueVocabulary, difficulty, contentID,
	)
	if err != nil {
		return fmt.Errorf("update content %d stats: %w", contentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns content rows newest first, optionally filtered by difficulty.
// Rows without a difficulty estimate are excluded only when a bound is set.
func (s *Store) List(f ListFilter) ([]Content, error) {
	query := `SELECT id, title, source_type, original_url, difficulty_estimate,
	                 total_tokens, unique_vocabulary, created_at
	          FROM content`
	var where []string
	var args []any
	if f.MinDifficulty != nil {
		where = append(where, "difficulty_estimate >= ?")
		args = append(args, *f.MinDifficulty)
	}
	if f.MaxDifficulty != nil {
		where = append(where, "difficulty_estimate <= ?")
		args = append(args, *f.MaxDifficulty)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var out []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Search returns content whose title contains the query, newest first.
func (s *Store) Search(query string, limit int) ([]Content, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.conn.Query(
		`SELECT id, title, source_type, original_url, difficulty_estimate,
		        total_tokens, unique_vocabulary, created_at
		 FROM content WHERE title LIKE ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		"%"+query+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search content: %w", err)
	}
	defer rows.Close()

	var out []Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a content item; chunks and ratings go with it via cascade.
func (s *Store) Delete(id int64) error {
	res, err := s.conn.Exec(`DELETE FROM content WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete content %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.Info("content deleted", zap.Int64("id", id))
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (Content, error) {
	var c Content
	var url sql.NullString
	var difficulty sql.NullFloat64
	err := row.Scan(&c.ID, &c.Title, (*string)(&c.SourceKind), &url, &difficulty,
		&c.TotalTokens, &c.UniqueVocabulary, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("scan content: %w", err)
	}
	c.OriginalURL = url.String
	if difficulty.Valid {
		d := difficulty.Float64
		c.DifficultyEstimate = &d
	}
	return c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
