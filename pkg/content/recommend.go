package content

import (
	"errors"
	"fmt"
)

// Recommend picks the analyzed content item whose difficulty estimate is
// closest to target and returns it with its first chunk. excludeID skips one
// item, typically the one just finished; pass 0 to exclude nothing. Ties
// break toward the lower id. Returns ErrNotFound when no analyzed content
// exists.
func (s *Store) Recommend(target float64, excludeID int64) (Content, Chunk, error) {
	if target < 0 || target > 1 {
		return Content{}, Chunk{}, fmt.Errorf("target difficulty %v out of range [0,1]", target)
	}
	c, err := scanContent(s.conn.QueryRow(
		`SELECT id, title, source_type, original_url, difficulty_estimate,
		        total_tokens, unique_vocabulary, created_at
		 FROM content
		 WHERE difficulty_estimate IS NOT NULL AND id != ?
		 ORDER BY ABS(difficulty_estimate - ?) ASC, id ASC
		 LIMIT 1`, excludeID, target))
	if err != nil {
		return Content{}, Chunk{}, err
	}
	chunk, err := s.Chunk(c.ID, 0)
	if errors.Is(err, ErrNotFound) {
		// Content without chunks is still recommendable.
		return c, Chunk{ContentID: c.ID}, nil
	}
	return c, chunk, err
}
