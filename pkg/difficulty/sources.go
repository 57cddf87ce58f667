package difficulty

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReadabilityScorer scores text readability in [0,1], higher = easier.
type ReadabilityScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// FrequencySource reports corpus frequency for a word. ok is false when the
// word is not in the corpus.
type FrequencySource interface {
	Frequency(word string) (freq float64, ok bool)
}

// GradeSource reports the school-grade level of a kanji character.
type GradeSource interface {
	Grade(ctx context.Context, kanji rune) (int, error)
}

// defaultServiceTimeout bounds calls to external grade/readability services.
const defaultServiceTimeout = 5 * time.Second

// KanjiAPIGradeSource looks kanji grades up from a kanjiapi.dev-style HTTP
// endpoint.
type KanjiAPIGradeSource struct {
	BaseURL string
	Client  *http.Client
}

// NewKanjiAPIGradeSource creates a grade source against baseURL
// (e.g. https://kanjiapi.dev/v1/kanji).
func NewKanjiAPIGradeSource(baseURL string) *KanjiAPIGradeSource {
	return &KanjiAPIGradeSource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: defaultServiceTimeout},
	}
}

// Grade fetches the grade for one kanji. A character the service knows but
// has no grade for (beyond the jouyou set) reports the unknown-kanji grade.
func (s *KanjiAPIGradeSource) Grade(ctx context.Context, kanji rune) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+string(kanji), nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("kanji api returned status %s", resp.Status)
	}

	var payload struct {
		Grade *int `json:"grade"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode kanji api response: %w", err)
	}
	if payload.Grade == nil {
		return unknownKanjiGrade, nil
	}
	return *payload.Grade, nil
}

// TableFrequencySource is a frequency table loaded once from a TSV file of
// "word<TAB>frequency" lines. Immutable after load; safe for concurrent use.
type TableFrequencySource struct {
	table map[string]float64
}

// LoadFrequencyTable reads the TSV file at path. Blank lines and lines
// starting with '#' are skipped.
func LoadFrequencyTable(path string) (*TableFrequencySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frequency table: %w", err)
	}
	defer f.Close()

	table := make(map[string]float64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			continue
		}
		freq, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}
		table[fields[0]] = freq
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frequency table: %w", err)
	}
	return &TableFrequencySource{table: table}, nil
}

// Frequency implements FrequencySource.
func (s *TableFrequencySource) Frequency(word string) (float64, bool) {
	freq, ok := s.table[word]
	return freq, ok
}

// Len reports the number of loaded entries.
func (s *TableFrequencySource) Len() int { return len(s.table) }

// HTTPReadabilityScorer calls an external readability service that accepts
// raw text and returns a JSON body {"score": <float>}, higher = easier.
type HTTPReadabilityScorer struct {
	URL    string
	Client *http.Client
}

// NewHTTPReadabilityScorer creates a scorer against url.
func NewHTTPReadabilityScorer(url string) *HTTPReadabilityScorer {
	return &HTTPReadabilityScorer{
		URL:    url,
		Client: &http.Client{Timeout: defaultServiceTimeout},
	}
}

// Score implements ReadabilityScorer.
func (s *HTTPReadabilityScorer) Score(ctx context.Context, text string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, strings.NewReader(text))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("readability service returned status %s", resp.Status)
	}
	var payload struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode readability response: %w", err)
	}
	return payload.Score, nil
}
