package content

import "time"

// SourceKind tells where a piece of content came from.
type SourceKind string

const (
	SourceText    SourceKind = "text"
	SourceURL     SourceKind = "url"
	SourcePDF     SourceKind = "pdf"
	SourceArchive SourceKind = "archive"
)

// Content is one imported reading item. DifficultyEstimate is nil until the
// item has been analyzed.
type Content struct {
	ID                 int64
	Title              string
	SourceKind         SourceKind
	OriginalURL        string
	DifficultyEstimate *float64
	TotalTokens        int
	UniqueVocabulary   int
	CreatedAt          time.Time
}

// Chunk is one reading-sized slice of a content item. TokenizedJSON holds the
// encoded token list once analysis has run; empty until then.
type Chunk struct {
	ID            int64
	ContentID     int64
	Index         int
	RawText       string
	TokenizedJSON string
}

// ListFilter narrows List results. Nil bounds are unbounded; Limit <= 0 means
// a default page size.
type ListFilter struct {
	MinDifficulty *float64
	MaxDifficulty *float64
	Limit         int
}
