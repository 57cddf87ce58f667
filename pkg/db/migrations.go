package db

const migrationsSQL = `
CREATE TABLE IF NOT EXISTS vocabulary (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	dictionary_form TEXT NOT NULL UNIQUE,
	surface TEXT NOT NULL DEFAULT '',
	reading TEXT NOT NULL DEFAULT '',
	pitch_accent TEXT,
	source TEXT NOT NULL DEFAULT 'reading',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS vocabulary_scores (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	vocabulary_id INTEGER NOT NULL UNIQUE REFERENCES vocabulary(id) ON DELETE CASCADE,
	score REAL NOT NULL DEFAULT 0,
	times_seen INTEGER NOT NULL DEFAULT 0,
	times_looked_up INTEGER NOT NULL DEFAULT 0,
	consecutive_correct INTEGER NOT NULL DEFAULT 0,
	last_seen TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_vocabulary_scores_score ON vocabulary_scores(score);

CREATE TABLE IF NOT EXISTS user_proficiency (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	level TEXT NOT NULL DEFAULT 'beginner',
	total_characters_read INTEGER NOT NULL DEFAULT 0,
	total_tokens_read INTEGER NOT NULL DEFAULT 0,
	total_lookups INTEGER NOT NULL DEFAULT 0,
	total_reading_time_seconds INTEGER NOT NULL DEFAULT 0,
	avg_lookup_rate REAL NOT NULL DEFAULT 1.0,
	avg_reading_speed REAL NOT NULL DEFAULT 0,
	easy_ratings INTEGER NOT NULL DEFAULT 0,
	just_right_ratings INTEGER NOT NULL DEFAULT 0,
	hard_ratings INTEGER NOT NULL DEFAULT 0,
	kanji_proficiency REAL NOT NULL DEFAULT 0,
	lexical_proficiency REAL NOT NULL DEFAULT 0,
	grammar_proficiency REAL NOT NULL DEFAULT 0,
	reading_proficiency REAL NOT NULL DEFAULT 0,
	target_kanji_difficulty REAL NOT NULL DEFAULT 0.3,
	target_lexical_difficulty REAL NOT NULL DEFAULT 0.3,
	target_grammar_difficulty REAL NOT NULL DEFAULT 0.3,
	auto_furigana_threshold REAL NOT NULL DEFAULT 0,
	auto_meanings_threshold REAL NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS content (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	source_type TEXT NOT NULL DEFAULT 'text',
	original_url TEXT,
	difficulty_estimate REAL,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	unique_vocabulary INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS content_chunks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content_id INTEGER NOT NULL REFERENCES content(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	raw_text TEXT NOT NULL,
	tokenized_json TEXT,
	UNIQUE(content_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_content_chunks_content ON content_chunks(content_id);

CREATE TABLE IF NOT EXISTS difficulty_ratings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	content_id INTEGER NOT NULL REFERENCES content(id) ON DELETE CASCADE,
	rating TEXT NOT NULL DEFAULT 'just_right',
	feedback TEXT,
	chunk_position INTEGER,
	rated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_difficulty_ratings_content ON difficulty_ratings(content_id)
`
