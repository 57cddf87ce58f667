package dictionary

import (
	"errors"
	"sort"
)

// ErrUnavailable reports that no dictionary data is loaded. Lookups never
// fabricate entries; a missing dictionary is a hard error, not an empty
// result.
var ErrUnavailable = errors.New("dictionary not loaded")

// Dict is the in-memory lookup index over loaded JMdict entries. Built once,
// immutable afterwards, safe for concurrent use.
type Dict struct {
	index map[string][]JMdictEntry
	size  int
	pitch *PitchTable
}

// New builds the index over entries. A pitch table is optional.
func New(entries []JMdictEntry, pitch *PitchTable) *Dict {
	idx := make(map[string][]JMdictEntry)
	for _, e := range entries {
		for _, k := range e.Kanji {
			idx[k.Text] = append(idx[k.Text], e)
		}
		for _, k := range e.Kana {
			idx[k.Text] = append(idx[k.Text], e)
		}
	}
	return &Dict{index: idx, size: len(entries), pitch: pitch}
}

// Size reports the number of loaded entries.
func (d *Dict) Size() int {
	if d == nil {
		return 0
	}
	return d.size
}

// Lookup finds entries matching the surface or dictionary form, optionally
// narrowed by reading (katakana accepted). Results are ordered by entry id so
// repeated lookups agree. Returns ErrUnavailable when no dictionary is
// loaded; an unknown word returns an empty slice and no error.
func (d *Dict) Lookup(surface, dictionaryForm, reading string) ([]JMdictEntry, error) {
	if d == nil || d.size == 0 {
		return nil, ErrUnavailable
	}

	candidates := make(map[string]JMdictEntry)
	for _, term := range []string{surface, dictionaryForm} {
		if term == "" {
			continue
		}
		for _, e := range d.index[term] {
			candidates[e.Id] = e
		}
	}

	var results []JMdictEntry
	for _, e := range candidates {
		if matches(e, surface, dictionaryForm, reading) {
			results = append(results, e)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Id < results[j].Id })
	return results, nil
}

// Definitions returns the stored-form definition JSON for a word, empty when
// the word is unknown.
func (d *Dict) Definitions(surface, dictionaryForm, reading string) (string, error) {
	entries, err := d.Lookup(surface, dictionaryForm, reading)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}
	return FormatDefinitions(entries)
}

// PrimaryReading picks the entry's preferred kana reading in hiragana: the
// first common kana element, falling back to the first kana element.
func PrimaryReading(e JMdictEntry) string {
	if len(e.Kana) == 0 {
		return ""
	}
	for _, k := range e.Kana {
		if k.Common {
			return ToHiragana(k.Text)
		}
	}
	return ToHiragana(e.Kana[0].Text)
}

// PitchAccent reports the pitch-accent pattern for a word/reading pair, if a
// pitch table is loaded and knows it.
func (d *Dict) PitchAccent(word, reading string) (int, bool) {
	if d == nil || d.pitch == nil {
		return 0, false
	}
	return d.pitch.Accent(word, reading)
}

func matches(e JMdictEntry, surface, dictionaryForm, reading string) bool {
	hasText := false
	for _, k := range e.Kanji {
		if k.Text == surface || k.Text == dictionaryForm {
			hasText = true
			break
		}
	}
	if !hasText {
		for _, k := range e.Kana {
			if k.Text == surface || k.Text == dictionaryForm {
				hasText = true
				break
			}
		}
	}
	if !hasText {
		return false
	}
	if reading == "" {
		return true
	}

	want := ToHiragana(reading)
	for _, k := range e.Kana {
		if ToHiragana(k.Text) == want {
			return true
		}
	}
	return false
}
