package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PitchTable maps word/reading pairs to their pitch-accent pattern (the
// downstep mora index, 0 for heiban). Loaded once, immutable afterwards.
type PitchTable struct {
	byReading map[string][]pitchEntry
}

type pitchEntry struct {
	word   string
	accent int
}

// LoadPitchTable reads a TSV file of "word<TAB>reading<TAB>accent" lines.
// Blank lines and lines starting with '#' are skipped; readings are
// normalized to hiragana.
func LoadPitchTable(path string) (*PitchTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pitch table: %w", err)
	}
	defer f.Close()

	byReading := make(map[string][]pitchEntry)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		accent, err := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || accent < 0 {
			continue
		}
		reading := ToHiragana(strings.TrimSpace(fields[1]))
		byReading[reading] = append(byReading[reading], pitchEntry{
			word:   strings.TrimSpace(fields[0]),
			accent: accent,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pitch table: %w", err)
	}
	return &PitchTable{byReading: byReading}, nil
}

// Accent reports the pitch accent for a word under the given reading. When
// the word is not listed under that reading but exactly one accent is known
// for the reading, that accent is returned.
func (p *PitchTable) Accent(word, reading string) (int, bool) {
	if p == nil {
		return 0, false
	}
	entries := p.byReading[ToHiragana(reading)]
	if len(entries) == 0 {
		return 0, false
	}
	for _, e := range entries {
		if e.word == word {
			return e.accent, true
		}
	}
	if len(entries) == 1 {
		return entries[0].accent, true
	}
	return 0, false
}

// Len reports the number of distinct readings in the table.
func (p *PitchTable) Len() int {
	if p == nil {
		return 0
	}
	return len(p.byReading)
}
