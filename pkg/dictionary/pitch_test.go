package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func writePitchTable(t *testing.T, lines string) *PitchTable {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pitch.tsv")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write pitch table: %v", err)
	}
	table, err := LoadPitchTable(path)
	if err != nil {
		t.Fatalf("LoadPitchTable: %v", err)
	}
	return table
}

func TestPitchTableLookup(t *testing.T) {
	table := writePitchTable(t, "# word\treading\taccent\n"+
		"橋\tはし\t2\n"+
		"箸\tはし\t1\n"+
		"犬\tいぬ\t2\n"+
		"\n"+
		"こわれた行\n")

	if table.Len() != 2 {
		t.Errorf("Len = %d, want 2 readings", table.Len())
	}

	// Homophones resolve by word.
	if a, ok := table.Accent("橋", "はし"); !ok || a != 2 {
		t.Errorf("Accent(橋) = %d, %v; want 2", a, ok)
	}
	if a, ok := table.Accent("箸", "はし"); !ok || a != 1 {
		t.Errorf("Accent(箸) = %d, %v; want 1", a, ok)
	}
	// Unlisted word under an ambiguous reading stays unknown.
	if _, ok := table.Accent("端", "はし"); ok {
		t.Error("ambiguous reading should not resolve for unlisted word")
	}
	// Katakana reading is normalized; unique reading resolves even for an
	// unlisted word form.
	if a, ok := table.Accent("イヌ", "イヌ"); !ok || a != 2 {
		t.Errorf("Accent(イヌ) = %d, %v; want 2 via unique reading", a, ok)
	}
	if _, ok := table.Accent("ねこ", "ねこ"); ok {
		t.Error("unknown reading should not resolve")
	}
}

func TestDictPitchAccent(t *testing.T) {
	table := writePitchTable(t, "犬\tいぬ\t2\n")
	d := loadTestDict(t, table)

	if a, ok := d.PitchAccent("犬", "イヌ"); !ok || a != 2 {
		t.Errorf("PitchAccent(犬) = %d, %v; want 2", a, ok)
	}
	noPitch := loadTestDict(t, nil)
	if _, ok := noPitch.PitchAccent("犬", "いぬ"); ok {
		t.Error("dict without pitch table should report no accent")
	}
}
