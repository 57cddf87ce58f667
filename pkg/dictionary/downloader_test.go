package dictionary

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDictionaryLocalCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jmdict.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// An existing file short-circuits; no network involved.
	if err := EnsureDictionary(context.Background(), path); err != nil {
		t.Fatalf("EnsureDictionary with cached file: %v", err)
	}
}
