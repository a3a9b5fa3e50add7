package cursor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/tradewatch/tradewatch/internal/market"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.json")
	s := NewFileStore(path)
	ctx := context.Background()

	in := map[market.ChatID]int64{
		"users-1-2": 105,
		"users-1-7": 42,
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out["users-1-2"] != 105 || out["users-1-7"] != 42 {
		t.Errorf("round trip mismatch: %v", out)
	}
}

func TestFileStore_MissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("expected empty map for missing file, got error: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty map, got %v", out)
	}
}

func TestFileStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "deep", "cursors.json")
	s := NewFileStore(path)
	if err := s.Save(context.Background(), map[market.ChatID]int64{"c": 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file at %s: %v", path, err)
	}
}

func TestFileStore_OverwriteReplacesState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Save(ctx, map[market.ChatID]int64{"a": 1, "b": 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, map[market.ChatID]int64{"a": 9}); err != nil {
		t.Fatal(err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out["a"] != 9 {
		t.Errorf("expected replaced state {a:9}, got %v", out)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursors.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestMemoryStore_CopiesState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := map[market.ChatID]int64{"a": 1}
	if err := s.Save(ctx, in); err != nil {
		t.Fatal(err)
	}
	in["a"] = 99 // mutating the caller's map must not affect the store

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if out["a"] != 1 {
		t.Errorf("store must copy on save, got %d", out["a"])
	}

	out["a"] = 77
	again, _ := s.Load(ctx)
	if again["a"] != 1 {
		t.Errorf("store must copy on load, got %d", again["a"])
	}
}
