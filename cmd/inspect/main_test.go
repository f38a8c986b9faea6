package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"thunderwatch/internal/levelsave"
)

func TestResolveLevel(t *testing.T) {
	saves := t.TempDir()
	old := filepath.Join(saves, "old")
	fresh := filepath.Join(saves, "fresh")
	for i, dir := range []string{old, fresh} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, levelsave.FileName), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mod := time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC)
		if err := os.Chtimes(dir, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	cases := map[string]string{
		filepath.Join(old, levelsave.FileName): filepath.Join(old, levelsave.FileName),
		old:                                    filepath.Join(old, levelsave.FileName),
		saves:                                  filepath.Join(fresh, levelsave.FileName),
	}
	for in, want := range cases {
		got, err := resolveLevel(in)
		if err != nil {
			t.Fatalf("resolveLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("resolveLevel(%q)=%q want=%q", in, got, want)
		}
	}

	if _, err := resolveLevel(filepath.Join(saves, "missing")); err == nil {
		t.Fatalf("expected error for missing path")
	}
}
