package worlds

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func mkWorld(t *testing.T, root, name string, mod time.Time) string {
	t.Helper()
	p := filepath.Join(root, name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", p, err)
	}
	if err := os.Chtimes(p, mod, mod); err != nil {
		t.Fatalf("chtimes %s: %v", p, err)
	}
	return p
}

func TestSelectActive_EmptyDir(t *testing.T) {
	if _, err := SelectActive(t.TempDir()); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("err=%v want ErrNoCandidates", err)
	}
}

func TestSelectActive_MissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := SelectActive(missing); !errors.Is(err, ErrDirectoryUnreadable) {
		t.Fatalf("err=%v want ErrDirectoryUnreadable", err)
	}
}

func TestSelectActive_PicksNewest(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mkWorld(t, root, "Random Speedrun #1", base)
	want := mkWorld(t, root, "Random Speedrun #3", base.Add(2*time.Minute))
	mkWorld(t, root, "Random Speedrun #2", base.Add(time.Minute))

	got, err := SelectActive(root)
	if err != nil {
		t.Fatalf("SelectActive: %v", err)
	}
	if got != want {
		t.Fatalf("got=%q want=%q", got, want)
	}
}

func TestSelectActive_TieBreaksOnFirstName(t *testing.T) {
	root := t.TempDir()
	same := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mkWorld(t, root, "b", same)
	want := mkWorld(t, root, "a", same)
	mkWorld(t, root, "c", same)

	for i := 0; i < 3; i++ {
		got, err := SelectActive(root)
		if err != nil {
			t.Fatalf("SelectActive: %v", err)
		}
		if got != want {
			t.Fatalf("run %d: got=%q want=%q", i, got, want)
		}
	}
}

func TestSelectActive_ConsidersFiles(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mkWorld(t, root, "world", base)
	f := filepath.Join(root, "notes.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(f, base.Add(time.Hour), base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	got, err := SelectActive(root)
	if err != nil {
		t.Fatalf("SelectActive: %v", err)
	}
	if got != f {
		t.Fatalf("got=%q want=%q", got, f)
	}
}

// vanished is a listed entry whose metadata is gone by the time it is read.
type vanished string

func (v vanished) Name() string               { return string(v) }
func (v vanished) IsDir() bool                { return true }
func (v vanished) Type() fs.FileMode          { return fs.ModeDir }
func (v vanished) Info() (fs.FileInfo, error) { return nil, fs.ErrNotExist }

func TestNewest_SkipsEntriesWithoutMetadata(t *testing.T) {
	root := t.TempDir()
	mkWorld(t, root, "b", time.Now().Add(-time.Hour))
	ents, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	ents = append([]fs.DirEntry{vanished("a")}, ents...)
	if got := newest(ents); got != "b" {
		t.Fatalf("newest=%q want=b", got)
	}
	if got := newest([]fs.DirEntry{vanished("a"), vanished("c")}); got != "" {
		t.Fatalf("newest=%q want empty when no metadata is readable", got)
	}
}
