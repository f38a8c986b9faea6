package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWriter_RoundTripAndRotate(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)
	clock := time.Date(2024, 6, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	first := Entry{Time: clock, World: "/saves/a", RainTick: 50, ThunderTick: 200, Decision: "reset", Reasons: []string{"out_of_bounds"}}
	second := Entry{Time: clock, World: "/saves/b", RainTick: 5000, ThunderTick: 5000, Decision: "no_action"}
	if err := w.RecordEvaluation(first); err != nil {
		t.Fatalf("RecordEvaluation: %v", err)
	}
	if err := w.RecordEvaluation(second); err != nil {
		t.Fatalf("RecordEvaluation: %v", err)
	}

	clock = clock.Add(2 * time.Minute)
	third := Entry{Time: clock, World: "/saves/c", RainTick: 1, ThunderTick: 2, Decision: "reset"}
	if err := w.RecordEvaluation(third); err != nil {
		t.Fatalf("RecordEvaluation: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(w.PathForHour("2024-06-01-10"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 || got[0].World != "/saves/a" || got[1].World != "/saves/b" {
		t.Fatalf("hour 10 entries mismatch: %+v", got)
	}
	if len(got[0].Reasons) != 1 || got[0].Reasons[0] != "out_of_bounds" {
		t.Fatalf("reasons mismatch: %+v", got[0].Reasons)
	}

	got, err = ReadFile(filepath.Join(dir, "decisions-2024-06-01-11.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 1 || got[0].World != "/saves/c" {
		t.Fatalf("hour 11 entries mismatch: %+v", got)
	}
}

func TestWriter_ReopenAppendsToHour(t *testing.T) {
	dir := t.TempDir()
	clock := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	for _, world := range []string{"/saves/a", "/saves/b"} {
		w := NewWriter(dir)
		w.now = func() time.Time { return clock }
		if err := w.RecordEvaluation(Entry{Time: clock, World: world, Decision: "no_action"}); err != nil {
			t.Fatalf("RecordEvaluation: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("second Close: %v", err)
		}
	}

	got, err := ReadFile(filepath.Join(dir, "decisions-2024-06-01-10.jsonl.zst"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 || got[0].World != "/saves/a" || got[1].World != "/saves/b" {
		t.Fatalf("entries mismatch: %+v", got)
	}
}
