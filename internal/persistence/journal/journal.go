// Package journal appends evaluation records to hourly zstd-compressed JSONL
// files.
package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

const prefix = "decisions"

// Entry is one judged world.
type Entry struct {
	Time        time.Time `json:"time"`
	World       string    `json:"world"`
	RainTick    uint64    `json:"rain_tick"`
	ThunderTick uint64    `json:"thunder_tick"`
	RainAt      string    `json:"rain_at"`
	ThunderAt   string    `json:"thunder_at"`
	Decision    string    `json:"decision"`
	Reasons     []string  `json:"reasons,omitempty"`
}

// Writer appends entries to the file of the current UTC hour. It is safe for
// concurrent use.
type Writer struct {
	baseDir string
	now     func() time.Time

	mu  sync.Mutex
	cur *hourFile
}

// hourFile is one open journal file. Every entry is flushed as its own zstd
// frame so a crash loses at most the line being written.
type hourFile struct {
	hour string
	f    *os.File
	enc  *zstd.Encoder
	json *json.Encoder
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir, now: time.Now}
}

func (w *Writer) RecordEvaluation(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := w.now().UTC().Format("2006-01-02-15")
	if w.cur == nil || w.cur.hour != hour {
		if err := w.switchTo(hour); err != nil {
			return err
		}
	}
	return w.cur.append(e)
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cur == nil {
		return nil
	}
	err := w.cur.close()
	w.cur = nil
	return err
}

func (w *Writer) switchTo(hour string) error {
	if w.cur != nil {
		prev := w.cur.hour
		err := w.cur.close()
		w.cur = nil
		if err != nil {
			return fmt.Errorf("journal: close %s: %w", w.PathForHour(prev), err)
		}
	}
	if err := os.MkdirAll(w.baseDir, 0o755); err != nil {
		return err
	}
	hf, err := openHour(w.PathForHour(hour), hour)
	if err != nil {
		return err
	}
	w.cur = hf
	return nil
}

func openHour(path, hour string) (*hourFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &hourFile{hour: hour, f: f, enc: enc, json: json.NewEncoder(enc)}, nil
}

func (h *hourFile) append(e Entry) error {
	if err := h.json.Encode(e); err != nil {
		return err
	}
	return h.enc.Flush()
}

func (h *hourFile) close() error {
	err := h.enc.Close()
	if cerr := h.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// PathForHour returns the file an hour bucket ("2006-01-02-15") is written to.
func (w *Writer) PathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", prefix, hour))
}

// ReadFile decodes every entry in a journal file.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Entry
	jd := json.NewDecoder(bufio.NewReader(dec))
	for {
		var e Entry
		if err := jd.Decode(&e); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return out, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		out = append(out, e)
	}
}
