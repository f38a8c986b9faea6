// Package indexdb keeps a queryable SQLite copy of the decision journal.
package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"thunderwatch/internal/persistence/journal"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan journal.Entry
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
	written atomic.Uint64
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	WrittenTotal  uint64
	DroppedTotal  uint64
}

// Row is one stored evaluation.
type Row struct {
	ID          int64
	RecordedAt  string
	World       string
	RainTick    uint64
	ThunderTick uint64
	Decision    string
	Reasons     []string
}

// queueSize bounds the rows waiting for the writer goroutine.
const queueSize = 1024

// schema is idempotent; it runs on every open.
const schema = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS evaluations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	world TEXT NOT NULL,
	rain_tick INTEGER NOT NULL,
	thunder_tick INTEGER NOT NULL,
	decision TEXT NOT NULL,
	reasons TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_evaluations_world ON evaluations(world);
INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');
`

// writerDSN applies the connection pragmas through the driver so every
// pooled connection gets them.
func writerDSN(path string) string {
	return "file:" + filepath.ToSlash(path) +
		"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
}

// OpenSQLite opens or creates the index at path and starts its writer.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("indexdb: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", writerDSN(path))
	if err != nil {
		return nil, err
	}
	// A single writer connection keeps inserts ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("indexdb: schema: %w", err)
	}

	s := &SQLiteIndex{db: db, ch: make(chan journal.Entry, queueSize)}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

// Close drains pending rows and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordEvaluation enqueues e without blocking the caller. Rows are dropped
// when the writer falls behind; the journal remains the source of truth.
func (s *SQLiteIndex) RecordEvaluation(e journal.Entry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		WrittenTotal:  s.written.Load(),
		DroppedTotal:  s.dropped.Load(),
	}
}

func (s *SQLiteIndex) loop() {
	insert, err := s.db.Prepare(`INSERT INTO evaluations(recorded_at,world,rain_tick,thunder_tick,decision,reasons) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		for range s.ch {
			s.dropped.Add(1)
		}
		return
	}
	defer insert.Close()

	for e := range s.ch {
		at := e.Time
		if at.IsZero() {
			at = time.Now()
		}
		if _, err := insert.Exec(
			at.UTC().Format(time.RFC3339Nano),
			e.World,
			int64(e.RainTick),
			int64(e.ThunderTick),
			e.Decision,
			strings.Join(e.Reasons, ","),
		); err != nil {
			s.dropped.Add(1)
			continue
		}
		s.written.Add(1)
	}
}

// Recent returns up to limit rows, newest first.
func Recent(ctx context.Context, db *sql.DB, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `SELECT id,recorded_at,world,rain_tick,thunder_tick,decision,reasons
		FROM evaluations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			rain    int64
			thunder int64
			reasons string
		)
		if err := rows.Scan(&r.ID, &r.RecordedAt, &r.World, &rain, &thunder, &r.Decision, &reasons); err != nil {
			return nil, err
		}
		r.RainTick = uint64(rain)
		r.ThunderTick = uint64(thunder)
		if reasons != "" {
			r.Reasons = strings.Split(reasons, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// OpenReadOnly opens an existing index for querying.
func OpenReadOnly(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=ro")
}
