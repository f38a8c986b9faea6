// Package watcher drives evaluations from directory change notifications.
package watcher

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"thunderwatch/internal/decision"
	"thunderwatch/internal/gametime"
	"thunderwatch/internal/levelsave"
	"thunderwatch/internal/persistence/journal"
	"thunderwatch/internal/worlds"
)

// Actuator presses the reset key.
type Actuator interface {
	PressReset()
}

// Recorder receives every judged world.
type Recorder interface {
	RecordEvaluation(journal.Entry) error
}

type Options struct {
	// SavesDir is the instance directory holding one folder per world.
	SavesDir string
	// SaveFile is the file read inside the active world. Default: level.dat.
	SaveFile string
	// DisarmAfterReset clears the toggle once a reset has been dispatched.
	DisarmAfterReset bool
	// Debug logs both cycle starts for every read.
	Debug bool
}

type Stats struct {
	Triggers  uint64
	Disarmed  uint64
	Skipped   uint64
	Judged    uint64
	Resets    uint64
	Errors    uint64
	LastWorld string
}

type Loop struct {
	opts      Options
	armed     *Armed
	engine    *decision.Engine
	recorders []Recorder
	logger    *log.Logger
	now       func() time.Time

	resets chan struct{}
	act    Actuator

	triggers atomic.Uint64
	disarmed atomic.Uint64
	skipped  atomic.Uint64
	judged   atomic.Uint64
	fired    atomic.Uint64
	errs     atomic.Uint64
	last     atomic.Value // string
}

func New(opts Options, armed *Armed, engine *decision.Engine, act Actuator, logger *log.Logger, recorders ...Recorder) *Loop {
	if opts.SaveFile == "" {
		opts.SaveFile = levelsave.FileName
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[watcher] ", log.LstdFlags)
	}
	return &Loop{
		opts:      opts,
		armed:     armed,
		engine:    engine,
		recorders: recorders,
		logger:    logger,
		now:       time.Now,
		resets:    make(chan struct{}, 1),
		act:       act,
	}
}

// Run processes triggers one at a time until ctx is done or triggers closes.
func (l *Loop) Run(ctx context.Context, triggers <-chan struct{}) error {
	stop := make(chan struct{})
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		l.dispatch(stop)
	}()
	defer func() {
		close(stop)
		<-dispatchDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-triggers:
			if !ok {
				return nil
			}
			l.triggers.Add(1)
			l.Process()
		}
	}
}

// dispatch presses the reset key for each queued request, in order. A press
// still pending at stop is delivered before returning.
func (l *Loop) dispatch(stop <-chan struct{}) {
	for {
		select {
		case <-l.resets:
			l.press()
		case <-stop:
			select {
			case <-l.resets:
				l.press()
			default:
			}
			return
		}
	}
}

func (l *Loop) press() {
	if l.act == nil {
		return
	}
	l.armed.ExpectEcho()
	l.act.PressReset()
}

// Process handles one change notification and returns the outcome. Errors
// are logged and leave the engine untouched.
func (l *Loop) Process() decision.Outcome {
	if !l.armed.Load() {
		l.disarmed.Add(1)
		return decision.Outcome{}
	}

	world, err := worlds.SelectActive(l.opts.SavesDir)
	if err != nil {
		l.errs.Add(1)
		l.logger.Printf("select world: %v", err)
		return decision.Outcome{}
	}

	t, err := levelsave.ReadFile(filepath.Join(world, l.opts.SaveFile))
	switch {
	case err == nil:
	case errors.Is(err, levelsave.ErrUnreadable):
		// Typically mid-write or not created yet; the next change retries.
		l.skipped.Add(1)
		if l.opts.Debug {
			l.logger.Printf("debug: %s: %v", filepath.Base(world), err)
		}
		return decision.Outcome{}
	default:
		l.errs.Add(1)
		l.logger.Printf("decode %s: %v", filepath.Base(world), err)
		return decision.Outcome{}
	}

	if l.opts.Debug && t.Initialized() {
		l.logger.Printf("debug: %s rain cycle start: %s; thunder cycle start: %s",
			filepath.Base(world), gametime.FormatTicks(t.RainStartTick), gametime.FormatTicks(t.ThunderStartTick))
	}

	out := l.engine.Evaluate(t, world, l.armed.Load())
	if !out.Judged {
		return out
	}
	l.judged.Add(1)
	l.last.Store(world)

	if out.Decision == decision.Reset {
		l.fired.Add(1)
		l.logger.Printf("reset %s (%s)", filepath.Base(world), out.ReasonString())
		l.queueReset()
		if l.opts.DisarmAfterReset {
			l.armed.Disarm()
		}
	} else {
		l.logger.Printf("keep %s", filepath.Base(world))
	}

	l.record(world, t, out)
	return out
}

// queueReset hands a press to the dispatcher without waiting. A press that is
// already pending covers this one.
func (l *Loop) queueReset() {
	select {
	case l.resets <- struct{}{}:
	default:
	}
}

func (l *Loop) record(world string, t levelsave.Timing, out decision.Outcome) {
	if len(l.recorders) == 0 {
		return
	}
	e := journal.Entry{
		Time:        l.now(),
		World:       world,
		RainTick:    t.RainStartTick,
		ThunderTick: t.ThunderStartTick,
		RainAt:      gametime.FormatTicks(t.RainStartTick),
		ThunderAt:   gametime.FormatTicks(t.ThunderStartTick),
		Decision:    out.Decision.String(),
	}
	for _, r := range out.Reasons {
		e.Reasons = append(e.Reasons, string(r))
	}
	for _, r := range l.recorders {
		if r == nil {
			continue
		}
		if err := r.RecordEvaluation(e); err != nil {
			l.logger.Printf("record evaluation: %v", err)
		}
	}
}

func (l *Loop) Stats() Stats {
	last, _ := l.last.Load().(string)
	return Stats{
		Triggers:  l.triggers.Load(),
		Disarmed:  l.disarmed.Load(),
		Skipped:   l.skipped.Load(),
		Judged:    l.judged.Load(),
		Resets:    l.fired.Load(),
		Errors:    l.errs.Load(),
		LastWorld: last,
	}
}
