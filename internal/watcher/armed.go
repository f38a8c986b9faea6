package watcher

import (
	"log"
	"sync/atomic"
	"time"
)

// echoWindow bounds how long a dispatched press may take to come back
// through the global hook.
const echoWindow = time.Second

// Armed is the auto-reset toggle shared by the hotkey listener and the loop.
type Armed struct {
	hotkey rune
	logger *log.Logger
	now    func() time.Time

	v         atomic.Bool
	echoUntil atomic.Int64 // unix nanos, 0 when no echo is pending
}

func NewArmed(hotkey rune, logger *log.Logger) *Armed {
	return &Armed{hotkey: hotkey, logger: logger, now: time.Now}
}

func (a *Armed) Load() bool { return a.v.Load() }

func (a *Armed) Arm() {
	if a.v.CompareAndSwap(false, true) {
		a.logf("auto resetting is now enabled")
	}
}

func (a *Armed) Disarm() {
	if a.v.CompareAndSwap(true, false) {
		a.logf("auto resetting is now disabled")
	}
}

// ExpectEcho marks the next hotkey key-down seen within echoWindow as the
// tool's own synthetic press. The reset key is the toggle key and the hook
// observes injected events.
func (a *Armed) ExpectEcho() {
	a.echoUntil.Store(a.now().Add(echoWindow).UnixNano())
}

func (a *Armed) consumeEcho() bool {
	until := a.echoUntil.Swap(0)
	return until != 0 && a.now().UnixNano() <= until
}

// HandleKey applies one key-down event: the hotkey arms, any other key
// disarms. An expected echo of a dispatched reset is swallowed. It reports
// whether the toggle changed.
func (a *Armed) HandleKey(r rune) bool {
	if r == a.hotkey {
		if a.consumeEcho() {
			return false
		}
		if a.v.CompareAndSwap(false, true) {
			a.logf("auto resetting is now enabled")
			return true
		}
		return false
	}
	if a.v.CompareAndSwap(true, false) {
		a.logf("auto resetting is now disabled")
		return true
	}
	return false
}

func (a *Armed) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
