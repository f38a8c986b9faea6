// Package input binds the watcher to the desktop: a system-wide key listener
// feeding the armed toggle and a synthetic key press for resets.
//
// Both halves need cgo and a display; keep them out of anything that must
// build headless.
package input

import (
	"context"
	"log"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"
)

// KeyTapper presses a single key through the OS input queue.
type KeyTapper struct {
	key    string
	logger *log.Logger
}

func NewKeyTapper(key rune, logger *log.Logger) *KeyTapper {
	return &KeyTapper{key: string(key), logger: logger}
}

// PressReset sends one press-and-release of the configured key.
func (k *KeyTapper) PressReset() {
	if err := robotgo.KeyTap(k.key); err != nil && k.logger != nil {
		k.logger.Printf("key tap %q: %v", k.key, err)
	}
}

// Listen forwards the character of every key-down event to onKey until ctx
// is cancelled. It blocks; run it on its own goroutine.
func Listen(ctx context.Context, onKey func(rune)) {
	events := hook.Start()
	defer hook.End()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if r, ok := keyChar(ev); ok {
				onKey(r)
			}
		}
	}
}

// keyChar reports the character of a key-down event. Releases, mouse events
// and keys without a character are dropped.
func keyChar(ev hook.Event) (rune, bool) {
	if ev.Kind != hook.KeyDown || ev.Keychar == hook.CharUndefined {
		return 0, false
	}
	return ev.Keychar, true
}
