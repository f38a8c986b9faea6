package watcher

import (
	"context"
	"io"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Notify watches dir (non-recursive) and emits a trigger per change.
// Triggers coalesce: while one is pending further events are folded into it,
// which is enough because every trigger re-reads the directory from scratch.
// The returned Closer stops the watcher and closes the channel.
func Notify(ctx context.Context, dir string, logger *log.Logger) (<-chan struct{}, io.Closer, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-fw.Events:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				if logger != nil {
					logger.Printf("notify: %v", err)
				}
			}
		}
	}()
	return out, fw, nil
}
