// Package gametime converts game ticks into wall-clock style durations.
package gametime

import "fmt"

const (
	TicksPerSecond = 20
	TicksPerMinute = 60 * TicksPerSecond
	TicksPerHour   = 60 * TicksPerMinute

	// MillisPerTick is the real-time length of one tick at the nominal rate.
	MillisPerTick = 1000 / TicksPerSecond
)

// FormatTicks renders a tick count as HH:MM:SS.mmm. Hours widen past two
// digits instead of wrapping.
func FormatTicks(ticks uint64) string {
	hours := ticks / TicksPerHour
	rem := ticks % TicksPerHour
	minutes := rem / TicksPerMinute
	rem %= TicksPerMinute
	seconds := rem / TicksPerSecond
	millis := (rem % TicksPerSecond) * MillisPerTick
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
