// Package levelsave reads the weather cycle fields out of a world's level.dat.
//
// level.dat is a gzip compressed NBT document. Only Data.rainTime and
// Data.thunderTime are interpreted; every other Data entry is carried in
// Timing.Extra untouched so schema drift between game versions never breaks
// decoding.
package levelsave

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Tnze/go-mc/nbt"
	"github.com/klauspost/compress/gzip"
)

// FileName is the save-state file inside every world directory.
const FileName = "level.dat"

const (
	rainKey    = "rainTime"
	thunderKey = "thunderTime"
)

var (
	// ErrMalformed reports a payload that is not the expected NBT shape.
	ErrMalformed = errors.New("levelsave: malformed level data")
	// ErrUnreadable reports a save file that could not be opened or
	// decompressed, usually because the game is still writing it.
	ErrUnreadable = errors.New("levelsave: unreadable save file")
)

// Timing is the pair of cycle start ticks extracted from one save read.
// A zero tick means the game has not initialised that cycle yet.
type Timing struct {
	RainStartTick    uint64
	ThunderStartTick uint64

	// Extra holds every other Data entry, undecoded.
	Extra map[string]nbt.RawMessage
}

// Initialized reports whether both cycles carry real start ticks.
func (t Timing) Initialized() bool {
	return t.RainStartTick != 0 && t.ThunderStartTick != 0
}

type levelDat struct {
	Data map[string]nbt.RawMessage `nbt:"Data"`
}

// Decode extracts the cycle start ticks from a decompressed level.dat payload.
func Decode(raw []byte) (Timing, error) {
	var t Timing
	var doc levelDat
	if err := nbt.Unmarshal(raw, &doc); err != nil {
		return t, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Data == nil {
		return t, fmt.Errorf("%w: missing Data compound", ErrMalformed)
	}

	rain, err := takeTick(doc.Data, rainKey)
	if err != nil {
		return t, err
	}
	thunder, err := takeTick(doc.Data, thunderKey)
	if err != nil {
		return t, err
	}

	t.RainStartTick = rain
	t.ThunderStartTick = thunder
	t.Extra = doc.Data
	return t, nil
}

// takeTick removes key from data and decodes it as a non-negative integer.
func takeTick(data map[string]nbt.RawMessage, key string) (uint64, error) {
	msg, ok := data[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing Data.%s", ErrMalformed, key)
	}
	switch msg.Type {
	case nbt.TagByte, nbt.TagShort, nbt.TagInt, nbt.TagLong:
	default:
		return 0, fmt.Errorf("%w: Data.%s has tag type %d, want integer", ErrMalformed, key, msg.Type)
	}
	var v int64
	if err := msg.Unmarshal(&v); err != nil {
		return 0, fmt.Errorf("%w: Data.%s: %v", ErrMalformed, key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: Data.%s is negative (%d)", ErrMalformed, key, v)
	}
	delete(data, key)
	return uint64(v), nil
}

// ReadFile gunzips and decodes the save file at path.
func ReadFile(path string) (Timing, error) {
	f, err := os.Open(path)
	if err != nil {
		return Timing{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()
	return Read(f)
}

// Read gunzips r and decodes the payload.
func Read(r io.Reader) (Timing, error) {
	zr, err := gzip.NewReader(bufio.NewReader(r))
	if err != nil {
		return Timing{}, fmt.Errorf("%w: gzip: %v", ErrUnreadable, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return Timing{}, fmt.Errorf("%w: gzip: %v", ErrUnreadable, err)
	}
	return Decode(buf.Bytes())
}
