package layout

import (
	"errors"
	"fmt"
)

// Mode is the screen region a player instance renders into. The values
// are written verbatim into splitscreen.properties, so they must match
// what the window-splitting mod parses.
type Mode string

const (
	Fullscreen  Mode = "FULLSCREEN"
	Top         Mode = "TOP"
	Bottom      Mode = "BOTTOM"
	TopLeft     Mode = "TOP_LEFT"
	TopRight    Mode = "TOP_RIGHT"
	BottomLeft  Mode = "BOTTOM_LEFT"
	BottomRight Mode = "BOTTOM_RIGHT"
)

var ErrInvalidSlot = errors.New("player slot outside table")

var table = map[int][]Mode{
	1: {Fullscreen},
	2: {Top, Bottom},
	3: {Top, BottomLeft, BottomRight},
	4: {TopLeft, TopRight, BottomLeft, BottomRight},
}

// For returns the region for one 1-based player slot in a session of
// totalPlayers.
func For(slot, totalPlayers int) (Mode, error) {
	modes, ok := table[totalPlayers]
	if !ok {
		return "", fmt.Errorf("%w: total players %d not in 1..4", ErrInvalidSlot, totalPlayers)
	}
	if slot < 1 || slot > totalPlayers {
		return "", fmt.Errorf("%w: slot %d with %d players", ErrInvalidSlot, slot, totalPlayers)
	}
	return modes[slot-1], nil
}
