package game

import "strings"

// Mode is a room's seating arrangement.
type Mode string

const (
	ModeSingle Mode = "single"
	ModePair   Mode = "pair"
	ModeTeam   Mode = "team"
)

// ParseMode is case-insensitive. Empty or unknown names fall back to single.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModePair, ModeTeam:
		return m
	}
	return ModeSingle
}

// Capacity is the maximum number of participants, automated seats included.
func Capacity(m Mode) int {
	switch m {
	case ModePair:
		return 2
	case ModeTeam:
		return 4
	default:
		return 4
	}
}

// AutomatedSeats is how many automated participants a new room starts with.
func AutomatedSeats(m Mode) int {
	if m == ModeSingle {
		return 3
	}
	return 0
}
