package core

import (
	"fmt"
	"strings"
)

// Identity is the opaque player token handed to the arena by the transport layer.
// The core never inspects it beyond equality.
type Identity string

// Seat is one of the two paddle positions in a match.
// Seat1 plays the left paddle, Seat2 the right one.
type Seat int

const (
	NoSeat Seat = iota
	Seat1
	Seat2
)

// Valid reports whether s names an actual paddle.
func (s Seat) Valid() bool {
	return s == Seat1 || s == Seat2
}

// Index returns the zero-based array index for the seat.
// Callers must check Valid first.
func (s Seat) Index() int {
	return int(s) - 1
}

// Opponent returns the other seat.
func (s Seat) Opponent() Seat {
	switch s {
	case Seat1:
		return Seat2
	case Seat2:
		return Seat1
	default:
		return NoSeat
	}
}

// String returns a human-readable name for the seat.
func (s Seat) String() string {
	switch s {
	case Seat1:
		return "seat1"
	case Seat2:
		return "seat2"
	default:
		return "none"
	}
}

// Direction is a discrete paddle command.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
)

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection converts a wire name into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirUp, nil
	case "down":
		return DirDown, nil
	case "", "none":
		return DirNone, nil
	default:
		return DirNone, fmt.Errorf("unknown direction %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
