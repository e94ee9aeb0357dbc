package attendance

import (
	"fmt"
	"strings"
	"time"
)

// Direction is the in/out tag of a punch. Devices do not always send one,
// so the zero value is DirectionUnknown.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionIn
	DirectionOut
)

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// IsKnown reports whether the direction was tagged.
func (d Direction) IsKnown() bool {
	return d == DirectionIn || d == DirectionOut
}

// ParseDirection accepts "in"/"out" (any case) and "" for unknown.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DirectionUnknown, nil
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	default:
		return DirectionUnknown, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.IsKnown() {
		return []byte(""), nil
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RawPunch is a single attendance-log row as delivered by the device adapters.
type RawPunch struct {
	ID         string    `json:"id,omitempty"`
	EmployeeID string    `json:"employee_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Direction  Direction `json:"direction"`
	SourceID   string    `json:"source_id,omitempty"`
}
