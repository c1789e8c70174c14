package parking

import (
	"fmt"
	"strings"
)

type GateDirection int

const (
	Entry GateDirection = iota + 1
	Exit
)

func (d GateDirection) String() string {
	switch d {
	case Entry:
		return "ENTRY"
	case Exit:
		return "EXIT"
	default:
		return fmt.Sprintf("GateDirection(%d)", int(d))
	}
}

func (d GateDirection) MarshalText() ([]byte, error) {
	if d != Entry && d != Exit {
		return nil, fmt.Errorf("%w: gate direction %d", ErrValidation, int(d))
	}
	return []byte(d.String()), nil
}

func (d *GateDirection) UnmarshalText(text []byte) error {
	parsed, err := ParseGateDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func ParseGateDirection(s string) (GateDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTRY":
		return Entry, nil
	case "EXIT":
		return Exit, nil
	default:
		return 0, fmt.Errorf("%w: gate direction %q", ErrValidation, s)
	}
}

type Gate struct {
	ID          string        `json:"id"`
	FloorNumber int           `json:"floor"`
	Direction   GateDirection `json:"direction"`
	Location    string        `json:"location"`
}
