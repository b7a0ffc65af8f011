// Package midi implements the controller protocol adapter: parsing incoming
// Launchpad-family messages into logical pad events, driving LEDs via
// vendor SysEx, and hot-plug monitoring of the MIDI port list.
package midi

import "fmt"

// EventKind is the logical event a raw MIDI message resolves to.
type EventKind int

const (
	EventPress EventKind = iota
	EventRelease
	EventControlChange
	EventConnected
	EventDisconnected
)

func (k EventKind) String() string {
	switch k {
	case EventPress:
		return "PRESS"
	case EventRelease:
		return "RELEASE"
	case EventControlChange:
		return "CONTROL_CHANGE"
	case EventConnected:
		return "CONTROLLER_CONNECTED"
	case EventDisconnected:
		return "CONTROLLER_DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Event is what the adapter hands observers: either a grid event
// (Press/Release carry PadIndex), a raw CC forward, or a connection
// transition (Port carries the matched port name).
type Event struct {
	Kind     EventKind
	PadIndex int // valid for EventPress/EventRelease
	CC       uint8
	Value    uint8
	Port     string
}

// Observer receives adapter events on the MIDI receive thread. Implementations
// must not block or perform I/O; defer heavy work to another goroutine.
type Observer interface {
	OnMIDIEvent(ev Event)
}

// ErrNoMatchingPort is returned when device matching finds no candidate port.
var ErrNoMatchingPort = fmt.Errorf("no matching controller port")
