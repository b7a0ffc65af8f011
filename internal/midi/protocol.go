package midi

import (
	"fmt"
	"sync"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"gopad/internal/debug"
	"gopad/internal/model"
	"gopad/internal/observer"
)

// ledType selects the Launchpad programmer-mode lighting behavior for a
// single pad: solid color, flashing, or pulsing between two brightnesses.
type ledType uint8

const (
	ledStatic ledType = 0
	ledFlash  ledType = 1
	ledPulse  ledType = 2
	ledRGB    ledType = 3
)

// LEDUpdate is one entry of a bulk LED write.
type LEDUpdate struct {
	Index int
	Color model.Color
}

// Adapter is the controller protocol adapter for one Profile: it owns the
// open MIDI ports (if any), parses input into Events, and renders LED
// commands as vendor SysEx. A single Adapter instance is reused across
// hot-plug connect/disconnect cycles.
type Adapter struct {
	profile Profile

	mu       sync.Mutex
	portName string
	send     func(msg gomidi.Message) error
	stop     func()
	connected bool

	observers *observer.Manager[Observer]
}

// NewAdapter constructs a disconnected Adapter for profile.
func NewAdapter(profile Profile) *Adapter {
	return &Adapter{
		profile:   profile,
		observers: observer.New[Observer](),
	}
}

// RegisterObserver adds o to the notification list.
func (a *Adapter) RegisterObserver(o Observer) { a.observers.Register(o) }

// UnregisterObserver removes o from the notification list.
func (a *Adapter) UnregisterObserver(o Observer) { a.observers.Unregister(o) }

func (a *Adapter) notify(ev Event) {
	a.observers.Notify(func(o Observer) { o.OnMIDIEvent(ev) })
}

// IsConnected reports whether the adapter currently has an open port.
func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// PortName returns the currently connected port name, or "" if disconnected.
func (a *Adapter) PortName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.portName
}

// Connect opens in/out (out may be nil for input-only use), sends the
// programmer-mode SysEx, and starts listening. On success it emits
// EventConnected to observers.
func (a *Adapter) Connect(portName string, in drivers.In, out drivers.Out) error {
	a.mu.Lock()
	if a.connected {
		a.mu.Unlock()
		a.Disconnect()
		a.mu.Lock()
	}

	var send func(msg gomidi.Message) error
	if out != nil {
		s, err := gomidi.SendTo(out)
		if err != nil {
			a.mu.Unlock()
			return fmt.Errorf("open controller output %q: %w", portName, err)
		}
		send = s
	}

	stop, err := gomidi.ListenTo(in, a.handleMessage)
	if err != nil {
		a.mu.Unlock()
		return fmt.Errorf("open controller input %q: %w", portName, err)
	}

	a.send = send
	a.stop = stop
	a.portName = portName
	a.connected = true
	a.mu.Unlock()

	if err := a.initialize(); err != nil {
		debug.Log("midi", "initialize failed for %s: %v", portName, err)
	}
	debug.Log("midi", "connected to %s", portName)
	a.notify(Event{Kind: EventConnected, Port: portName})
	return nil
}

// Disconnect performs a best-effort shutdown and closes the input listener.
// It emits EventDisconnected even if the shutdown SysEx failed to send.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	if !a.connected {
		a.mu.Unlock()
		return
	}
	portName := a.portName
	stop := a.stop
	a.mu.Unlock()

	if err := a.shutdown(); err != nil {
		debug.Log("midi", "shutdown failed for %s: %v", portName, err)
	}
	if stop != nil {
		stop()
	}

	a.mu.Lock()
	a.send = nil
	a.stop = nil
	a.portName = ""
	a.connected = false
	a.mu.Unlock()

	debug.Log("midi", "disconnected from %s", portName)
	a.notify(Event{Kind: EventDisconnected, Port: portName})
}

// handleMessage runs on the MIDI receive thread: it must not block or
// allocate beyond the Event value itself.
func (a *Adapter) handleMessage(msg gomidi.Message, _ int32) {
	var channel, note, velocity, cc, value uint8

	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		index, ok := a.profile.NoteToIndex(note)
		if !ok {
			return
		}
		if velocity > 0 {
			a.notify(Event{Kind: EventPress, PadIndex: index})
		} else {
			// velocity==0 NoteOn is MIDI "running status" for release.
			a.notify(Event{Kind: EventRelease, PadIndex: index})
		}
	case msg.GetNoteOff(&channel, &note, &velocity):
		index, ok := a.profile.NoteToIndex(note)
		if !ok {
			return
		}
		a.notify(Event{Kind: EventRelease, PadIndex: index})
	case msg.GetControlChange(&channel, &cc, &value):
		a.notify(Event{Kind: EventControlChange, CC: cc, Value: value})
	default:
		// Clock/active-sense/SysEx and anything else outside the protocol.
	}
}

func (a *Adapter) sysex(payload ...byte) gomidi.Message {
	body := make([]byte, 0, len(a.profile.VendorID)+1+len(payload))
	body = append(body, a.profile.VendorID[:]...)
	body = append(body, a.profile.DeviceID)
	body = append(body, payload...)
	return gomidi.SysEx(body)
}

func (a *Adapter) sendLocked(msg gomidi.Message) error {
	a.mu.Lock()
	send := a.send
	a.mu.Unlock()
	if send == nil {
		return nil
	}
	return send(msg)
}

// initialize enters the device's "programmer" layout, the mode required
// before individual LED control is accepted.
func (a *Adapter) initialize() error {
	return a.sendLocked(a.sysex(0x0E, 0x01))
}

// shutdown restores the device's default (live) layout.
func (a *Adapter) shutdown() error {
	return a.sendLocked(a.sysex(0x0E, 0x00))
}

// SetPadColor sends an RGB (6-bit per channel) update for a single pad.
func (a *Adapter) SetPadColor(index int, c model.Color) error {
	note := a.profile.IndexToNote(index)
	return a.sendLocked(a.sysex(0x03, byte(ledRGB), note, c.R>>1, c.G>>1, c.B>>1))
}

// SetPadPalette sets a pad to a static palette color by index.
func (a *Adapter) SetPadPalette(index int, paletteIndex uint8) error {
	note := a.profile.IndexToNote(index)
	return a.sendLocked(a.sysex(0x03, byte(ledStatic), note, paletteIndex))
}

// SetPadPulsing sets a pad to pulse between on/off using a palette color.
func (a *Adapter) SetPadPulsing(index int, paletteIndex uint8) error {
	note := a.profile.IndexToNote(index)
	return a.sendLocked(a.sysex(0x03, byte(ledPulse), note, paletteIndex))
}

// SetLEDsBulk updates many pads in a single SysEx message. Any update
// spanning more than a handful of pads should use this instead of repeated
// single-pad calls.
func (a *Adapter) SetLEDsBulk(updates []LEDUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	payload := make([]byte, 0, 2+len(updates)*5)
	payload = append(payload, 0x03)
	for _, u := range updates {
		note := a.profile.IndexToNote(u.Index)
		payload = append(payload, byte(ledRGB), note, u.Color.R>>1, u.Color.G>>1, u.Color.B>>1)
	}
	return a.sendLocked(a.sysex(payload...))
}

// ClearAll turns off every pad in the grid with one bulk SysEx write.
func (a *Adapter) ClearAll() error {
	updates := make([]LEDUpdate, 64)
	for i := range updates {
		updates[i] = LEDUpdate{Index: i, Color: model.ColorOff}
	}
	return a.SetLEDsBulk(updates)
}
