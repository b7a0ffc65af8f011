package midi

import (
	"context"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // registers the default MIDI driver

	"gopad/internal/debug"
)

// Monitor polls the MIDI port list at a fixed interval and drives an
// Adapter's connect/disconnect lifecycle as matching ports appear and
// disappear.
type Monitor struct {
	adapter  *Adapter
	interval time.Duration
}

// NewMonitor constructs a Monitor for adapter, polling every interval.
func NewMonitor(adapter *Adapter, interval time.Duration) *Monitor {
	return &Monitor{adapter: adapter, interval: interval}
}

// Run blocks, polling until ctx is canceled. It performs one scan
// immediately before entering the poll loop, so a controller already
// attached at startup connects without waiting a full interval.
func (m *Monitor) Run(ctx context.Context) {
	m.scan()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.scan()
		}
	}
}

func (m *Monitor) scan() {
	inPorts := gomidi.GetInPorts()
	outPorts := gomidi.GetOutPorts()

	inNames := make([]string, len(inPorts))
	for i, p := range inPorts {
		inNames[i] = p.String()
	}
	outNames := make([]string, len(outPorts))
	for i, p := range outPorts {
		outNames[i] = p.String()
	}

	profile, matchName, ok := DetectProfile(inNames)
	currentlyConnected := m.adapter.IsConnected()

	switch {
	case ok && !currentlyConnected:
		in := findIn(inPorts, matchName)
		outName, hasOut := profile.MatchPort(outNames)
		var out drivers.Out
		if hasOut {
			out = findOut(outPorts, outName)
		}
		m.adapter.profile = profile
		if in == nil {
			debug.Log("midi", "matched port %q disappeared before open", matchName)
			return
		}
		if err := m.adapter.Connect(matchName, in, out); err != nil {
			debug.Log("midi", "hot-plug connect failed: %v", err)
		}
	case !ok && currentlyConnected:
		m.adapter.Disconnect()
	}
}

func findIn(ports []drivers.In, name string) drivers.In {
	for _, p := range ports {
		if p.String() == name {
			return p
		}
	}
	return nil
}

func findOut(ports []drivers.Out, name string) drivers.Out {
	for _, p := range ports {
		if p.String() == name {
			return p
		}
	}
	return nil
}
