package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	gomidi "gitlab.com/gomidi/midi/v2"
)

func noteOnMsg(channel, note, velocity uint8) gomidi.Message {
	return gomidi.NoteOn(channel, note, velocity)
}

func ccMsg(channel, cc, value uint8) gomidi.Message {
	return gomidi.ControlChange(channel, cc, value)
}

func TestLaunchpadXNoteToIndexRoundTrip(t *testing.T) {
	for i := 0; i < 64; i++ {
		note := LaunchpadX.IndexToNote(i)
		index, ok := LaunchpadX.NoteToIndex(note)
		assert.True(t, ok)
		assert.Equal(t, i, index)
	}
}

func TestLaunchpadXNoteToIndexRejectsOutOfGrid(t *testing.T) {
	_, ok := LaunchpadX.NoteToIndex(19) // side scene column, not in the grid
	assert.False(t, ok)

	_, ok = LaunchpadX.NoteToIndex(91) // top control row
	assert.False(t, ok)
}

func TestMatchPortPrefersMIDI1(t *testing.T) {
	candidates := []string{"Launchpad X LPX MIDI 2", "Launchpad X LPX MIDI 1", "Launchpad X LPX DAW"}
	name, ok := LaunchpadX.MatchPort(candidates)
	assert.True(t, ok)
	assert.Equal(t, "Launchpad X LPX MIDI 1", name)
}

func TestMatchPortFallsBackToFirstMatch(t *testing.T) {
	candidates := []string{"Some Other Device", "Launchpad X LPX DAW"}
	name, ok := LaunchpadX.MatchPort(candidates)
	assert.True(t, ok)
	assert.Equal(t, "Launchpad X LPX DAW", name)
}

func TestMatchPortNoCandidates(t *testing.T) {
	_, ok := LaunchpadX.MatchPort([]string{"Unrelated MIDI Device"})
	assert.False(t, ok)
}

func TestDetectProfileAcrossFamily(t *testing.T) {
	p, name, ok := DetectProfile([]string{"Launchpad Mini MK3 MIDI 1"})
	assert.True(t, ok)
	assert.Equal(t, "Launchpad Mini MK3", p.Name)
	assert.Equal(t, "Launchpad Mini MK3 MIDI 1", name)
}

type recordingMIDIObserver struct {
	events []Event
}

func (r *recordingMIDIObserver) OnMIDIEvent(ev Event) { r.events = append(r.events, ev) }

func TestAdapterHandleMessagePressAndRelease(t *testing.T) {
	a := NewAdapter(LaunchpadX)
	rec := &recordingMIDIObserver{}
	a.RegisterObserver(rec)

	a.handleMessage(noteOnMsg(0, 11, 100), 0) // pad (0,0) pressed
	a.handleMessage(noteOnMsg(0, 11, 0), 0)   // running-status release
	a.handleMessage(ccMsg(0, 95, 127), 0)     // panic CC forwarded

	assert.Len(t, rec.events, 3)
	assert.Equal(t, EventPress, rec.events[0].Kind)
	assert.Equal(t, 0, rec.events[0].PadIndex)
	assert.Equal(t, EventRelease, rec.events[1].Kind)
	assert.Equal(t, EventControlChange, rec.events[2].Kind)
	assert.Equal(t, uint8(95), rec.events[2].CC)
	assert.Equal(t, uint8(127), rec.events[2].Value)
}

func TestAdapterIgnoresNotesOutsideGrid(t *testing.T) {
	a := NewAdapter(LaunchpadX)
	rec := &recordingMIDIObserver{}
	a.RegisterObserver(rec)

	a.handleMessage(noteOnMsg(0, 19, 100), 0) // side scene column
	assert.Empty(t, rec.events)
}
