package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopad/internal/audio"
	"gopad/internal/editor"
	"gopad/internal/engine"
	"gopad/internal/midi"
	"gopad/internal/model"
	"gopad/internal/playback"
)

type fakeLoader struct{}

func (fakeLoader) Load(path string, deviceSampleRate int) (*audio.Buffer, error) {
	// Longer than one 64-frame test block, so a triggered one-shot is still
	// playing after processBlock.
	return audio.NewBuffer(make([]float32, 4096), deviceSampleRate, 1), nil
}

func newTestPlayer(t *testing.T) (*Player, *engine.Engine, *editor.Editor) {
	t.Helper()
	sm := playback.New()
	eng := engine.New(sm, fakeLoader{}, 48000, 2)
	ed := editor.New(model.NewLaunchpad())
	p := New(eng, nil, nil, nil, 1, 127)
	ed.RegisterObserver(p)
	sm.RegisterObserver(p)
	return p, eng, ed
}

func tempSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kick.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return path
}

func TestOnEditEventAssignLoadsVoice(t *testing.T) {
	_, eng, ed := newTestPlayer(t)
	require.NoError(t, ed.AssignSample(4, tempSample(t), "Kick"))
	assert.Equal(t, 0, eng.ActiveVoices()) // loaded but not triggered
}

func processBlock(eng *engine.Engine) {
	buf := make([]float32, 2*64)
	eng.Process(buf, 64)
}

func TestOnEditEventClearUnloadsVoice(t *testing.T) {
	p, eng, ed := newTestPlayer(t)
	require.NoError(t, ed.AssignSample(4, tempSample(t), "Kick"))
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 4})
	processBlock(eng)
	require.Equal(t, 1, eng.ActiveVoices())

	require.NoError(t, ed.ClearPad(4))
	// A second press after clearing must be a no-op: no panic, no voice.
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 4})
	processBlock(eng)
	assert.Equal(t, 0, eng.ActiveVoices())
}

func TestOnEditEventDuplicateAlignsToDestination(t *testing.T) {
	p, eng, ed := newTestPlayer(t)
	path := tempSample(t)
	require.NoError(t, ed.AssignSample(0, path, "A"))
	require.NoError(t, ed.DuplicatePad(0, 1, false))
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 1})
	processBlock(eng)
	assert.Equal(t, 1, eng.ActiveVoices())
}

func TestOnMIDIEventReEmitsNoteEventsRegardlessOfAssignment(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	var seen []NoteEvent
	p.RegisterNoteObserver(noteRecorderFunc(func(ev NoteEvent) { seen = append(seen, ev) }))

	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 9})
	p.OnMIDIEvent(midi.Event{Kind: midi.EventRelease, PadIndex: 9})

	require.Len(t, seen, 2)
	assert.Equal(t, NoteOn, seen[0].Kind)
	assert.Equal(t, NoteOff, seen[1].Kind)
}

func TestOnMIDIEventPanicCCStopsAllVoices(t *testing.T) {
	p, eng, ed := newTestPlayer(t)
	require.NoError(t, ed.AssignSample(0, tempSample(t), "A"))
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 0})
	processBlock(eng)
	require.Equal(t, 1, eng.ActiveVoices())

	p.OnMIDIEvent(midi.Event{Kind: midi.EventControlChange, CC: 1, Value: 127})
	assert.Equal(t, 0, eng.ActiveVoices())
}

func TestOnMIDIEventNonMatchingCCIgnored(t *testing.T) {
	p, eng, ed := newTestPlayer(t)
	require.NoError(t, ed.AssignSample(0, tempSample(t), "A"))
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 0})
	processBlock(eng)

	p.OnMIDIEvent(midi.Event{Kind: midi.EventControlChange, CC: 2, Value: 127})
	assert.Equal(t, 1, eng.ActiveVoices())
}

func TestOnPlaybackEventReEmits(t *testing.T) {
	p, eng, ed := newTestPlayer(t)
	var seen []playback.Event
	p.RegisterPlaybackObserver(playbackRecorderFunc(func(ev playback.Event, _ int) { seen = append(seen, ev) }))

	require.NoError(t, ed.AssignSample(0, tempSample(t), "A"))
	p.OnMIDIEvent(midi.Event{Kind: midi.EventPress, PadIndex: 0})
	processBlock(eng)

	require.NotEmpty(t, seen)
	assert.Equal(t, playback.PadTriggered, seen[0])
}

type noteRecorderFunc func(ev NoteEvent)

func (f noteRecorderFunc) OnNoteEvent(ev NoteEvent) { f(ev) }

type playbackRecorderFunc func(event playback.Event, padIndex int)

func (f playbackRecorderFunc) OnPlaybackEvent(event playback.Event, padIndex int) { f(event, padIndex) }
