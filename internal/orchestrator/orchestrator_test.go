package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopad/internal/audio"
	"gopad/internal/editor"
	"gopad/internal/engine"
	"gopad/internal/model"
	"gopad/internal/observer"
	"gopad/internal/player"
	"gopad/internal/playback"
	"gopad/internal/storage"
)

// fakeLoader stands in for internal/sampleloader so tests don't need real
// audio files on disk.
type fakeLoader struct{}

func (fakeLoader) Load(path string, deviceSampleRate int) (*audio.Buffer, error) {
	// Longer than one 64-frame test block, so a triggered one-shot is still
	// playing after one Process call.
	return audio.NewBuffer(make([]float32, 4096), deviceSampleRate, 1), nil
}

// newTestOrchestrator builds an Orchestrator without opening a real audio
// device or MIDI port, since neither is available in a test environment;
// it wires the same observer graph New does.
func newTestOrchestrator(t *testing.T, dir string) *Orchestrator {
	t.Helper()
	cfg := model.DefaultAppConfig()
	cfg.SetsDir = dir

	sm := playback.New()
	ed := editor.New(model.NewLaunchpad())
	eng := engine.New(sm, fakeLoader{}, 48000, 2)
	pl := player.New(eng, nil, nil, nil, cfg.PanicButtonCCControl, cfg.PanicButtonCCValue)

	ed.RegisterObserver(pl)
	sm.RegisterObserver(pl)

	return &Orchestrator{
		cfg:          cfg,
		store:        storage.New(dir),
		sm:           sm,
		editor:       ed,
		engine:       eng,
		player:       pl,
		mode:         ModePerformance,
		appObservers: observer.New[AppObserver](),
	}
}

type recordingAppObserver struct {
	events []AppEvent
}

func (r *recordingAppObserver) OnAppEvent(ev AppEvent) { r.events = append(r.events, ev) }

func TestLoadOrCreateInitialSetAutoCreatesWhenNoLastSet(t *testing.T) {
	o := newTestOrchestrator(t, t.TempDir())
	rec := &recordingAppObserver{}
	o.RegisterAppObserver(rec)

	require.NoError(t, o.LoadOrCreateInitialSet())

	require.Len(t, rec.events, 1)
	assert.Equal(t, SetAutoCreated, rec.events[0].Kind)
	assert.Equal(t, "untitled", o.CurrentSet().Name)
}

func TestLoadOrCreateInitialSetMountsLastSetWhenPresent(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator(t, dir)
	set := model.NewSet("drum-kit-1")
	require.NoError(t, o.store.Save(set))
	last := "drum-kit-1"
	o.cfg.LastSet = &last

	rec := &recordingAppObserver{}
	o.RegisterAppObserver(rec)
	require.NoError(t, o.LoadOrCreateInitialSet())

	require.Len(t, rec.events, 1)
	assert.Equal(t, SetMounted, rec.events[0].Kind)
	assert.Equal(t, "drum-kit-1", o.CurrentSet().Name)
}

func TestMountSetInstallsEngineVoicesForAssignedPads(t *testing.T) {
	o := newTestOrchestrator(t, t.TempDir())
	set := model.NewSet("kit")
	pad := set.Launchpad.At(3)
	pad.Sample = &model.Sample{Path: tempSample(t), DisplayName: "Snare"}
	pad.Mode = model.ModeOneShot

	require.NoError(t, o.MountSet(set))

	o.engine.TriggerPad(3)
	buf := make([]float32, 2*64)
	o.engine.Process(buf, 64)
	assert.Equal(t, 1, o.engine.ActiveVoices())
}

func TestSaveCurrentSetWritesToStoreAndUpdatesLastSet(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator(t, dir)
	require.NoError(t, o.LoadOrCreateInitialSet())
	o.currentSet.Name = "my-kit"

	rec := &recordingAppObserver{}
	o.RegisterAppObserver(rec)
	require.NoError(t, o.SaveCurrentSet())

	require.Len(t, rec.events, 1)
	assert.Equal(t, SetSaved, rec.events[0].Kind)
	assert.True(t, o.store.Exists("my-kit"))
	require.NotNil(t, o.cfg.LastSet)
	assert.Equal(t, "my-kit", *o.cfg.LastSet)
}

func TestSetModeFiresModeChanged(t *testing.T) {
	o := newTestOrchestrator(t, t.TempDir())
	rec := &recordingAppObserver{}
	o.RegisterAppObserver(rec)

	o.SetMode(ModeEdit)

	require.Len(t, rec.events, 1)
	assert.Equal(t, ModeChanged, rec.events[0].Kind)
	assert.Equal(t, ModeEdit, rec.events[0].Mode)
	assert.Equal(t, ModeEdit, o.Mode())
}

func tempSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snare.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0644))
	return path
}
