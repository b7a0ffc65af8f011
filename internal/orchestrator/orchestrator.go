// Package orchestrator wires together the single shared state machine, the
// editor service, the sampler engine, the controller adapter, and the
// player coordinator into one running instance.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"gopad/internal/audiodevice"
	"gopad/internal/debug"
	"gopad/internal/editor"
	"gopad/internal/engine"
	"gopad/internal/midi"
	"gopad/internal/model"
	"gopad/internal/observer"
	"gopad/internal/player"
	"gopad/internal/playback"
	"gopad/internal/sampleloader"
	"gopad/internal/storage"
)

// AppMode is the top-level interaction mode UIs render against: performance
// (pads trigger samples) or edit (pads are selected for assignment/editing).
// This is distinct from a pad's own PlaybackMode.
type AppMode int

const (
	ModePerformance AppMode = iota
	ModeEdit
)

func (m AppMode) String() string {
	if m == ModeEdit {
		return "EDIT"
	}
	return "PERFORMANCE"
}

// AppEventKind identifies the kind of application-level transition.
type AppEventKind int

const (
	SetMounted AppEventKind = iota
	SetSaved
	ModeChanged
	SetAutoCreated
)

func (k AppEventKind) String() string {
	switch k {
	case SetMounted:
		return "SET_MOUNTED"
	case SetSaved:
		return "SET_SAVED"
	case ModeChanged:
		return "MODE_CHANGED"
	case SetAutoCreated:
		return "SET_AUTO_CREATED"
	default:
		return "UNKNOWN"
	}
}

// AppEvent is what AppObservers receive.
type AppEvent struct {
	Kind AppEventKind
	Set  *model.Set
	Mode AppMode
}

// AppObserver receives orchestrator-level events.
type AppObserver interface {
	OnAppEvent(ev AppEvent)
}

// Orchestrator owns every long-lived component and is the sole place that
// constructs the shared StateMachine: there is exactly one source of truth
// for playback state, never a duplicate cache in another package.
type Orchestrator struct {
	cfg   *model.AppConfig
	store *storage.Store

	sm     *playback.StateMachine
	editor *editor.Editor
	engine *engine.Engine
	device *audiodevice.Device
	adapter *midi.Adapter
	monitor *midi.Monitor
	player *player.Player

	currentSet *model.Set
	mode       AppMode

	appObservers *observer.Manager[AppObserver]
}

// New constructs every component and wires the observer graph between them,
// but does not start audio/MIDI I/O — call Start for that.
func New(cfg *model.AppConfig) (*Orchestrator, error) {
	sm := playback.New()
	lp := model.NewLaunchpad()
	ed := editor.New(lp)
	loader := sampleloader.New()

	sampleRate := 48000.0
	eng := engine.New(sm, loader, int(sampleRate), 2)

	var deviceID *int
	if cfg.DefaultAudioDevice != nil {
		id, err := parseDeviceID(*cfg.DefaultAudioDevice)
		if err == nil {
			deviceID = &id
		}
	}
	device, err := audiodevice.Open(audiodevice.OpenOptions{
		DeviceID:   deviceID,
		Channels:   2,
		BufferSize: cfg.DefaultBufferSize,
		SampleRate: sampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}

	adapter := midi.NewAdapter(midi.LaunchpadX)
	pollInterval := time.Duration(cfg.MIDIPollInterval * float64(time.Second))
	monitor := midi.NewMonitor(adapter, pollInterval)

	pl := player.New(eng, device, adapter, monitor, cfg.PanicButtonCCControl, cfg.PanicButtonCCValue)

	o := &Orchestrator{
		cfg:          cfg,
		store:        storage.New(cfg.SetsDir),
		sm:           sm,
		editor:       ed,
		engine:       eng,
		device:       device,
		adapter:      adapter,
		monitor:      monitor,
		player:       pl,
		mode:         ModePerformance,
		appObservers: observer.New[AppObserver](),
	}

	// Editor -> Player, State machine -> Player.
	ed.RegisterObserver(pl)
	sm.RegisterObserver(pl)
	adapter.RegisterObserver(pl)

	return o, nil
}

func parseDeviceID(s string) (int, error) {
	var id int
	_, err := fmt.Sscanf(s, "%d", &id)
	return id, err
}

// Editor returns the editor service, for CLI/UI layers to issue edits
// through.
func (o *Orchestrator) Editor() *editor.Editor { return o.editor }

// StateMachine returns the shared playback state machine, for UIs that
// query playing pads directly.
func (o *Orchestrator) StateMachine() *playback.StateMachine { return o.sm }

// Player returns the player coordinator, for UIs that want re-emitted note
// and playback events without a direct engine/state-machine reference.
func (o *Orchestrator) Player() *player.Player { return o.player }

// Mode returns the current top-level interaction mode.
func (o *Orchestrator) Mode() AppMode { return o.mode }

// RegisterAppObserver adds o to the application-event notification list.
func (o *Orchestrator) RegisterAppObserver(obs AppObserver) { o.appObservers.Register(obs) }

// UnregisterAppObserver removes o from the application-event notification list.
func (o *Orchestrator) UnregisterAppObserver(obs AppObserver) { o.appObservers.Unregister(obs) }

func (o *Orchestrator) notify(ev AppEvent) {
	o.appObservers.Notify(func(obs AppObserver) { obs.OnAppEvent(ev) })
}

// SetMode switches the top-level interaction mode and fires MODE_CHANGED.
func (o *Orchestrator) SetMode(mode AppMode) {
	o.mode = mode
	o.notify(AppEvent{Kind: ModeChanged, Mode: mode})
}

// MountSet replaces the currently active Launchpad with set's, installs an
// engine voice for every assigned pad, and fires SET_MOUNTED. No audio
// interruption is needed when sample paths overlap the previous set's,
// because the engine's sample cache is keyed by canonical path.
func (o *Orchestrator) MountSet(set *model.Set) error {
	o.editor.Mount(set.Launchpad)
	for i, pad := range set.Launchpad.Pads {
		if pad.IsAssigned() {
			if err := o.engine.LoadSample(i, pad); err != nil {
				debug.Log("orchestrator", "mount_set: load_sample failed pad=%d: %v", i, err)
			}
		} else {
			o.engine.UnloadSample(i)
		}
	}
	o.currentSet = set
	o.notify(AppEvent{Kind: SetMounted, Set: set})
	return nil
}

// LoadOrCreateInitialSet mounts cfg.LastSet if set and present in the
// store; otherwise it creates and mounts a fresh empty set, firing
// SET_AUTO_CREATED instead of SET_MOUNTED.
func (o *Orchestrator) LoadOrCreateInitialSet() error {
	if o.cfg.LastSet != nil && o.store.Exists(*o.cfg.LastSet) {
		set, err := o.store.Load(*o.cfg.LastSet)
		if err != nil {
			return err
		}
		return o.MountSet(set)
	}

	set := model.NewSet("untitled")
	o.editor.Mount(set.Launchpad)
	o.currentSet = set
	o.notify(AppEvent{Kind: SetAutoCreated, Set: set})
	return nil
}

// CurrentSet returns the currently mounted set.
func (o *Orchestrator) CurrentSet() *model.Set { return o.currentSet }

// SaveCurrentSet persists the currently mounted set and fires SET_SAVED.
func (o *Orchestrator) SaveCurrentSet() error {
	if o.currentSet == nil {
		return fmt.Errorf("no set mounted")
	}
	o.currentSet.ModifiedAt = time.Now()
	if err := o.store.Save(o.currentSet); err != nil {
		return err
	}
	name := o.currentSet.Name
	o.cfg.LastSet = &name
	o.notify(AppEvent{Kind: SetSaved, Set: o.currentSet})
	return nil
}

// Sets lists every set name available in the store.
func (o *Orchestrator) Sets() ([]string, error) { return o.store.List() }

// Start brings up audio and MIDI I/O via the player coordinator.
func (o *Orchestrator) Start(ctx context.Context) error { return o.player.Start(ctx) }

// Stop tears down audio and MIDI I/O and, if auto_save is enabled, saves the
// current set.
func (o *Orchestrator) Stop() {
	o.player.Stop()
	if o.cfg.AutoSave && o.currentSet != nil {
		if err := o.SaveCurrentSet(); err != nil {
			debug.Log("orchestrator", "auto_save on stop failed: %v", err)
		}
	}
}

// Close releases the audio device. Call after Stop.
func (o *Orchestrator) Close() error { return o.device.Close() }
