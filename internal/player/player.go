// Package player implements the coordinator that owns the sampler engine,
// the audio device, and the controller protocol adapter, bridging
// edit/MIDI/playback events into engine operations and re-emitted
// UI-facing events.
package player

import (
	"context"
	"sync"

	"gopad/internal/audiodevice"
	"gopad/internal/debug"
	"gopad/internal/editor"
	"gopad/internal/engine"
	"gopad/internal/midi"
	"gopad/internal/model"
	"gopad/internal/observer"
	"gopad/internal/playback"
)

// NoteKind distinguishes the two re-emitted note events.
type NoteKind int

const (
	NoteOn NoteKind = iota
	NoteOff
)

func (k NoteKind) String() string {
	if k == NoteOn {
		return "NOTE_ON"
	}
	return "NOTE_OFF"
}

// NoteEvent is re-emitted for every controller press/release, even for pads
// with no sample assigned, so UIs that only observe the Player can still
// render input feedback.
type NoteEvent struct {
	Kind     NoteKind
	PadIndex int
}

// NoteObserver receives re-emitted note events.
type NoteObserver interface {
	OnNoteEvent(ev NoteEvent)
}

// Player owns the engine/device/controller triad and bridges the three
// independent event sources (editor, controller, state machine) into engine
// calls and re-emitted events for UI consumption.
type Player struct {
	engine  *engine.Engine
	device  *audiodevice.Device
	adapter *midi.Adapter
	monitor *midi.Monitor

	panicCC, panicValue uint8

	noteObservers     *observer.Manager[NoteObserver]
	playbackObservers *observer.Manager[playback.StateObserver]

	mu         sync.Mutex
	started    bool
	monitorCancel context.CancelFunc
}

// New constructs a Player. device and adapter/monitor may be nil — a Player
// with no controller still drives audio; a Player with no device is usable
// in tests that only exercise event translation.
func New(eng *engine.Engine, device *audiodevice.Device, adapter *midi.Adapter, monitor *midi.Monitor, panicCC, panicValue uint8) *Player {
	return &Player{
		engine:            eng,
		device:            device,
		adapter:           adapter,
		monitor:           monitor,
		panicCC:           panicCC,
		panicValue:        panicValue,
		noteObservers:     observer.New[NoteObserver](),
		playbackObservers: observer.New[playback.StateObserver](),
	}
}

// RegisterNoteObserver adds o to the re-emitted note-event list.
func (p *Player) RegisterNoteObserver(o NoteObserver) { p.noteObservers.Register(o) }

// UnregisterNoteObserver removes o from the re-emitted note-event list.
func (p *Player) UnregisterNoteObserver(o NoteObserver) { p.noteObservers.Unregister(o) }

// RegisterPlaybackObserver adds o to the re-emitted playback-event list, so
// UIs that only know the Player can observe playback without a direct
// reference to the shared state machine.
func (p *Player) RegisterPlaybackObserver(o playback.StateObserver) { p.playbackObservers.Register(o) }

// UnregisterPlaybackObserver removes o from the re-emitted playback-event list.
func (p *Player) UnregisterPlaybackObserver(o playback.StateObserver) { p.playbackObservers.Unregister(o) }

// OnEditEvent implements editor.Observer: it keeps engine voice state in
// sync with pad assignment changes.
func (p *Player) OnEditEvent(ev editor.Event) {
	switch ev.Kind {
	case editor.PadAssigned, editor.PadModeChanged:
		// Indices and Pads are both length 1.
		p.syncVoice(ev.Indices[0], ev.Pads[0])
	case editor.PadMoved:
		// Indices [src,dst] align 1:1 with Pads [srcSnap,dstSnap].
		for i, idx := range ev.Indices {
			p.syncVoice(idx, ev.Pads[i])
		}
	case editor.PadDuplicated:
		// Indices may carry [src,dst] (duplicate_pad) or just [dst]
		// (paste_pad); Pads always carries exactly the destination snapshot.
		dst := ev.Indices[len(ev.Indices)-1]
		p.syncVoice(dst, ev.Pads[0])
	case editor.PadCleared, editor.PadsCleared:
		for _, idx := range ev.Indices {
			p.engine.UnloadSample(idx)
		}
	case editor.PadVolumeChanged:
		p.engine.UpdatePadVolume(ev.Indices[0], ev.Pads[0].Volume)
	default:
		// PAD_NAME_CHANGED has no audio effect.
	}
}

// syncVoice installs or removes an engine voice for idx depending on
// whether pad now carries an assigned sample.
func (p *Player) syncVoice(idx int, pad *model.Pad) {
	if pad != nil && pad.IsAssigned() {
		if err := p.engine.LoadSample(idx, pad); err != nil {
			debug.Log("player", "load_sample failed pad=%d: %v", idx, err)
		}
		return
	}
	p.engine.UnloadSample(idx)
}

// OnMIDIEvent implements midi.Observer: it triggers/releases engine voices,
// handles the panic CC, and always re-emits press/release as NoteEvents
// regardless of whether the pad has a sample assigned.
func (p *Player) OnMIDIEvent(ev midi.Event) {
	switch ev.Kind {
	case midi.EventPress:
		p.engine.TriggerPad(ev.PadIndex)
		p.noteObservers.Notify(func(o NoteObserver) { o.OnNoteEvent(NoteEvent{Kind: NoteOn, PadIndex: ev.PadIndex}) })
	case midi.EventRelease:
		p.engine.ReleasePad(ev.PadIndex)
		p.noteObservers.Notify(func(o NoteObserver) { o.OnNoteEvent(NoteEvent{Kind: NoteOff, PadIndex: ev.PadIndex}) })
	case midi.EventControlChange:
		if ev.CC == p.panicCC && ev.Value == p.panicValue {
			p.engine.StopAll()
		}
	case midi.EventConnected, midi.EventDisconnected:
		// Connection transitions have no engine effect; UIs observe the
		// adapter/monitor directly for CONTROLLER_CONNECTED/DISCONNECTED.
	}
}

// OnPlaybackEvent implements playback.StateObserver: it re-emits to the
// Player's own observer list so UIs that only know the Player can observe
// playback state.
func (p *Player) OnPlaybackEvent(event playback.Event, padIndex int) {
	p.playbackObservers.Notify(func(o playback.StateObserver) { o.OnPlaybackEvent(event, padIndex) })
}

// Start opens the audio device bound to the engine's callback and, if a
// controller adapter/monitor were configured, starts hot-plug monitoring.
// Controller startup failure is logged but never fails Start.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}

	if p.device != nil {
		channels := p.device.Channels
		p.device.SetCallback(func(out []float32) {
			numFrames := len(out) / channels
			p.engine.Process(out, numFrames)
		})
		if err := p.device.Start(); err != nil {
			return err
		}
	}

	if p.monitor != nil {
		monCtx, cancel := context.WithCancel(ctx)
		p.monitorCancel = cancel
		go p.monitor.Run(monCtx)
	}

	p.started = true
	return nil
}

// Stop tears down in LIFO order relative to Start: controller monitor first,
// then the audio device.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}

	if p.monitorCancel != nil {
		p.monitorCancel()
		p.monitorCancel = nil
	}
	if p.adapter != nil {
		p.adapter.Disconnect()
	}
	if p.device != nil {
		if err := p.device.Stop(); err != nil {
			debug.Log("player", "device stop: %v", err)
		}
	}

	p.started = false
}
