// Package engine is the sampler engine: it owns per-pad playback states,
// the lock-free trigger queue, and the real-time audio callback
// orchestration.
package engine

import (
	"fmt"
	"path/filepath"
	"sync"

	"gopad/internal/audio"
	"gopad/internal/debug"
	"gopad/internal/model"
	"gopad/internal/playback"
)

// SampleLoader decodes a file path into an immutable audio.Buffer. The
// concrete implementation lives in internal/sampleloader; Engine depends
// only on this narrow interface so it never imports decoder libraries
// directly.
type SampleLoader interface {
	Load(path string, deviceSampleRate int) (*audio.Buffer, error)
}

// SampleLoadError reports that loading a sample failed (file missing,
// unreadable, or a decode error).
type SampleLoadError struct {
	Path string
	Err  error
}

func (e *SampleLoadError) Error() string {
	return fmt.Sprintf("sample load failed for %q: %v", e.Path, e.Err)
}
func (e *SampleLoadError) Unwrap() error { return e.Err }

// Engine owns states, the sample cache, the trigger queue, and the audio
// callback. States are audio-thread-owned for reads; load/unload mutate
// them under loadLock, which the callback also takes (briefly, at block
// boundaries) to get a consistent snapshot.
type Engine struct {
	loader SampleLoader
	sm     *playback.StateMachine

	loadLock sync.Mutex
	states   map[int]*audio.State
	cache    map[string]*audio.Buffer

	queue *triggerQueue

	masterVolume float32
	channels     int
	sampleRate   int

	drainBuf []triggerMsg // reused scratch space, audio thread only
}

// New constructs an Engine bound to sm (the single shared state machine)
// and loader (the sample decode/cache backend).
func New(sm *playback.StateMachine, loader SampleLoader, sampleRate, channels int) *Engine {
	return &Engine{
		loader:       loader,
		sm:           sm,
		states:       make(map[int]*audio.State),
		cache:        make(map[string]*audio.Buffer),
		queue:        newTriggerQueue(),
		masterVolume: 1.0,
		channels:     channels,
		sampleRate:   sampleRate,
		drainBuf:     make([]triggerMsg, 0, queueCapacity),
	}
}

// SetMasterVolume sets the linear master gain applied in step 5 of the
// audio callback.
func (e *Engine) SetMasterVolume(v float32) {
	e.loadLock.Lock()
	e.masterVolume = v
	e.loadLock.Unlock()
}

func (e *Engine) canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// LoadSample decodes (or reuses a cached) buffer for pad.Sample.Path and
// installs a fresh PlaybackState at padIndex, replacing any existing one.
// Runs on the UI thread.
func (e *Engine) LoadSample(padIndex int, pad *model.Pad) error {
	if pad.Sample == nil {
		return fmt.Errorf("pad %d has no sample", padIndex)
	}
	key := e.canonicalPath(pad.Sample.Path)

	e.loadLock.Lock()
	buf, cached := e.cache[key]
	e.loadLock.Unlock()

	if !cached {
		var err error
		buf, err = e.loader.Load(key, e.sampleRate)
		if err != nil {
			debug.Log("engine", "load_sample failed pad=%d path=%s: %v", padIndex, key, err)
			return &SampleLoadError{Path: key, Err: err}
		}
	}

	state := audio.NewState(buf, pad.Mode, pad.Volume)

	e.loadLock.Lock()
	e.cache[key] = buf
	e.states[padIndex] = state
	e.loadLock.Unlock()
	return nil
}

// UnloadSample removes any installed state for padIndex. Runs on the UI
// thread.
func (e *Engine) UnloadSample(padIndex int) {
	e.loadLock.Lock()
	delete(e.states, padIndex)
	e.loadLock.Unlock()
}

// UpdatePadVolume sets the linear gain for an installed pad's voice.
func (e *Engine) UpdatePadVolume(padIndex int, volume float32) {
	e.loadLock.Lock()
	if s, ok := e.states[padIndex]; ok {
		s.Volume = volume
	}
	e.loadLock.Unlock()
}

// UpdatePadMode changes an installed pad's playback mode and resets its
// toggle latch.
func (e *Engine) UpdatePadMode(padIndex int, mode model.PlaybackMode) {
	e.loadLock.Lock()
	if s, ok := e.states[padIndex]; ok {
		s.Mode = mode
		s.ToggleLatch = false
	}
	e.loadLock.Unlock()
}

// TriggerPad enqueues a TRIGGER action. Callable from any thread; never
// blocks longer than a bounded channel send with a default case.
func (e *Engine) TriggerPad(padIndex int) { e.queue.Put(ActionTrigger, padIndex) }

// ReleasePad enqueues a RELEASE action.
func (e *Engine) ReleasePad(padIndex int) { e.queue.Put(ActionRelease, padIndex) }

// StopPad enqueues a STOP action.
func (e *Engine) StopPad(padIndex int) { e.queue.Put(ActionStop, padIndex) }

// StopAll synchronously silences every playing pad. It bypasses the queue
// because it is a coarse, UI-initiated rescue operation; holding loadLock
// for the duration of the flip is acceptable because stop_all is rare and
// tolerates one block of contention.
func (e *Engine) StopAll() {
	e.loadLock.Lock()
	var toNotify []int
	for idx, s := range e.states {
		if s.Stop() {
			toNotify = append(toNotify, idx)
		}
	}
	e.loadLock.Unlock()

	for _, idx := range toNotify {
		e.sm.NotifyStopped(idx)
	}
}

// ClearCache drops any cached buffer not referenced by a currently
// installed state.
func (e *Engine) ClearCache() {
	e.loadLock.Lock()
	defer e.loadLock.Unlock()

	referenced := make(map[*audio.Buffer]bool, len(e.states))
	for _, s := range e.states {
		referenced[s.Buffer] = true
	}
	for path, buf := range e.cache {
		if !referenced[buf] {
			delete(e.cache, path)
		}
	}
}

// ActiveVoices returns the count of currently-playing states.
func (e *Engine) ActiveVoices() int {
	e.loadLock.Lock()
	defer e.loadLock.Unlock()
	n := 0
	for _, s := range e.states {
		if s.IsPlaying {
			n++
		}
	}
	return n
}

// DroppedTriggers returns the running count of triggers dropped due to
// trigger-queue overflow (readable by UIs; no event fires on overflow).
func (e *Engine) DroppedTriggers() uint64 { return e.queue.Dropped() }

// Process runs one audio callback block: drains the trigger queue, mixes
// active voices into out, detects natural completion, and applies master
// volume and soft-clipping. out must have
// len(out) == numFrames*channels and is fully owned by the caller. Only
// drainBuf is reused across calls; the was-playing map, the active-voice
// slice and the per-block event index slices are allocated on every call,
// so Process is not allocation-free.
func (e *Engine) Process(out []float32, numFrames int) {
	e.loadLock.Lock()

	wasPlaying := make(map[int]bool, len(e.states))
	for idx, s := range e.states {
		wasPlaying[idx] = s.IsPlaying
	}

	e.drainBuf = e.queue.DrainInto(e.drainBuf[:0])
	var triggeredNow, playingNow, stoppedNow []int

	for _, msg := range e.drainBuf {
		s, ok := e.states[msg.pad]
		if !ok {
			continue
		}
		switch msg.action {
		case ActionTrigger:
			if s.Trigger() {
				triggeredNow = append(triggeredNow, msg.pad)
				playingNow = append(playingNow, msg.pad)
			} else {
				stoppedNow = append(stoppedNow, msg.pad)
			}
		case ActionRelease:
			if s.Release() {
				stoppedNow = append(stoppedNow, msg.pad)
			}
		case ActionStop:
			if s.Stop() {
				stoppedNow = append(stoppedNow, msg.pad)
			}
		}
	}

	active := make([]*audio.State, 0, len(e.states))
	for _, s := range e.states {
		active = append(active, s)
	}

	masterVolume := e.masterVolume
	e.loadLock.Unlock()

	for _, idx := range triggeredNow {
		e.sm.NotifyTriggered(idx)
	}
	for _, idx := range playingNow {
		e.sm.NotifyPlaying(idx)
	}
	for _, idx := range stoppedNow {
		e.sm.NotifyStopped(idx)
	}

	audio.Mix(active, out, e.channels)

	stoppedExplicitly := make(map[int]bool, len(stoppedNow))
	for _, idx := range stoppedNow {
		stoppedExplicitly[idx] = true
	}

	e.loadLock.Lock()
	var finishedNow []int
	for idx, was := range wasPlaying {
		if !was {
			continue
		}
		s, ok := e.states[idx]
		if !ok || stoppedExplicitly[idx] {
			continue
		}
		if !s.IsPlaying {
			finishedNow = append(finishedNow, idx)
		}
	}
	e.loadLock.Unlock()

	for _, idx := range finishedNow {
		e.sm.NotifyFinished(idx)
	}

	audio.ApplyMasterAndSoftClip(out, masterVolume)
}
