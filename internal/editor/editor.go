// Package editor implements pad-grid mutation operations (assign, move,
// duplicate, paste, clear) that emit EditEvents to observers once the
// mutation is committed. It has no knowledge of audio or MIDI;
// internal/player is the observer that bridges edit events to the sampler
// engine.
package editor

import (
	"fmt"
	"os"
	"sync"

	"gopad/internal/model"
	"gopad/internal/observer"
)

// EventKind identifies the kind of mutation an EditEvent reports.
type EventKind int

const (
	PadAssigned EventKind = iota
	PadCleared
	PadMoved
	PadDuplicated
	PadModeChanged
	PadVolumeChanged
	PadNameChanged
	PadsCleared
)

func (k EventKind) String() string {
	switch k {
	case PadAssigned:
		return "PAD_ASSIGNED"
	case PadCleared:
		return "PAD_CLEARED"
	case PadMoved:
		return "PAD_MOVED"
	case PadDuplicated:
		return "PAD_DUPLICATED"
	case PadModeChanged:
		return "PAD_MODE_CHANGED"
	case PadVolumeChanged:
		return "PAD_VOLUME_CHANGED"
	case PadNameChanged:
		return "PAD_NAME_CHANGED"
	case PadsCleared:
		return "PADS_CLEARED"
	default:
		return "UNKNOWN"
	}
}

// Event is what editor observers receive.
type Event struct {
	Kind    EventKind
	Indices []int
	Pads    []*model.Pad
}

// Observer receives edit events once the mutation has been committed and
// the editor's lock released.
type Observer interface {
	OnEditEvent(ev Event)
}

// InvalidEdit reports a precondition failure on an editor operation
// (out-of-range index, missing file, occupied destination, empty clipboard).
type InvalidEdit struct {
	Op     string
	Reason string
}

func (e *InvalidEdit) Error() string {
	return fmt.Sprintf("invalid edit %s: %s", e.Op, e.Reason)
}

// Editor mutates a Launchpad's pads under its own lock and fans out
// EditEvents once each mutation commits. It holds no reference to audio or
// UI state.
type Editor struct {
	mu        sync.Mutex
	launchpad *model.Launchpad
	selected  *int
	clipboard *model.Pad

	observers *observer.Manager[Observer]
}

// New constructs an Editor over lp. lp is mutated in place by every
// operation; the caller retains the same *Launchpad across Mount calls.
func New(lp *model.Launchpad) *Editor {
	return &Editor{
		launchpad: lp,
		observers: observer.New[Observer](),
	}
}

// RegisterObserver adds o to the notification list.
func (e *Editor) RegisterObserver(o Observer) { e.observers.Register(o) }

// UnregisterObserver removes o from the notification list.
func (e *Editor) UnregisterObserver(o Observer) { e.observers.Unregister(o) }

func (e *Editor) notify(ev Event) {
	e.observers.Notify(func(o Observer) { o.OnEditEvent(ev) })
}

// Mount replaces the Launchpad the editor operates on (used when a new Set
// is loaded). It does not itself emit an EditEvent; the orchestrator's
// mount_set fires the AppEvent SET_MOUNTED instead.
func (e *Editor) Mount(lp *model.Launchpad) {
	e.mu.Lock()
	e.launchpad = lp
	e.selected = nil
	e.clipboard = nil
	e.mu.Unlock()
}

// SetSelected records the currently selected pad index (or nil to clear
// selection). Selection is UI-facing state with no audio effect.
func (e *Editor) SetSelected(i *int) {
	e.mu.Lock()
	e.selected = i
	e.mu.Unlock()
}

// Selected returns the currently selected pad index, or nil.
func (e *Editor) Selected() *int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

func validIndex(i int) error {
	if i < 0 || i > 63 {
		return fmt.Errorf("index %d out of range [0,63]", i)
	}
	return nil
}

// AssignSample binds path (with an optional display name) to pad i. A
// previously unassigned pad defaults to ONE_SHOT mode and that mode's
// default color; an already-assigned pad keeps its mode/color/volume.
func (e *Editor) AssignSample(i int, path, displayName string) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "assign_sample", Reason: err.Error()}
	}
	if _, err := os.Stat(path); err != nil {
		return &InvalidEdit{Op: "assign_sample", Reason: fmt.Sprintf("sample file does not exist: %s", path)}
	}

	e.mu.Lock()
	pad := e.launchpad.At(i)
	wasAssigned := pad.IsAssigned()
	pad.Sample = &model.Sample{Path: path, DisplayName: displayName}
	if !wasAssigned {
		pad.Mode = model.ModeOneShot
		pad.Color = model.DefaultColorFor(pad.Mode)
	}
	snapshot := pad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadAssigned, Indices: []int{i}, Pads: []*model.Pad{snapshot}})
	return nil
}

// ClearPad resets pad i to an unassigned state.
func (e *Editor) ClearPad(i int) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "clear_pad", Reason: err.Error()}
	}

	e.mu.Lock()
	pad := e.launchpad.At(i)
	pad.Clear()
	snapshot := pad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadCleared, Indices: []int{i}, Pads: []*model.Pad{snapshot}})
	return nil
}

// MovePad relocates src's content to dst. If swap is true, the two pads'
// content is exchanged; otherwise dst must be unassigned and src is
// cleared. Pad X/Y coordinates never move — only Sample/Mode/Color/Volume.
func (e *Editor) MovePad(src, dst int, swap bool) error {
	if err := validIndex(src); err != nil {
		return &InvalidEdit{Op: "move_pad", Reason: err.Error()}
	}
	if err := validIndex(dst); err != nil {
		return &InvalidEdit{Op: "move_pad", Reason: err.Error()}
	}
	if src == dst {
		return &InvalidEdit{Op: "move_pad", Reason: "src and dst are the same pad"}
	}

	e.mu.Lock()
	srcPad := e.launchpad.At(src)
	dstPad := e.launchpad.At(dst)

	if !swap && dstPad.IsAssigned() {
		e.mu.Unlock()
		return &InvalidEdit{Op: "move_pad", Reason: fmt.Sprintf("destination pad %d is already assigned", dst)}
	}

	if swap {
		swapContent(srcPad, dstPad)
	} else {
		copyContent(dstPad, srcPad)
		srcPad.Clear()
	}
	srcSnap, dstSnap := srcPad.Clone(), dstPad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadMoved, Indices: []int{src, dst}, Pads: []*model.Pad{srcSnap, dstSnap}})
	return nil
}

// DuplicatePad copies src's content to dst, failing if dst is already
// assigned and overwrite is false.
func (e *Editor) DuplicatePad(src, dst int, overwrite bool) error {
	if err := validIndex(src); err != nil {
		return &InvalidEdit{Op: "duplicate_pad", Reason: err.Error()}
	}
	if err := validIndex(dst); err != nil {
		return &InvalidEdit{Op: "duplicate_pad", Reason: err.Error()}
	}

	e.mu.Lock()
	srcPad := e.launchpad.At(src)
	dstPad := e.launchpad.At(dst)

	if dstPad.IsAssigned() && !overwrite {
		e.mu.Unlock()
		return &InvalidEdit{Op: "duplicate_pad", Reason: fmt.Sprintf("destination pad %d is already assigned", dst)}
	}

	copyContent(dstPad, srcPad)
	dstSnap := dstPad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadDuplicated, Indices: []int{src, dst}, Pads: []*model.Pad{dstSnap}})
	return nil
}

// CopyToClipboard snapshots pad i's content into the editor's clipboard for
// a later PastePad. It has no audio effect and emits no EditEvent.
func (e *Editor) CopyToClipboard(i int) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "copy_pad", Reason: err.Error()}
	}
	e.mu.Lock()
	e.clipboard = e.launchpad.At(i).Clone()
	e.mu.Unlock()
	return nil
}

// PastePad writes the clipboard's content into pad i, failing if the
// clipboard is empty or if i is assigned and overwrite is false.
func (e *Editor) PastePad(i int, overwrite bool) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "paste_pad", Reason: err.Error()}
	}

	e.mu.Lock()
	if e.clipboard == nil {
		e.mu.Unlock()
		return &InvalidEdit{Op: "paste_pad", Reason: "clipboard is empty"}
	}
	dstPad := e.launchpad.At(i)
	if dstPad.IsAssigned() && !overwrite {
		e.mu.Unlock()
		return &InvalidEdit{Op: "paste_pad", Reason: fmt.Sprintf("destination pad %d is already assigned", i)}
	}

	copyContent(dstPad, e.clipboard)
	dstSnap := dstPad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadDuplicated, Indices: []int{i}, Pads: []*model.Pad{dstSnap}})
	return nil
}

// SetMode changes pad i's playback mode.
func (e *Editor) SetMode(i int, mode model.PlaybackMode) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "set_mode", Reason: err.Error()}
	}
	if err := mode.Validate(); err != nil {
		return &InvalidEdit{Op: "set_mode", Reason: err.Error()}
	}

	e.mu.Lock()
	pad := e.launchpad.At(i)
	pad.Mode = mode
	snapshot := pad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadModeChanged, Indices: []int{i}, Pads: []*model.Pad{snapshot}})
	return nil
}

// SetVolume changes pad i's linear gain.
func (e *Editor) SetVolume(i int, volume float32) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "set_volume", Reason: err.Error()}
	}

	e.mu.Lock()
	pad := e.launchpad.At(i)
	pad.Volume = volume
	snapshot := pad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadVolumeChanged, Indices: []int{i}, Pads: []*model.Pad{snapshot}})
	return nil
}

// SetName renames pad i's assigned sample's display name.
func (e *Editor) SetName(i int, name string) error {
	if err := validIndex(i); err != nil {
		return &InvalidEdit{Op: "set_name", Reason: err.Error()}
	}

	e.mu.Lock()
	pad := e.launchpad.At(i)
	if !pad.IsAssigned() {
		e.mu.Unlock()
		return &InvalidEdit{Op: "set_name", Reason: fmt.Sprintf("pad %d has no sample to name", i)}
	}
	pad.Sample.DisplayName = name
	snapshot := pad.Clone()
	e.mu.Unlock()

	e.notify(Event{Kind: PadNameChanged, Indices: []int{i}, Pads: []*model.Pad{snapshot}})
	return nil
}

// ClearAll resets every assigned pad to unassigned.
func (e *Editor) ClearAll() {
	e.mu.Lock()
	var cleared []int
	for i, pad := range e.launchpad.Pads {
		if pad.IsAssigned() {
			cleared = append(cleared, i)
			pad.Clear()
		}
	}
	e.mu.Unlock()

	if len(cleared) == 0 {
		return
	}
	e.notify(Event{Kind: PadsCleared, Indices: cleared, Pads: nil})
}

// copyContent copies the mutable fields (sample, mode, color, volume) from
// src into dst, leaving dst's X/Y coordinates untouched.
func copyContent(dst, src *model.Pad) {
	if src.Sample != nil {
		s := *src.Sample
		dst.Sample = &s
	} else {
		dst.Sample = nil
	}
	dst.Mode = src.Mode
	dst.Color = src.Color
	dst.Volume = src.Volume
}

func swapContent(a, b *model.Pad) {
	aCopy := model.Pad{Sample: a.Sample, Mode: a.Mode, Color: a.Color, Volume: a.Volume}
	copyContent(a, b)
	copyContent(b, &aCopy)
}
