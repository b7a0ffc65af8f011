// Package model holds the validated, JSON-serializable value objects that
// describe a pad grid: Color, Sample, PlaybackMode, Pad, Launchpad, Set and
// AppConfig. Nothing in this package touches audio or MIDI; it is pure data.
package model

import (
	"fmt"
	"time"
)

// Color is an 8-bit RGB triple in the MIDI-compatible 0-127 range.
type Color struct {
	R, G, B uint8
}

// NewColor validates and constructs a Color. Each channel must be in [0,127].
func NewColor(r, g, b uint8) (Color, error) {
	c := Color{R: r, G: g, B: b}
	if err := c.Validate(); err != nil {
		return Color{}, err
	}
	return c, nil
}

// Validate reports whether every channel is within the MIDI-compatible range.
func (c Color) Validate() error {
	if c.R > 127 || c.G > 127 || c.B > 127 {
		return &ValidationError{Field: "color", Msg: fmt.Sprintf("channel out of range [0,127]: %+v", c)}
	}
	return nil
}

// PaletteIndex maps this Color to the nearest entry in a hardware palette,
// by squared Euclidean distance. palette[i] is an {r,g,b} triple.
func (c Color) PaletteIndex(palette [][3]uint8) uint8 {
	best, bestDist := uint8(0), -1
	for i, p := range palette {
		dr := int(c.R) - int(p[0])
		dg := int(c.G) - int(p[1])
		db := int(c.B) - int(p[2])
		dist := dr*dr + dg*dg + db*db
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = uint8(i)
		}
	}
	return best
}

var (
	// ColorOff is the default "unlit" color.
	ColorOff = Color{0, 0, 0}
	// defaultModeColors gives each PlaybackMode a default pad color on assignment.
	defaultModeColors = map[PlaybackMode]Color{
		ModeOneShot:    {0, 100, 0},
		ModeLoop:       {100, 0, 0},
		ModeHold:       {100, 60, 0},
		ModeLoopToggle: {80, 0, 100},
	}
)

// DefaultColorFor returns the default pad color for a playback mode.
func DefaultColorFor(mode PlaybackMode) Color {
	if c, ok := defaultModeColors[mode]; ok {
		return c
	}
	return ColorOff
}

// PlaybackMode drives how the audio engine advances and stops a voice.
type PlaybackMode string

const (
	ModeOneShot    PlaybackMode = "one_shot"
	ModeLoop       PlaybackMode = "loop"
	ModeHold       PlaybackMode = "hold"
	ModeLoopToggle PlaybackMode = "loop_toggle"
)

// Validate reports whether m is one of the four recognized modes.
func (m PlaybackMode) Validate() error {
	switch m {
	case ModeOneShot, ModeLoop, ModeHold, ModeLoopToggle:
		return nil
	default:
		return &ValidationError{Field: "mode", Msg: fmt.Sprintf("unknown playback mode %q", string(m))}
	}
}

// Sample references an audio file on disk. Existence is validated lazily,
// at load time, not at construction.
type Sample struct {
	Path        string `json:"path"`
	DisplayName string `json:"name"`
}

// Pad is one of the 64 positions on the 8x8 grid.
type Pad struct {
	X, Y   int
	Sample *Sample
	Mode   PlaybackMode
	Color  Color
	Volume float32
}

// NewPad constructs an unassigned pad at (x,y) with sensible defaults.
func NewPad(x, y int) (*Pad, error) {
	if x < 0 || x > 7 || y < 0 || y > 7 {
		return nil, &ValidationError{Field: "xy", Msg: fmt.Sprintf("pad coordinates out of range: (%d,%d)", x, y)}
	}
	return &Pad{X: x, Y: y, Mode: ModeOneShot, Color: ColorOff, Volume: 1.0}, nil
}

// IsAssigned reports whether the pad has a sample bound to it.
func (p *Pad) IsAssigned() bool { return p.Sample != nil }

// LinearIndex returns y*8+x, the pad's position in a flattened 64-slot array.
func (p *Pad) LinearIndex() int { return p.Y*8 + p.X }

// Clone returns a deep copy of the pad (including its Sample, if any).
func (p *Pad) Clone() *Pad {
	cp := *p
	if p.Sample != nil {
		s := *p.Sample
		cp.Sample = &s
	}
	return &cp
}

// Clear resets the pad back to an unassigned state, preserving coordinates.
func (p *Pad) Clear() {
	p.Sample = nil
	p.Mode = ModeOneShot
	p.Color = ColorOff
	p.Volume = 1.0
}

// LinearIndexToXY is the inverse of (y*8+x): given i in [0,63] it returns the
// pad's grid coordinates.
func LinearIndexToXY(i int) (x, y int) {
	return i % 8, i / 8
}

// Launchpad is an ordered sequence of exactly 64 pads, pads[i].LinearIndex()
// == i for every i.
type Launchpad struct {
	Pads [64]*Pad
}

// NewLaunchpad builds a fresh, fully-unassigned 8x8 grid.
func NewLaunchpad() *Launchpad {
	lp := &Launchpad{}
	for i := 0; i < 64; i++ {
		x, y := LinearIndexToXY(i)
		pad, _ := NewPad(x, y) // x,y always in range here
		lp.Pads[i] = pad
	}
	return lp
}

// Validate checks the linear-index invariant across every pad.
func (lp *Launchpad) Validate() error {
	for i, p := range lp.Pads {
		if p == nil {
			return &ValidationError{Field: "launchpad", Msg: fmt.Sprintf("pad %d is nil", i)}
		}
		if p.LinearIndex() != i {
			return &ValidationError{Field: "launchpad", Msg: fmt.Sprintf("pad %d has linear index %d", i, p.LinearIndex())}
		}
	}
	return nil
}

// At returns the pad at linear index i, or nil if i is out of range.
func (lp *Launchpad) At(i int) *Pad {
	if i < 0 || i >= 64 {
		return nil
	}
	return lp.Pads[i]
}

// Set is a saved/mounted configuration of the 8x8 pad grid.
type Set struct {
	Name         string
	Launchpad    *Launchpad
	SamplesRoot  *string
	CreatedAt    time.Time
	ModifiedAt   time.Time
}

// NewSet creates an empty, freshly-timestamped Set.
func NewSet(name string) *Set {
	now := time.Now()
	return &Set{
		Name:       name,
		Launchpad:  NewLaunchpad(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
}

// AppConfig is the recognized application configuration.
type AppConfig struct {
	SetsDir              string  `json:"sets_dir"`
	DefaultAudioDevice   *string `json:"default_audio_device"`
	DefaultBufferSize    int     `json:"default_buffer_size"`
	MIDIPollInterval     float64 `json:"midi_poll_interval"`
	PanicButtonCCControl uint8   `json:"panic_button_cc_control"`
	PanicButtonCCValue   uint8   `json:"panic_button_cc_value"`
	LastSet              *string `json:"last_set"`
	AutoSave             bool    `json:"auto_save"`
}

// DefaultAppConfig returns the recognized configuration's default values.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		SetsDir:              "sets",
		DefaultBufferSize:    256,
		MIDIPollInterval:     2.0,
		PanicButtonCCControl: 95,
		PanicButtonCCValue:   127,
		AutoSave:             false,
	}
}

// Validate reports whether c's fields are within recognized ranges.
func (c *AppConfig) Validate() error {
	if c.SetsDir == "" {
		return &ValidationError{Field: "sets_dir", Msg: "must not be empty"}
	}
	if c.DefaultBufferSize <= 0 {
		return &ValidationError{Field: "default_buffer_size", Msg: "must be positive"}
	}
	if c.MIDIPollInterval <= 0 {
		return &ValidationError{Field: "midi_poll_interval", Msg: "must be positive"}
	}
	return nil
}

// ValidationError reports a configuration or data-model validation failure.
// It is never raised as a Go panic/exception; callers receive it as a
// regular error return and surface it to the UI boundary.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}
