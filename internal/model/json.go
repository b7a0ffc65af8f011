package model

import (
	"fmt"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// padJSON mirrors the on-disk wire shape for a single pad entry.
type padJSON struct {
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Sample *Sample  `json:"sample"`
	Mode   string   `json:"mode"`
	Volume float32  `json:"volume"`
	Color  colorJSON `json:"color"`
}

type colorJSON struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

type launchpadJSON struct {
	Pads [64]padJSON `json:"pads"`
}

type setJSON struct {
	Name        string        `json:"name"`
	SamplesRoot *string       `json:"samples_root"`
	CreatedAt   time.Time     `json:"created_at"`
	ModifiedAt  time.Time     `json:"modified_at"`
	Launchpad   launchpadJSON `json:"launchpad"`
}

// MarshalJSON encodes the Set as exactly 64 pad entries in linear-index
// order. Absolute sample paths are preserved as-is; relative resolution
// happens only on Load.
func (s *Set) MarshalJSON() ([]byte, error) {
	var lj launchpadJSON
	for i := 0; i < 64; i++ {
		p := s.Launchpad.Pads[i]
		lj.Pads[i] = padJSON{
			X:      p.X,
			Y:      p.Y,
			Sample: p.Sample,
			Mode:   string(p.Mode),
			Volume: p.Volume,
			Color:  colorJSON{p.Color.R, p.Color.G, p.Color.B},
		}
	}
	return json.Marshal(setJSON{
		Name:        s.Name,
		SamplesRoot: s.SamplesRoot,
		CreatedAt:   s.CreatedAt,
		ModifiedAt:  s.ModifiedAt,
		Launchpad:   lj,
	})
}

// UnmarshalJSON decodes a Set from the wire format, validating that exactly
// 64 pad entries are present and that the linear-index invariant holds.
func (s *Set) UnmarshalJSON(data []byte) error {
	var count struct {
		Launchpad struct {
			Pads []struct{} `json:"pads"`
		} `json:"launchpad"`
	}
	if err := json.Unmarshal(data, &count); err != nil {
		return err
	}
	if n := len(count.Launchpad.Pads); n != 64 {
		return &ValidationError{Field: "launchpad", Msg: fmt.Sprintf("expected 64 pad entries, got %d", n)}
	}

	var sj setJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}

	lp := &Launchpad{}
	for i := 0; i < 64; i++ {
		pj := sj.Launchpad.Pads[i]
		mode := PlaybackMode(pj.Mode)
		if pj.Mode == "" {
			mode = ModeOneShot
		}
		if err := mode.Validate(); err != nil {
			return err
		}
		color, err := NewColor(pj.Color.R, pj.Color.G, pj.Color.B)
		if err != nil {
			return err
		}
		pad, err := NewPad(pj.X, pj.Y)
		if err != nil {
			return err
		}
		pad.Sample = pj.Sample
		pad.Mode = mode
		pad.Color = color
		pad.Volume = pj.Volume
		lp.Pads[i] = pad
	}
	if err := lp.Validate(); err != nil {
		return err
	}

	s.Name = sj.Name
	s.SamplesRoot = sj.SamplesRoot
	s.CreatedAt = sj.CreatedAt
	s.ModifiedAt = sj.ModifiedAt
	s.Launchpad = lp
	return nil
}

// ResolveSamplePaths rewrites every relative sample path against
// SamplesRoot; absolute paths are left untouched.
func (s *Set) ResolveSamplePaths() {
	if s.SamplesRoot == nil {
		return
	}
	root := *s.SamplesRoot
	for _, p := range s.Launchpad.Pads {
		if p.Sample == nil || filepath.IsAbs(p.Sample.Path) {
			continue
		}
		p.Sample.Path = filepath.Join(root, p.Sample.Path)
	}
}
