package audio

import "gopad/internal/model"

// State is the audio-thread-owned per-pad playback cursor. It is mutable
// only by the audio callback and by engine mutators that synchronize with
// it via the engine's load_lock (see internal/engine). Buffer is a shared
// reference into the sample cache and is never mutated here.
type State struct {
	Buffer      *Buffer
	Mode        model.PlaybackMode
	Volume      float32
	Position    float64 // frames, fractional not used (buffer-quantized reads)
	IsPlaying   bool
	ToggleLatch bool // set by a trigger that starts the voice; cleared by the LOOP_TOGGLE trigger that stops it
}

// NewState creates a freshly stopped state bound to buf.
func NewState(buf *Buffer, mode model.PlaybackMode, volume float32) *State {
	return &State{Buffer: buf, Mode: mode, Volume: volume}
}

// Trigger applies the TRIGGER action's semantics for this state's mode.
// It returns true if the voice is (now) playing so the caller can decide
// whether to emit PAD_PLAYING, and false if the trigger silenced the voice
// (the LOOP_TOGGLE second-press case).
func (s *State) Trigger() (playing bool) {
	if s.Mode == model.ModeLoopToggle && s.IsPlaying {
		s.IsPlaying = false
		s.ToggleLatch = false
		return false
	}
	s.Position = 0
	s.IsPlaying = true
	s.ToggleLatch = true
	return true
}

// Release applies the RELEASE action. It returns true if the state
// transitioned from playing to stopped (so PAD_STOPPED should be emitted).
func (s *State) Release() bool {
	if !s.IsPlaying {
		return false
	}
	switch s.Mode {
	case model.ModeLoop, model.ModeHold:
		s.IsPlaying = false
		return true
	default:
		return false // ONE_SHOT and LOOP_TOGGLE ignore release
	}
}

// Stop unconditionally halts the voice. It returns true if it was playing.
func (s *State) Stop() bool {
	was := s.IsPlaying
	s.IsPlaying = false
	return was
}

// render writes up to len(out)/channels frames of this state's contribution
// into out (interleaved, channels-wide, added on top of existing content —
// callers must pre-zero out before the first state in a mix), advancing
// Position and possibly clearing IsPlaying on natural completion. It never
// allocates.
func (s *State) render(out []float32, channels int) {
	if !s.IsPlaying || s.Buffer == nil || s.Buffer.NumFrames == 0 {
		return
	}
	frames := len(out) / channels
	gain := s.Volume

	for i := 0; i < frames; i++ {
		pos := int(s.Position)

		switch s.Mode {
		case model.ModeLoop, model.ModeLoopToggle:
			pos = pos % s.Buffer.NumFrames
		default: // ONE_SHOT, HOLD
			if pos >= s.Buffer.NumFrames {
				s.IsPlaying = false
				return
			}
		}

		addFrame(out, i, channels, s.Buffer, pos, gain)
		s.Position++

		switch s.Mode {
		case model.ModeLoop, model.ModeLoopToggle:
			if s.Position >= float64(s.Buffer.NumFrames) {
				s.Position -= float64(s.Buffer.NumFrames)
			}
		default:
			if int(s.Position) >= s.Buffer.NumFrames {
				s.IsPlaying = false
				return
			}
		}
	}
}

// addFrame mixes one source frame (down/up-mixed to `channels` outputs) into
// out at frame index i, scaled by gain.
func addFrame(out []float32, i, channels int, buf *Buffer, srcFrame int, gain float32) {
	base := i * channels

	if buf.NumChannels == 1 {
		v := buf.frame(srcFrame, 0) * gain
		for ch := 0; ch < channels; ch++ {
			out[base+ch] += v
		}
		return
	}

	if buf.NumChannels >= channels {
		// Down-mix by averaging any source channels beyond the output count
		// into the last output channel's slot-by-slot average.
		for ch := 0; ch < channels; ch++ {
			if ch < channels-1 || buf.NumChannels == channels {
				out[base+ch] += buf.frame(srcFrame, ch) * gain
			} else {
				var sum float32
				extra := buf.NumChannels - (channels - 1)
				for k := 0; k < extra; k++ {
					sum += buf.frame(srcFrame, ch+k)
				}
				out[base+ch] += (sum / float32(extra)) * gain
			}
		}
		return
	}

	// buf has fewer channels than output: copy what exists, zero-pad the rest.
	for ch := 0; ch < channels; ch++ {
		if ch >= buf.NumChannels {
			continue
		}
		out[base+ch] += buf.frame(srcFrame, ch) * gain
	}
}
