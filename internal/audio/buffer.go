// Package audio holds the real-time audio primitives: the immutable
// AudioBuffer, the per-pad PlaybackState cursor, and the Mixer that sums
// active states into an output block. Nothing here allocates on the
// steady-state mix path (see Mix).
package audio

// Buffer is immutable audio data once constructed: num_frames x num_channels
// of float32 samples, interleaved frame-major (frame0 ch0, frame0 ch1, ...).
// It is freely shared by reference across goroutines without locking.
type Buffer struct {
	Samples     []float32
	SampleRate  int
	NumChannels int
	NumFrames   int
}

// NewBuffer constructs a Buffer from interleaved samples. len(samples) must
// equal numFrames*numChannels.
func NewBuffer(samples []float32, sampleRate, numChannels int) *Buffer {
	numFrames := 0
	if numChannels > 0 {
		numFrames = len(samples) / numChannels
	}
	return &Buffer{
		Samples:     samples,
		SampleRate:  sampleRate,
		NumChannels: numChannels,
		NumFrames:   numFrames,
	}
}

// frame returns channel ch of frame i (0 if out of range), with mono
// broadcast and simple channel averaging for down-mix handled by the caller
// (State.render), not here: Buffer itself is a dumb flat store.
func (b *Buffer) frame(i, ch int) float32 {
	if i < 0 || i >= b.NumFrames {
		return 0
	}
	if ch >= b.NumChannels {
		ch = b.NumChannels - 1
	}
	if ch < 0 {
		return 0
	}
	return b.Samples[i*b.NumChannels+ch]
}
