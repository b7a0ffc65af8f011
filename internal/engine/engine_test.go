package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopad/internal/audio"
	"gopad/internal/model"
	"gopad/internal/playback"
)

// fakeLoader returns a pre-built buffer regardless of path, so engine tests
// don't touch the filesystem or real decoders.
type fakeLoader struct {
	buffers map[string]*audio.Buffer
}

func (f *fakeLoader) Load(path string, sampleRate int) (*audio.Buffer, error) {
	if b, ok := f.buffers[path]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("no fixture for %s", path)
}

func monoBuf(n int, v float32) *audio.Buffer {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return audio.NewBuffer(s, 44100, 1)
}

type captureObserver struct {
	events []string
}

func (c *captureObserver) OnPlaybackEvent(event playback.Event, pad int) {
	c.events = append(c.events, fmt.Sprintf("%s(%d)", event, pad))
}

func newTestEngine(t *testing.T, path string, buf *audio.Buffer) (*Engine, *playback.StateMachine, *captureObserver) {
	t.Helper()
	sm := playback.New()
	cap := &captureObserver{}
	sm.RegisterObserver(cap)
	loader := &fakeLoader{buffers: map[string]*audio.Buffer{path: buf}}
	eng := New(sm, loader, 44100, 2)
	return eng, sm, cap
}

func TestHappyPathOneShotTrigger(t *testing.T) {
	path := "/kick.wav"
	buf := monoBuf(4410, 1.0) // S1: 4410-sample mono buffer @ 44.1kHz
	eng, sm, cap := newTestEngine(t, path, buf)

	pad, err := model.NewPad(0, 0)
	require.NoError(t, err)
	pad.Sample = &model.Sample{Path: path}
	pad.Mode = model.ModeOneShot
	pad.Volume = 1.0
	require.NoError(t, eng.LoadSample(0, pad))

	eng.TriggerPad(0)

	blockSize := 441
	out := make([]float32, blockSize*2)

	nonZeroBlocks := 0
	finishedBlock := -1
	for block := 0; block < 11; block++ {
		eng.Process(out, blockSize)
		nonZero := false
		for _, v := range out {
			if v != 0 {
				nonZero = true
				break
			}
		}
		if nonZero {
			nonZeroBlocks++
		} else if finishedBlock < 0 && block > 0 {
			finishedBlock = block
		}
	}

	assert.Equal(t, 10, nonZeroBlocks, "exactly 10 blocks of 441 frames fill the 4410-sample buffer")
	assert.Equal(t, 10, finishedBlock)
	assert.False(t, sm.IsPlaying(0))
	assert.Contains(t, cap.events, "PAD_TRIGGERED(0)")
	assert.Contains(t, cap.events, "PAD_PLAYING(0)")
	assert.Contains(t, cap.events, "PAD_FINISHED(0)")

	finishedCount := 0
	for _, e := range cap.events {
		if e == "PAD_FINISHED(0)" {
			finishedCount++
		}
	}
	assert.Equal(t, 1, finishedCount, "PAD_FINISHED fires exactly once")
}

func TestLoopRelease(t *testing.T) {
	path := "/loop.wav"
	buf := monoBuf(2205, 1.0)
	eng, sm, cap := newTestEngine(t, path, buf)

	pad, _ := model.NewPad(5, 0)
	pad.Sample = &model.Sample{Path: path}
	pad.Mode = model.ModeLoop
	pad.Volume = 1.0
	require.NoError(t, eng.LoadSample(5, pad))

	eng.TriggerPad(5)

	blockSize := 441
	out := make([]float32, blockSize*2)

	for block := 0; block < 20; block++ {
		eng.Process(out, blockSize)
		nonZero := false
		for _, v := range out {
			if v != 0 {
				nonZero = true
				break
			}
		}
		assert.True(t, nonZero, "block %d should have continuous audio", block)
		if block == 19 {
			eng.ReleasePad(5)
		}
	}

	eng.Process(out, blockSize) // release takes effect on the block after it's enqueued
	assert.False(t, sm.IsPlaying(5))
	assert.Contains(t, cap.events, "PAD_STOPPED(5)")
}

func TestLoopToggleSecondTriggerStops(t *testing.T) {
	path := "/toggle.wav"
	buf := monoBuf(512, 1.0)
	eng, sm, _ := newTestEngine(t, path, buf)

	pad, _ := model.NewPad(0, 1)
	idx := pad.LinearIndex()
	pad.Sample = &model.Sample{Path: path}
	pad.Mode = model.ModeLoopToggle
	pad.Volume = 1.0
	require.NoError(t, eng.LoadSample(idx, pad))

	out := make([]float32, 128*2)

	eng.TriggerPad(idx)
	eng.Process(out, 128)
	assert.True(t, sm.IsPlaying(idx))

	eng.ReleasePad(idx) // no-op, LOOP_TOGGLE ignores release
	eng.Process(out, 128)
	assert.True(t, sm.IsPlaying(idx))

	eng.TriggerPad(idx) // second trigger toggles off
	eng.Process(out, 128)
	assert.False(t, sm.IsPlaying(idx))
}

func TestPanicStopAll(t *testing.T) {
	sm := playback.New()
	cap := &captureObserver{}
	sm.RegisterObserver(cap)

	buffers := map[string]*audio.Buffer{}
	for i := 0; i < 5; i++ {
		buffers[fmt.Sprintf("/p%d.wav", i)] = monoBuf(44100, 1.0)
	}
	eng := New(sm, &fakeLoader{buffers: buffers}, 44100, 2)

	out := make([]float32, 128*2)
	for i := 0; i < 5; i++ {
		pad, _ := model.NewPad(i, 0)
		pad.Sample = &model.Sample{Path: fmt.Sprintf("/p%d.wav", i)}
		pad.Mode = model.ModeLoop
		pad.Volume = 1.0
		require.NoError(t, eng.LoadSample(i, pad))
		eng.TriggerPad(i)
	}
	eng.Process(out, 128)
	assert.Equal(t, 5, eng.ActiveVoices())

	eng.StopAll()
	assert.Equal(t, 0, eng.ActiveVoices())

	stoppedCount := 0
	for _, e := range cap.events {
		if e[:11] == "PAD_STOPPED" {
			stoppedCount++
		}
	}
	assert.Equal(t, 5, stoppedCount)
}

func TestTriggerQueueOverflowDropsAndCounts(t *testing.T) {
	sm := playback.New()
	eng := New(sm, &fakeLoader{buffers: map[string]*audio.Buffer{}}, 44100, 2)

	for i := 0; i < queueCapacity+10; i++ {
		eng.TriggerPad(0)
	}
	assert.Equal(t, uint64(10), eng.DroppedTriggers())
}

func TestUnassignedPadTriggerIsNoop(t *testing.T) {
	sm := playback.New()
	eng := New(sm, &fakeLoader{buffers: map[string]*audio.Buffer{}}, 44100, 2)

	out := make([]float32, 128*2)
	eng.TriggerPad(9) // no state installed at 9
	assert.NotPanics(t, func() { eng.Process(out, 128) })
	assert.Equal(t, 0, eng.ActiveVoices())
}

func TestEditDuringPlaybackChangesVolumeNextBlock(t *testing.T) {
	path := "/a.wav"
	buf := monoBuf(44100, 1.0)
	eng, _, _ := newTestEngine(t, path, buf)

	pad, _ := model.NewPad(0, 0)
	pad.Sample = &model.Sample{Path: path}
	pad.Mode = model.ModeLoop
	pad.Volume = 1.0
	require.NoError(t, eng.LoadSample(0, pad))
	eng.TriggerPad(0)

	out := make([]float32, 128*2)
	eng.Process(out, 128)
	assert.InDelta(t, math.Tanh(1.0), out[0], 1e-3) // soft-clipped output

	eng.UpdatePadVolume(0, 0.5)
	eng.Process(out, 128)
	assert.InDelta(t, math.Tanh(0.5), out[0], 1e-3)
}
