package sampleloader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goaudio "github.com/go-audio/audio"
)

func writeTestWAV(t *testing.T, path string, numFrames int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 44100},
		SourceBitDepth: 16,
		Data:           make([]int, numFrames),
	}
	for i := range buf.Data {
		buf.Data[i] = 1000
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestLoadWAVAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kick.wav")
	writeTestWAV(t, path, 100)

	l := New()
	buf1, err := l.Load(path, 44100)
	require.NoError(t, err)
	assert.Equal(t, 100, buf1.NumFrames)
	assert.Equal(t, 1, buf1.NumChannels)

	buf2, err := l.Load(path, 44100)
	require.NoError(t, err)
	assert.Same(t, buf1, buf2, "second load should hit the cache")
}

func TestLoadMissingFile(t *testing.T) {
	l := New()
	_, err := l.Load("/does/not/exist.wav", 44100)
	assert.Error(t, err)
}

func TestUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.mp3")
	require.NoError(t, os.WriteFile(path, []byte{0, 1, 2}, 0644))

	l := New()
	_, err := l.Load(path, 44100)
	assert.Error(t, err)
}

func TestDecodeAIFFRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tone.aiff")
	writeMinimalAIFF(t, path, 8, 1, 44100)

	l := New()
	buf, err := l.Load(path, 44100)
	require.NoError(t, err)
	assert.Equal(t, 8, buf.NumFrames)
	assert.Equal(t, 1, buf.NumChannels)
}

// writeMinimalAIFF hand-builds a tiny AIFF file (16-bit mono PCM) to
// exercise decodeAIFF's COMM/SSND parsing without needing a real asset.
func writeMinimalAIFF(t *testing.T, path string, numFrames, channels, sampleRate int) {
	t.Helper()
	pcm := make([]byte, numFrames*2)
	for i := 0; i < numFrames; i++ {
		binary.BigEndian.PutUint16(pcm[i*2:], uint16(1000))
	}

	var commBody [18]byte
	binary.BigEndian.PutUint16(commBody[0:2], uint16(channels))
	binary.BigEndian.PutUint32(commBody[2:6], uint32(numFrames))
	binary.BigEndian.PutUint16(commBody[6:8], 16) // bits per sample
	putIEEE80(commBody[8:18], float64(sampleRate))

	ssndBody := append([]byte{0, 0, 0, 0, 0, 0, 0, 0}, pcm...)

	var out []byte
	out = append(out, []byte("FORM")...)
	formSize := 4 + 8 + len(commBody) + 8 + len(ssndBody)
	out = appendBE32(out, uint32(formSize))
	out = append(out, []byte("AIFF")...)
	out = append(out, []byte("COMM")...)
	out = appendBE32(out, uint32(len(commBody)))
	out = append(out, commBody[:]...)
	out = append(out, []byte("SSND")...)
	out = appendBE32(out, uint32(len(ssndBody)))
	out = append(out, ssndBody...)

	require.NoError(t, os.WriteFile(path, out, 0644))
}

func appendBE32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// putIEEE80 encodes v (assumed a positive integer sample rate, well under
// 2^16) as an 80-bit IEEE 754 extended float, inverse of decodeIEEE80: pick
// a fixed binary-point shift of 16 bits (room for any rate up to 65535)
// so mantissa = v << 47 and the stored (biased) exponent is 16383+16.
func putIEEE80(b []byte, v float64) {
	mantissa := uint64(v) << 47
	binary.BigEndian.PutUint16(b[0:2], uint16(16383+16))
	binary.BigEndian.PutUint64(b[2:10], mantissa)
}
