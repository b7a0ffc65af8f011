// Package sampleloader decodes audio files into internal/audio.Buffer and
// memoizes them by canonical path. The format is chosen by file
// extension. WAV, FLAC and Ogg Vorbis decoding is delegated to decoder
// libraries; AIFF is parsed in this package. This package also resamples
// and keeps the memoization cache.
package sampleloader

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/zaf/resample"

	gopadaudio "gopad/internal/audio"
	"gopad/internal/debug"
)

// Loader decodes and memoizes AudioBuffers by canonical file path. It
// implements engine.SampleLoader.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*gopadaudio.Buffer
}

// New creates an empty Loader.
func New() *Loader {
	return &Loader{cache: make(map[string]*gopadaudio.Buffer)}
}

// Load decodes path (or returns the cached buffer) and resamples to
// deviceSampleRate if the file's native rate differs.
func (l *Loader) Load(path string, deviceSampleRate int) (*gopadaudio.Buffer, error) {
	l.mu.RLock()
	if buf, ok := l.cache[path]; ok {
		l.mu.RUnlock()
		return buf, nil
	}
	l.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sample %q: %w", path, err)
	}
	defer f.Close()

	samples, channels, rate, err := decode(f, path)
	if err != nil {
		return nil, fmt.Errorf("decode sample %q: %w", path, err)
	}

	if rate != deviceSampleRate && deviceSampleRate > 0 {
		samples, err = resampleTo(samples, channels, rate, deviceSampleRate)
		if err != nil {
			return nil, fmt.Errorf("resample sample %q: %w", path, err)
		}
		rate = deviceSampleRate
	}

	buf := gopadaudio.NewBuffer(samples, rate, channels)

	l.mu.Lock()
	l.cache[path] = buf
	l.mu.Unlock()

	debug.Log("sampleloader", "loaded %s: %d frames, %d ch, %d Hz", path, buf.NumFrames, channels, rate)
	return buf, nil
}

// ClearUnreferenced drops cache entries whose buffer is not in keep.
func (l *Loader) ClearUnreferenced(keep map[*gopadaudio.Buffer]bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for path, buf := range l.cache {
		if !keep[buf] {
			delete(l.cache, path)
		}
	}
}

// decode dispatches to a format-specific decoder by extension, returning
// interleaved float32 samples plus channel count and native sample rate.
func decode(f *os.File, path string) ([]float32, int, int, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".wav":
		return decodeWAV(f)
	case ".aiff", ".aif":
		return decodeAIFF(f)
	case ".flac":
		return decodeFLAC(f)
	case ".ogg":
		return decodeOgg(f)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported audio format %q", ext)
	}
}

func decodeWAV(f *os.File) ([]float32, int, int, error) {
	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, 0, err
	}
	return pcmToFloat32(buf), buf.Format.NumChannels, buf.Format.SampleRate, nil
}

// decodeAIFF reads the COMM and SSND chunks directly: a direct
// implementation of the well-known big-endian AIFF chunk layout, since no
// available decoder library covers this format.
func decodeAIFF(f *os.File) ([]float32, int, int, error) {
	var form [12]byte
	if _, err := io.ReadFull(f, form[:]); err != nil {
		return nil, 0, 0, err
	}
	if string(form[0:4]) != "FORM" || string(form[8:12]) != "AIFF" {
		return nil, 0, 0, fmt.Errorf("not an AIFF file")
	}

	var channels, bitsPerSample int
	var sampleRate int
	var pcm []byte

	for {
		var id [4]byte
		var size uint32
		if _, err := io.ReadFull(f, id[:]); err != nil {
			break
		}
		if err := binary.Read(f, binary.BigEndian, &size); err != nil {
			break
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(f, body); err != nil {
			return nil, 0, 0, err
		}
		if size%2 == 1 {
			f.Seek(1, io.SeekCurrent) // chunks are word-aligned
		}

		switch string(id[:]) {
		case "COMM":
			channels = int(binary.BigEndian.Uint16(body[0:2]))
			bitsPerSample = int(binary.BigEndian.Uint16(body[6:8]))
			sampleRate = int(decodeIEEE80(body[8:18]))
		case "SSND":
			offset := binary.BigEndian.Uint32(body[0:4])
			pcm = body[8+offset:]
		}
	}

	if channels == 0 || pcm == nil {
		return nil, 0, 0, fmt.Errorf("missing COMM/SSND chunk")
	}

	bytesPerSample := bitsPerSample / 8
	count := len(pcm) / bytesPerSample
	out := make([]float32, count)
	maxVal := float32(int64(1) << (bitsPerSample - 1))
	for i := 0; i < count; i++ {
		chunk := pcm[i*bytesPerSample : (i+1)*bytesPerSample]
		var v int64
		for _, b := range chunk { // big-endian signed PCM
			v = v<<8 | int64(b)
		}
		signBit := int64(1) << (bitsPerSample - 1)
		if v&signBit != 0 {
			v -= signBit << 1
		}
		out[i] = float32(v) / maxVal
	}
	return out, channels, sampleRate, nil
}

// decodeIEEE80 parses the 80-bit IEEE 754 extended-precision float AIFF
// uses for its sample rate field.
func decodeIEEE80(b []byte) float64 {
	sign := 1.0
	if b[0]&0x80 != 0 {
		sign = -1.0
	}
	exponent := int(binary.BigEndian.Uint16(b[0:2])&0x7fff) - 16383
	mantissa := binary.BigEndian.Uint64(b[2:10])
	return sign * float64(mantissa) * math.Pow(2, float64(exponent-63))
}

func decodeFLAC(f *os.File) ([]float32, int, int, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, 0, 0, err
	}
	defer stream.Close()

	var out []float32
	channels := int(stream.Info.NChannels)
	rate := int(stream.Info.SampleRate)
	maxVal := float32(int64(1) << (stream.Info.BitsPerSample - 1))

	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for ch := 0; ch < channels; ch++ {
				out = append(out, float32(frame.Subframes[ch].Samples[i])/maxVal)
			}
		}
	}
	return out, channels, rate, nil
}

func decodeOgg(f *os.File) ([]float32, int, int, error) {
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, 0, 0, err
	}
	r, err := oggvorbis.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}

	channels := r.Channels()
	rate := r.SampleRate()

	var out []float32
	chunk := make([]float32, 4096)
	for {
		n, err := r.Read(chunk)
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, 0, err
		}
	}
	return out, channels, rate, nil
}

// pcmToFloat32 flattens a go-audio int PCM buffer to interleaved float32 in
// [-1,1], normalizing by the source bit depth the same way decodeFLAC and
// decodeAIFF do. IntBuffer.AsFloatBuffer casts raw integer magnitudes to
// float64 unchanged, so normalization has to happen here.
func pcmToFloat32(buf *audio.IntBuffer) []float32 {
	maxVal := float32(int64(1) << (buf.SourceBitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / maxVal
	}
	return out
}

// resampleTo converts interleaved float32 samples from srcRate to dstRate
// using github.com/zaf/resample, which operates on PCM byte streams; we
// round-trip through its io.Writer-based Resampler for each channel
// interleaved as 32-bit float PCM.
func resampleTo(samples []float32, channels, srcRate, dstRate int) ([]float32, error) {
	var buf bytes.Buffer
	res, err := resample.New(&buf, float64(srcRate), float64(dstRate), channels, resample.F32, resample.HighQ)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	raw := make([]byte, len(samples)*4)
	for i, v := range samples {
		putFloat32LE(raw[i*4:], v)
	}
	if _, err := res.Write(raw); err != nil {
		return nil, err
	}

	out := make([]float32, buf.Len()/4)
	for i := range out {
		out[i] = getFloat32LE(buf.Bytes()[i*4:])
	}
	return out, nil
}

func putFloat32LE(b []byte, v float32) {
	bits := math.Float32bits(v)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

func getFloat32LE(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
