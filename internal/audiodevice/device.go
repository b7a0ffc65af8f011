// Package audiodevice wraps github.com/gordonklaus/portaudio to acquire a
// platform-appropriate low-latency output stream, rendering blocks through
// a caller-supplied callback rather than blocking Read/Write calls.
package audiodevice

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"

	"gopad/internal/debug"
)

// ErrNoSuitableAudioDevice is returned when neither the configured device,
// the OS default, nor any scanned device can satisfy the requested channel
// count on a low-latency host API.
var ErrNoSuitableAudioDevice = errors.New("no suitable audio output device")

// ErrAudioDeviceBusy is returned when the chosen device could not be opened
// because another process holds it exclusively.
var ErrAudioDeviceBusy = errors.New("audio device busy")

// ineligibleHostAPIs lists host APIs that do not expose low-latency I/O on
// their platform. Matched case-insensitively as substrings of
// portaudio.HostApiInfo.Name, since portaudio-go does not export typed host
// API constants.
var ineligibleHostAPIs = []string{"mme", "windows directsound"}

// OutputInfo describes one candidate output device for list_outputs().
type OutputInfo struct {
	ID          int
	Name        string
	HostAPI     string
	MaxChannels int
}

// Callback renders one audio block. out has len == channels*bufferSize, is
// owned by the caller for the duration of the call, and must be fully
// written: fixed size, no allocation, no blocking I/O.
type Callback func(out []float32)

// OpenOptions configures Open. DeviceID == nil requests the OS default.
type OpenOptions struct {
	DeviceID   *int
	Channels   int
	BufferSize int
	SampleRate float64
}

// Device is an opened PortAudio output stream awaiting Start.
type Device struct {
	mu       sync.Mutex
	stream   *portaudio.Stream
	callback Callback

	Info       OutputInfo
	Channels   int
	BufferSize int
	SampleRate float64
}

// ListOutputs enumerates every output-capable device PortAudio can see.
func ListOutputs() ([]OutputInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialize: %w", err)
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate audio devices: %w", err)
	}

	hostAPIs, _ := portaudio.HostApis()

	var out []OutputInfo
	for i, d := range devices {
		if d.MaxOutputChannels <= 0 {
			continue
		}
		out = append(out, OutputInfo{
			ID:          i,
			Name:        d.Name,
			HostAPI:     hostAPIName(hostAPIs, d.HostApi),
			MaxChannels: d.MaxOutputChannels,
		})
	}
	return out, nil
}

func hostAPIName(apis []*portaudio.HostApiInfo, index int) string {
	if index < 0 || index >= len(apis) {
		return ""
	}
	return apis[index].Name
}

func isEligibleHostAPI(name string) bool {
	lower := strings.ToLower(name)
	for _, bad := range ineligibleHostAPIs {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	return true
}

func isEligible(hostAPIs []*portaudio.HostApiInfo, d *portaudio.DeviceInfo, channels int) bool {
	return d.MaxOutputChannels >= channels && isEligibleHostAPI(hostAPIName(hostAPIs, d.HostApi))
}

// Open acquires an output stream, falling back in order: configured
// device -> OS default -> first eligible scanned device -> error.
func Open(opts OpenOptions) (*Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio initialize: %w", err)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerate audio devices: %w", err)
	}
	hostAPIs, _ := portaudio.HostApis()

	dev, err := resolveDevice(devices, hostAPIs, opts.DeviceID, opts.Channels)
	if err != nil {
		return nil, err
	}

	d := &Device{
		Info: OutputInfo{
			ID:          indexOf(devices, dev),
			Name:        dev.Name,
			HostAPI:     hostAPIName(hostAPIs, dev.HostApi),
			MaxChannels: dev.MaxOutputChannels,
		},
		Channels:   opts.Channels,
		BufferSize: opts.BufferSize,
		SampleRate: opts.SampleRate,
	}

	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: opts.Channels,
			Latency:  dev.DefaultLowOutputLatency,
		},
		SampleRate:      opts.SampleRate,
		FramesPerBuffer: opts.BufferSize,
	}

	stream, err := portaudio.OpenStream(params, d.render)
	if err != nil {
		if isBusyError(err) {
			return nil, fmt.Errorf("%s: %w", dev.Name, ErrAudioDeviceBusy)
		}
		return nil, fmt.Errorf("open audio stream on %q: %w", dev.Name, err)
	}
	d.stream = stream

	debug.Log("audiodevice", "opened %s (%d ch, %d frames, %.0f Hz)", dev.Name, opts.Channels, opts.BufferSize, opts.SampleRate)
	return d, nil
}

// resolveDevice implements the configured -> default -> scan fallback chain.
func resolveDevice(devices []*portaudio.DeviceInfo, hostAPIs []*portaudio.HostApiInfo, deviceID *int, channels int) (*portaudio.DeviceInfo, error) {
	if deviceID != nil && *deviceID >= 0 && *deviceID < len(devices) {
		if d := devices[*deviceID]; isEligible(hostAPIs, d, channels) {
			return d, nil
		}
		debug.Log("audiodevice", "configured device %d ineligible, falling back to default", *deviceID)
	}

	if def, err := portaudio.DefaultOutputDevice(); err == nil && isEligible(hostAPIs, def, channels) {
		return def, nil
	}
	debug.Log("audiodevice", "default output device ineligible, scanning")

	for _, d := range devices {
		if isEligible(hostAPIs, d, channels) {
			return d, nil
		}
	}

	return nil, ErrNoSuitableAudioDevice
}

func indexOf(devices []*portaudio.DeviceInfo, target *portaudio.DeviceInfo) int {
	for i, d := range devices {
		if d == target {
			return i
		}
	}
	return -1
}

// isBusyError recognizes PortAudio's "device unavailable" condition. The
// library surfaces this as a plain error string rather than a typed error.
func isBusyError(err error) bool {
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unavailable") || strings.Contains(lower, "device busy") || strings.Contains(lower, "invalid device")
}

// SetCallback installs the render function invoked for every audio block.
// Safe to call before Start; the stream always reads the latest callback.
func (d *Device) SetCallback(cb Callback) {
	d.mu.Lock()
	d.callback = cb
	d.mu.Unlock()
}

// render is PortAudio's stream callback: it must never block or allocate.
func (d *Device) render(out []float32) {
	d.mu.Lock()
	cb := d.callback
	d.mu.Unlock()

	if cb == nil {
		clear(out)
		return
	}
	cb(out)
}

// Start begins streaming; render callbacks fire on PortAudio's real-time
// thread from this point until Stop.
func (d *Device) Start() error {
	if d.stream == nil {
		return fmt.Errorf("audio device not open")
	}
	return d.stream.Start()
}

// Stop halts streaming without releasing the underlying stream.
func (d *Device) Stop() error {
	if d.stream == nil {
		return nil
	}
	return d.stream.Stop()
}

// Close releases the stream. The Device is unusable after Close.
func (d *Device) Close() error {
	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	d.stream = nil
	return err
}
