// Package debug is the always-on, low-level trace logger used by the
// audio and MIDI hot paths: a single mutex-guarded file, category-tagged
// lines, enabled only when a log path is configured. It must never block
// the real-time audio thread for long, so writes are a single buffered
// Fprintf plus an explicit Sync.
package debug

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	file    *os.File
	mu      sync.Mutex
	enabled bool
)

// Enable starts trace logging to the given path, truncating any prior file.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true

	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, "debug", "=== trace logging started ===")
	file.Sync()
	return nil
}

// Disable stops trace logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	enabled = false
}

// Log writes one tagged trace line. A no-op when logging isn't enabled.
func Log(category, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if !enabled || file == nil {
		return
	}

	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(file, "[%s] %-10s %s\n", ts, category, msg)
	file.Sync()
}

// counters backs LogEvery's sampling.
var counters = make(map[string]int)
var countersMu sync.Mutex

// LogEvery logs only every n-th call for a given (category, format) key,
// for high-frequency call sites (e.g. per-block audio callback traces).
func LogEvery(n int, category, format string, args ...any) {
	countersMu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	countersMu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(append([]any{}, args...), n, count)...)
	}
}
