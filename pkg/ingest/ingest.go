// Package ingest reads vendor physio recordings into the normalized input
// contract consumed by the regressor engine. Vendors are modeled as
// pluggable readers keyed by a format tag; only the GE variant is
// implemented.
package ingest

import (
	"sort"
	"sync"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
)

// RawPhysioRecording is the capability every vendor variant provides:
// scan-aligned cardiac triggers and waveform, the respiration waveform
// with its sampling interval, and whatever session metadata the source
// carries.
type RawPhysioRecording interface {
	Cardiac() models.CardiacInput
	Respiration() models.RespirationInput
	Session() models.SessionInfo
}

// Params carries the side-band information a reader needs to align the
// recording with the scan.
type Params struct {
	// Timing is the scan the recording belongs to; readers use its
	// duration to shift waveform clocks onto scan time.
	Timing models.ScanTiming

	// CardDT and RespDT are the sampling intervals in seconds. Zero
	// selects the vendor defaults (10 ms cardiac, 40 ms respiration).
	CardDT float64
	RespDT float64
}

// Vendor sampling-interval defaults.
const (
	DefaultCardDT = 0.01
	DefaultRespDT = 0.04
)

// ReaderFunc opens the recording at path and normalizes it.
type ReaderFunc func(path string, p Params) (RawPhysioRecording, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]ReaderFunc)
)

// Register installs a vendor reader under the given format tag,
// overwriting any previous registration.
func Register(format string, fn ReaderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = fn
}

// Formats returns the registered format tags, sorted.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Open reads the recording at path using the reader registered for the
// format tag. Unknown tags are a FormatError. Zero sampling intervals in p
// are replaced by the vendor defaults.
func Open(format, path string, p Params) (RawPhysioRecording, error) {
	registryMu.RLock()
	fn, ok := registry[format]
	registryMu.RUnlock()
	if !ok {
		return nil, &physio.FormatError{Path: path, Reason: "unsupported physio format " + format}
	}
	if p.CardDT == 0 {
		p.CardDT = DefaultCardDT
	}
	if p.RespDT == 0 {
		p.RespDT = DefaultRespDT
	}
	return fn(path, p)
}
