// Package models defines the normalized physiological-recording input
// contract shared by the ingestion layer and the regressor engine.
package models

import (
	"fmt"
	"time"

	"mriphysio/pkg/physio"
)

// ScanTiming describes when each slice of each frame was acquired.
type ScanTiming struct {
	// TR is the repetition time in seconds: the duration of one full
	// volume acquisition.
	TR float64

	// NFrames is the number of temporal frames in the timeseries.
	NFrames int

	// SliceOrder gives the acquisition order of the slices within one TR.
	// SliceOrder[pos] == sl means slice sl was acquired at position pos.
	// It must be a permutation of [0, len(SliceOrder)).
	SliceOrder []int
}

// NSlices returns the number of slices per volume.
func (st ScanTiming) NSlices() int {
	return len(st.SliceOrder)
}

// ScanDuration returns the total scan length in seconds.
func (st ScanTiming) ScanDuration() float64 {
	return float64(st.NFrames) * st.TR
}

// Validate checks the timing parameters eagerly. SliceOrder must be a true
// permutation; a repeated or out-of-range entry is a configuration error,
// never resolved by first match.
func (st ScanTiming) Validate() error {
	if st.TR <= 0 {
		return &physio.ConfigurationError{Field: "tr", Reason: fmt.Sprintf("must be positive, got %g", st.TR)}
	}
	if st.NFrames <= 0 {
		return &physio.ConfigurationError{Field: "nframes", Reason: fmt.Sprintf("must be positive, got %d", st.NFrames)}
	}
	if len(st.SliceOrder) == 0 {
		return &physio.ConfigurationError{Field: "slice_order", Reason: "must not be empty"}
	}
	seen := make([]bool, len(st.SliceOrder))
	for pos, sl := range st.SliceOrder {
		if sl < 0 || sl >= len(st.SliceOrder) {
			return &physio.ConfigurationError{
				Field:  "slice_order",
				Reason: fmt.Sprintf("entry %d at position %d is outside [0,%d)", sl, pos, len(st.SliceOrder)),
			}
		}
		if seen[sl] {
			return &physio.ConfigurationError{
				Field:  "slice_order",
				Reason: fmt.Sprintf("slice %d appears more than once; not a permutation", sl),
			}
		}
		seen[sl] = true
	}
	return nil
}

// SequentialOrder returns the ascending slice order 0,1,...,n-1.
func SequentialOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// InterleavedOrder returns the standard GE interleave: even slices first,
// then odd (e.g. 0,2,4,1,3 for n=5).
func InterleavedOrder(n int) []int {
	order := make([]int, 0, n)
	for i := 0; i < n; i += 2 {
		order = append(order, i)
	}
	for i := 1; i < n; i += 2 {
		order = append(order, i)
	}
	return order
}

// CardiacInput holds the cardiac channel of a recording.
type CardiacInput struct {
	// Trig contains the R-wave peak times in seconds, ascending, aligned
	// so that time zero is the start of the scan. May be empty.
	Trig []float64

	// DT is the sampling interval of the raw waveform in seconds.
	DT float64

	// Wave is the raw plethysmogram amplitude. It feeds only the validity
	// heuristic, never the regressors.
	Wave []float64
}

// RespirationInput holds the respiration channel of a recording.
type RespirationInput struct {
	// Wave is the respiration amplitude sampled every DT seconds.
	Wave []float64

	// DT is the sampling interval in seconds.
	DT float64
}

// SessionInfo carries the scan-session metadata found alongside the
// waveforms in a physio archive.
type SessionInfo struct {
	ExamUID    string
	ExamNo     int
	PatientID  string
	FirstName  string
	LastName   string
	SeriesNo   int
	AcqNo      int
	SeriesDesc string
	Timestamp  time.Time
}
