// Package physio defines the error taxonomy shared by the physiological
// regressor pipeline. All fatal conditions surface as one of these typed
// errors; computation is all-or-nothing and no caller ever observes a
// partially filled regressor tensor.
package physio

import "fmt"

// ConfigurationError reports invalid scan parameters: a non-positive TR or
// frame count, or a slice order that is not a permutation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("physio: invalid configuration: %s: %s", e.Field, e.Reason)
}

// DataLengthError reports waveform or trigger coverage shorter than the
// scan requires. It is fatal; the regressor tensor is discarded.
type DataLengthError struct {
	Msg string
}

func (e *DataLengthError) Error() string {
	return "physio: " + e.Msg
}

// InsufficientDataError marks a scan too short for regressor computation
// (fewer than 3 frames). It is advisory, not fatal: the engine declines,
// warns, and leaves the tensor unset.
type InsufficientDataError struct {
	NFrames int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("physio: need at least 3 temporal frames to compute regressors, got %d", e.NFrames)
}

// FormatError reports a malformed or unsupported input source encountered
// by the ingestion layer.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return "physio: " + e.Reason
	}
	return fmt.Sprintf("physio: %s: %s", e.Path, e.Reason)
}
