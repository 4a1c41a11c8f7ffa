// Package validity implements the signal-quality heuristic for physio
// recordings. It judges the raw waveforms only and is independent of the
// regressor pipeline, so callers can cheaply reject a dead sensor before
// committing to full regressor computation.
//
// A disconnected pulse sensor produces very low-amplitude noise, so the
// cardiac channel is judged by its standard deviation. Valid respiration
// belts are heavily low-pass filtered, so the respiration channel is judged
// by the ratio of low- to high-frequency spectral energy.
package validity

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"mriphysio/internal/models"
)

// Default thresholds for the heuristics.
const (
	DefaultMinFrames  = 8
	DefaultMinCardStd = 4.0
	DefaultMinRespLFP = 50.0
)

// minSpectrumBins is the smallest real-FFT spectrum on which the
// respiration low-frequency-power ratio is meaningful.
const minSpectrumBins = 300

// Checker holds the heuristic thresholds. The zero value is not useful;
// use NewChecker for the defaults.
type Checker struct {
	// MinFrames is the minimum number of temporal frames for any
	// recording to be considered valid.
	MinFrames int

	// MinCardStd is the minimum standard deviation of the raw cardiac
	// waveform.
	MinCardStd float64

	// MinRespLFP is the minimum ratio of low-frequency to high-frequency
	// spectral magnitude in the respiration waveform.
	MinRespLFP float64
}

// NewChecker returns a Checker with the default thresholds.
func NewChecker() Checker {
	return Checker{
		MinFrames:  DefaultMinFrames,
		MinCardStd: DefaultMinCardStd,
		MinRespLFP: DefaultMinRespLFP,
	}
}

// IsValid reports whether the recording looks usable: enough frames, and
// either a live cardiac channel or a live respiration channel.
func (c Checker) IsValid(card models.CardiacInput, resp models.RespirationInput, nframes int) bool {
	if nframes < c.MinFrames {
		return false
	}
	return c.cardValid(card.Wave) || c.respValid(resp.Wave)
}

func (c Checker) cardValid(wave []float64) bool {
	if len(wave) == 0 {
		return false
	}
	return stat.PopStdDev(wave, nil) > c.MinCardStd
}

// respValid computes the magnitude spectrum of the respiration waveform
// and compares the mean of bins [2,100) against the mean of the last 100
// bins. Short recordings (300 bins or fewer) are never judged valid on
// respiration alone.
func (c Checker) respValid(wave []float64) bool {
	if len(wave) == 0 {
		return false
	}
	fft := fourier.NewFFT(len(wave))
	coeffs := fft.Coefficients(nil, wave)

	if len(coeffs) <= minSpectrumBins {
		return false
	}
	mag := make([]float64, len(coeffs))
	for i, v := range coeffs {
		mag[i] = cmplx.Abs(v)
	}

	// IEEE division semantics carry the degenerate cases: an all-zero
	// spectrum yields NaN (invalid), a perfectly low-passed one +Inf
	// (valid).
	low := stat.Mean(mag[2:100], nil)
	high := stat.Mean(mag[len(mag)-100:], nil)
	return low/high > c.MinRespLFP
}
