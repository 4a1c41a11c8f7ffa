package regressor

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
	"mriphysio/pkg/timing"
)

// rvhrWindow is the half-width in seconds of the sliding window used for
// the respiration-volume and heart-rate series (6-second full window).
const rvhrWindow = 3.0

// sliceRVHR holds the four RVHRCOR regressors of one slice plus the raw
// heart-rate series recorded before demeaning.
type sliceRVHR struct {
	rvRRF, rvRRFD []float64
	hrCRF, hrCRFD []float64
	heartRate     []float64
}

// computeRVHR derives the RVHRCOR regressors for slice sl: the windowed
// respiration-volume and heart-rate series, demeaned and convolved with
// their canonical response functions, plus time derivatives.
func computeRVHR(st models.ScanTiming, sl int, cardTrig []float64, resp models.RespirationInput, rrf, crf []float64) (sliceRVHR, error) {
	times, err := timing.SliceTimes(st, sl)
	if err != nil {
		return sliceRVHR{}, err
	}

	rv, err := respirationVolume(times, resp)
	if err != nil {
		return sliceRVHR{}, err
	}
	hr, err := heartRate(times, cardTrig)
	if err != nil {
		return sliceRVHR{}, err
	}

	out := sliceRVHR{heartRate: hr}

	floats.AddConst(-stat.Mean(rv, nil), rv)
	out.rvRRF = convolveTruncated(rv, rrf)
	out.rvRRFD = diffPadded(out.rvRRF)

	demeaned := make([]float64, len(hr))
	copy(demeaned, hr)
	floats.AddConst(-stat.Mean(demeaned, nil), demeaned)
	out.hrCRF = convolveTruncated(demeaned, crf)
	out.hrCRFD = diffPadded(out.hrCRF)

	return out, nil
}

// respirationVolume returns the per-frame standard deviation of the
// respiration amplitude within the sliding window around each slice time.
// A window whose upper index bound falls below its lower bound means the
// waveform does not cover the scan, which is fatal. An exactly empty window
// (upper == lower) is a defined boundary and yields zero.
func respirationVolume(times []float64, resp models.RespirationInput) ([]float64, error) {
	rv := make([]float64, len(times))
	for fr, t := range times {
		i1 := int((t - rvhrWindow) / resp.DT)
		if t-rvhrWindow < 0 {
			i1 = 0
		}
		i2 := len(resp.Wave)
		if hi := int((t + rvhrWindow) / resp.DT); hi < i2 {
			i2 = hi
		}
		if i2 < i1 {
			return nil, &physio.DataLengthError{Msg: "respiration data is shorter than the scan duration"}
		}
		if i2 > i1 {
			rv[fr] = stat.PopStdDev(resp.Wave[i1:i2], nil)
		}
	}
	return rv, nil
}

// heartRate returns the per-frame instantaneous heart rate in beats per
// minute, measured over the triggers inside the sliding window. A frame
// with no triggers holds the previous frame's value; no triggers in the
// very first window means the trigger record cannot cover the scan.
func heartRate(times, cardTrig []float64) ([]float64, error) {
	hr := make([]float64, len(times))
	for fr, t := range times {
		lo := sort.SearchFloat64s(cardTrig, t-rvhrWindow)
		hi := sort.SearchFloat64s(cardTrig, t+rvhrWindow)
		for hi < len(cardTrig) && cardTrig[hi] <= t+rvhrWindow {
			hi++
		}
		if hi <= lo {
			if fr == 0 {
				return nil, &physio.DataLengthError{Msg: "cardiac trigger times do not match scan duration"}
			}
			// At the end of a run the last pulse can precede the
			// last frame; carry the previous estimate forward.
			hr[fr] = hr[fr-1]
			continue
		}
		hr[fr] = float64(hi-lo-1) * 60 / (cardTrig[hi-1] - cardTrig[lo])
	}
	return hr, nil
}
