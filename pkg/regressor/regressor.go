// Package regressor computes RETROICOR and RVHRCOR physiological-noise
// regressors from cardiac and respiratory recordings made during an MRI
// scan.
//
// The method follows:
//
//   - Glover GH, Li TQ, Ress D. Image-based method for retrospective
//     correction of physiological motion effects in fMRI: RETROICOR.
//     Magn Reson Med. 2000;44(1):162-7.
//   - Birn RM et al. The respiration response function. Neuroimage 2008.
//   - Chang C, Cunningham JP, Glover GH. Influence of heart rate on the
//     BOLD signal: the cardiac response function. Neuroimage 2009;44(3):857-69.
//
// For each slice the engine extracts cardiac and respiratory phase, expands
// them into a second-order Fourier basis (8 regressors), derives windowed
// respiration-volume and heart-rate series convolved with their canonical
// response functions (4 regressors), and removes a quadratic trend from
// every column. Computation is a single pass over immutable inputs: it
// either yields a fully populated regressor set or fails with a typed
// error, never a partial tensor.
package regressor

import (
	"fmt"
	"log"
	"sync"

	"mriphysio/internal/models"
	"mriphysio/pkg/phase"
	"mriphysio/pkg/physio"
)

// Regressor column indices, fixed across the whole pipeline and the file
// format: four cardiac Fourier terms, four respiratory Fourier terms, then
// the response-function regressors and their derivatives.
const (
	ColC1C = iota
	ColS1C
	ColC2C
	ColS2C
	ColC1R
	ColS1R
	ColC2R
	ColS2R
	ColRVRRF
	ColRVRRFD
	ColHRCRF
	ColHRCRFD

	NumColumns = 12
)

// ColumnNames lists the column labels in storage order.
var ColumnNames = [NumColumns]string{
	"c1_c", "s1_c", "c2_c", "s2_c",
	"c1_r", "s1_r", "c2_r", "s2_r",
	"rv_rrf", "rv_rrf_d", "hr_crf", "hr_crf_d",
}

// minFrames is the smallest timeseries for which regressors are computed.
const minFrames = 3

// Input bundles everything the engine needs. The engine treats all fields
// as read-only.
type Input struct {
	Timing      models.ScanTiming
	Cardiac     models.CardiacInput
	Respiration models.RespirationInput

	// Logger receives warnings; nil means the standard logger.
	Logger *log.Logger
}

// Set is the computed regressor tensor together with its diagnostics.
// The logical shape is [nframes, 12, nslices]; storage is indexed
// [slice][frame][column].
type Set struct {
	// Data holds the detrended regressors, or nil if computation was
	// declined for lack of frames. Callers must check before use.
	Data [][][]float64

	// HeartRate is the raw per-slice heart-rate series in bpm, indexed
	// [slice][frame], recorded before demeaning.
	HeartRate [][]float64

	// Phases holds the cardiac/respiratory phase vectors per slice.
	Phases []phase.SlicePhases

	// Timing echoes the scan timing the set was computed for.
	Timing models.ScanTiming

	// Declined is set instead of Data when the scan has too few frames.
	Declined *physio.InsufficientDataError
}

// ComputeRegressors runs the full pipeline: phase extraction, Fourier
// expansion, RV/HR response regressors, and quadratic detrending. Slices
// are processed concurrently; writes are disjoint per slice.
//
// A scan with fewer than 3 frames is declined rather than failed: the
// returned set carries a nil tensor and a Declined marker, and a warning
// is logged. All other failures are fatal and return a nil set.
func ComputeRegressors(in Input) (*Set, error) {
	if err := in.Timing.Validate(); err != nil {
		return nil, err
	}
	if in.Respiration.DT <= 0 {
		return nil, &physio.ConfigurationError{
			Field:  "resp_dt",
			Reason: fmt.Sprintf("must be positive, got %g", in.Respiration.DT),
		}
	}
	logger := in.Logger
	if logger == nil {
		logger = log.Default()
	}

	if in.Timing.NFrames < minFrames {
		declined := &physio.InsufficientDataError{NFrames: in.Timing.NFrames}
		logger.Printf("warning: %v", declined)
		return &Set{Timing: in.Timing, Declined: declined}, nil
	}

	nslc := in.Timing.NSlices()
	nframes := in.Timing.NFrames
	set := &Set{
		Data:      make([][][]float64, nslc),
		HeartRate: make([][]float64, nslc),
		Phases:    make([]phase.SlicePhases, nslc),
		Timing:    in.Timing,
	}

	ext := phase.NewExtractor(in.Timing, in.Cardiac.Trig, in.Respiration)
	t := responseTimes(in.Timing.TR)
	rrf := respirationResponse(t)
	crf := cardiacResponse(t)

	var wg sync.WaitGroup
	errs := make([]error, nslc)
	for sl := 0; sl < nslc; sl++ {
		wg.Add(1)
		go func(sl int) {
			defer wg.Done()
			errs[sl] = computeSlice(set, in, ext, rrf, crf, sl, nframes)
		}(sl)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Final pass: strip slow drift from every column of every slice.
	col := make([]float64, nframes)
	for sl := 0; sl < nslc; sl++ {
		for c := 0; c < NumColumns; c++ {
			for fr := 0; fr < nframes; fr++ {
				col[fr] = set.Data[sl][fr][c]
			}
			if err := detrendQuadratic(col); err != nil {
				return nil, fmt.Errorf("detrending slice %d column %s: %w", sl, ColumnNames[c], err)
			}
			for fr := 0; fr < nframes; fr++ {
				set.Data[sl][fr][c] = col[fr]
			}
		}
	}

	return set, nil
}

// computeSlice fills the slice sl slots of the output set: phases, the
// eight Fourier regressors, and the four response-function regressors.
func computeSlice(set *Set, in Input, ext *phase.Extractor, rrf, crf []float64, sl, nframes int) error {
	ph, err := ext.Slice(sl)
	if err != nil {
		return err
	}
	rvhr, err := computeRVHR(in.Timing, sl, in.Cardiac.Trig, in.Respiration, rrf, crf)
	if err != nil {
		return err
	}

	rows := make([][]float64, nframes)
	for fr := 0; fr < nframes; fr++ {
		row := make([]float64, NumColumns)
		fillFourier(row, ph.Cardiac[fr], ph.Resp[fr])
		row[ColRVRRF] = rvhr.rvRRF[fr]
		row[ColRVRRFD] = rvhr.rvRRFD[fr]
		row[ColHRCRF] = rvhr.hrCRF[fr]
		row[ColHRCRFD] = rvhr.hrCRFD[fr]
		rows[fr] = row
	}

	set.Data[sl] = rows
	set.HeartRate[sl] = rvhr.heartRate
	set.Phases[sl] = ph
	return nil
}
