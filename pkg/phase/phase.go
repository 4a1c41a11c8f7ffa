// Package phase computes cardiac and respiratory phase for every slice and
// frame of a scan.
//
// Cardiac phase is the position of the acquisition instant within the
// enclosing R-R interval, scaled to [0, 2π]. Respiratory phase follows the
// amplitude-histogram method of Glover et al. (2000): the phase magnitude is
// the cumulative histogram count below the current amplitude, and its sign
// is the sign of the respiration derivative (inhale vs. exhale).
package phase

import (
	"math"
	"sort"

	"mriphysio/internal/models"
	"mriphysio/pkg/timing"
)

const (
	// histogramBins is the number of amplitude bins used for the
	// respiratory phase estimate.
	histogramBins = 100

	// respCutoffHz is the low-pass cutoff applied to the respiration
	// waveform before differentiation.
	respCutoffHz = 1.0

	// respFilterTaps is the FIR filter order for that low-pass.
	respFilterTaps = 20
)

// SlicePhases holds the per-frame phase vectors of one slice, in radians.
// Cardiac values lie in [0, 2π]; respiratory values are signed.
type SlicePhases struct {
	Cardiac []float64
	Resp    []float64
}

// Extractor precomputes the waveform-derived state shared by all slices:
// the zero-shifted respiration wave, its amplitude histogram, and the
// derivative of its low-pass filtered form. Slice is safe to call from
// multiple goroutines once the extractor is built.
type Extractor struct {
	st       models.ScanTiming
	cardTrig []float64

	respWave []float64 // shifted to zero minimum; inputs stay untouched
	respDT   float64
	counts   []float64 // amplitude histogram counts, histogramBins long
	edges    []float64 // histogram bin edges, histogramBins+1 long
	cumulant []float64 // cumulant[i] = sum(counts[:i])
	nFilt    int       // filtered sample count (phase normalizer)
	drdt     []float64 // first difference of the filtered wave
}

// NewExtractor builds an Extractor for the given timing and waveforms.
// The scan timing must already be validated.
func NewExtractor(st models.ScanTiming, cardTrig []float64, resp models.RespirationInput) *Extractor {
	wave := make([]float64, len(resp.Wave))
	minAmp := math.Inf(1)
	for _, v := range resp.Wave {
		if v < minAmp {
			minAmp = v
		}
	}
	for i, v := range resp.Wave {
		wave[i] = v - minAmp
	}

	counts, edges := histogram(wave, histogramBins)
	cumulant := make([]float64, len(counts)+1)
	for i, c := range counts {
		cumulant[i+1] = cumulant[i] + c
	}

	taps := lowpassFIR(respFilterTaps, respCutoffHz/(1/resp.DT/2))
	filtered := filtfilt(taps, wave)
	var drdt []float64
	if len(filtered) > 1 {
		drdt = make([]float64, len(filtered)-1)
		for i := range drdt {
			drdt[i] = filtered[i+1] - filtered[i]
		}
	}

	return &Extractor{
		st:       st,
		cardTrig: cardTrig,
		respWave: wave,
		respDT:   resp.DT,
		counts:   counts,
		edges:    edges,
		cumulant: cumulant,
		nFilt:    len(filtered),
		drdt:     drdt,
	}
}

// Slice computes the cardiac and respiratory phase of every frame of slice
// sl, evaluated at that slice's acquisition times.
func (e *Extractor) Slice(sl int) (SlicePhases, error) {
	times, err := timing.SliceTimes(e.st, sl)
	if err != nil {
		return SlicePhases{}, err
	}
	ph := SlicePhases{
		Cardiac: make([]float64, len(times)),
		Resp:    make([]float64, len(times)),
	}
	for fr, t := range times {
		ph.Cardiac[fr] = e.cardiacPhase(t)
		ph.Resp[fr] = e.respPhase(t)
	}
	return ph, nil
}

// Extract computes the full phase tensor, slice by slice.
func (e *Extractor) Extract() ([]SlicePhases, error) {
	phases := make([]SlicePhases, e.st.NSlices())
	for sl := range phases {
		ph, err := e.Slice(sl)
		if err != nil {
			return nil, err
		}
		phases[sl] = ph
	}
	return phases, nil
}

// cardiacPhase returns 2π(t-t1)/(t2-t1), where t1 is the latest trigger
// strictly before t (or 0) and t2 the earliest strictly after (or the scan
// end). With no triggers at all this degenerates to a monotone ramp over
// the whole scan, which is well defined rather than an error.
func (e *Extractor) cardiacPhase(t float64) float64 {
	t1 := 0.0
	t2 := e.st.ScanDuration()

	// First trigger >= t; everything before it is strictly earlier.
	idx := sort.SearchFloat64s(e.cardTrig, t)
	if idx > 0 {
		t1 = e.cardTrig[idx-1]
	}
	for idx < len(e.cardTrig) && e.cardTrig[idx] == t {
		idx++
	}
	if idx < len(e.cardTrig) {
		t2 = e.cardTrig[idx]
	}
	return (t - t1) * 2 * math.Pi / (t2 - t1)
}

// respPhase looks up the respiration sample nearest to t and maps its
// amplitude through the histogram: π · sign(dr/dt) · count-below / n.
func (e *Extractor) respPhase(t float64) float64 {
	if len(e.drdt) == 0 {
		return 0
	}
	i := int(math.Round(t / e.respDT))
	if i < 0 {
		i = 0
	}
	if i > len(e.drdt)-1 {
		i = len(e.drdt) - 1
	}
	amp := e.respWave[i]

	// Nearest bin edge to the current amplitude.
	bin := 0
	best := math.Inf(1)
	for b, edge := range e.edges {
		if d := math.Abs(amp - edge); d < best {
			best = d
			bin = b
		}
	}
	if bin > len(e.counts) {
		bin = len(e.counts)
	}
	return math.Pi * sign(e.drdt[i]) * e.cumulant[bin] / float64(e.nFilt)
}

// histogram bins data into n equal-width bins, returning counts and the
// n+1 bin edges. The rightmost bin is closed. A flat signal gets a unit
// range centered on its value so the edges stay distinct.
func histogram(data []float64, n int) (counts, edges []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if len(data) == 0 {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}

	counts = make([]float64, n)
	edges = make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi

	for _, v := range data {
		b := int((v - lo) / width)
		if b >= n {
			b = n - 1
		}
		if b < 0 {
			b = 0
		}
		counts[b]++
	}
	return counts, edges
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
