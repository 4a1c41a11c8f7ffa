package phase

import (
	"math"
	"testing"

	"mriphysio/internal/models"
)

// testTiming returns a single-slice scan: slice times 1, 3, 5, ... seconds.
func testTiming(nframes int) models.ScanTiming {
	return models.ScanTiming{TR: 2, NFrames: nframes, SliceOrder: []int{0}}
}

// sineResp builds a slow breathing-like waveform covering the given
// duration at the given sampling interval.
func sineResp(duration, dt float64) models.RespirationInput {
	n := int(duration / dt)
	wave := make([]float64, n)
	for i := range wave {
		wave[i] = 50 + 20*math.Sin(2*math.Pi*0.25*float64(i)*dt)
	}
	return models.RespirationInput{Wave: wave, DT: dt}
}

func TestCardiacPhaseBetweenTriggers(t *testing.T) {
	trig := []float64{0.5, 1.5, 2.5, 3.5, 4.5, 5.5, 6.5, 7.5, 8.5, 9.5}
	ext := NewExtractor(testTiming(4), trig, sineResp(10, 0.04))

	// Slice time 1.0 falls midway between triggers at 0.5 and 1.5.
	if got := ext.cardiacPhase(1.0); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("cardiacPhase(1.0) = %g, want pi", got)
	}
	// A time exactly on a trigger belongs to neither side: the interval
	// spans the neighboring triggers.
	if got := ext.cardiacPhase(1.5); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("cardiacPhase(1.5) = %g, want pi", got)
	}
}

func TestCardiacPhaseRangeWithTriggers(t *testing.T) {
	trig := make([]float64, 0, 25)
	for ts := 0.3; ts < 20; ts += 0.8 {
		trig = append(trig, ts)
	}
	ext := NewExtractor(testTiming(10), trig, sineResp(20, 0.04))

	ph, err := ext.Slice(0)
	if err != nil {
		t.Fatalf("Slice(0): %v", err)
	}
	for fr, phi := range ph.Cardiac {
		if phi < 0 || phi > 2*math.Pi {
			t.Errorf("Frame %d: cardiac phase %g outside [0, 2pi]", fr, phi)
		}
	}
}

func TestCardiacPhaseMonotoneWithoutTriggers(t *testing.T) {
	ext := NewExtractor(testTiming(10), nil, sineResp(20, 0.04))
	ph, err := ext.Slice(0)
	if err != nil {
		t.Fatalf("Slice(0): %v", err)
	}
	for fr := 1; fr < len(ph.Cardiac); fr++ {
		if ph.Cardiac[fr] < ph.Cardiac[fr-1] {
			t.Errorf("Cardiac phase decreased at frame %d: %g -> %g",
				fr, ph.Cardiac[fr-1], ph.Cardiac[fr])
		}
	}
	// With no triggers the phase ramps over the whole scan.
	if last := ph.Cardiac[len(ph.Cardiac)-1]; last <= 0 || last >= 2*math.Pi {
		t.Errorf("Final ramp phase %g outside (0, 2pi)", last)
	}
}

func TestRespiratoryPhaseBounded(t *testing.T) {
	ext := NewExtractor(testTiming(10), nil, sineResp(20, 0.04))
	ph, err := ext.Slice(0)
	if err != nil {
		t.Fatalf("Slice(0): %v", err)
	}
	for fr, phi := range ph.Resp {
		if math.Abs(phi) > math.Pi {
			t.Errorf("Frame %d: respiratory phase %g outside [-pi, pi]", fr, phi)
		}
	}
}

func TestExtractShape(t *testing.T) {
	st := models.ScanTiming{TR: 2, NFrames: 5, SliceOrder: []int{1, 0, 2}}
	ext := NewExtractor(st, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9}, sineResp(10, 0.04))
	phases, err := ext.Extract()
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(phases) != 3 {
		t.Fatalf("Got %d slices of phases, want 3", len(phases))
	}
	for sl, ph := range phases {
		if len(ph.Cardiac) != 5 || len(ph.Resp) != 5 {
			t.Errorf("Slice %d: phase vectors have lengths %d/%d, want 5/5",
				sl, len(ph.Cardiac), len(ph.Resp))
		}
	}
}

func TestLowpassFIRUnitDCGain(t *testing.T) {
	taps := lowpassFIR(20, 0.08)
	sum := 0.0
	for _, b := range taps {
		sum += b
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("DC gain = %g, want 1", sum)
	}
}

func TestFiltfiltPreservesConstant(t *testing.T) {
	taps := lowpassFIR(20, 0.08)
	x := make([]float64, 200)
	for i := range x {
		x[i] = 3.5
	}
	y := filtfilt(taps, x)
	for i, v := range y {
		if math.Abs(v-3.5) > 1e-9 {
			t.Fatalf("Sample %d: filtfilt(const) = %g, want 3.5", i, v)
		}
	}
}

func TestFiltfiltAttenuatesHighFrequency(t *testing.T) {
	// Nyquist-rate alternation is far above a 0.08-Nyquist cutoff.
	taps := lowpassFIR(20, 0.08)
	x := make([]float64, 400)
	for i := range x {
		x[i] = float64(1 - 2*(i%2))
	}
	y := filtfilt(taps, x)
	for i := 50; i < 350; i++ {
		if math.Abs(y[i]) > 0.05 {
			t.Fatalf("Sample %d: residual %g, want strong attenuation", i, y[i])
		}
	}
}

func TestHistogramCountsAndEdges(t *testing.T) {
	data := []float64{0, 0.5, 1, 1.5, 2}
	counts, edges := histogram(data, 4)
	if len(counts) != 4 || len(edges) != 5 {
		t.Fatalf("Got %d counts, %d edges; want 4, 5", len(counts), len(edges))
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total != float64(len(data)) {
		t.Errorf("Histogram total %g, want %d", total, len(data))
	}
	if edges[0] != 0 || edges[4] != 2 {
		t.Errorf("Edge range [%g, %g], want [0, 2]", edges[0], edges[4])
	}

	// A flat signal must still produce distinct edges.
	_, flatEdges := histogram([]float64{1, 1, 1}, 4)
	if flatEdges[0] >= flatEdges[4] {
		t.Errorf("Flat-signal edges not distinct: [%g, %g]", flatEdges[0], flatEdges[4])
	}
}
