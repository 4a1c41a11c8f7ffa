package regressor

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// responseHorizon is the length of the impulse-response curves in seconds.
// Samples run t = 0, TR, 2*TR, ... strictly below this bound.
const responseHorizon = 40.0

// responseTimes returns the sample times of the response-function horizon
// for the given repetition time.
func responseTimes(tr float64) []float64 {
	var t []float64
	for k := 0; float64(k)*tr < responseHorizon; k++ {
		t = append(t, float64(k)*tr)
	}
	return t
}

// respirationResponse evaluates the canonical Respiration Response Function
// of Birn et al. (2008) on the given time grid, normalized to a peak of 1:
//
//	R(t) = 0.6 t^2.1 e^(-t/1.6) - 0.0023 t^3.54 e^(-t/4.25)
func respirationResponse(t []float64) []float64 {
	r := make([]float64, len(t))
	for i, ti := range t {
		r[i] = 0.6*math.Pow(ti, 2.1)*math.Exp(-ti/1.6) -
			0.0023*math.Pow(ti, 3.54)*math.Exp(-ti/4.25)
	}
	normalizeToPeak(r)
	return r
}

// cardiacResponse evaluates the canonical Cardiac Response Function of
// Chang et al. (2009) on the given time grid, normalized to a peak of 1:
//
//	H(t) = 0.6 t^2.7 e^(-t/1.6) - 16 N(t; 12, 3)
func cardiacResponse(t []float64) []float64 {
	gauss := distuv.Normal{Mu: 12, Sigma: 3}
	h := make([]float64, len(t))
	for i, ti := range t {
		h[i] = 0.6*math.Pow(ti, 2.7)*math.Exp(-ti/1.6) - 16*gauss.Prob(ti)
	}
	normalizeToPeak(h)
	return h
}

func normalizeToPeak(x []float64) {
	peak := math.Inf(-1)
	for _, v := range x {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 || math.IsInf(peak, -1) {
		return
	}
	for i := range x {
		x[i] /= peak
	}
}

// convolveTruncated convolves x with kernel and keeps only the first
// len(x) samples of the full linear convolution (causal truncation).
func convolveTruncated(x, kernel []float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		var acc float64
		for j, k := range kernel {
			if i-j < 0 {
				break
			}
			acc += k * x[i-j]
		}
		out[i] = acc
	}
	return out
}

// diffPadded returns the first difference of x with the first element
// repeated, preserving length.
func diffPadded(x []float64) []float64 {
	d := make([]float64, len(x))
	if len(x) < 2 {
		return d
	}
	d[0] = x[1] - x[0]
	for i := 1; i < len(x); i++ {
		d[i] = x[i] - x[i-1]
	}
	return d
}
