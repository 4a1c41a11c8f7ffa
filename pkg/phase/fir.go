package phase

import "math"

// lowpassFIR designs a windowed-sinc low-pass filter with the given number
// of taps and cutoff expressed as a fraction of the Nyquist frequency
// (0 < cutoff < 1). A Hamming window shapes the taps and the result is
// scaled to unit gain at DC.
func lowpassFIR(ntaps int, cutoff float64) []float64 {
	taps := make([]float64, ntaps)
	mid := float64(ntaps-1) / 2
	sum := 0.0
	for n := range taps {
		x := float64(n) - mid
		win := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(ntaps-1))
		taps[n] = cutoff * sinc(cutoff*x) * win
		sum += taps[n]
	}
	for n := range taps {
		taps[n] /= sum
	}
	return taps
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// filtfilt applies the FIR filter forward and backward so that the result
// has zero phase shift. The signal is extended at both ends by odd
// reflection to suppress edge transients; the extension length is three
// filter lengths, clipped to the signal length.
func filtfilt(taps, x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	pad := 3 * len(taps)
	if pad > len(x)-1 {
		pad = len(x) - 1
	}

	ext := make([]float64, 0, len(x)+2*pad)
	for i := pad; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	last := x[len(x)-1]
	for i := 2; i <= pad+1; i++ {
		ext = append(ext, 2*last-x[len(x)-i])
	}

	fwd := firFilter(taps, ext)
	reverse(fwd)
	back := firFilter(taps, fwd)
	reverse(back)

	out := make([]float64, len(x))
	copy(out, back[pad:pad+len(x)])
	return out
}

// firFilter runs a causal direct-form FIR filter over x.
func firFilter(taps, x []float64) []float64 {
	y := make([]float64, len(x))
	for i := range x {
		var acc float64
		for j, b := range taps {
			if i-j < 0 {
				break
			}
			acc += b * x[i-j]
		}
		y[i] = acc
	}
	return y
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
