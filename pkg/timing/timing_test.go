package timing

import (
	"errors"
	"math"
	"testing"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
)

func TestSliceTimesWithinScan(t *testing.T) {
	st := models.ScanTiming{TR: 2, NFrames: 10, SliceOrder: []int{0, 2, 4, 1, 3}}
	for sl := 0; sl < st.NSlices(); sl++ {
		times, err := SliceTimes(st, sl)
		if err != nil {
			t.Fatalf("SliceTimes(%d): %v", sl, err)
		}
		if len(times) != st.NFrames {
			t.Fatalf("Slice %d: got %d times, want %d", sl, len(times), st.NFrames)
		}
		for k, tm := range times {
			if tm < 0 || tm >= st.ScanDuration() {
				t.Errorf("Slice %d frame %d: time %g outside [0,%g)", sl, k, tm, st.ScanDuration())
			}
			if k > 0 && math.Abs(tm-times[k-1]-st.TR) > 1e-12 {
				t.Errorf("Slice %d: frames %d,%d not TR apart", sl, k-1, k)
			}
		}
	}
}

// A reversed two-slice order means slice 0 is acquired second, so its time
// grid must sit exactly half a TR after slice 1's.
func TestReversedOrderOffsetsByHalfTR(t *testing.T) {
	st := models.ScanTiming{TR: 2, NFrames: 4, SliceOrder: []int{1, 0}}

	t0, err := SliceTimes(st, 0)
	if err != nil {
		t.Fatalf("SliceTimes(0): %v", err)
	}
	t1, err := SliceTimes(st, 1)
	if err != nil {
		t.Fatalf("SliceTimes(1): %v", err)
	}

	pos, err := AcquisitionPosition(st, 0)
	if err != nil || pos != 1 {
		t.Errorf("AcquisitionPosition(0) = %d, %v, want 1, nil", pos, err)
	}
	for k := range t0 {
		if diff := t0[k] - t1[k]; math.Abs(diff-st.TR/2) > 1e-12 {
			t.Errorf("Frame %d: slice time difference %g, want %g", k, diff, st.TR/2)
		}
	}
	if math.Abs(t1[0]-0.5) > 1e-12 {
		t.Errorf("Slice 1 first time = %g, want 0.5", t1[0])
	}
}

func TestMissingSliceIsConfigurationError(t *testing.T) {
	// Not a permutation; slice 2 is absent. Validation would normally
	// reject this, but the lookup must still fail loudly, never fall
	// back to a first match.
	st := models.ScanTiming{TR: 2, NFrames: 4, SliceOrder: []int{0, 1}}
	_, err := SliceTimes(st, 2)
	if err == nil {
		t.Fatal("Expected an error for a slice missing from the order")
	}
	var cfgErr *physio.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("Expected ConfigurationError, got %T: %v", err, err)
	}
}
