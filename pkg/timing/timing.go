// Package timing derives per-slice acquisition timestamps from the scan
// parameters. Within one TR the scanner visits the slices in SliceOrder, so
// slice sl is sampled at the midpoint of its acquisition window, offset by
// its position in that order.
package timing

import (
	"fmt"

	"mriphysio/internal/models"
	"mriphysio/pkg/physio"
)

// AcquisitionPosition returns the position within one TR at which slice sl
// is acquired, i.e. the index cur with SliceOrder[cur] == sl. The timing is
// expected to be validated; a slice missing from the order is reported as a
// configuration error rather than resolved silently.
func AcquisitionPosition(st models.ScanTiming, sl int) (int, error) {
	for cur, s := range st.SliceOrder {
		if s == sl {
			return cur, nil
		}
	}
	return 0, &physio.ConfigurationError{
		Field:  "slice_order",
		Reason: fmt.Sprintf("slice %d does not appear in the acquisition order", sl),
	}
}

// SliceTimes returns the NFrames acquisition times of slice sl in seconds:
//
//	t_k = (TR/nslices)*(cur+0.5) + k*TR
//
// where cur is the slice's acquisition position. All times fall strictly
// within [0, ScanDuration).
func SliceTimes(st models.ScanTiming, sl int) ([]float64, error) {
	cur, err := AcquisitionPosition(st, sl)
	if err != nil {
		return nil, err
	}
	offset := st.TR / float64(st.NSlices()) * (float64(cur) + 0.5)
	times := make([]float64, st.NFrames)
	for k := range times {
		times[k] = offset + float64(k)*st.TR
	}
	return times, nil
}
