package regressor

import "math"

// fillFourier writes the second-order Fourier expansion of the cardiac and
// respiratory phases into the first eight columns of row, in the fixed
// column order cos/sin of phi and 2*phi, cardiac first.
func fillFourier(row []float64, phiC, phiR float64) {
	row[ColC1C] = math.Cos(phiC)
	row[ColS1C] = math.Sin(phiC)
	row[ColC2C] = math.Cos(2 * phiC)
	row[ColS2C] = math.Sin(2 * phiC)
	row[ColC1R] = math.Cos(phiR)
	row[ColS1R] = math.Sin(phiR)
	row[ColC2R] = math.Cos(2 * phiR)
	row[ColS2R] = math.Sin(2 * phiR)
}
