package regressor

import "gonum.org/v1/gonum/mat"

// quadFit fits y = c0 + c1*x + c2*x^2 against the sample index by least
// squares and returns the three coefficients.
func quadFit(y []float64) (c0, c1, c2 float64, err error) {
	n := len(y)
	a := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		x := float64(i)
		a.Set(i, 0, 1)
		a.Set(i, 1, x)
		a.Set(i, 2, x*x)
	}
	b := mat.NewVecDense(n, y)

	var coef mat.VecDense
	if err := coef.SolveVec(a, b); err != nil {
		return 0, 0, 0, err
	}
	return coef.AtVec(0), coef.AtVec(1), coef.AtVec(2), nil
}

// detrendQuadratic removes the least-squares quadratic trend from y in
// place. This strips slow scanner and physiological drift that is not part
// of the periodic signal model.
func detrendQuadratic(y []float64) error {
	c0, c1, c2, err := quadFit(y)
	if err != nil {
		return err
	}
	for i := range y {
		x := float64(i)
		y[i] -= c0 + c1*x + c2*x*x
	}
	return nil
}
