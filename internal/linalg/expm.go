// Package linalg computes the matrix exponential used as the one-step
// propagator of a linear SDE.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"github.com/op/go-logging"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dimersim/internal/dynamo"
)

var log = logging.MustGetLogger("linalg")

// MaxCondition is the largest eigenvector condition number for which the
// eigendecomposition is trusted.
const MaxCondition = 1e8

// Identity returns the n×n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Expm returns e^M. The eigendecomposition U exp(Λ) U^-1 is tried first;
// when M is defective, has complex eigenvalues or an ill-conditioned
// eigenbasis, the Padé scaling-and-squaring exponential is used instead.
func Expm(m mat.Matrix) (*mat.Dense, error) {
	e, err := ExpmEigen(m)
	if err == nil {
		return e, nil
	}
	if !errors.Is(err, dynamo.ErrSingularSystem) {
		return nil, err
	}

	log.Warningf("eigendecomposition unusable (%v), falling back to Padé approximation", err)
	e, err = ExpmPade(m)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ExpmEigen computes e^M through the eigendecomposition of M only. It
// reports ErrSingularSystem instead of returning an inaccurate result.
func ExpmEigen(m mat.Matrix) (*mat.Dense, error) {
	n, err := square(m)
	if err != nil {
		return nil, err
	}
	if isZero(m) {
		return Identity(n), nil
	}

	if sym, ok := asSymmetric(m); ok {
		return expmSym(sym)
	}

	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenRight) {
		return nil, fmt.Errorf("%w: eigendecomposition did not converge", dynamo.ErrSingularSystem)
	}

	values := eig.Values(nil)
	for _, v := range values {
		if imag(v) != 0 {
			return nil, fmt.Errorf("%w: complex eigenvalue %v", dynamo.ErrSingularSystem, v)
		}
	}

	var cv mat.CDense
	eig.VectorsTo(&cv)
	u := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			u.Set(i, j, real(cv.At(i, j)))
		}
	}

	if c := mat.Cond(u, 2); c > MaxCondition || math.IsNaN(c) {
		return nil, fmt.Errorf("%w: eigenvector condition number %.3g", dynamo.ErrSingularSystem, c)
	}

	var uinv mat.Dense
	if err := uinv.Inverse(u); err != nil {
		return nil, fmt.Errorf("%w: eigenvectors not invertible: %v", dynamo.ErrSingularSystem, err)
	}

	d := make([]float64, n)
	for i, v := range values {
		d[i] = math.Exp(real(v))
	}

	var ud, e mat.Dense
	ud.Mul(u, mat.NewDiagDense(n, d))
	e.Mul(&ud, &uinv)
	return checkFinite(&e)
}

// ExpmPade computes e^M with gonum's Padé approximant.
func ExpmPade(m mat.Matrix) (*mat.Dense, error) {
	n, err := square(m)
	if err != nil {
		return nil, err
	}
	if isZero(m) {
		return Identity(n), nil
	}
	var e mat.Dense
	e.Exp(m)
	return checkFinite(&e)
}

func expmSym(s *mat.SymDense) (*mat.Dense, error) {
	var es mat.EigenSym
	if !es.Factorize(s, true) {
		return nil, fmt.Errorf("%w: symmetric eigendecomposition did not converge", dynamo.ErrSingularSystem)
	}
	n := s.SymmetricDim()
	values := es.Values(nil)
	var u mat.Dense
	es.VectorsTo(&u)

	d := make([]float64, n)
	for i, v := range values {
		d[i] = math.Exp(v)
	}

	// U is orthogonal, so U^-1 = U^T.
	var ud, e mat.Dense
	ud.Mul(&u, mat.NewDiagDense(n, d))
	e.Mul(&ud, u.T())
	return checkFinite(&e)
}

func square(m mat.Matrix) (int, error) {
	r, c := m.Dims()
	if r != c {
		return 0, fmt.Errorf("%w: matrix exponential of %dx%d matrix", dynamo.ErrDimensionMismatch, r, c)
	}
	return r, nil
}

func isZero(m mat.Matrix) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

func asSymmetric(m mat.Matrix) (*mat.SymDense, bool) {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.At(i, j) != m.At(j, i) {
				return nil, false
			}
		}
	}
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}
	return s, true
}

func checkFinite(e *mat.Dense) (*mat.Dense, error) {
	r, c := e.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := e.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: exponential has non-finite entry at (%d,%d)", dynamo.ErrSingularSystem, i, j)
			}
		}
	}
	return e, nil
}
