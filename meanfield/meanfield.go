// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package meanfield solves the forward problem of the pairwise
maximum-entropy model approximately: given natural parameters theta it
estimates the expectation parameters eta by damped fixed-point
iteration of the mean-field self-consistency equations, either naive
(first order) or with the second-order TAP (Onsager reaction) term.

The iteration count is bounded: when the fixed point is not reached
within MaxIters the solver returns ErrNotConverged along with its last
iterate, so callers can either accept the approximate value (as the
path integrator does) or switch to a sampling-based estimate (as the
eta estimator does).  It never hangs and never panics on bad input --
a numerically singular theta row (NaN field values) is reported as an
error the same way.
*/
package meanfield

import (
	"errors"
	"fmt"
	"math"

	"github.com/emer/maxent/indep"
)

// ErrNotConverged is returned when the fixed-point iteration does not
// reach tolerance within MaxIters sweeps.  The accompanying eta value
// is the last (approximate) iterate, not nil.
var ErrNotConverged = errors.New("meanfield: fixed point not converged within MaxIters")

// Params are the fixed-point iteration parameters.
type Params struct {
	MaxIters int     `def:"100" min:"1" desc:"hard bound on fixed-point sweeps -- exceeding it is reported as ErrNotConverged rather than hanging"`
	Tol      float64 `def:"1e-9" min:"0" desc:"convergence tolerance on the max absolute change of any unit mean between sweeps"`
	Damp     float64 `def:"0.5" min:"0" max:"1" desc:"update damping: fraction of the newly computed mean mixed into the running value each sweep -- prevents oscillation at strong couplings"`
}

func (mf *Params) Update() {
}

func (mf *Params) Defaults() {
	mf.MaxIters = 100
	mf.Tol = 1e-9
	mf.Damp = 0.5
	mf.Update()
}

// Couplings unpacks a natural parameter row (length n + n*(n-1)/2)
// into the bias vector h (length n) and the symmetric coupling matrix
// j (n x n, flat row-major, zero diagonal).
func Couplings(theta []float64, n int) (h, j []float64) {
	h = theta[:n:n]
	j = make([]float64, n*n)
	d := n
	for a := 0; a < n-1; a++ {
		for b := a + 1; b < n; b++ {
			j[a*n+b] = theta[d]
			j[b*n+a] = theta[d]
			d++
		}
	}
	return
}

// Magnetizations runs the damped fixed-point iteration for the unit
// means m (length n) of the pairwise model given by theta.  With tap
// true the second-order TAP reaction term is included in the local
// field.  Always returns the last iterate; the error is ErrNotConverged
// when the tolerance was not reached, or a singularity error when the
// field went NaN.
func (mf *Params) Magnetizations(theta []float64, n int, tap bool) ([]float64, error) {
	h, j := Couplings(theta, n)
	m := indep.EtaFromTheta(nil, h) // independent-model start point
	for itr := 0; itr < mf.MaxIters; itr++ {
		dif := 0.0
		for a := 0; a < n; a++ {
			fld := h[a]
			for b := 0; b < n; b++ {
				fld += j[a*n+b] * m[b]
			}
			if tap {
				rea := 0.0
				for b := 0; b < n; b++ {
					jab := j[a*n+b]
					rea += jab * jab * m[b] * (1 - m[b])
				}
				fld -= (m[a] - 0.5) * rea
			}
			nw := indep.Sigmoid(fld)
			if math.IsNaN(nw) {
				return m, fmt.Errorf("meanfield: numerical singularity at unit %d, iteration %d", a, itr)
			}
			d := math.Abs(nw - m[a])
			if d > dif {
				dif = d
			}
			m[a] += mf.Damp * (nw - m[a])
		}
		if dif < mf.Tol {
			return m, nil
		}
	}
	return m, ErrNotConverged
}

// expand turns unit means into a full expectation parameter row of
// length n + n*(n-1)/2, using the mean-field factorization
// eta_ab = m_a * m_b for the pairwise entries.
func expand(m []float64, n int) []float64 {
	eta := make([]float64, n+n*(n-1)/2)
	copy(eta, m)
	d := n
	for a := 0; a < n-1; a++ {
		for b := a + 1; b < n; b++ {
			eta[d] = m[a] * m[b]
			d++
		}
	}
	return eta
}

// Solve estimates the full expectation parameter row (length D) for
// one natural parameter row using the naive mean-field equations.
// On ErrNotConverged the returned eta is the last approximate iterate.
func (mf *Params) Solve(theta []float64, n int) ([]float64, error) {
	m, err := mf.Magnetizations(theta, n, false)
	return expand(m, n), err
}

// SolveHessian estimates the full expectation parameter row using the
// TAP equations with the second-order reaction term, the variant the
// partition-path integrator consumes.  Same contract as Solve.
func (mf *Params) SolveHessian(theta []float64, n int) ([]float64, error) {
	m, err := mf.Magnetizations(theta, n, true)
	return expand(m, n), err
}
