// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package otpath estimates the log-partition function of a pairwise
maximum-entropy model by path integration (the Ogata-Tanemura
estimator): starting from a reference parameter vector with a known
log-partition value, it integrates the expected rate of change of the
energy along the straight line to the target vector, using mean-field
TAP estimates of the expectation parameters at each point on the path.

The default quadrature reproduces the reference estimator exactly:
interior points weighted 1/K and the two endpoints 1/K^2.  This is not
a standard trapezoidal rule (endpoints would be 1/(2(K-1))); set
Trapezoid to use the standard rule instead when compatibility with
reference outputs is not required.
*/
package otpath

import (
	"gonum.org/v1/gonum/floats"

	"github.com/emer/maxent/meanfield"
)

// Params configure the path integration.
type Params struct {
	K         int             `def:"1000" min:"2" desc:"number of equally spaced points on the integration path, inclusive of both endpoints"`
	Trapezoid bool            `desc:"use standard trapezoidal quadrature weights instead of the reference estimator's 1/K interior, 1/K^2 endpoint weighting"`
	MF        meanfield.Params `view:"inline" desc:"mean-field solver evaluating expectation parameters along the path"`
}

func (pp *Params) Update() {
	pp.MF.Update()
}

func (pp *Params) Defaults() {
	pp.K = 1000
	pp.Trapezoid = false
	pp.MF.Defaults()
	pp.Update()
}

// weight returns the quadrature weight for path point k of pp.K.
func (pp *Params) weight(k int) float64 {
	kk := float64(pp.K)
	end := k == 0 || k == pp.K-1
	if pp.Trapezoid {
		if end {
			return 1 / (2 * (kk - 1))
		}
		return 1 / (kk - 1)
	}
	if end {
		return 1 / (kk * kk)
	}
	return 1 / kk
}

// Estimate returns the estimated log-partition value at target
// parameters th1, given reference parameters th0 (same length) with
// known log-partition psi0.  The returned flag is true when the
// mean-field solver failed to converge anywhere along the path, in
// which case the estimate used the solver's approximate iterates --
// the estimate is still returned (possibly degraded), never aborted.
// A zero-length path (th0 == th1) returns psi0 exactly.
func (pp *Params) Estimate(th0 []float64, psi0 float64, th1 []float64, n int) (float64, bool) {
	dth := make([]float64, len(th1))
	floats.SubTo(dth, th1, th0)
	if floats.Norm(dth, 1) == 0 {
		return psi0, false
	}
	thk := make([]float64, len(th1))
	difficult := false
	psi := psi0
	for k := 0; k < pp.K; k++ {
		s := float64(k) / float64(pp.K-1)
		floats.AddScaledTo(thk, th0, s, dth)
		eta, err := pp.MF.SolveHessian(thk, n)
		if err != nil {
			difficult = true
		}
		du := floats.Dot(dth, eta)
		psi += pp.weight(k) * du
	}
	return psi, difficult
}
