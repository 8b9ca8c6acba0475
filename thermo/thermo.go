// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package thermo computes the thermodynamic and information-theoretic
quantities of a fitted maximum-entropy model from its natural
parameters (theta), expectation parameters (eta), and log-partition
values (psi): internal energy, entropy, Kullback-Leibler divergence
between the pairwise model and its independent reduction, and
log-likelihood of empirical data.

All functions are pure closed forms vectorized over time bins; inputs
are assumed validated upstream (these are the trivial consumers of the
estimators' outputs, with no failure paths of their own).
*/
package thermo

import (
	"github.com/emer/etable/v2/etensor"
	"gonum.org/v1/gonum/floats"

	"github.com/emer/maxent/indep"
)

// Energy returns the internal energy per time bin:
// U[t] = -sum_d theta[t,d] * eta[t,d].
func Energy(theta, eta *etensor.Float64) []float64 {
	nb := theta.Dim(0)
	nd := theta.Dim(1)
	u := make([]float64, nb)
	for b := 0; b < nb; b++ {
		u[b] = -floats.Dot(theta.Values[b*nd:(b+1)*nd], eta.Values[b*nd:(b+1)*nd])
	}
	return u
}

// Entropy returns the entropy per time bin via the thermodynamic
// identity S = U - F with free energy F = -psi, i.e. S[t] = U[t] +
// psi[t].  Valid for any model order; for order 1 it coincides with
// EntropyIndep up to numerical precision.
func Entropy(u, psi []float64) []float64 {
	s := make([]float64, len(u))
	floats.AddTo(s, u, psi)
	return s
}

// EntropyIndep returns the entropy per time bin of an independent
// (order-1) model directly from its expectation parameters, using the
// closed-form binary entropy summed over units.
func EntropyIndep(eta *etensor.Float64) []float64 {
	nb := eta.Dim(0)
	nd := eta.Dim(1)
	s := make([]float64, nb)
	for b := 0; b < nb; b++ {
		s[b] = indep.Entropy(eta.Values[b*nd : (b+1)*nd])
	}
	return s
}

// DKL returns the Kullback-Leibler divergence per time bin between the
// full pairwise model (theta2, eta2, psi2; bins x D) and its fitted
// independent reduction (theta1: bins x N, psi1).  The full model's
// parameters are projected onto the independent subspace by
// subtracting theta1 from the first n columns (a copy -- inputs are
// not mutated), then D[t] = sum_d eta2[t,d]*dtheta[t,d] -
// (psi2[t]-psi1[t]).  Non-negative by the Gibbs inequality for valid
// fits; negative values indicate an upstream numerical or fitting
// defect and are returned as computed for the caller to flag.
func DKL(theta2, eta2 *etensor.Float64, psi2 []float64, theta1 *etensor.Float64, psi1 []float64, n int) []float64 {
	nb := theta2.Dim(0)
	nd := theta2.Dim(1)
	dkl := make([]float64, nb)
	dth := make([]float64, nd)
	for b := 0; b < nb; b++ {
		copy(dth, theta2.Values[b*nd:(b+1)*nd])
		floats.Sub(dth[:n], theta1.Values[b*n:(b+1)*n])
		dkl[b] = floats.Dot(eta2.Values[b*nd:(b+1)*nd], dth) - (psi2[b] - psi1[b])
	}
	return dkl
}

// LogLik returns the log-likelihood per time bin of the empirical
// sufficient statistics y (bins x D, trial-averaged) under the model:
// llk[t] = r * (sum_d y[t,d]*theta[t,d] - psi[t]), with r the number
// of trials underlying y.
func LogLik(y, theta *etensor.Float64, psi []float64, r int) []float64 {
	nb := theta.Dim(0)
	nd := theta.Dim(1)
	llk := make([]float64, nb)
	for b := 0; b < nb; b++ {
		llk[b] = float64(r) * (floats.Dot(y.Values[b*nd:(b+1)*nd], theta.Values[b*nd:(b+1)*nd]) - psi[b])
	}
	return llk
}
