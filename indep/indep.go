// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package indep provides the closed-form analytics for the independent
(first-order) maximum-entropy model of binary spiking units.

Under the independent model each unit spikes with probability given by
the logistic sigmoid of its natural parameter, so the expectation
parameters (eta), natural parameters (theta), log-partition function
(psi), and entropy all have exact closed forms, vectorized here over
units.  These functions are the order-1 branch of the Eta / Psi
estimators and also supply the reference point for the path-integration
estimate of the log-partition function of larger pairwise models.
*/
package indep

import "math"

// Sigmoid is the logistic sigmoid 1 / (1 + exp(-x)), the single-unit
// spike probability at natural parameter x.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Logit is the inverse sigmoid log(p / (1-p)).  p must be strictly
// inside (0,1) -- at exactly 0 or 1 the result is -+Inf.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Log1pExp computes log(1 + exp(x)) without overflow for large
// positive x, using log(1+exp(x)) = x + log(1+exp(-x)) when x > 0.
func Log1pExp(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// EtaFromTheta fills dst with the expectation parameters (spike
// probabilities) for the given natural parameters, elementwise
// sigmoid.  If dst is nil a new slice is allocated.  Returns dst.
func EtaFromTheta(dst, theta []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(theta))
	}
	for i, th := range theta {
		dst[i] = Sigmoid(th)
	}
	return dst
}

// ThetaFromEta fills dst with the natural parameters recovering the
// given expectation parameters, elementwise logit.  Every eta value
// must be strictly inside (0,1) -- callers are responsible for
// clamping empirical estimates away from the boundary.  If dst is nil
// a new slice is allocated.  Returns dst.
func ThetaFromEta(dst, eta []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(eta))
	}
	for i, et := range eta {
		dst[i] = Logit(et)
	}
	return dst
}

// PsiFromTheta returns the log-partition function of the independent
// model: the sum over units of log(1 + exp(theta_i)), computed in
// overflow-safe form.
func PsiFromTheta(theta []float64) float64 {
	psi := 0.0
	for _, th := range theta {
		psi += Log1pExp(th)
	}
	return psi
}

// Entropy returns the entropy (nats) of the independent model at the
// given expectation parameters: the sum over units of the binary
// entropy -p*log(p) - (1-p)*log(1-p).  Boundary values 0 and 1
// contribute zero entropy.
func Entropy(eta []float64) float64 {
	s := 0.0
	for _, p := range eta {
		if p > 0 && p < 1 {
			s -= p*math.Log(p) + (1-p)*math.Log(1-p)
		}
	}
	return s
}
