// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package thermo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/emer/etable/v2/etensor"

	"github.com/emer/maxent/exact"
	"github.com/emer/maxent/indep"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-8

func TestEnergyEntropy(t *testing.T) {
	theta := etensor.NewFloat64([]int{1, 3}, nil, []string{"Bin", "Stat"})
	eta := etensor.NewFloat64([]int{1, 3}, nil, []string{"Bin", "Stat"})
	copy(theta.Values, []float64{-1, 0.5, 2})
	indep.EtaFromTheta(eta.Values, theta.Values)

	u := Energy(theta, eta)
	cor := 0.0
	for i := range theta.Values {
		cor -= theta.Values[i] * eta.Values[i]
	}
	if dif := math.Abs(u[0] - cor); dif > difTol {
		t.Errorf("energy err: u: %v, cor: %v, dif: %v\n", u[0], cor, dif)
	}

	psi := []float64{indep.PsiFromTheta(theta.Values)}
	s := Entropy(u, psi)
	s1 := EntropyIndep(eta)
	if dif := math.Abs(s[0] - s1[0]); dif > difTol {
		t.Errorf("entropy identity err: U-F: %v, closed: %v, dif: %v\n", s[0], s1[0], dif)
	}
}

func TestLogLik(t *testing.T) {
	theta := etensor.NewFloat64([]int{1, 2}, nil, []string{"Bin", "Stat"})
	y := etensor.NewFloat64([]int{1, 2}, nil, []string{"Bin", "Stat"})
	copy(theta.Values, []float64{0.5, -0.25})
	copy(y.Values, []float64{0.4, 0.1})
	psi := []float64{0.9}
	llk := LogLik(y, theta, psi, 100)
	cor := 100 * (0.4*0.5 - 0.1*0.25 - 0.9)
	if dif := math.Abs(llk[0] - cor); dif > difTol {
		t.Errorf("llk err: llk: %v, cor: %v, dif: %v\n", llk[0], cor, dif)
	}
}

// TestDKLNonNegative cross-checks the closed-form divergence against
// direct enumeration sum p2*log(p2/p1) on random small networks, and
// asserts the Gibbs inequality.
func TestDKLNonNegative(t *testing.T) {
	n := 6
	rng := rand.New(rand.NewSource(61))
	is2, err := exact.New(n, 2)
	if err != nil {
		t.Fatal(err)
	}
	is1, err := exact.New(n, 1)
	if err != nil {
		t.Fatal(err)
	}
	nd := exact.NumFeatures(n, 2)

	for run := 0; run < 20; run++ {
		theta2 := etensor.NewFloat64([]int{1, nd}, nil, []string{"Bin", "Stat"})
		for i := 0; i < n; i++ {
			theta2.Values[i] = 2*rng.Float64() - 1
		}
		for d := n; d < nd; d++ {
			theta2.Values[d] = 0.6 * (2*rng.Float64() - 1)
		}
		eta2 := etensor.NewFloat64([]int{1, nd}, nil, []string{"Bin", "Stat"})
		is2.EtaFromTheta(eta2.Values, theta2.Values)
		psi2 := []float64{is2.Psi(theta2.Values)}

		// independent reduction fitted to the same unit marginals
		theta1 := etensor.NewFloat64([]int{1, n}, nil, []string{"Bin", "Unit"})
		indep.ThetaFromEta(theta1.Values, eta2.Values[:n])
		psi1 := []float64{indep.PsiFromTheta(theta1.Values)}

		dkl := DKL(theta2, eta2, psi2, theta1, psi1, n)
		if dkl[0] < -1.0e-9 {
			t.Errorf("negative divergence: run: %v, dkl: %v\n", run, dkl[0])
		}

		// brute-force cross-check
		p2 := is2.ComputeP(theta2.Values)
		p1 := is1.ComputeP(theta1.Values)
		cor := 0.0
		for s := 0; s < is2.NStates; s++ {
			cor += p2.AtVec(s) * math.Log(p2.AtVec(s)/p1.AtVec(s))
		}
		if dif := math.Abs(dkl[0] - cor); dif > difTol {
			t.Errorf("dkl err: run: %v, dkl: %v, cor: %v, dif: %v\n", run, dkl[0], cor, dif)
		}
	}
}
