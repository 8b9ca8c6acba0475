// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exact

import (
	"math"
	"strings"
	"testing"

	"github.com/emer/maxent/indep"
)

// difTol is the numerical difference tolerance for comparing vs. target values
const difTol = 1.0e-10

// bruteForce3 enumerates the 8 states of a 3-unit pairwise model with
// explicit loops, independent of the table-driven implementation.
func bruteForce3(theta []float64) (eta []float64, psi float64) {
	z := 0.0
	eta = make([]float64, 6)
	for x0 := 0; x0 <= 1; x0++ {
		for x1 := 0; x1 <= 1; x1++ {
			for x2 := 0; x2 <= 1; x2++ {
				f := []float64{float64(x0), float64(x1), float64(x2),
					float64(x0 * x1), float64(x0 * x2), float64(x1 * x2)}
				e := 0.0
				for d := range f {
					e += theta[d] * f[d]
				}
				w := math.Exp(e)
				z += w
				for d := range f {
					eta[d] += w * f[d]
				}
			}
		}
	}
	for d := range eta {
		eta[d] /= z
	}
	return eta, math.Log(z)
}

func TestEnumVsBruteForce(t *testing.T) {
	theta := []float64{0.1, 0.2, 0.3, 0.05, -0.05, 0.1}
	is, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	corEta, corPsi := bruteForce3(theta)
	psi := is.Psi(theta)
	dif := math.Abs(psi - corPsi)
	if dif > difTol {
		t.Errorf("psi err: psi: %v, corpsi: %v, dif: %v\n", psi, corPsi, dif)
	}
	eta := is.EtaFromTheta(nil, theta)
	for d := range eta {
		dif = math.Abs(eta[d] - corEta[d])
		if dif > difTol {
			t.Errorf("eta err: idx: %v, eta: %v, coreta: %v, dif: %v\n", d, eta[d], corEta[d], dif)
		}
	}
	p := is.ComputeP(theta)
	sum := 0.0
	for s := 0; s < is.NStates; s++ {
		sum += p.AtVec(s)
	}
	dif = math.Abs(sum - 1)
	if dif > difTol {
		t.Errorf("p not normalized: sum: %v, dif: %v\n", sum, dif)
	}
}

// TestPsiIndepLimit checks that with all pairwise terms zero the
// enumerated log-partition reduces to the closed-form independent one.
func TestPsiIndepLimit(t *testing.T) {
	theta := []float64{-1.5, 0.2, 0.9, 0, 0, 0}
	is, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	psi := is.Psi(theta)
	cor := indep.PsiFromTheta(theta[:3])
	dif := math.Abs(psi - cor)
	if dif > difTol {
		t.Errorf("psi indep limit err: psi: %v, cor: %v, dif: %v\n", psi, cor, dif)
	}
}

func TestConfigErrors(t *testing.T) {
	if _, err := New(3, 3); err == nil {
		t.Errorf("expected error for order 3\n")
	}
	if _, err := New(MaxUnits+1, 2); err == nil {
		t.Errorf("expected error for n > MaxUnits\n")
	}
	if _, err := New(0, 2); err == nil {
		t.Errorf("expected error for n = 0\n")
	}
}

func TestMemReport(t *testing.T) {
	is, err := New(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	rep := is.MemReport()
	if !strings.Contains(rep, "States: 8") {
		t.Errorf("mem report missing state count: %v\n", rep)
	}
}
