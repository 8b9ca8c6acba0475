// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package estimate computes expectation parameters (eta) and the
log-partition function (psi) for every time bin of a fitted
maximum-entropy model, dispatching on model order and network size:

  - order 1: closed-form independent-model analytics (indep)
  - order 2, N <= exact.MaxUnits: full state-space enumeration (exact)
  - order 2, larger N: TAP mean-field forward solve for eta, and
    Ogata-Tanemura path integration for psi (meanfield, otpath)

Mean-field convergence failures are never fatal: bins whose forward
solve fails are re-estimated by Gibbs sampling (sampler) and their
indices are reported as the sampled-bin set, a diagnostic audit trail.
Time bins are independent, so both estimators fan the per-bin work out
across worker goroutines with disjoint writes into the output tensor.
*/
package estimate

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/emer/etable/v2/etensor"
	"github.com/goki/ki/kit"

	"github.com/emer/maxent/exact"
	"github.com/emer/maxent/indep"
	"github.com/emer/maxent/meanfield"
	"github.com/emer/maxent/otpath"
	"github.com/emer/maxent/sampler"
)

// Method is the estimation method used for a time bin.
type Method int

//go:generate stringer -type=Method

var KiT_Method = kit.Enums.AddEnum(MethodN, kit.NotBitFlag, nil)

func (ev Method) MarshalJSON() ([]byte, error)  { return kit.EnumMarshalJSON(ev) }
func (ev *Method) UnmarshalJSON(b []byte) error { return kit.EnumUnmarshalJSON(ev, b) }

// The estimation methods
const (
	// Indep is the closed-form independent (order-1) model solution
	Indep Method = iota

	// Exact is full enumeration of the 2^N state space (N <= exact.MaxUnits)
	Exact

	// MeanField is the TAP fixed-point approximation, with path
	// integration for psi
	MeanField

	// Sampling is the Gibbs-sampling fallback substituted for bins where
	// the mean-field solve fails
	Sampling

	MethodN
)

// Params configure the eta / psi estimators for one model.
type Params struct {
	N        int              `min:"1" desc:"number of units in the network"`
	Order    int              `def:"2" desc:"interaction order of the model: 1 = independent, 2 = pairwise -- other orders are rejected by Validate"`
	NThreads int              `def:"0" desc:"number of worker goroutines for the per-bin loop -- 0 = GOMAXPROCS"`
	MF       meanfield.Params `view:"inline" desc:"mean-field forward solver for the large-network eta branch"`
	Path     otpath.Params    `view:"inline" desc:"partition-path integrator for the large-network psi branch"`
	Smp      sampler.Params   `view:"inline" desc:"Gibbs sampling fallback for non-converged bins"`
}

func (pr *Params) Update() {
	pr.MF.Update()
	pr.Path.Update()
	pr.Smp.Update()
}

func (pr *Params) Defaults() {
	pr.Order = 2
	pr.MF.Defaults()
	pr.Path.Defaults()
	pr.Smp.Defaults()
	pr.Update()
}

// NumFeatures returns the expected number of theta / eta columns D for
// the configured (N, Order).
func (pr *Params) NumFeatures() int {
	return exact.NumFeatures(pr.N, pr.Order)
}

// Method returns the primary estimation method selected by the
// configured order and network size (Sampling only ever occurs as a
// per-bin fallback, never as the primary method).
func (pr *Params) Method() Method {
	switch {
	case pr.Order == 1:
		return Indep
	case pr.N <= exact.MaxUnits:
		return Exact
	default:
		return MeanField
	}
}

// Validate checks the configuration against the shape of the given
// natural parameter tensor (bins x D).  It must pass before any
// computation is attempted -- unsupported orders and shape mismatches
// are configuration errors, not recoverable numerical conditions.
func (pr *Params) Validate(theta *etensor.Float64) error {
	if pr.Order != 1 && pr.Order != 2 {
		return fmt.Errorf("estimate: unsupported model order: %d -- must be 1 or 2", pr.Order)
	}
	if pr.N < 1 {
		return fmt.Errorf("estimate: invalid unit count N = %d", pr.N)
	}
	if theta.NumDims() != 2 {
		return fmt.Errorf("estimate: theta must be 2D (bins x stats), got %d dims", theta.NumDims())
	}
	if nd := theta.Dim(1); nd != pr.NumFeatures() {
		return fmt.Errorf("estimate: theta has %d columns, want %d for N = %d, order %d", nd, pr.NumFeatures(), pr.N, pr.Order)
	}
	return nil
}

// runBins runs fn for every bin index in [0, nb) across NThreads
// worker goroutines.  Writes from different bins must be disjoint.
func (pr *Params) runBins(nb int, fn func(b int)) {
	nth := pr.NThreads
	if nth <= 0 {
		nth = runtime.GOMAXPROCS(0)
	}
	if nth > nb {
		nth = nb
	}
	if nth <= 1 {
		for b := 0; b < nb; b++ {
			fn(b)
		}
		return
	}
	var wg sync.WaitGroup
	for th := 0; th < nth; th++ {
		wg.Add(1)
		go func(th int) {
			defer wg.Done()
			for b := th; b < nb; b += nth {
				fn(b)
			}
		}(th)
	}
	wg.Wait()
}

// Eta estimates the expectation parameters for every time bin of
// theta (bins x D).  Returns a tensor of the same shape, plus the
// sorted indices of bins that required the Gibbs-sampling fallback
// (always empty for the Indep and Exact branches).
func (pr *Params) Eta(theta *etensor.Float64) (*etensor.Float64, []int, error) {
	if err := pr.Validate(theta); err != nil {
		return nil, nil, err
	}
	nb := theta.Dim(0)
	nd := theta.Dim(1)
	eta := etensor.NewFloat64([]int{nb, nd}, nil, []string{"Bin", "Stat"})

	switch pr.Method() {
	case Indep:
		pr.runBins(nb, func(b int) {
			row := theta.Values[b*nd : (b+1)*nd]
			indep.EtaFromTheta(eta.Values[b*nd:(b+1)*nd], row[:pr.N])
		})
		return eta, nil, nil

	case Exact:
		is, err := exact.New(pr.N, pr.Order)
		if err != nil {
			return nil, nil, err
		}
		pr.runBins(nb, func(b int) {
			is.EtaFromTheta(eta.Values[b*nd:(b+1)*nd], theta.Values[b*nd:(b+1)*nd])
		})
		return eta, nil, nil
	}

	// mean-field branch with sampling fallback
	failed := make([]bool, nb)
	pr.runBins(nb, func(b int) {
		row, err := pr.MF.Solve(theta.Values[b*nd:(b+1)*nd], pr.N)
		if err != nil {
			failed[b] = true
			return
		}
		copy(eta.Values[b*nd:(b+1)*nd], row)
	})

	var sampled []int
	for b := 0; b < nb; b++ {
		if failed[b] {
			sampled = append(sampled, b)
		}
	}
	if len(sampled) == 0 {
		return eta, nil, nil
	}

	sub := etensor.NewFloat64([]int{len(sampled), nd}, nil, []string{"Bin", "Stat"})
	for i, b := range sampled {
		copy(sub.Values[i*nd:(i+1)*nd], theta.Values[b*nd:(b+1)*nd])
	}
	spikes := pr.Smp.GenerateSpikes(sub, pr.N, pr.Order)
	y := sampler.ComputeY(spikes, pr.Order)
	eps := 1 / (2 * float64(pr.Smp.Trials))
	for i, b := range sampled {
		row := eta.Values[b*nd : (b+1)*nd]
		copy(row, y.Values[i*nd:(i+1)*nd])
		clampRow(row, eps)
	}
	return eta, sampled, nil
}

// Psi estimates the log-partition value for every time bin of theta
// (bins x D).  Returns one value per bin, plus the sorted indices of
// bins the mean-field solver found difficult (non-converged somewhere
// on the integration path) -- reported for diagnostic parity with Eta,
// though this branch substitutes no sampling itself.
func (pr *Params) Psi(theta *etensor.Float64) ([]float64, []int, error) {
	if err := pr.Validate(theta); err != nil {
		return nil, nil, err
	}
	nb := theta.Dim(0)
	nd := theta.Dim(1)
	psi := make([]float64, nb)

	switch pr.Method() {
	case Indep:
		pr.runBins(nb, func(b int) {
			psi[b] = indep.PsiFromTheta(theta.Values[b*nd : b*nd+pr.N])
		})
		return psi, nil, nil

	case Exact:
		is, err := exact.New(pr.N, pr.Order)
		if err != nil {
			return nil, nil, err
		}
		pr.runBins(nb, func(b int) {
			psi[b] = is.Psi(theta.Values[b*nd : (b+1)*nd])
		})
		return psi, nil, nil
	}

	// path integration from the independent-model reference point,
	// whose log-partition is closed-form (pairwise columns zeroed)
	difficult := make([]bool, nb)
	pr.runBins(nb, func(b int) {
		row := theta.Values[b*nd : (b+1)*nd]
		th0 := make([]float64, nd)
		copy(th0[:pr.N], row[:pr.N])
		psi0 := indep.PsiFromTheta(row[:pr.N])
		psi[b], difficult[b] = pr.Path.Estimate(th0, psi0, row, pr.N)
	})
	var sampled []int
	for b := 0; b < nb; b++ {
		if difficult[b] {
			sampled = append(sampled, b)
		}
	}
	return psi, sampled, nil
}

// clampRow clamps every value into [eps, 1-eps], keeping empirical
// expectation estimates strictly inside the open unit interval so the
// downstream logit inversion stays finite.
func clampRow(row []float64, eps float64) {
	for i, v := range row {
		if v < eps {
			row[i] = eps
		} else if v > 1-eps {
			row[i] = 1 - eps
		}
	}
}
