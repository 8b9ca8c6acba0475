// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sampler generates synthetic spike trains from a pairwise
maximum-entropy model by Gibbs sampling, and estimates empirical
expectation parameters (sufficient statistics) from the generated
trains.

Each sampling trial is an independent Markov chain with its own random
source, run concurrently across goroutines -- chains share nothing and
write to disjoint slices of the output tensor.  This is the fallback
estimator used when the mean-field forward solve fails to converge for
a time bin: statistical quality is governed purely by the number of
trials and mixing sweeps, there is no convergence failure mode.
*/
package sampler

import (
	"math/rand"
	"sync"

	"github.com/emer/etable/v2/etensor"
	"gonum.org/v1/gonum/stat"

	"github.com/emer/maxent/exact"
	"github.com/emer/maxent/indep"
	"github.com/emer/maxent/meanfield"
)

// Params configure spike generation.
type Params struct {
	Trials int   `def:"1000" min:"1" desc:"number of independent sampling trials (Markov chains) -- also the trial count R assumed for empirical statistics"`
	Mixing int   `def:"100" min:"0" desc:"burn-in Gibbs sweeps per chain before the state is recorded"`
	Seed   int64 `desc:"base random seed -- chain tr uses Seed + tr, so runs with the same seed reproduce exactly"`
}

func (sp *Params) Update() {
}

func (sp *Params) Defaults() {
	sp.Trials = 1000
	sp.Mixing = 100
	sp.Update()
}

// gibbs runs one chain for one natural parameter row: random initial
// state, Mixing full sweeps of single-unit conditional updates, final
// state written into spk (length n, 0/1 values).
func (sp *Params) gibbs(rng *rand.Rand, h, j []float64, n int, spk []float64) {
	for i := 0; i < n; i++ {
		if rng.Float64() < 0.5 {
			spk[i] = 1
		} else {
			spk[i] = 0
		}
	}
	for sw := 0; sw < sp.Mixing; sw++ {
		for i := 0; i < n; i++ {
			fld := h[i]
			for b := 0; b < n; b++ {
				fld += j[i*n+b] * spk[b]
			}
			if rng.Float64() < indep.Sigmoid(fld) {
				spk[i] = 1
			} else {
				spk[i] = 0
			}
		}
	}
}

// GenerateSpikes samples synthetic spike trains for every time bin in
// theta (bins x D natural parameters, D per exact.NumFeatures(n,
// order)).  Returns a Trials x bins x n tensor of 0/1 spike states,
// one recorded state per (trial, bin).  Trials run as independent
// concurrent chains.
func (sp *Params) GenerateSpikes(theta *etensor.Float64, n, order int) *etensor.Float64 {
	nb := theta.Dim(0)
	nd := theta.Dim(1)
	spikes := etensor.NewFloat64([]int{sp.Trials, nb, n}, nil, []string{"Trial", "Bin", "Unit"})

	// unpack couplings once per bin, shared read-only across chains
	hs := make([][]float64, nb)
	js := make([][]float64, nb)
	for b := 0; b < nb; b++ {
		row := theta.Values[b*nd : (b+1)*nd]
		if order == 1 {
			hs[b] = row[:n]
			js[b] = make([]float64, n*n)
		} else {
			hs[b], js[b] = meanfield.Couplings(row, n)
		}
	}

	var wg sync.WaitGroup
	for tr := 0; tr < sp.Trials; tr++ {
		wg.Add(1)
		go func(tr int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(sp.Seed + int64(tr)))
			for b := 0; b < nb; b++ {
				off := (tr*nb + b) * n
				sp.gibbs(rng, hs[b], js[b], n, spikes.Values[off:off+n])
			}
		}(tr)
	}
	wg.Wait()
	return spikes
}

// ComputeY estimates the empirical expectation parameters from spike
// trains (Trials x bins x n, as returned by GenerateSpikes): for each
// bin, the mean across trials of every sufficient statistic at the
// given interaction order.  Returns a bins x D tensor.
func ComputeY(spikes *etensor.Float64, order int) *etensor.Float64 {
	nt := spikes.Dim(0)
	nb := spikes.Dim(1)
	n := spikes.Dim(2)
	nd := exact.NumFeatures(n, order)
	y := etensor.NewFloat64([]int{nb, nd}, nil, []string{"Bin", "Stat"})
	vals := make([]float64, nt)
	for b := 0; b < nb; b++ {
		yrow := y.Values[b*nd : (b+1)*nd]
		d := 0
		for i := 0; i < n; i++ {
			for tr := 0; tr < nt; tr++ {
				vals[tr] = spikes.Values[(tr*nb+b)*n+i]
			}
			yrow[d] = stat.Mean(vals, nil)
			d++
		}
		if order == 2 {
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					for tr := 0; tr < nt; tr++ {
						off := (tr*nb + b) * n
						vals[tr] = spikes.Values[off+i] * spikes.Values[off+j]
					}
					yrow[d] = stat.Mean(vals, nil)
					d++
				}
			}
		}
	}
	return y
}
