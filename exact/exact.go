// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package exact computes the joint distribution, expectation parameters,
and log-partition function of small pairwise maximum-entropy models by
full enumeration of the 2^N binary state space.

Enumeration is exact but combinatorially explosive, so construction is
limited to networks of at most MaxUnits units -- above that the Eta /
Psi estimators switch to mean-field and path-integration approximations.
The state and feature tables are built once per (N, order) configuration
by New and reused across time bins.
*/
package exact

import (
	"fmt"
	"math"

	"github.com/c2h5oh/datasize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxUnits is the largest network size for which full enumeration is
// permitted: 2^15 = 32768 states.
const MaxUnits = 15

// NumFeatures returns the number of sufficient statistics D for a
// model of n units at the given interaction order: n for order 1,
// n + n*(n-1)/2 for order 2.
func NumFeatures(n, order int) int {
	if order == 1 {
		return n
	}
	return n + n*(n-1)/2
}

// Ising enumerates the full state space of an n-unit binary pairwise
// maximum-entropy model.  Construct with New; all methods are safe for
// concurrent use after construction (the tables are read-only).
type Ising struct {

	// number of units
	N int

	// interaction order: 1 (independent) or 2 (pairwise)
	Order int

	// number of sufficient statistics = NumFeatures(N, Order)
	D int

	// number of enumerated states = 2^N
	NStates int

	// feature table: NStates x D values of the sufficient statistics
	// f(x) for every binary state x, flat row-major
	Feats []float64
}

// New builds the enumeration tables for an n-unit model of the given
// interaction order.  Returns an error for unsupported orders or for
// n > MaxUnits, before any allocation is done.
func New(n, order int) (*Ising, error) {
	if order != 1 && order != 2 {
		return nil, fmt.Errorf("exact.New: unsupported model order: %d -- must be 1 or 2", order)
	}
	if n < 1 || n > MaxUnits {
		return nil, fmt.Errorf("exact.New: n = %d out of range [1, %d] for full enumeration", n, MaxUnits)
	}
	is := &Ising{N: n, Order: order, D: NumFeatures(n, order), NStates: 1 << uint(n)}
	is.Feats = make([]float64, is.NStates*is.D)
	for s := 0; s < is.NStates; s++ {
		row := is.Feats[s*is.D : (s+1)*is.D]
		for i := 0; i < n; i++ {
			if s&(1<<uint(i)) != 0 {
				row[i] = 1
			}
		}
		if order == 2 {
			d := n
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					row[d] = row[i] * row[j]
					d++
				}
			}
		}
	}
	return is, nil
}

// Psi returns the exact log-partition function log sum_x exp(theta .
// f(x)) for the given natural parameter row (length D), computed with
// a max-shift so large parameters do not overflow.
func (is *Ising) Psi(theta []float64) float64 {
	mx := math.Inf(-1)
	for s := 0; s < is.NStates; s++ {
		e := floats.Dot(theta, is.Feats[s*is.D:(s+1)*is.D])
		if e > mx {
			mx = e
		}
	}
	sum := 0.0
	for s := 0; s < is.NStates; s++ {
		sum += math.Exp(floats.Dot(theta, is.Feats[s*is.D:(s+1)*is.D]) - mx)
	}
	return mx + math.Log(sum)
}

// ComputeP returns the exact joint distribution over all NStates
// binary states at the given natural parameter row (length D).
func (is *Ising) ComputeP(theta []float64) *mat.VecDense {
	psi := is.Psi(theta)
	p := mat.NewVecDense(is.NStates, nil)
	for s := 0; s < is.NStates; s++ {
		p.SetVec(s, math.Exp(floats.Dot(theta, is.Feats[s*is.D:(s+1)*is.D])-psi))
	}
	return p
}

// Eta fills dst with the exact expectation parameters E[f(x)] under
// the given joint distribution (as returned by ComputeP).  If dst is
// nil a new slice of length D is allocated.  Returns dst.
func (is *Ising) Eta(dst []float64, p *mat.VecDense) []float64 {
	if dst == nil {
		dst = make([]float64, is.D)
	} else {
		for d := range dst {
			dst[d] = 0
		}
	}
	for s := 0; s < is.NStates; s++ {
		floats.AddScaled(dst, p.AtVec(s), is.Feats[s*is.D:(s+1)*is.D])
	}
	return dst
}

// EtaFromTheta is a convenience combining ComputeP and Eta for one
// natural parameter row.
func (is *Ising) EtaFromTheta(dst, theta []float64) []float64 {
	return is.Eta(dst, is.ComputeP(theta))
}

// MemReport returns a human-readable summary of the memory held by the
// enumeration tables.
func (is *Ising) MemReport() string {
	fmem := uintptr(len(is.Feats)) * 8
	return fmt.Sprintf("exact: N: %d \t Order: %d \t States: %d \t FeatMem: %v",
		is.N, is.Order, is.NStates, (datasize.ByteSize)(fmem).HumanReadable())
}
