// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package maxent is the overall repository for per-time-bin
statistical-mechanics analysis of pairwise maximum-entropy (Ising-like)
models fitted to neural spike-correlation data: given fitted natural
parameters it computes expectation parameters, the log-partition
function, internal energy, entropy, Kullback-Leibler divergence between
the fitted model and its independent reduction, and log-likelihood.

This top-level of the repository has no functional code -- everything is
organized into the following sub-packages:

* indep: closed-form analytics for the independent (order-1) model --
logistic transforms between natural and expectation parameters, the
order-1 log-partition function, and binary entropy.

* exact: full enumeration of the 2^N binary state space for small
networks (N <= 15), the exact branch of the estimators and the ground
truth the approximations are tested against.

* meanfield: the TAP mean-field forward solver estimating expectation
parameters by bounded damped fixed-point iteration, with an explicit
non-convergence error instead of hanging.

* otpath: the Ogata-Tanemura path-integration estimator for the
log-partition function of networks too large to enumerate.

* sampler: parallel Gibbs-chain generation of synthetic spike trains
and empirical sufficient statistics, the fallback when mean-field
solving fails for a time bin.

* estimate: the eta / psi estimators dispatching across model order and
network size, parallel over time bins, recording which bins fell back
to sampling.

* thermo: closed-form energy, entropy, divergence, and likelihood
reductions over (theta, eta, psi).

* decomp: the orchestrator decomposing a fitted pairwise model into its
independent submodel plus residual correlation, producing the per-bin
summary record (entropy ratio, KL divergence, log-likelihoods).

* examples/bench: a runnable synthetic benchmark exercising both the
exact and mean-field branches.
*/
package maxent
