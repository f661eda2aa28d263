// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package algorithms

import (
	"math"
	"math/rand"
)

// ThompsonSampler is a Beta-Bernoulli per-arm sampler used as a
// lightweight baseline alongside LinUCB in the ensemble. It reuses the
// embedded BaseAlgorithm's lock for its own arm state, so a select
// observing trained/version mid-update is impossible by construction.
type ThompsonSampler struct {
	BaseAlgorithm

	alpha, beta []float64
	rng         *rand.Rand
}

// NewThompsonSampler constructs a sampler with a uniform Beta(1,1) prior
// over numArms arms.
func NewThompsonSampler(numArms int, seed int64) *ThompsonSampler {
	a := make([]float64, numArms)
	b := make([]float64, numArms)
	for i := range a {
		a[i], b[i] = 1, 1
	}
	return &ThompsonSampler{
		BaseAlgorithm: NewBaseAlgorithm("thompson"),
		alpha:         a,
		beta:          b,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// SelectAction draws one sample per arm from its current Beta posterior
// and returns the argmax.
func (ts *ThompsonSampler) SelectAction() Selection {
	// Exclusive, not RLock: sampling advances ts.rng's shared state.
	ts.acquireUpdateLock()
	defer ts.releaseUpdateLock()

	bestIdx := 0
	bestSample := -1.0
	for i := range ts.alpha {
		sample := sampleBeta(ts.rng, ts.alpha[i], ts.beta[i])
		if sample > bestSample {
			bestSample, bestIdx = sample, i
		}
	}
	total := ts.alpha[bestIdx] + ts.beta[bestIdx]
	conf := clamp01(1 - 1/math.Max(total, 1))
	return Selection{ActionIndex: bestIdx, Score: bestSample, Confidence: conf}
}

// Update records a Bernoulli outcome for armIdx: reward > 0 counts as a
// success, else a failure. Non-finite reward is ignored.
func (ts *ThompsonSampler) Update(armIdx int, reward float64) {
	if !isFinite(reward) {
		return
	}
	ts.acquireUpdateLock()
	defer ts.releaseUpdateLock()
	if armIdx < 0 || armIdx >= len(ts.alpha) {
		return
	}
	if reward > 0 {
		ts.alpha[armIdx]++
	} else {
		ts.beta[armIdx]++
	}
	ts.markTrained()
}

// sampleBeta draws from Beta(a,b) via two Gamma draws, a standard
// construction avoiding a dependency on a stats package for one call site.
func sampleBeta(rng *rand.Rand, a, b float64) float64 {
	x := sampleGamma(rng, a)
	y := sampleGamma(rng, b)
	if x+y < 1e-12 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma implements the Marsaglia-Tsang method for shape >= 1, with
// a boost transform for shape in (0,1).
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
