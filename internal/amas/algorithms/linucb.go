// AMAS Engine - Adaptive Multi-Arm Strategy Decision Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/amas-engine

package algorithms

import "math"

// ContextDim is the width of the LinUCB decision context vector:
// state(5) + recentErrorRate(1) + action(5) + rtNorm(1) + time(3) +
// cross-features(6) + bias(1) = 22.
const ContextDim = 22

const (
	defaultLambda        = 1e-3
	maxCovariance         = 1e9
	maxFeatureValue       = 50
	diagonalFloorFraction = 0.1
)

// LinUCBModel is the persisted state of the bandit: the SPD design matrix
// A, its Cholesky factor L (A = L*L^T), the reward-weighted context sum b,
// and bookkeeping.
type LinUCBModel struct {
	D           int
	Lambda      float64
	A           [][]float64
	B           []float64
	L           [][]float64
	UpdateCount uint64
}

// NewLinUCBModel returns a freshly initialized model: A = lambda*I, L =
// sqrt(lambda)*I, b = 0.
func NewLinUCBModel(d int, lambda float64) *LinUCBModel {
	if lambda <= 0 {
		lambda = defaultLambda
	}
	m := &LinUCBModel{D: d, Lambda: lambda, A: identity(d, lambda), B: make([]float64, d), L: identity(d, math.Sqrt(lambda))}
	return m
}

func identity(d int, diag float64) [][]float64 {
	m := make([][]float64, d)
	for i := range m {
		m[i] = make([]float64, d)
		m[i][i] = diag
	}
	return m
}

// LinUCB is the contextual bandit learner over the fixed action set, using
// a single shared design matrix (not one per arm) since the context vector
// already encodes the candidate action.
type LinUCB struct {
	BaseAlgorithm

	model *LinUCBModel

	redecompositions uint64
}

// NewLinUCB constructs a LinUCB learner with context dimension d and ridge
// lambda.
func NewLinUCB(d int, lambda float64) *LinUCB {
	return &LinUCB{
		BaseAlgorithm: NewBaseAlgorithm("linucb"),
		model:         NewLinUCBModel(d, lambda),
	}
}

// GetModel returns a deep copy of the current model for persistence.
func (lu *LinUCB) GetModel() *LinUCBModel {
	lu.acquireSelectLock()
	defer lu.releaseSelectLock()
	return cloneModel(lu.model)
}

// SetModel installs m, applying dimension migration if m.D differs from
// the learner's configured dimension.
func (lu *LinUCB) SetModel(m *LinUCBModel, wantD int) {
	lu.acquireUpdateLock()
	defer lu.releaseUpdateLock()
	lu.model = migrateDimension(m, wantD)
}

func cloneModel(m *LinUCBModel) *LinUCBModel {
	out := &LinUCBModel{D: m.D, Lambda: m.Lambda, UpdateCount: m.UpdateCount}
	out.A = cloneMatrix(m.A)
	out.L = cloneMatrix(m.L)
	out.B = append([]float64(nil), m.B...)
	return out
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// migrateDimension zero-extends a smaller loaded model into the top-left
// block of a fresh lambda*I model of dimension wantD, or resets to
// identity on downsizing, per spec.md §4.3.
func migrateDimension(m *LinUCBModel, wantD int) *LinUCBModel {
	if m.D == wantD {
		return m
	}
	if m.D > wantD {
		return NewLinUCBModel(wantD, m.Lambda)
	}
	fresh := NewLinUCBModel(wantD, m.Lambda)
	for i := 0; i < m.D; i++ {
		copy(fresh.A[i][:m.D], m.A[i])
		fresh.B[i] = m.B[i]
	}
	fresh.UpdateCount = m.UpdateCount
	symmetrize(fresh.A)
	fresh.L = fullCholesky(fresh.A, fresh.Lambda)
	return fresh
}

// BuildContextVector maps state/action/context into the 22-dim vector
// described in spec.md §4.3.
func BuildContextVector(s StateView, a ActionView, recentErrorRate, rtNorm float64, tsMillis int64) []float64 {
	hourOfDay := float64((tsMillis/3600000)%24) / 24.0
	angle := 2 * math.Pi * hourOfDay

	x := make([]float64, 0, ContextDim)
	// state(5)
	x = append(x, s.A, s.F, s.M, s.Mem, s.Stability)
	// recentErrorRate
	x = append(x, recentErrorRate)
	// action(5)
	x = append(x, a.IntervalScale, a.NewRatio, a.DifficultyNum, float64(a.BatchSize)/16, float64(a.HintLevel)/2)
	// rtNorm
	x = append(x, rtNorm)
	// time(3): linear, sin, cos
	x = append(x, hourOfDay, math.Sin(angle), math.Cos(angle))
	// cross-features(6)
	x = append(x,
		s.A*a.DifficultyNum,
		s.F*a.NewRatio,
		s.M*a.DifficultyNum,
		s.Mem*(float64(a.BatchSize)/16),
		s.Stability*(float64(a.HintLevel)/2),
		s.F*s.A,
	)
	// bias
	x = append(x, 1.0)

	for i, v := range x {
		x[i] = clampFeature(v)
	}
	return x
}

func clampFeature(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v > maxFeatureValue {
		return maxFeatureValue
	}
	if v < -maxFeatureValue {
		return -maxFeatureValue
	}
	return v
}

// ExplorationAlpha implements the cold-start exploration schedule of
// spec.md §4.3: alpha is driven by interaction count and recent
// accuracy/fatigue.
func ExplorationAlpha(interactionCount int, recentAccuracy, fatigue float64) float64 {
	switch {
	case interactionCount < 15:
		return 0.5
	case interactionCount < 50:
		if recentAccuracy > 0.75 && fatigue < 0.5 {
			return 2.0
		}
		return 1.0
	default:
		return 0.7
	}
}

// SelectAction scores every candidate action's context vector and returns
// the argmax by UCB score, breaking ties by first occurrence.
func (lu *LinUCB) SelectAction(candidates [][]float64, alpha float64) Selection {
	lu.acquireSelectLock()
	m := lu.model
	lu.releaseSelectLock()

	bestIdx := 0
	bestScore := math.Inf(-1)
	var bestTheta, bestXAx float64

	theta := solve(m.L, m.B)
	for i, x := range candidates {
		mean := dot(theta, x)
		bonus := alpha * math.Sqrt(math.Max(0, quadForm(m.L, x)))
		score := mean + bonus
		if !isFinite(score) {
			score = math.Inf(-1)
		}
		if score > bestScore {
			bestScore, bestIdx, bestTheta, bestXAx = score, i, mean, bonus
		}
	}

	conf := clamp01(bestXAx / (1 + math.Abs(bestXAx)))
	return Selection{
		ActionIndex: bestIdx,
		Score:       bestScore,
		Confidence:  conf,
		Meta:        map[string]any{"mean": bestTheta, "bonus": bestXAx},
	}
}

// Update applies the (x, r) observation: A += x*x^T, b += r*x, then an
// incremental rank-1 Cholesky update on L. Non-finite x or r skip the
// update entirely (no partial write). If the rank-1 update fails a
// numerical sanity check, a full redecomposition from a symmetrized,
// clipped A is performed instead.
func (lu *LinUCB) Update(x []float64, r float64) {
	if !isFinite(r) {
		return
	}
	for _, v := range x {
		if !isFinite(v) {
			return
		}
	}

	lu.acquireUpdateLock()
	defer lu.releaseUpdateLock()

	m := lu.model
	for i := 0; i < m.D; i++ {
		for j := 0; j < m.D; j++ {
			m.A[i][j] += x[i] * x[j]
		}
		m.B[i] += r * x[i]
	}
	clampCovariance(m.A)

	xCopy := append([]float64(nil), x...)
	if !choleskyRank1Update(m.L, xCopy) || !sane(m.L, m.Lambda) {
		symmetrize(m.A)
		m.L = fullCholesky(m.A, m.Lambda)
		lu.redecompositions++
	}
	m.UpdateCount++
	lu.markTrained()
}

// choleskyRank1Update mutates L in place to reflect L*L^T + x*x^T, using
// the standard O(d^2) hyperbolic-rotation-free update. Returns false if a
// non-finite intermediate is produced (caller falls back to full
// redecomposition).
func choleskyRank1Update(l [][]float64, x []float64) bool {
	d := len(l)
	for k := 0; k < d; k++ {
		lkk := l[k][k]
		xk := x[k]
		r := math.Hypot(lkk, xk)
		if !isFinite(r) || r < 1e-15 {
			return false
		}
		c := r / lkk
		s := xk / lkk
		if !isFinite(c) || !isFinite(s) {
			return false
		}
		l[k][k] = r
		for i := k + 1; i < d; i++ {
			newLik := (l[i][k] + s*x[i]) / c
			x[i] = c*x[i] - s*newLik
			l[i][k] = newLik
			if !isFinite(l[i][k]) || !isFinite(x[i]) {
				return false
			}
		}
	}
	return true
}

// sane verifies L's diagonal and magnitude bounds per spec.md §4.3/§8.
func sane(l [][]float64, lambda float64) bool {
	floor := math.Sqrt(lambda) * diagonalFloorFraction
	maxAbs := math.Sqrt(maxCovariance)
	for i, row := range l {
		if !isFinite(row[i]) || row[i] < floor {
			return false
		}
		for j := 0; j <= i; j++ {
			if !isFinite(row[j]) || math.Abs(row[j]) > maxAbs {
				return false
			}
		}
	}
	return true
}

// symmetrize averages A[i][j] and A[j][i] in place.
func symmetrize(a [][]float64) {
	d := len(a)
	for i := 0; i < d; i++ {
		for j := i + 1; j < d; j++ {
			avg := (a[i][j] + a[j][i]) / 2
			a[i][j], a[j][i] = avg, avg
		}
	}
}

// clampCovariance keeps A's diagonal finite and below maxCovariance and
// clips off-diagonal magnitude to the same bound.
func clampCovariance(a [][]float64) {
	for i, row := range a {
		for j := range row {
			if !isFinite(row[j]) {
				row[j] = 0
			}
			if row[j] > maxCovariance {
				row[j] = maxCovariance
			}
			if row[j] < -maxCovariance {
				row[j] = -maxCovariance
			}
		}
		_ = i
	}
}

// fullCholesky computes L such that L*L^T = A from scratch, flooring the
// diagonal at diagonalFloorFraction*sqrt(lambda) to guard against a
// near-singular A.
func fullCholesky(a [][]float64, lambda float64) [][]float64 {
	d := len(a)
	l := make([][]float64, d)
	for i := range l {
		l[i] = make([]float64, d)
	}
	floor := math.Sqrt(lambda) * diagonalFloorFraction

	for i := 0; i < d; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= l[i][k] * l[j][k]
			}
			if i == j {
				v := math.Sqrt(math.Max(sum, floor*floor))
				if v < floor || !isFinite(v) {
					v = floor
				}
				l[i][j] = v
			} else {
				if l[j][j] < 1e-15 {
					l[i][j] = 0
					continue
				}
				v := sum / l[j][j]
				if !isFinite(v) {
					v = 0
				}
				l[i][j] = v
			}
		}
	}
	return l
}

// solve returns A^-1 * b via forward/back substitution against L (A=L*L^T).
// On a non-finite result, it returns the zero vector (safe baseline).
func solve(l [][]float64, b []float64) []float64 {
	d := len(l)
	y := make([]float64, d)
	for i := 0; i < d; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * y[k]
		}
		if l[i][i] < 1e-15 {
			y[i] = 0
			continue
		}
		y[i] = sum / l[i][i]
	}
	x := make([]float64, d)
	for i := d - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < d; k++ {
			sum -= l[k][i] * x[k]
		}
		if l[i][i] < 1e-15 {
			x[i] = 0
			continue
		}
		x[i] = sum / l[i][i]
	}
	for i, v := range x {
		if !isFinite(v) {
			return make([]float64, d)
		}
		x[i] = v
	}
	return x
}

// quadForm computes x^T * A^-1 * x = ||L^-1 x||^2 via forward substitution.
func quadForm(l [][]float64, x []float64) float64 {
	d := len(l)
	z := make([]float64, d)
	for i := 0; i < d; i++ {
		sum := x[i]
		for k := 0; k < i; k++ {
			sum -= l[i][k] * z[k]
		}
		if l[i][i] < 1e-15 {
			z[i] = 0
			continue
		}
		z[i] = sum / l[i][i]
	}
	total := 0.0
	for _, v := range z {
		total += v * v
	}
	if !isFinite(total) {
		return 0
	}
	return total
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Redecompositions returns the number of times Update fell back to a full
// Cholesky factorization, for metrics reporting.
func (lu *LinUCB) Redecompositions() uint64 {
	lu.acquireSelectLock()
	defer lu.releaseSelectLock()
	return lu.redecompositions
}
