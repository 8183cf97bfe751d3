// Package norm provides the pure scalar normalization curves shared by the
// credit-rating and share-price engines. Every function is total: any real
// input, including NaN and infinities, maps to a defined value in [0,1],
// saturating at both ends rather than extrapolating.
package norm

import "math"

// PerfectCoverage is the sentinel coverage ratio used for companies with no
// debt: coverage and liquidity are undefined (division by zero) and degrade
// to the "perfect" case instead of propagating NaN.
const PerfectCoverage = 999.0

// ClampUnit clamps x to [0,1]. NaN maps to 0.
func ClampUnit(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Clamp clamps x to [lo, hi]. NaN maps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Point is one breakpoint of a piecewise linear curve: Raw is the input
// value at the breakpoint, Score the normalized output there.
type Point struct {
	Raw   float64
	Score float64
}

// Interpolate maps x through the piecewise linear curve defined by points
// (which must be sorted by Raw ascending). Inputs below the first point or
// above the last saturate to the boundary scores; NaN maps to the first score.
func Interpolate(x float64, points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	first := points[0]
	if math.IsNaN(x) || x <= first.Raw {
		return first.Score
	}
	last := points[len(points)-1]
	if x >= last.Raw {
		return last.Score
	}
	for i := 1; i < len(points); i++ {
		p0, p1 := points[i-1], points[i]
		if x <= p1.Raw {
			t := (x - p0.Raw) / (p1.Raw - p0.Raw)
			return p0.Score + t*(p1.Score-p0.Score)
		}
	}
	return last.Score
}

// assetCoverageBands: <2x coverage scores [0,0.33], 2-3x [0.33,0.67],
// 3-5x [0.67,1.0], >=5x saturates at 1.0
var assetCoverageBands = []Point{
	{Raw: 0, Score: 0},
	{Raw: 2, Score: 0.33},
	{Raw: 3, Score: 0.67},
	{Raw: 5, Score: 1.0},
}

// AssetCoverageScore normalizes total assets / total debt. Higher is better.
// Callers with zero debt pass PerfectCoverage.
func AssetCoverageScore(coverage float64) float64 {
	return Interpolate(coverage, assetCoverageBands)
}

var liquidityBands = []Point{
	{Raw: 0, Score: 0},
	{Raw: 1, Score: 0.5},
	{Raw: 2, Score: 0.8},
	{Raw: 4, Score: 1.0},
}

// LiquidityScore normalizes (cash + liquid assets) / total debt. Higher is
// better. Callers with zero debt pass PerfectCoverage.
func LiquidityScore(liquidity float64) float64 {
	return Interpolate(liquidity, liquidityBands)
}

var fixedAssetBands = []Point{
	{Raw: 0, Score: 0},
	{Raw: 0.2, Score: 0.3},
	{Raw: 0.5, Score: 0.8},
	{Raw: 0.8, Score: 1.0},
}

// FixedAssetScore normalizes the fixed-asset ratio (fixed assets / total
// assets). Higher is better.
func FixedAssetScore(ratio float64) float64 {
	return Interpolate(ratio, fixedAssetBands)
}

// DebtToAssetScore normalizes the debt-to-asset ratio via the closed-form
// curve 1 - ratio^1.5, clamped. Lower debt is better: a ratio of 0 scores
// 1.0, a ratio at or above 1 scores 0. Undefined ratios (NaN, negative)
// degrade to the no-debt case.
func DebtToAssetScore(ratio float64) float64 {
	if math.IsNaN(ratio) || ratio <= 0 {
		return 1
	}
	return ClampUnit(1 - math.Pow(ratio, 1.5))
}

// MissedPaymentScore is the inverse step function over missed-payment counts:
// 0 missed scores 1.0, 1 scores 0.5, 2 scores 0.25, 3 or more score 0.
func MissedPaymentScore(missed int) float64 {
	switch {
	case missed <= 0:
		return 1.0
	case missed == 1:
		return 0.5
	case missed == 2:
		return 0.25
	default:
		return 0
	}
}
