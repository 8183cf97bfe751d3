package shareprice

import (
	"github.com/cellarworks/vintner-backend/internal/domain"
	"github.com/cellarworks/vintner-backend/internal/usecase/norm"
)

// expectedValues are the performance levels the engine measures actuals
// against this week, after scaling the stored baselines by the macro and
// company-specific multipliers
type expectedValues struct {
	RevenueGrowth    float64
	ProfitMargin     float64
	EarningsPerShare float64
	RevenuePerShare  float64
	DividendPerShare float64
}

// defaultBaselines are used for companies without stored expectation
// baselines: modest growth, a thin margin, earnings worth 5% of book value
// (the earnings default is derived in computeExpected)
func defaultBaselines() domain.ExpectedBaselines {
	return domain.ExpectedBaselines{
		RevenueGrowth: 0.05,
		ProfitMargin:  0.10,
		GrowthTrend:   1.0,
	}
}

// prestigeMultiplier maps a prestige total into the configured multiplier
// range through the shared segmented prestige curve
func (s *SharePriceService) prestigeMultiplier(prestige float64) float64 {
	modifier := norm.PrestigeModifier(prestige) / norm.PrestigeModifierCap
	return s.Params.PrestigeMultMin + modifier*(s.Params.PrestigeMultMax-s.Params.PrestigeMultMin)
}

// computeExpected scales the stored baselines by the economy-phase,
// prestige and growth-trend multipliers.
//
// Expected revenue per share is derived from expected earnings and margin;
// expected dividend per share follows the configured payout ratio.
func (s *SharePriceService) computeExpected(
	baselines domain.ExpectedBaselines,
	phase domain.EconomyPhase,
	prestige float64,
	bookValuePerShare float64,
) expectedValues {
	trend := baselines.GrowthTrend
	if trend <= 0 {
		trend = 1.0
	}
	mult := phase.PhaseMultiplier() * s.prestigeMultiplier(prestige) * trend

	eps := baselines.EarningsPerShare.InexactFloat64()
	if eps <= 0 {
		eps = bookValuePerShare * 0.05
	}

	expected := expectedValues{
		RevenueGrowth:    baselines.RevenueGrowth * mult,
		ProfitMargin:     baselines.ProfitMargin * mult,
		EarningsPerShare: eps * mult,
		DividendPerShare: eps * mult * s.Params.DividendPayoutRatio,
	}
	if expected.ProfitMargin > 0 {
		expected.RevenuePerShare = expected.EarningsPerShare / expected.ProfitMargin
	}
	return expected
}

// percentDelta is the percentage deviation of an actual metric from its
// expected baseline. When the expectation is non-positive the ratio is
// undefined: a positive actual counts as +100%, anything else as 0%.
func percentDelta(actual, expected float64) float64 {
	if expected <= 0 {
		if actual > 0 {
			return 100
		}
		return 0
	}
	return (actual - expected) / expected * 100
}
