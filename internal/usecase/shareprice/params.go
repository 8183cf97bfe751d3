package shareprice

// MetricParam is the tuning for one of the eight weekly performance metrics:
// MaxMove caps the metric's delta (as a ratio of expected, so 0.5 means a
// deviation of at most +/-50% counts), Weight scales the capped delta into a
// fractional price movement.
type MetricParam struct {
	MaxMove float64
	Weight  float64
}

// MetricWeights holds the per-metric tuning for every delta the engine sums
type MetricWeights struct {
	EarningsPerShare MetricParam
	RevenuePerShare  MetricParam
	DividendPerShare MetricParam
	RevenueGrowth    MetricParam
	ProfitMargin     MetricParam
	CreditRating     MetricParam
	FixedAssetRatio  MetricParam
	Prestige         MetricParam
}

// Params are the tunable constants of the share-price engine
type Params struct {
	Metrics MetricWeights

	// AnchorStrength and AnchorExponent shape the mean-reversion damping
	// factor 1 / (1 + strength * deviation^exponent)
	AnchorStrength float64
	AnchorExponent float64

	// ReversionRate is the weekly drift toward book value applied on top of
	// the performance contribution, so a company with no performance signal
	// still converges to its fundamental anchor
	ReversionRate float64

	// MinPriceRatio floors the price at this fraction of book value
	// (never below one cent)
	MinPriceRatio float64

	// GraceWeeks is the history required before growth, margin, earnings and
	// trend metrics contribute; younger companies get zero delta for them
	GraceWeeks int

	// Prestige multiplier range: the normalized prestige modifier maps
	// linearly into [PrestigeMultMin, PrestigeMultMax]
	PrestigeMultMin float64
	PrestigeMultMax float64

	// DividendPayoutRatio derives the expected dividend per share from the
	// expected earnings per share
	DividendPayoutRatio float64
}

// DefaultParams returns the shipped tuning
func DefaultParams() Params {
	return Params{
		Metrics: MetricWeights{
			EarningsPerShare: MetricParam{MaxMove: 0.50, Weight: 0.020},
			RevenuePerShare:  MetricParam{MaxMove: 0.50, Weight: 0.012},
			DividendPerShare: MetricParam{MaxMove: 0.50, Weight: 0.010},
			RevenueGrowth:    MetricParam{MaxMove: 0.60, Weight: 0.015},
			ProfitMargin:     MetricParam{MaxMove: 0.60, Weight: 0.012},
			CreditRating:     MetricParam{MaxMove: 0.40, Weight: 0.008},
			FixedAssetRatio:  MetricParam{MaxMove: 0.40, Weight: 0.005},
			Prestige:         MetricParam{MaxMove: 0.50, Weight: 0.008},
		},
		AnchorStrength:      2.0,
		AnchorExponent:      1.5,
		ReversionRate:       0.02,
		MinPriceRatio:       0.10,
		GraceWeeks:          48,
		PrestigeMultMin:     0.90,
		PrestigeMultMax:     1.20,
		DividendPayoutRatio: 0.30,
	}
}
