package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// EconomyPhase is the macroeconomic state supplied by the wider game.
// Expected-performance baselines are scaled by a per-phase multiplier.
type EconomyPhase string

const (
	EconomyRecession EconomyPhase = "RECESSION"
	EconomyStable    EconomyPhase = "STABLE"
	EconomyExpansion EconomyPhase = "EXPANSION"
	EconomyBoom      EconomyPhase = "BOOM"
)

// PhaseMultiplier returns the expected-performance multiplier for the phase.
// Unknown phases fall back to the stable multiplier.
func (p EconomyPhase) PhaseMultiplier() float64 {
	switch p {
	case EconomyRecession:
		return 0.85
	case EconomyExpansion:
		return 1.10
	case EconomyBoom:
		return 1.20
	default:
		return 1.0
	}
}

// ExpectedBaselines are the stored per-company performance baselines the
// share-price engine measures actuals against. GrowthTrend is a slow-moving
// scalar reflecting longer-term momentum (1.0 = neutral).
type ExpectedBaselines struct {
	RevenueGrowth    float64 // expected fractional revenue growth per year, e.g. 0.05
	ProfitMargin     float64 // expected profit / income, e.g. 0.12
	EarningsPerShare decimal.Decimal
	GrowthTrend      float64
}

// ShareMetricsSnapshot is a point-in-time per-company record of everything
// the share-price engine reads. Per-share figures come in two variants:
// the current fiscal year to date and a trailing 48-week rolling window.
type ShareMetricsSnapshot struct {
	CompanyID string
	Week      int // absolute game week the snapshot describes

	AssetsPerShare decimal.Decimal
	CashPerShare   decimal.Decimal
	DebtPerShare   decimal.Decimal

	RevenuePerShareFiscal    decimal.Decimal
	EarningsPerShareFiscal   decimal.Decimal
	DividendPerShareFiscal   decimal.Decimal
	RevenuePerShareTrailing  decimal.Decimal
	EarningsPerShareTrailing decimal.Decimal
	DividendPerShareTrailing decimal.Decimal

	RevenueGrowthTrailing float64 // fractional growth of trailing revenue vs the prior 48 weeks
	ProfitMarginTrailing  float64

	CreditRating    float64 // in [0,1]
	Prestige        float64
	FixedAssetRatio float64 // fixed assets / total assets, in [0,1]

	BookValuePerShare decimal.Decimal
}

// HistoricalSnapshot is the weekly persisted row used for "value N weeks
// ago" lookups. The engine treats the history store as an external keyed
// timeline; persistence belongs to the storage adapter.
type HistoricalSnapshot struct {
	CompanyID string
	Week      int // absolute game week
	Metrics   ShareMetricsSnapshot
}

// SharePriceState is the per-company pricing state mutated exactly once per
// simulated week. A company starts uninitialized; initialization sets the
// price to the current book value per share.
type SharePriceState struct {
	CompanyID         string
	CurrentPrice      decimal.Decimal
	BookValuePerShare decimal.Decimal // the anchor the price mean-reverts toward
	Initialized       bool
	UpdatedWeek       int
}

// Validate ensures the price state adheres to domain rules
func (s *SharePriceState) Validate() error {
	if s.CompanyID == "" {
		return errors.New("share price state company id cannot be empty")
	}
	if s.Initialized && s.CurrentPrice.LessThanOrEqual(decimal.Zero) {
		return errors.New("initialized share price must be positive")
	}
	return nil
}
