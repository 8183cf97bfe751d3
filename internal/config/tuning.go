package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/cellarworks/vintner-backend/internal/usecase/rating"
	"github.com/cellarworks/vintner-backend/internal/usecase/shareprice"
)

// Tuning is the optional TOML-file override of the economic engine's shipped
// parameters. Absent keys keep their defaults; present keys are range-checked
// before they reach the services.
type Tuning struct {
	Rating     ratingTuning     `toml:"rating"`
	SharePrice sharePriceTuning `toml:"share_price"`
}

type ratingTuning struct {
	AssetHealthWeight float64 `toml:"asset_health_weight" validate:"gte=0,lte=0.5"`
	PaymentWeight     float64 `toml:"payment_weight" validate:"gte=0,lte=0.5"`
	StabilityWeight   float64 `toml:"stability_weight" validate:"gte=0,lte=0.5"`

	DebtRatioWeight  float64 `toml:"debt_ratio_weight" validate:"gte=0,lte=1"`
	CoverageWeight   float64 `toml:"coverage_weight" validate:"gte=0,lte=1"`
	LiquidityWeight  float64 `toml:"liquidity_weight" validate:"gte=0,lte=1"`
	FixedAssetWeight float64 `toml:"fixed_asset_weight" validate:"gte=0,lte=1"`

	OnTimeReference    int     `toml:"on_time_reference" validate:"gt=0"`
	PayoffReference    int     `toml:"payoff_reference" validate:"gt=0"`
	OnTimeWeight       float64 `toml:"on_time_weight" validate:"gte=0,lte=1"`
	PayoffWeight       float64 `toml:"payoff_weight" validate:"gte=0,lte=1"`
	MissedPenaltyScale float64 `toml:"missed_penalty_scale" validate:"gte=0,lte=1"`

	AgeWeight         float64 `toml:"age_weight" validate:"gte=0,lte=1"`
	ConsistencyWeight float64 `toml:"consistency_weight" validate:"gte=0,lte=1"`
	EfficiencyWeight  float64 `toml:"efficiency_weight" validate:"gte=0,lte=1"`

	PenaltyFloorAmount   float64 `toml:"penalty_floor_amount" validate:"gt=0"`
	PenaltyValueFraction float64 `toml:"penalty_value_fraction" validate:"gt=0,lte=1"`
	PenaltyMaxWeeks      int     `toml:"penalty_max_weeks" validate:"gt=0"`
	MaxPenalty           float64 `toml:"max_penalty" validate:"gte=0,lte=0.5"`
}

type sharePriceTuning struct {
	Metrics map[string]metricTuning `toml:"metrics" validate:"dive"`

	AnchorStrength      float64 `toml:"anchor_strength" validate:"gt=0"`
	AnchorExponent      float64 `toml:"anchor_exponent" validate:"gt=0"`
	ReversionRate       float64 `toml:"reversion_rate" validate:"gte=0,lte=0.5"`
	MinPriceRatio       float64 `toml:"min_price_ratio" validate:"gte=0,lte=1"`
	GraceWeeks          int     `toml:"grace_weeks" validate:"gte=0"`
	PrestigeMultMin     float64 `toml:"prestige_mult_min" validate:"gt=0"`
	PrestigeMultMax     float64 `toml:"prestige_mult_max" validate:"gt=0"`
	DividendPayoutRatio float64 `toml:"dividend_payout_ratio" validate:"gte=0,lte=1"`
}

// metricTuning uses pointers so a metric table naming only one key overrides
// just that key; a missing key keeps the shipped default instead of zeroing
// the metric
type metricTuning struct {
	MaxMove *float64 `toml:"max_move" validate:"omitempty,gt=0,lte=2"`
	Weight  *float64 `toml:"weight" validate:"omitempty,gte=0,lte=0.1"`
}

// LoadTuning reads the TOML tuning file at path over the shipped defaults.
// An empty path returns the defaults untouched.
func LoadTuning(path string) (Tuning, error) {
	t := defaultTuning()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read tuning file %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("failed to parse tuning file %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return t, fmt.Errorf("invalid tuning file %s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) validate() error {
	v := validator.New()
	if err := v.Struct(t); err != nil {
		return err
	}
	if t.SharePrice.PrestigeMultMax < t.SharePrice.PrestigeMultMin {
		return errors.New("prestige_mult_max must be >= prestige_mult_min")
	}
	for name := range t.SharePrice.Metrics {
		if _, ok := metricNames[name]; !ok {
			return fmt.Errorf("unknown share price metric %q", name)
		}
	}
	return nil
}

// RatingParams converts the tuning into the scorer's parameter struct
func (t Tuning) RatingParams() rating.Params {
	r := t.Rating
	return rating.Params{
		AssetHealthWeight: r.AssetHealthWeight,
		PaymentWeight:     r.PaymentWeight,
		StabilityWeight:   r.StabilityWeight,

		DebtRatioWeight:  r.DebtRatioWeight,
		CoverageWeight:   r.CoverageWeight,
		LiquidityWeight:  r.LiquidityWeight,
		FixedAssetWeight: r.FixedAssetWeight,

		OnTimeReference:    r.OnTimeReference,
		PayoffReference:    r.PayoffReference,
		OnTimeWeight:       r.OnTimeWeight,
		PayoffWeight:       r.PayoffWeight,
		MissedPenaltyScale: r.MissedPenaltyScale,

		AgeWeight:         r.AgeWeight,
		ConsistencyWeight: r.ConsistencyWeight,
		EfficiencyWeight:  r.EfficiencyWeight,

		PenaltyFloorAmount:   r.PenaltyFloorAmount,
		PenaltyValueFraction: r.PenaltyValueFraction,
		PenaltyMaxWeeks:      r.PenaltyMaxWeeks,
		MaxPenalty:           r.MaxPenalty,
	}
}

// SharePriceParams converts the tuning into the price engine's parameter struct
func (t Tuning) SharePriceParams() shareprice.Params {
	s := t.SharePrice
	p := shareprice.Params{
		Metrics:             shareprice.DefaultParams().Metrics,
		AnchorStrength:      s.AnchorStrength,
		AnchorExponent:      s.AnchorExponent,
		ReversionRate:       s.ReversionRate,
		MinPriceRatio:       s.MinPriceRatio,
		GraceWeeks:          s.GraceWeeks,
		PrestigeMultMin:     s.PrestigeMultMin,
		PrestigeMultMax:     s.PrestigeMultMax,
		DividendPayoutRatio: s.DividendPayoutRatio,
	}
	targets := map[string]*shareprice.MetricParam{
		"earnings_per_share": &p.Metrics.EarningsPerShare,
		"revenue_per_share":  &p.Metrics.RevenuePerShare,
		"dividend_per_share": &p.Metrics.DividendPerShare,
		"revenue_growth":     &p.Metrics.RevenueGrowth,
		"profit_margin":      &p.Metrics.ProfitMargin,
		"credit_rating":      &p.Metrics.CreditRating,
		"fixed_asset_ratio":  &p.Metrics.FixedAssetRatio,
		"prestige":           &p.Metrics.Prestige,
	}
	for name, m := range s.Metrics {
		target, ok := targets[name]
		if !ok {
			continue
		}
		if m.MaxMove != nil {
			target.MaxMove = *m.MaxMove
		}
		if m.Weight != nil {
			target.Weight = *m.Weight
		}
	}
	return p
}

var metricNames = map[string]struct{}{
	"earnings_per_share": {},
	"revenue_per_share":  {},
	"dividend_per_share": {},
	"revenue_growth":     {},
	"profit_margin":      {},
	"credit_rating":      {},
	"fixed_asset_ratio":  {},
	"prestige":           {},
}

// defaultTuning mirrors the shipped service defaults so a partial TOML file
// only overrides the keys it names
func defaultTuning() Tuning {
	rp := rating.DefaultParams()
	sp := shareprice.DefaultParams()
	return Tuning{
		Rating: ratingTuning{
			AssetHealthWeight: rp.AssetHealthWeight,
			PaymentWeight:     rp.PaymentWeight,
			StabilityWeight:   rp.StabilityWeight,

			DebtRatioWeight:  rp.DebtRatioWeight,
			CoverageWeight:   rp.CoverageWeight,
			LiquidityWeight:  rp.LiquidityWeight,
			FixedAssetWeight: rp.FixedAssetWeight,

			OnTimeReference:    rp.OnTimeReference,
			PayoffReference:    rp.PayoffReference,
			OnTimeWeight:       rp.OnTimeWeight,
			PayoffWeight:       rp.PayoffWeight,
			MissedPenaltyScale: rp.MissedPenaltyScale,

			AgeWeight:         rp.AgeWeight,
			ConsistencyWeight: rp.ConsistencyWeight,
			EfficiencyWeight:  rp.EfficiencyWeight,

			PenaltyFloorAmount:   rp.PenaltyFloorAmount,
			PenaltyValueFraction: rp.PenaltyValueFraction,
			PenaltyMaxWeeks:      rp.PenaltyMaxWeeks,
			MaxPenalty:           rp.MaxPenalty,
		},
		SharePrice: sharePriceTuning{
			// Metric defaults live in shareprice.DefaultParams; the map only
			// carries explicit file overrides
			Metrics:             map[string]metricTuning{},
			AnchorStrength:      sp.AnchorStrength,
			AnchorExponent:      sp.AnchorExponent,
			ReversionRate:       sp.ReversionRate,
			MinPriceRatio:       sp.MinPriceRatio,
			GraceWeeks:          sp.GraceWeeks,
			PrestigeMultMin:     sp.PrestigeMultMin,
			PrestigeMultMax:     sp.PrestigeMultMax,
			DividendPayoutRatio: sp.DividendPayoutRatio,
		},
	}
}
