package domain

// BaseCreditRating is the neutral starting rating for any new company
const BaseCreditRating = 0.5

// Factor is one normalized sub-metric inside a factor group
type Factor struct {
	Name       string
	Raw        float64 // raw input value (ratio, count, years) before normalization
	Normalized float64 // in [0,1]
	Weight     float64 // weight within the group; group weights sum to 1
}

// FactorGroup is one weighted group of credit factors.
// Score is the weighted combination of the group's factors, in [0,1];
// Weight is the group's maximum contribution to the final rating.
type FactorGroup struct {
	Name    string
	Factors []Factor
	Score   float64
	Weight  float64
}

// Contribution returns the group's contribution to the final rating
func (g FactorGroup) Contribution() float64 {
	return g.Score * g.Weight
}

// CreditRatingBreakdown is a read-only snapshot of one full rating
// computation. It is recomputed from scratch on every request and never
// incrementally updated.
//
// Invariant: FinalRating = clamp(BaseRating + sum of group contributions
// + NegativePenalty, 0, 1), with NegativePenalty <= 0.
type CreditRatingBreakdown struct {
	CompanyID       string
	BaseRating      float64
	AssetHealth     FactorGroup
	PaymentRecord   FactorGroup
	Stability       FactorGroup
	NegativePenalty float64 // subtractive, in [-maxPenalty, 0]
	FinalRating     float64 // in [0,1]
}

// Groups returns the additive factor groups in display order
func (b *CreditRatingBreakdown) Groups() []FactorGroup {
	return []FactorGroup{b.AssetHealth, b.PaymentRecord, b.Stability}
}
