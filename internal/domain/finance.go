package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// FinancialSnapshot is the single concrete picture of a company's finances
// that the scoring engines consume. It is always produced by ResolveSnapshot,
// never assembled ad hoc, so that every fallback is applied in one documented
// place before any scoring logic runs.
type FinancialSnapshot struct {
	CompanyID       string
	Income          decimal.Decimal   // income over the reporting period
	Expenses        decimal.Decimal   // expenses over the reporting period
	TotalAssets     decimal.Decimal
	CashMoney       decimal.Decimal   // may be negative (overdrawn)
	FixedAssets     decimal.Decimal   // land, buildings, equipment
	TotalDebt       decimal.Decimal   // sum of remaining loan balances
	CompanyValue    decimal.Decimal
	FoundedWeek     int               // absolute game week the company was created
	SeasonalProfits []decimal.Decimal // most recent first, up to the last 4 seasons
}

// ResolveSnapshot fills the gaps in a raw snapshot with a single ordered
// precedence:
//  1. TotalAssets missing (zero) => CashMoney + FixedAssets
//  2. CompanyValue missing (zero) => TotalAssets - TotalDebt, floored at zero
//
// Negative derived values are kept as-is except where noted; the normalizers
// downstream are total over all real inputs.
func ResolveSnapshot(raw FinancialSnapshot) FinancialSnapshot {
	resolved := raw
	if resolved.TotalAssets.IsZero() {
		resolved.TotalAssets = resolved.CashMoney.Add(resolved.FixedAssets)
	}
	if resolved.CompanyValue.IsZero() {
		value := resolved.TotalAssets.Sub(resolved.TotalDebt)
		if value.IsNegative() {
			value = decimal.Zero
		}
		resolved.CompanyValue = value
	}
	return resolved
}

// Loan is the engine's view of one active loan
type Loan struct {
	ID               string
	CompanyID        string
	RemainingBalance decimal.Decimal
	MissedPayments   int
}

// PaymentHistory summarizes a company's repayment record across all loans,
// past and present
type PaymentHistory struct {
	OnTimePayments int
	LoanPayoffs    int
	MissedPayments int
}

// Validate ensures the payment history adheres to domain rules
func (p *PaymentHistory) Validate() error {
	if p.OnTimePayments < 0 || p.LoanPayoffs < 0 || p.MissedPayments < 0 {
		return errors.New("payment history counts cannot be negative")
	}
	return nil
}

// Company is the registry row for one simulated company
type Company struct {
	ID                string
	Name              string
	FoundedWeek       int // absolute game week
	SharesOutstanding decimal.Decimal
}

// Validate ensures the company adheres to domain rules
func (c *Company) Validate() error {
	if c.ID == "" {
		return errors.New("company id cannot be empty")
	}
	if c.Name == "" {
		return errors.New("company name cannot be empty")
	}
	if c.SharesOutstanding.LessThanOrEqual(decimal.Zero) {
		return errors.New("shares outstanding must be positive")
	}
	return nil
}

// AgeWeeks returns the company's age in whole game weeks at the given date
func (c *Company) AgeWeeks(now GameDate) int {
	age := now.AbsoluteWeek() - c.FoundedWeek
	if age < 0 {
		return 0
	}
	return age
}

// AgeYears returns the company's age in fractional game years at the given date
func (c *Company) AgeYears(now GameDate) float64 {
	return float64(c.AgeWeeks(now)) / float64(WeeksPerYear)
}
