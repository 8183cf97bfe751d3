package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestResolveSnapshot(t *testing.T) {
	t.Run("Missing total assets are derived from cash plus fixed assets", func(t *testing.T) {
		resolved := ResolveSnapshot(FinancialSnapshot{
			CashMoney:   decimal.NewFromInt(3_000),
			FixedAssets: decimal.NewFromInt(7_000),
		})

		assert.True(t, resolved.TotalAssets.Equal(decimal.NewFromInt(10_000)))
	})

	t.Run("Missing company value is assets minus debt", func(t *testing.T) {
		resolved := ResolveSnapshot(FinancialSnapshot{
			TotalAssets: decimal.NewFromInt(10_000),
			TotalDebt:   decimal.NewFromInt(4_000),
		})

		assert.True(t, resolved.CompanyValue.Equal(decimal.NewFromInt(6_000)))
	})

	t.Run("Derived company value is floored at zero", func(t *testing.T) {
		resolved := ResolveSnapshot(FinancialSnapshot{
			TotalAssets: decimal.NewFromInt(1_000),
			TotalDebt:   decimal.NewFromInt(5_000),
		})

		assert.True(t, resolved.CompanyValue.IsZero())
	})

	t.Run("Provided values are never overwritten", func(t *testing.T) {
		resolved := ResolveSnapshot(FinancialSnapshot{
			TotalAssets:  decimal.NewFromInt(9_000),
			CashMoney:    decimal.NewFromInt(1),
			CompanyValue: decimal.NewFromInt(42),
		})

		assert.True(t, resolved.TotalAssets.Equal(decimal.NewFromInt(9_000)))
		assert.True(t, resolved.CompanyValue.Equal(decimal.NewFromInt(42)))
	})
}

func TestPaymentHistory_Validate(t *testing.T) {
	valid := PaymentHistory{OnTimePayments: 10, LoanPayoffs: 2, MissedPayments: 1}
	assert.NoError(t, valid.Validate())

	invalid := PaymentHistory{OnTimePayments: -1}
	assert.ErrorContains(t, invalid.Validate(), "cannot be negative")
}

func TestCompany_Validate(t *testing.T) {
	tests := []struct {
		name    string
		company Company
		wantErr bool
		errMsg  string
	}{
		{
			name:    "Valid company should pass",
			company: Company{ID: "c1", Name: "Chateau Test", SharesOutstanding: decimal.NewFromInt(1000)},
			wantErr: false,
		},
		{
			name:    "Empty id should fail",
			company: Company{Name: "Chateau Test", SharesOutstanding: decimal.NewFromInt(1000)},
			wantErr: true,
			errMsg:  "id cannot be empty",
		},
		{
			name:    "Empty name should fail",
			company: Company{ID: "c1", SharesOutstanding: decimal.NewFromInt(1000)},
			wantErr: true,
			errMsg:  "name cannot be empty",
		},
		{
			name:    "Zero shares should fail",
			company: Company{ID: "c1", Name: "Chateau Test"},
			wantErr: true,
			errMsg:  "shares outstanding must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.company.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompany_Age(t *testing.T) {
	company := Company{ID: "c1", Name: "Chateau Test", FoundedWeek: 48, SharesOutstanding: decimal.NewFromInt(1)}

	now := GameDate{Week: 1, Season: SeasonSpring, Year: 3} // absolute week 96
	assert.Equal(t, 48, company.AgeWeeks(now))
	assert.Equal(t, 1.0, company.AgeYears(now))

	beforeFounding := GameDate{Week: 1, Season: SeasonSpring, Year: 1}
	assert.Equal(t, 0, company.AgeWeeks(beforeFounding))
}
