package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// financeProvider implements domain.FinanceProvider over the game's finance
// tables. The engines only read from these; the wider game writes them.
type financeProvider struct {
	db *DB
}

// NewFinanceProvider creates a new finance provider
func NewFinanceProvider(db *DB) domain.FinanceProvider {
	return &financeProvider{db: db}
}

// Snapshot returns the company's current finances
func (r *financeProvider) Snapshot(ctx context.Context, companyID string) (domain.FinancialSnapshot, error) {
	query := `
		SELECT company_id, income, expenses, total_assets, cash_money, fixed_assets,
			total_debt, company_value, founded_week, seasonal_profits
		FROM company_finances
		WHERE company_id = $1
	`

	var snapshot domain.FinancialSnapshot
	decimals := make([]string, 7)
	var profitsRaw []string

	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&snapshot.CompanyID,
		&decimals[0], &decimals[1], &decimals[2], &decimals[3],
		&decimals[4], &decimals[5], &decimals[6],
		&snapshot.FoundedWeek,
		pq.Array(&profitsRaw),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FinancialSnapshot{}, domain.ErrNotFound
		}
		return domain.FinancialSnapshot{}, fmt.Errorf("failed to get company finances: %w", err)
	}

	targets := []*decimal.Decimal{
		&snapshot.Income, &snapshot.Expenses, &snapshot.TotalAssets, &snapshot.CashMoney,
		&snapshot.FixedAssets, &snapshot.TotalDebt, &snapshot.CompanyValue,
	}
	for i, raw := range decimals {
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.FinancialSnapshot{}, fmt.Errorf("failed to parse finance decimal column: %w", err)
		}
		*targets[i] = value
	}

	for _, raw := range profitsRaw {
		profit, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.FinancialSnapshot{}, fmt.Errorf("failed to parse seasonal profit: %w", err)
		}
		snapshot.SeasonalProfits = append(snapshot.SeasonalProfits, profit)
	}

	return snapshot, nil
}

// PeriodTotals returns revenue, profit and dividends over [fromWeek, toWeek)
func (r *financeProvider) PeriodTotals(ctx context.Context, companyID string, fromWeek, toWeek int) (domain.PeriodTotals, error) {
	query := `
		SELECT COALESCE(SUM(revenue), 0), COALESCE(SUM(profit), 0), COALESCE(SUM(dividends), 0)
		FROM weekly_financials
		WHERE company_id = $1 AND week >= $2 AND week < $3
	`

	var revenueStr, profitStr, dividendsStr string
	err := r.db.QueryRowContext(ctx, query, companyID, fromWeek, toWeek).Scan(
		&revenueStr, &profitStr, &dividendsStr,
	)
	if err != nil {
		return domain.PeriodTotals{}, fmt.Errorf("failed to sum weekly financials: %w", err)
	}

	var totals domain.PeriodTotals
	pairs := []struct {
		raw    string
		target *decimal.Decimal
	}{
		{revenueStr, &totals.Revenue},
		{profitStr, &totals.Profit},
		{dividendsStr, &totals.Dividends},
	}
	for _, p := range pairs {
		value, err := decimal.NewFromString(p.raw)
		if err != nil {
			return domain.PeriodTotals{}, fmt.Errorf("failed to parse weekly financial total: %w", err)
		}
		*p.target = value
	}

	return totals, nil
}

// loanProvider implements domain.LoanProvider
type loanProvider struct {
	db *DB
}

// NewLoanProvider creates a new loan provider
func NewLoanProvider(db *DB) domain.LoanProvider {
	return &loanProvider{db: db}
}

// ActiveLoans returns the company's outstanding loans
func (r *loanProvider) ActiveLoans(ctx context.Context, companyID string) ([]domain.Loan, error) {
	query := `
		SELECT id, company_id, remaining_balance, missed_payments
		FROM loans
		WHERE company_id = $1 AND remaining_balance > 0
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		var loan domain.Loan
		var balanceStr string

		if err := rows.Scan(&loan.ID, &loan.CompanyID, &balanceStr, &loan.MissedPayments); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}

		balance, err := decimal.NewFromString(balanceStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse remaining_balance: %w", err)
		}
		loan.RemainingBalance = balance

		loans = append(loans, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}

	return loans, nil
}

// PaymentHistory returns the company's all-time repayment record.
// Companies with no record yet read as an empty history.
func (r *loanProvider) PaymentHistory(ctx context.Context, companyID string) (domain.PaymentHistory, error) {
	query := `
		SELECT on_time_payments, loan_payoffs, missed_payments
		FROM payment_history
		WHERE company_id = $1
	`

	var history domain.PaymentHistory
	err := r.db.QueryRowContext(ctx, query, companyID).Scan(
		&history.OnTimePayments,
		&history.LoanPayoffs,
		&history.MissedPayments,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PaymentHistory{}, nil
		}
		return domain.PaymentHistory{}, fmt.Errorf("failed to get payment history: %w", err)
	}

	return history, nil
}
