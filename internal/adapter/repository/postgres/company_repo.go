package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// companyRepository implements domain.CompanyRepository
type companyRepository struct {
	db *DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *DB) domain.CompanyRepository {
	return &companyRepository{db: db}
}

// GetByID retrieves a company by its ID
func (r *companyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	query := `
		SELECT id, name, founded_week, shares_outstanding
		FROM companies
		WHERE id = $1
	`

	var company domain.Company
	var sharesStr string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&company.ID,
		&company.Name,
		&company.FoundedWeek,
		&sharesStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get company by ID: %w", err)
	}

	// Parse shares_outstanding (DECIMAL)
	shares, err := decimal.NewFromString(sharesStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shares_outstanding: %w", err)
	}
	company.SharesOutstanding = shares

	return &company, nil
}

// List retrieves all companies
func (r *companyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	query := `
		SELECT id, name, founded_week, shares_outstanding
		FROM companies
		ORDER BY founded_week ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*domain.Company
	for rows.Next() {
		var company domain.Company
		var sharesStr string

		if err := rows.Scan(&company.ID, &company.Name, &company.FoundedWeek, &sharesStr); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}

		shares, err := decimal.NewFromString(sharesStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse shares_outstanding: %w", err)
		}
		company.SharesOutstanding = shares

		companies = append(companies, &company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, nil
}
