package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// clockRepository implements domain.ClockRepository over a single-row table
// holding the shared game calendar position
type clockRepository struct {
	db *DB
}

// NewClockRepository creates a new game clock repository
func NewClockRepository(db *DB) domain.ClockRepository {
	return &clockRepository{db: db}
}

// Now returns the current game date. A game that has never ticked reads as
// week 1 of spring, year 1.
func (r *clockRepository) Now(ctx context.Context) (domain.GameDate, error) {
	query := `SELECT absolute_week FROM game_clock WHERE id = 1`

	var week int
	err := r.db.QueryRowContext(ctx, query).Scan(&week)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DateFromAbsoluteWeek(0), nil
		}
		return domain.GameDate{}, fmt.Errorf("failed to read game clock: %w", err)
	}

	return domain.DateFromAbsoluteWeek(week), nil
}

// Advance moves the calendar forward one week and returns the new date
func (r *clockRepository) Advance(ctx context.Context) (domain.GameDate, error) {
	query := `
		INSERT INTO game_clock (id, absolute_week)
		VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE
		SET absolute_week = game_clock.absolute_week + 1
		RETURNING absolute_week
	`

	var week int
	if err := r.db.QueryRowContext(ctx, query).Scan(&week); err != nil {
		return domain.GameDate{}, fmt.Errorf("failed to advance game clock: %w", err)
	}

	return domain.DateFromAbsoluteWeek(week), nil
}
