package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/cellarworks/vintner-backend/internal/domain"
)

// eventRepository implements domain.EventRepository
type eventRepository struct {
	db *DB
}

// NewEventRepository creates a new prestige event repository
func NewEventRepository(db *DB) domain.EventRepository {
	return &eventRepository{db: db}
}

// Insert stores a new prestige event
func (r *eventRepository) Insert(ctx context.Context, event *domain.PrestigeEvent) error {
	query := `
		INSERT INTO prestige_events (id, owner_key, kind, amount, created_week, decay_rate, source_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.OwnerKey,
		string(event.Kind),
		event.Amount,
		event.CreatedWeek,
		event.DecayRate,
		event.SourceID,
		event.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert prestige event: %w", err)
	}

	return nil
}

// ListByOwner retrieves all events for an owner key
func (r *eventRepository) ListByOwner(ctx context.Context, ownerKey string) ([]*domain.PrestigeEvent, error) {
	query := `
		SELECT id, owner_key, kind, amount, created_week, decay_rate, source_id, description
		FROM prestige_events
		WHERE owner_key = $1
		ORDER BY created_week ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for owner %s: %w", ownerKey, err)
	}
	defer rows.Close()

	var events []*domain.PrestigeEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	if len(events) == 0 {
		return nil, domain.ErrNotFound
	}
	return events, nil
}

// FindBySource retrieves the event for a unique (ownerKey, kind, sourceID) triple
func (r *eventRepository) FindBySource(ctx context.Context, ownerKey string, kind domain.EventKind, sourceID string) (*domain.PrestigeEvent, error) {
	query := `
		SELECT id, owner_key, kind, amount, created_week, decay_rate, source_id, description
		FROM prestige_events
		WHERE owner_key = $1 AND kind = $2 AND source_id = $3
	`

	row := r.db.QueryRowContext(ctx, query, ownerKey, string(kind), sourceID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

// Update replaces the stored amount and timestamp of an existing event
func (r *eventRepository) Update(ctx context.Context, event *domain.PrestigeEvent) error {
	query := `
		UPDATE prestige_events
		SET amount = $2, created_week = $3, description = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.Amount,
		event.CreatedWeek,
		event.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update prestige event %s: %w", event.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByIDs removes events whole; an event is never partially deleted
func (r *eventRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM prestige_events WHERE id = ANY($1)`

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	if _, err := r.db.ExecContext(ctx, query, pq.Array(raw)); err != nil {
		return fmt.Errorf("failed to delete prestige events: %w", err)
	}
	return nil
}

// scanEvent reads one event row from either a *sql.Row or *sql.Rows
func scanEvent(row interface {
	Scan(dest ...interface{}) error
}) (*domain.PrestigeEvent, error) {
	var event domain.PrestigeEvent
	var kind string

	err := row.Scan(
		&event.ID,
		&event.OwnerKey,
		&kind,
		&event.Amount,
		&event.CreatedWeek,
		&event.DecayRate,
		&event.SourceID,
		&event.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan prestige event: %w", err)
	}

	event.Kind = domain.EventKind(kind)
	return &event, nil
}
