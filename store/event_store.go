package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"moodping/api/models"
)

var ErrNotFound = errors.New("not found")

// EventReader is the read side the funnel engine needs.
type EventReader interface {
	// ListEvents returns every stored event whose name is in names.
	ListEvents(ctx context.Context, names []string) ([]models.Event, error)
}

// EventStore is the append-only event log. Appending an event_id that is
// already stored is a no-op reported as inserted=false.
type EventStore interface {
	EventReader
	Append(ctx context.Context, ev models.Event) (inserted bool, err error)
}

type PostgresEventStore struct {
	db *sql.DB
}

func NewPostgresEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func (s *PostgresEventStore) Append(ctx context.Context, ev models.Event) (bool, error) {
	extra, err := encodeExtraData(ev.ExtraData)
	if err != nil {
		return false, err
	}

	query := `
		INSERT INTO event_log (event_id, session_id, user_id, anon_id, event_name, occurred_at, extra_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING;
	`
	res, err := s.db.ExecContext(ctx, query,
		ev.EventID,
		ev.SessionID,
		ev.UserID,
		ev.AnonID,
		ev.EventName,
		ev.OccurredAt,
		extra,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert event %s: %w", ev.EventID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for event %s: %w", ev.EventID, err)
	}
	return n > 0, nil
}

func (s *PostgresEventStore) ListEvents(ctx context.Context, names []string) ([]models.Event, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, event_id, session_id, user_id, anon_id, event_name, occurred_at, extra_data
		FROM event_log
		WHERE event_name = ANY($1)
		ORDER BY occurred_at ASC, id ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev     models.Event
			userID sql.NullString
			anonID sql.NullString
			extra  []byte
		)
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.SessionID, &userID, &anonID, &ev.EventName, &ev.OccurredAt, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.UserID = nullStringPtr(userID)
		ev.AnonID = nullStringPtr(anonID)
		ev.OccurredAt = ev.OccurredAt.UTC()
		if ev.ExtraData, err = decodeExtraData(extra); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.EventID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event query: %w", err)
	}
	return events, nil
}

// encodeExtraData returns the JSON text for a JSONB column, or nil for NULL.
func encodeExtraData(extra map[string]any) (interface{}, error) {
	if extra == nil {
		return nil, nil
	}
	b, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extra_data: %w", err)
	}
	return string(b), nil
}

func decodeExtraData(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var extra map[string]any
	if err := json.Unmarshal(raw, &extra); err != nil {
		return nil, fmt.Errorf("failed to decode extra_data: %w", err)
	}
	return extra, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
