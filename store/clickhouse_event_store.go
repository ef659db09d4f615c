package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	log "github.com/sirupsen/logrus"

	"moodping/api/database"
	"moodping/api/models"
)

const appendLockStripes = 32

type rowScanner interface {
	Scan(dest ...any) error
}

type eventRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type eventBatch interface {
	Append(v ...any) error
	Send() error
}

// clickHouseConn is the part of the native driver the event store uses.
type clickHouseConn interface {
	QueryRow(ctx context.Context, query string, args ...any) rowScanner
	Query(ctx context.Context, query string, args ...any) (eventRows, error)
	PrepareBatch(ctx context.Context, query string) (eventBatch, error)
}

type nativeConn struct {
	conn driver.Conn
}

func (n nativeConn) QueryRow(ctx context.Context, query string, args ...any) rowScanner {
	return n.conn.QueryRow(ctx, query, args...)
}

func (n nativeConn) Query(ctx context.Context, query string, args ...any) (eventRows, error) {
	rows, err := n.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (n nativeConn) PrepareBatch(ctx context.Context, query string) (eventBatch, error) {
	batch, err := n.conn.PrepareBatch(ctx, query)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// ClickHouseEventStore keeps the event log in a ReplacingMergeTree table
// keyed by event_id. Reads deduplicate with LIMIT 1 BY, so duplicate inserts
// are never counted twice even before a merge.
type ClickHouseEventStore struct {
	conn  clickHouseConn
	locks [appendLockStripes]sync.Mutex
}

func NewClickHouseEventStore(chClient *database.ClickHouseClient) *ClickHouseEventStore {
	return newClickHouseEventStore(nativeConn{conn: chClient.Conn})
}

func newClickHouseEventStore(conn clickHouseConn) *ClickHouseEventStore {
	return &ClickHouseEventStore{conn: conn}
}

func (s *ClickHouseEventStore) lockFor(eventID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(eventID))
	return &s.locks[h.Sum32()%appendLockStripes]
}

// Append inserts ev unless its event_id is already stored. ClickHouse has no
// unique constraint, so the check and the insert are serialized per event_id
// inside this process only. With several API instances writing, inserted is
// best-effort: two instances can both report true for the same event_id.
// The stored log still holds it once after dedupe.
func (s *ClickHouseEventStore) Append(ctx context.Context, ev models.Event) (bool, error) {
	mu := s.lockFor(ev.EventID)
	mu.Lock()
	defer mu.Unlock()

	var existing uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM event_log WHERE event_id = ?`, ev.EventID).Scan(&existing); err != nil {
		return false, fmt.Errorf("failed to check event %s: %w", ev.EventID, err)
	}
	if existing > 0 {
		return false, nil
	}

	extra, err := encodeExtraData(ev.ExtraData)
	if err != nil {
		return false, err
	}
	extraText, _ := extra.(string)

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO event_log (
			event_id, session_id, user_id, anon_id, event_name, occurred_at, extra_data
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare batch insert: %w", err)
	}

	if err := batch.Append(
		ev.EventID,
		ev.SessionID,
		ev.UserID,
		ev.AnonID,
		ev.EventName,
		ev.OccurredAt,
		extraText,
	); err != nil {
		return false, fmt.Errorf("failed to append event %s to batch: %w", ev.EventID, err)
	}

	if err := batch.Send(); err != nil {
		return false, fmt.Errorf("failed to send batch: %w", err)
	}
	return true, nil
}

func (s *ClickHouseEventStore) ListEvents(ctx context.Context, names []string) ([]models.Event, error) {
	if len(names) == 0 {
		return nil, nil
	}

	query := `
		SELECT event_id, session_id, user_id, anon_id, event_name, occurred_at, extra_data
		FROM event_log
		WHERE has(?, event_name)
		ORDER BY occurred_at ASC
		LIMIT 1 BY event_id
	`
	rows, err := s.conn.Query(ctx, query, names)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			ev         models.Event
			userID     *string
			anonID     *string
			occurredAt time.Time
			extra      string
		)
		if err := rows.Scan(&ev.EventID, &ev.SessionID, &userID, &anonID, &ev.EventName, &occurredAt, &extra); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.UserID = userID
		ev.AnonID = anonID
		ev.OccurredAt = occurredAt.UTC()
		if ev.ExtraData, err = decodeExtraData([]byte(extra)); err != nil {
			log.Printf("Skipping unreadable extra_data for event %s: %v", ev.EventID, err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during event query: %w", err)
	}
	return events, nil
}
