package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"moodping/api/models"
)

type MoodStore struct {
	db *sql.DB
}

func NewMoodStore(db *sql.DB) *MoodStore {
	return &MoodStore{db: db}
}

// CreateRecord inserts rec and fills in its generated columns.
func (s *MoodStore) CreateRecord(ctx context.Context, rec *models.MoodRecord) error {
	query := `
		INSERT INTO mood_record (user_id, anon_id, record_date, recorded_at, mood_emoji, intensity, mood_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at;
	`
	err := s.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.AnonID,
		rec.RecordDate,
		rec.RecordedAt,
		rec.MoodEmoji,
		rec.Intensity,
		rec.MoodText,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create mood record: %w", err)
	}

	log.Printf("Mood record saved: ID=%d, intensity=%d", rec.ID, rec.Intensity)
	return nil
}

func (s *MoodStore) CreateAnalysis(ctx context.Context, a *models.MoodAnalysis) error {
	query := `
		INSERT INTO mood_analysis (record_id, user_id, analysis_text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at;
	`
	if err := s.db.QueryRowContext(ctx, query, a.RecordID, a.UserID, a.AnalysisText).Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create mood analysis for record %d: %w", a.RecordID, err)
	}
	return nil
}

// ListByUserBetween returns the user's records with record_date in [from, to].
func (s *MoodStore) ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.MoodRecord, error) {
	query := `
		SELECT id, user_id, anon_id, record_date, recorded_at, mood_emoji, intensity, mood_text, created_at, updated_at
		FROM mood_record
		WHERE user_id = $1 AND record_date BETWEEN $2 AND $3
		ORDER BY recorded_at ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood records: %w", err)
	}
	defer rows.Close()

	var records []models.MoodRecord
	for rows.Next() {
		var (
			rec      models.MoodRecord
			uid, aid sql.NullString
			text     sql.NullString
		)
		if err := rows.Scan(&rec.ID, &uid, &aid, &rec.RecordDate, &rec.RecordedAt, &rec.MoodEmoji, &rec.Intensity, &text, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood record: %w", err)
		}
		rec.UserID = nullStringPtr(uid)
		rec.AnonID = nullStringPtr(aid)
		rec.MoodText = nullStringPtr(text)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during mood record query: %w", err)
	}
	return records, nil
}

// LinkAnonToUser moves records written anonymously under anonID to userID.
func (s *MoodStore) LinkAnonToUser(ctx context.Context, userID, anonID string) (int64, error) {
	query := `
		UPDATE mood_record
		SET user_id = $1, anon_id = NULL, updated_at = NOW()
		WHERE anon_id = $2 AND user_id IS NULL;
	`
	res, err := s.db.ExecContext(ctx, query, userID, anonID)
	if err != nil {
		return 0, fmt.Errorf("failed to link anon records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	log.WithFields(log.Fields{"user_id": userID, "anon_id": anonID, "rows": n}).Info("Linked anonymous records to user")
	return n, nil
}

// Recent returns the latest records with their analysis, newest first.
func (s *MoodStore) Recent(ctx context.Context, limit int) ([]models.RecentRecord, error) {
	query := `
		SELECT mr.id, mr.anon_id, mr.user_id, mr.mood_emoji, mr.intensity, mr.mood_text, ma.analysis_text, mr.recorded_at
		FROM mood_record mr
		LEFT JOIN mood_analysis ma ON ma.record_id = mr.id
		ORDER BY mr.recorded_at DESC
		LIMIT $1;
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()

	records := []models.RecentRecord{}
	for rows.Next() {
		var (
			r                      models.RecentRecord
			anonID, userID         sql.NullString
			moodText, analysisText sql.NullString
			recordedAt             sql.NullTime
		)
		if err := rows.Scan(&r.RecordID, &anonID, &userID, &r.Emoji, &r.Intensity, &moodText, &analysisText, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent record: %w", err)
		}
		r.AnonID = nullStringPtr(anonID)
		r.UserID = nullStringPtr(userID)
		r.MoodText = nullStringPtr(moodText)
		r.AnalysisText = nullStringPtr(analysisText)
		if recordedAt.Valid {
			t := recordedAt.Time
			r.RecordedAt = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during recent record query: %w", err)
	}
	return records, nil
}
