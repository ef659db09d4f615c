package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"moodping/api/models"
)

type ReportStore struct {
	db *sql.DB
}

func NewReportStore(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

const reportColumns = `id, user_id, week_start, week_end, summary_text, record_count, avg_intensity, mood_distribution, created_at`

// GetByUserWeek returns ErrNotFound when no report is cached for the week.
func (s *ReportStore) GetByUserWeek(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyReport, error) {
	query := `SELECT ` + reportColumns + ` FROM weekly_report WHERE user_id = $1 AND week_start = $2;`
	report, err := scanReport(s.db.QueryRowContext(ctx, query, userID, weekStart))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get weekly report: %w", err)
	}
	return report, nil
}

// Create stores r unless a report for the same week already exists, in which
// case the existing row wins and is returned.
func (s *ReportStore) Create(ctx context.Context, r *models.WeeklyReport) (*models.WeeklyReport, error) {
	dist, err := json.Marshal(r.MoodDistribution)
	if err != nil {
		return nil, fmt.Errorf("failed to encode mood distribution: %w", err)
	}

	query := `
		INSERT INTO weekly_report (user_id, week_start, week_end, summary_text, record_count, avg_intensity, mood_distribution)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, week_start) DO NOTHING
		RETURNING ` + reportColumns + `;`
	report, err := scanReport(s.db.QueryRowContext(ctx, query,
		r.UserID,
		r.WeekStart,
		r.WeekEnd,
		r.SummaryText,
		r.RecordCount,
		r.AvgIntensity,
		string(dist),
	))
	if errors.Is(err, sql.ErrNoRows) {
		log.WithFields(log.Fields{"user_id": r.UserID, "week_start": r.WeekStart.Format("2006-01-02")}).
			Debug("Weekly report already cached, reading existing row")
		return s.GetByUserWeek(ctx, r.UserID, r.WeekStart)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create weekly report: %w", err)
	}
	return report, nil
}

func scanReport(row *sql.Row) (*models.WeeklyReport, error) {
	var (
		r       models.WeeklyReport
		summary sql.NullString
		avg     sql.NullFloat64
		dist    []byte
	)
	if err := row.Scan(&r.ID, &r.UserID, &r.WeekStart, &r.WeekEnd, &summary, &r.RecordCount, &avg, &dist, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.SummaryText = nullStringPtr(summary)
	if avg.Valid {
		v := avg.Float64
		r.AvgIntensity = &v
	}
	r.MoodDistribution = []models.MoodDistributionItem{}
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &r.MoodDistribution); err != nil {
			return nil, fmt.Errorf("failed to decode mood distribution: %w", err)
		}
	}
	return &r, nil
}
