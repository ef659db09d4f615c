package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodping/api/models"
)

var reportRowColumns = []string{"id", "user_id", "week_start", "week_end", "summary_text", "record_count", "avg_intensity", "mood_distribution", "created_at"}

func TestReportStoreGetByUserWeekNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	week := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM weekly_report").
		WithArgs(int64(42), week).
		WillReturnError(sql.ErrNoRows)

	_, err = NewReportStore(db).GetByUserWeek(context.Background(), 42, week)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStoreCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	week := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	avg := 6.5
	summary := "steady week"
	r := &models.WeeklyReport{
		UserID:           42,
		WeekStart:        week,
		WeekEnd:          week.AddDate(0, 0, 6),
		SummaryText:      &summary,
		RecordCount:      2,
		AvgIntensity:     &avg,
		MoodDistribution: []models.MoodDistributionItem{{Emoji: "😊", Label: "기쁨", Count: 2}},
	}

	mock.ExpectQuery("INSERT INTO weekly_report").
		WithArgs(int64(42), week, r.WeekEnd, summary, 2, avg, `[{"emoji":"😊","label":"기쁨","count":2}]`).
		WillReturnRows(sqlmock.NewRows(reportRowColumns).
			AddRow(int64(9), int64(42), week, r.WeekEnd, summary, 2, avg, []byte(`[{"emoji":"😊","label":"기쁨","count":2}]`), week))

	saved, err := NewReportStore(db).Create(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(9), saved.ID)
	require.Len(t, saved.MoodDistribution, 1)
	assert.Equal(t, 2, saved.MoodDistribution[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportStoreCreateConflictReadsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	week := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	r := &models.WeeklyReport{UserID: 42, WeekStart: week, WeekEnd: week.AddDate(0, 0, 6)}

	mock.ExpectQuery("INSERT INTO weekly_report").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT (.+) FROM weekly_report").
		WithArgs(int64(42), week).
		WillReturnRows(sqlmock.NewRows(reportRowColumns).
			AddRow(int64(3), int64(42), week, r.WeekEnd, "earlier", 1, 4.0, []byte(`[]`), week))

	saved, err := NewReportStore(db).Create(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(3), saved.ID)
	require.NotNil(t, saved.SummaryText)
	assert.Equal(t, "earlier", *saved.SummaryText)
	require.NoError(t, mock.ExpectationsWereMet())
}
