package services

import (
	"context"
	"errors"
	"time"

	"moodping/api/models"
	"moodping/api/store"
)

type fakeCompleter struct {
	text   string
	ok     bool
	calls  int
	system string
	user   string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, bool) {
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.text, f.ok
}

type fakeMoodRepo struct {
	records     []*models.MoodRecord
	analyses    []*models.MoodAnalysis
	createErr   error
	analysisErr error
	linked      int64
	recent      []models.RecentRecord
	recentLimit int
}

func (f *fakeMoodRepo) CreateRecord(_ context.Context, rec *models.MoodRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	rec.ID = int64(len(f.records) + 1)
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeMoodRepo) CreateAnalysis(_ context.Context, a *models.MoodAnalysis) error {
	if f.analysisErr != nil {
		return f.analysisErr
	}
	f.analyses = append(f.analyses, a)
	return nil
}

func (f *fakeMoodRepo) LinkAnonToUser(context.Context, string, string) (int64, error) {
	return f.linked, nil
}

func (f *fakeMoodRepo) Recent(_ context.Context, limit int) ([]models.RecentRecord, error) {
	f.recentLimit = limit
	return f.recent, nil
}

type fakeReportRepo struct {
	cached  map[int64]*models.WeeklyReport
	created []*models.WeeklyReport
	getErr  error
}

func (f *fakeReportRepo) GetByUserWeek(_ context.Context, userID int64, weekStart time.Time) (*models.WeeklyReport, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if r, ok := f.cached[userID]; ok && r.WeekStart.Equal(weekStart) {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeReportRepo) Create(_ context.Context, r *models.WeeklyReport) (*models.WeeklyReport, error) {
	saved := *r
	saved.ID = int64(100 + len(f.created))
	f.created = append(f.created, &saved)
	return &saved, nil
}

type fakeWeekReader struct {
	records  []models.MoodRecord
	userID   string
	from, to time.Time
}

func (f *fakeWeekReader) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]models.MoodRecord, error) {
	f.userID, f.from, f.to = userID, from, to
	return f.records, nil
}

type fakeUserRepo struct {
	upserted []models.KakaoUserInfo
	users    map[int64]*models.User
}

func (f *fakeUserRepo) UpsertKakaoUser(_ context.Context, info models.KakaoUserInfo) (*models.User, error) {
	f.upserted = append(f.upserted, info)
	return &models.User{ID: 7, KakaoID: info.KakaoID, Nickname: info.Nickname, ProfileImage: info.ProfileImage}, nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

var errDB = errors.New("db down")
