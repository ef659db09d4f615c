package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"moodping/api/extract"
	"moodping/api/llm"
	"moodping/api/metrics"
	"moodping/api/models"
	"moodping/api/prompt"
	"moodping/api/utils"
)

const recentRecordsLimit = 10

type MoodRepository interface {
	CreateRecord(ctx context.Context, rec *models.MoodRecord) error
	CreateAnalysis(ctx context.Context, a *models.MoodAnalysis) error
	LinkAnonToUser(ctx context.Context, userID, anonID string) (int64, error)
	Recent(ctx context.Context, limit int) ([]models.RecentRecord, error)
}

type MoodService struct {
	records MoodRepository
	llm     llm.Completer
	now     func() time.Time
}

func NewMoodService(records MoodRepository, completer llm.Completer) *MoodService {
	return &MoodService{records: records, llm: completer, now: time.Now}
}

// SaveAndAnalyze stores the record first and then asks the model for an
// analysis. A failed analysis is reported through AnalysisStatus; only a
// failed save returns an error.
func (s *MoodService) SaveAndAnalyze(ctx context.Context, req models.MoodRecordRequest, userID *string) (models.MoodRecordResponse, error) {
	if err := req.Validate(); err != nil {
		return models.MoodRecordResponse{}, err
	}

	now := s.now().UTC()
	rec := &models.MoodRecord{
		RecordDate: utils.DateOnly(now),
		RecordedAt: now,
		MoodEmoji:  strings.TrimSpace(req.MoodEmoji),
		Intensity:  *req.Intensity,
		MoodText:   blankToNil(req.MoodText),
	}
	if userID != nil {
		rec.UserID = userID
	} else {
		rec.AnonID = blankToNil(req.AnonID)
	}

	if err := s.records.CreateRecord(ctx, rec); err != nil {
		return models.MoodRecordResponse{}, fmt.Errorf("save mood record: %w", err)
	}

	resp := models.MoodRecordResponse{
		RecordID:       rec.ID,
		RecordDate:     rec.RecordDate.Format("2006-01-02"),
		Saved:          true,
		AnalysisStatus: models.AnalysisStatusFailed,
	}

	text, ok := s.analyze(ctx, rec)
	if !ok {
		return resp, nil
	}

	analysis := &models.MoodAnalysis{
		RecordID:     rec.ID,
		UserID:       rec.OwnerID(),
		AnalysisText: text,
	}
	if err := s.records.CreateAnalysis(ctx, analysis); err != nil {
		log.WithError(err).WithField("record_id", rec.ID).Error("Failed to store mood analysis")
		return resp, nil
	}

	resp.Analysis = &models.AnalysisResult{AnalysisText: text}
	resp.AnalysisStatus = models.AnalysisStatusSuccess
	return resp, nil
}

func (s *MoodService) analyze(ctx context.Context, rec *models.MoodRecord) (string, bool) {
	fields := log.Fields{"record_id": rec.ID}

	raw, ok := s.llm.Complete(ctx, prompt.MoodAnalysisSystem, prompt.MoodAnalysis(*rec))
	if !ok {
		log.WithFields(fields).Warn("No analysis from LLM, record kept without one")
		return "", false
	}
	fields["raw_chars"] = len(raw)

	res, ok := extract.AnalysisText(raw)
	if !ok {
		log.WithFields(fields).Warn("LLM response had no usable analysis_text")
		return "", false
	}
	metrics.RecordExtraction(extract.AnalysisKey, string(res.Source))
	if res.Source == extract.SourceRaw {
		log.WithFields(fields).Warn("analysis_text could not be parsed, storing raw response")
	}
	return res.Text, true
}

// LinkAnonToUser hands records written before login over to the user.
func (s *MoodService) LinkAnonToUser(ctx context.Context, req models.LinkDataRequest) (models.LinkDataResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	anonID := strings.TrimSpace(req.AnonID)
	if userID == "" || anonID == "" {
		return models.LinkDataResponse{}, fmt.Errorf("%w: user_id and anon_id are required", models.ErrValidation)
	}

	n, err := s.records.LinkAnonToUser(ctx, userID, anonID)
	if err != nil {
		return models.LinkDataResponse{}, err
	}
	return models.LinkDataResponse{UpdatedCount: n}, nil
}

func (s *MoodService) RecentRecords(ctx context.Context) ([]models.RecentRecord, error) {
	return s.records.Recent(ctx, recentRecordsLimit)
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
