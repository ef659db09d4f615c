package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"moodping/api/extract"
	"moodping/api/llm"
	"moodping/api/metrics"
	"moodping/api/models"
	"moodping/api/prompt"
	"moodping/api/store"
	"moodping/api/utils"
)

type ReportRepository interface {
	GetByUserWeek(ctx context.Context, userID int64, weekStart time.Time) (*models.WeeklyReport, error)
	Create(ctx context.Context, r *models.WeeklyReport) (*models.WeeklyReport, error)
}

type WeekRecordReader interface {
	ListByUserBetween(ctx context.Context, userID string, from, to time.Time) ([]models.MoodRecord, error)
}

type weekRecord struct {
	date      time.Time
	mood      string
	intensity int
	text      string
}

type ReportService struct {
	reports ReportRepository
	records WeekRecordReader
	llm     llm.Completer
	now     func() time.Time
}

func NewReportService(reports ReportRepository, records WeekRecordReader, completer llm.Completer) *ReportService {
	return &ReportService{reports: reports, records: records, llm: completer, now: time.Now}
}

// LatestWeekly returns the report for the last full Monday to Sunday week.
// Anonymous callers and users with no records that week get the sample week.
func (s *ReportService) LatestWeekly(ctx context.Context, userID *int64) (models.WeeklyReportResponse, error) {
	weekStart, weekEnd := utils.LastFullWeek(s.now().UTC())

	var entries []weekRecord
	if userID != nil {
		cached, err := s.reports.GetByUserWeek(ctx, *userID, weekStart)
		if err == nil {
			return toReportResponse(cached), nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return models.WeeklyReportResponse{}, err
		}

		records, err := s.records.ListByUserBetween(ctx, strconv.FormatInt(*userID, 10), weekStart, weekEnd)
		if err != nil {
			return models.WeeklyReportResponse{}, fmt.Errorf("load week records: %w", err)
		}
		for _, r := range records {
			wr := weekRecord{date: r.RecordDate, mood: r.MoodEmoji, intensity: r.Intensity}
			if r.MoodText != nil {
				wr.text = *r.MoodText
			}
			entries = append(entries, wr)
		}
	}

	dummy := len(entries) == 0
	if dummy {
		entries = sampleEntries(weekStart)
	}

	distribution := buildDistribution(entries)
	total := 0
	for _, e := range entries {
		total += e.intensity
	}
	avg := utils.Round(float64(total)/float64(len(entries)), 1)
	summary := s.summarize(ctx, entries, avg, distribution)

	if userID != nil && !dummy {
		saved, err := s.reports.Create(ctx, &models.WeeklyReport{
			UserID:           *userID,
			WeekStart:        weekStart,
			WeekEnd:          weekEnd,
			SummaryText:      &summary,
			RecordCount:      len(entries),
			AvgIntensity:     &avg,
			MoodDistribution: distribution,
		})
		if err != nil {
			return models.WeeklyReportResponse{}, fmt.Errorf("cache weekly report: %w", err)
		}
		return toReportResponse(saved), nil
	}

	return models.WeeklyReportResponse{
		WeekStart:        weekStart.Format("2006-01-02"),
		WeekEnd:          weekEnd.Format("2006-01-02"),
		RecordCount:      len(entries),
		AvgIntensity:     &avg,
		MoodDistribution: distribution,
		SummaryText:      &summary,
		IsDummy:          dummy,
	}, nil
}

func (s *ReportService) summarize(ctx context.Context, entries []weekRecord, avg float64, distribution []models.MoodDistributionItem) string {
	lines := make([]prompt.WeekEntry, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, prompt.WeekEntry{
			RecordDate: e.date.Format("2006-01-02"),
			MoodEmoji:  e.mood,
			Intensity:  e.intensity,
			MoodText:   e.text,
		})
	}

	raw, ok := s.llm.Complete(ctx, prompt.WeeklyReportSystem, prompt.WeeklyReport(lines, avg, distribution))
	if ok {
		if res, found := extract.SummaryText(raw); found {
			metrics.RecordExtraction(extract.SummaryKey, string(res.Source))
			if res.Source == extract.SourceRaw {
				log.Warn("summary_text could not be parsed, using raw response")
			}
			return res.Text
		}
	}

	log.WithField("records", len(entries)).Warn("Weekly summary unavailable, using fallback text")
	return fallbackSummary(len(entries), avg)
}

func fallbackSummary(count int, avg float64) string {
	return fmt.Sprintf("이번 주 %d건의 감정을 기록하셨네요. 평균 강도는 %.1f/10입니다. "+
		"일주일간 마음을 돌아보신 것만으로도 의미 있는 일이에요. 다음 주에도 꾸준히 기록해보세요.", count, avg)
}

// buildDistribution counts moods, most frequent first; ties keep first-seen order.
func buildDistribution(entries []weekRecord) []models.MoodDistributionItem {
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		if _, ok := counts[e.mood]; !ok {
			order = append(order, e.mood)
		}
		counts[e.mood]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	items := make([]models.MoodDistributionItem, 0, len(order))
	for _, mood := range order {
		emoji := models.MoodEmoji(mood)
		if emoji == "" {
			emoji = mood
		}
		items = append(items, models.MoodDistributionItem{
			Emoji: emoji,
			Label: models.MoodLabel(mood),
			Count: counts[mood],
		})
	}
	return items
}

func toReportResponse(r *models.WeeklyReport) models.WeeklyReportResponse {
	id := r.ID
	dist := r.MoodDistribution
	if dist == nil {
		dist = []models.MoodDistributionItem{}
	}
	return models.WeeklyReportResponse{
		ID:               &id,
		WeekStart:        r.WeekStart.Format("2006-01-02"),
		WeekEnd:          r.WeekEnd.Format("2006-01-02"),
		RecordCount:      r.RecordCount,
		AvgIntensity:     r.AvgIntensity,
		MoodDistribution: dist,
		SummaryText:      r.SummaryText,
		IsDummy:          false,
	}
}
