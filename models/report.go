package models

import "time"

type MoodDistributionItem struct {
	Emoji string `json:"emoji"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// WeeklyReport is the cached weekly summary for a logged-in user.
type WeeklyReport struct {
	ID               int64                  `json:"id"`
	UserID           int64                  `json:"user_id"`
	WeekStart        time.Time              `json:"week_start"`
	WeekEnd          time.Time              `json:"week_end"`
	SummaryText      *string                `json:"summary_text"`
	RecordCount      int                    `json:"record_count"`
	AvgIntensity     *float64               `json:"avg_intensity"`
	MoodDistribution []MoodDistributionItem `json:"mood_distribution"`
	CreatedAt        time.Time              `json:"created_at"`
}

type WeeklyReportResponse struct {
	ID               *int64                 `json:"id"`
	WeekStart        string                 `json:"week_start"`
	WeekEnd          string                 `json:"week_end"`
	RecordCount      int                    `json:"record_count"`
	AvgIntensity     *float64               `json:"avg_intensity"`
	MoodDistribution []MoodDistributionItem `json:"mood_distribution"`
	SummaryText      *string                `json:"summary_text"`
	IsDummy          bool                   `json:"is_dummy"`
}
