package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxMoodEmojiLength = 20
	MaxMoodTextLength  = 500

	AnalysisStatusSuccess = "success"
	AnalysisStatusFailed  = "failed"
)

type MoodRecord struct {
	ID         int64     `json:"id"`
	UserID     *string   `json:"user_id,omitempty"`
	AnonID     *string   `json:"anon_id,omitempty"`
	RecordDate time.Time `json:"record_date"`
	RecordedAt time.Time `json:"recorded_at"`
	MoodEmoji  string    `json:"mood_emoji"`
	Intensity  int       `json:"intensity"`
	MoodText   *string   `json:"mood_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OwnerID is the identifier analyses are filed under.
func (r MoodRecord) OwnerID() *string {
	if r.UserID != nil {
		return r.UserID
	}
	return r.AnonID
}

type MoodAnalysis struct {
	ID           int64     `json:"id"`
	RecordID     int64     `json:"record_id"`
	UserID       *string   `json:"user_id,omitempty"`
	AnalysisText string    `json:"analysis_text"`
	CreatedAt    time.Time `json:"created_at"`
}

type MoodRecordRequest struct {
	MoodEmoji string  `json:"mood_emoji" binding:"required"`
	Intensity *int    `json:"intensity" binding:"required,min=0,max=10"`
	MoodText  *string `json:"mood_text"`
	AnonID    *string `json:"anon_id"`
}

// Validate covers the rules binding tags cannot express.
func (r MoodRecordRequest) Validate() error {
	emoji := strings.TrimSpace(r.MoodEmoji)
	if emoji == "" {
		return fmt.Errorf("%w: mood_emoji must not be blank", ErrValidation)
	}
	if utf8.RuneCountInString(emoji) > MaxMoodEmojiLength {
		return fmt.Errorf("%w: mood_emoji must not exceed %d characters", ErrValidation, MaxMoodEmojiLength)
	}
	if r.Intensity == nil || *r.Intensity < 0 || *r.Intensity > 10 {
		return fmt.Errorf("%w: intensity must be between 0 and 10", ErrValidation)
	}
	if r.MoodText != nil && utf8.RuneCountInString(*r.MoodText) > MaxMoodTextLength {
		return fmt.Errorf("%w: mood_text must not exceed %d characters", ErrValidation, MaxMoodTextLength)
	}
	return nil
}

type AnalysisResult struct {
	AnalysisText string `json:"analysis_text"`
}

type MoodRecordResponse struct {
	RecordID       int64           `json:"record_id"`
	RecordDate     string          `json:"record_date"`
	Saved          bool            `json:"saved"`
	Analysis       *AnalysisResult `json:"analysis"`
	AnalysisStatus string          `json:"analysis_status"`
}

// RecentRecord is a mood record joined with its analysis, for debugging.
type RecentRecord struct {
	RecordID     int64      `json:"record_id"`
	AnonID       *string    `json:"anon_id"`
	UserID       *string    `json:"user_id"`
	Emoji        string     `json:"emoji"`
	Intensity    int        `json:"intensity"`
	MoodText     *string    `json:"mood_text"`
	AnalysisText *string    `json:"analysis_text"`
	RecordedAt   *time.Time `json:"recorded_at"`
}

// LinkDataRequest names the anonymous id whose records move to UserID.
// A logged-in caller's token overrides UserID.
type LinkDataRequest struct {
	UserID string `json:"user_id"`
	AnonID string `json:"anon_id" binding:"required"`
}

type LinkDataResponse struct {
	UpdatedCount int64 `json:"updated_count"`
}
