package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxEventNameLength = 50

// ErrValidation marks input rejected before any write.
var ErrValidation = errors.New("validation failed")

// Event is a single funnel event. Rows are immutable once stored.
type Event struct {
	ID         int64          `json:"id,omitempty"`
	EventID    string         `json:"event_id"`
	SessionID  string         `json:"session_id"`
	UserID     *string        `json:"user_id,omitempty"`
	AnonID     *string        `json:"anon_id,omitempty"`
	EventName  string         `json:"event_name"`
	OccurredAt time.Time      `json:"occurred_at"`
	ExtraData  map[string]any `json:"extra_data,omitempty"`
}

// Identifier is user_id when present, otherwise anon_id.
func (e Event) Identifier() (string, bool) {
	if e.UserID != nil && *e.UserID != "" {
		return *e.UserID, true
	}
	if e.AnonID != nil && *e.AnonID != "" {
		return *e.AnonID, true
	}
	return "", false
}

type EventLogRequest struct {
	EventID   string         `json:"event_id" binding:"required"`
	SessionID string         `json:"session_id" binding:"required"`
	UserID    *string        `json:"user_id"`
	AnonID    *string        `json:"anon_id"`
	EventName string         `json:"event_name" binding:"required"`
	ExtraData map[string]any `json:"extra_data"`
}

// ToEvent validates the request and builds the event to store.
func (r EventLogRequest) ToEvent(now time.Time) (Event, error) {
	eventID := strings.TrimSpace(r.EventID)
	sessionID := strings.TrimSpace(r.SessionID)
	eventName := strings.TrimSpace(r.EventName)

	switch {
	case eventID == "":
		return Event{}, fmt.Errorf("%w: event_id must not be empty", ErrValidation)
	case sessionID == "":
		return Event{}, fmt.Errorf("%w: session_id must not be empty", ErrValidation)
	case eventName == "":
		return Event{}, fmt.Errorf("%w: event_name must not be empty", ErrValidation)
	case utf8.RuneCountInString(eventName) > MaxEventNameLength:
		return Event{}, fmt.Errorf("%w: event_name must not exceed %d characters", ErrValidation, MaxEventNameLength)
	}

	return Event{
		EventID:    eventID,
		SessionID:  sessionID,
		UserID:     nonBlank(r.UserID),
		AnonID:     nonBlank(r.AnonID),
		EventName:  eventName,
		OccurredAt: now.UTC(),
		ExtraData:  r.ExtraData,
	}, nil
}

type StatusResponse struct {
	Status   string `json:"status"`
	Recorded bool   `json:"recorded"`
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
