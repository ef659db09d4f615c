// Package analytics computes conversion funnels and retention from the event log.
package analytics

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"moodping/api/models"
	"moodping/api/store"
	"moodping/api/utils"
)

const (
	EventRecordScreenView  = "record_screen_view"
	EventEmojiSelected     = "emoji_selected"
	EventIntensitySelected = "intensity_selected"
	EventTextInputStart    = "text_input_start"
	EventRecordComplete    = "record_complete"
	EventAnalysisView      = "analysis_view"
	EventFeedbackConfirmed = "feedback_confirmed"

	DefaultDropThresholdMinutes = 10
	DefaultRetentionDays        = 7
)

// DefaultSteps is the order the record screen walks a user through.
var DefaultSteps = []string{
	EventRecordScreenView,
	EventEmojiSelected,
	EventIntensitySelected,
	EventTextInputStart,
	EventRecordComplete,
	EventAnalysisView,
	EventFeedbackConfirmed,
}

var stepLabels = map[string]string{
	EventRecordScreenView:  "페이지 진입",
	EventEmojiSelected:     "이모지 선택",
	EventIntensitySelected: "강도 선택",
	EventTextInputStart:    "텍스트 입력",
	EventRecordComplete:    "기록 완료",
	EventAnalysisView:      "분석 조회",
	EventFeedbackConfirmed: "확인 완료",
}

// StepLabel returns the display label for step, or step itself when unknown.
func StepLabel(step string) string {
	if label, ok := stepLabels[step]; ok {
		return label
	}
	return step
}

// Options tunes an Engine. Unset fields fall back to the package defaults.
// A DropThresholdMinutes of 0 is a valid threshold; only negative values
// are replaced.
type Options struct {
	DropThresholdMinutes int
	RetentionDays        int
	Steps                []string
	RetentionEvent       string
}

// Engine runs read-only aggregations over an EventReader. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	events store.EventReader
	opts   Options
}

// NewEngine fills unset options with defaults and returns an Engine reading from events.
func NewEngine(events store.EventReader, opts Options) *Engine {
	if opts.DropThresholdMinutes < 0 {
		opts.DropThresholdMinutes = DefaultDropThresholdMinutes
	}
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = DefaultRetentionDays
	}
	if len(opts.Steps) == 0 {
		opts.Steps = DefaultSteps
	}
	if opts.RetentionEvent == "" {
		opts.RetentionEvent = EventAnalysisView
	}
	return &Engine{events: events, opts: opts}
}

// Options returns the options after defaults were applied.
func (e *Engine) Options() Options {
	return e.opts
}

// RecordFunnel measures sessions that finish a record after opening the record screen.
func (e *Engine) RecordFunnel(ctx context.Context, thresholdMinutes int) (models.FunnelResult, error) {
	return e.Funnel(ctx, EventRecordScreenView, EventRecordComplete, thresholdMinutes)
}

// AnalysisFunnel measures sessions that open the analysis after completing a record.
func (e *Engine) AnalysisFunnel(ctx context.Context, thresholdMinutes int) (models.FunnelResult, error) {
	return e.Funnel(ctx, EventRecordComplete, EventAnalysisView, thresholdMinutes)
}

// Funnel pairs every start event with each end event of the same session that
// happens no earlier than the start and at most thresholdMinutes whole minutes
// after it.
func (e *Engine) Funnel(ctx context.Context, startEvent, endEvent string, thresholdMinutes int) (models.FunnelResult, error) {
	result := models.FunnelResult{StartEvent: startEvent, EndEvent: endEvent}

	events, err := e.events.ListEvents(ctx, uniqueNames(startEvent, endEvent))
	if err != nil {
		return result, fmt.Errorf("funnel %s -> %s: %w", startEvent, endEvent, err)
	}

	starts := make(map[string][]time.Time)
	ends := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.EventName == startEvent {
			starts[ev.SessionID] = append(starts[ev.SessionID], ev.OccurredAt)
		}
		if ev.EventName == endEvent {
			ends[ev.SessionID] = append(ends[ev.SessionID], ev.OccurredAt)
		}
	}

	var (
		completed    int
		pairs        int
		totalMinutes float64
	)
	for session, startTimes := range starts {
		matched := false
		for _, s := range startTimes {
			for _, end := range ends[session] {
				elapsed := end.Sub(s)
				if elapsed < 0 {
					continue
				}
				if int(elapsed/time.Minute) > thresholdMinutes {
					continue
				}
				matched = true
				pairs++
				totalMinutes += elapsed.Seconds() / 60
			}
		}
		if matched {
			completed++
		}
	}

	result.StartCount = len(starts)
	result.EndCount = completed
	if result.StartCount > 0 {
		result.DropRate = utils.Round(1-float64(completed)/float64(result.StartCount), 4)
	}
	if pairs > 0 {
		result.AvgDurationMinutes = utils.Round(totalMinutes/float64(pairs), 2)
	}
	return result, nil
}

// StepFunnel counts distinct sessions per step. Each step is counted on its
// own; a session does not need the earlier steps to count at a later one.
func (e *Engine) StepFunnel(ctx context.Context, steps []string) ([]models.StepFunnelEntry, error) {
	entries := make([]models.StepFunnelEntry, 0, len(steps))
	if len(steps) == 0 {
		return entries, nil
	}

	events, err := e.events.ListEvents(ctx, uniqueNames(steps...))
	if err != nil {
		return entries, fmt.Errorf("step funnel: %w", err)
	}

	sessions := make(map[string]map[string]struct{}, len(steps))
	for _, ev := range events {
		set, ok := sessions[ev.EventName]
		if !ok {
			set = make(map[string]struct{})
			sessions[ev.EventName] = set
		}
		set[ev.SessionID] = struct{}{}
	}

	prev := 0
	for i, step := range steps {
		count := len(sessions[step])
		entry := models.StepFunnelEntry{Step: step, Label: StepLabel(step), Sessions: count}
		if i > 0 && prev > 0 {
			entry.DropRate = utils.Round(1-float64(count)/float64(prev), 4)
		}
		entries = append(entries, entry)
		prev = count
	}
	return entries, nil
}

// Retention groups the retention event by identifier and counts identifiers
// that repeat it strictly after their first occurrence and within windowDays
// calendar days of it.
func (e *Engine) Retention(ctx context.Context, windowDays int) (models.RetentionResult, error) {
	event := e.opts.RetentionEvent
	result := models.RetentionResult{Event: event, WindowDays: windowDays}

	events, err := e.events.ListEvents(ctx, []string{event})
	if err != nil {
		return result, fmt.Errorf("retention %s: %w", event, err)
	}

	occurrences := make(map[string][]time.Time)
	for _, ev := range events {
		id, ok := ev.Identifier()
		if !ok {
			continue
		}
		occurrences[id] = append(occurrences[id], ev.OccurredAt)
	}

	retained := 0
	for _, times := range occurrences {
		first := times[0]
		for _, t := range times[1:] {
			if t.Before(first) {
				first = t
			}
		}
		for _, t := range times {
			if t.After(first) && utils.DaysBetween(first.UTC(), t.UTC()) <= windowDays {
				retained++
				break
			}
		}
	}

	result.TotalUsers = len(occurrences)
	result.RetainedUsers = retained
	if result.TotalUsers > 0 {
		result.RetentionRatePercent = utils.Round(float64(retained)*100/float64(result.TotalUsers), 2)
	}
	return result, nil
}

// Metrics builds the debug snapshot with the configured threshold and window.
func (e *Engine) Metrics(ctx context.Context) (models.MetricsSnapshot, error) {
	return e.MetricsWith(ctx, e.opts.DropThresholdMinutes, e.opts.RetentionDays)
}

// MetricsWith runs every aggregation with explicit parameters. The events
// they need are read from the store once and shared.
func (e *Engine) MetricsWith(ctx context.Context, thresholdMinutes, retentionDays int) (models.MetricsSnapshot, error) {
	snap := models.MetricsSnapshot{
		DropThresholdMinutes: thresholdMinutes,
		StepFunnel:           []models.StepFunnelEntry{},
	}
	started := time.Now()

	names := append([]string{EventRecordScreenView, EventRecordComplete, EventAnalysisView, e.opts.RetentionEvent}, e.opts.Steps...)
	loaded, err := e.events.ListEvents(ctx, uniqueNames(names...))
	if err != nil {
		return models.MetricsSnapshot{}, fmt.Errorf("metrics: %w", err)
	}
	view := &Engine{events: eventSnapshot(loaded), opts: e.opts}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := view.RecordFunnel(gctx, thresholdMinutes)
		snap.Funnel.RecordFunnel = r
		return err
	})
	g.Go(func() error {
		r, err := view.AnalysisFunnel(gctx, thresholdMinutes)
		snap.Funnel.AnalysisFunnel = r
		return err
	})
	g.Go(func() error {
		r, err := view.StepFunnel(gctx, e.opts.Steps)
		snap.StepFunnel = r
		return err
	})
	g.Go(func() error {
		r, err := view.Retention(gctx, retentionDays)
		snap.Retention = r
		return err
	})
	if err := g.Wait(); err != nil {
		return models.MetricsSnapshot{}, err
	}

	log.WithFields(log.Fields{
		"threshold_minutes": thresholdMinutes,
		"retention_days":    retentionDays,
		"events":            len(loaded),
		"elapsed":           time.Since(started).String(),
	}).Debug("Computed funnel metrics")
	return snap, nil
}

// eventSnapshot serves ListEvents from events that are already loaded,
// keeping their order.
type eventSnapshot []models.Event

func (s eventSnapshot) ListEvents(_ context.Context, names []string) ([]models.Event, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}
	out := make([]models.Event, 0, len(s))
	for _, ev := range s {
		if _, ok := want[ev.EventName]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

func uniqueNames(names ...string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
