package analytics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodping/api/models"
	"moodping/api/store"
)

var t0 = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

type seeder struct {
	t     *testing.T
	store *store.MemoryEventStore
	n     int
}

func newSeeder(t *testing.T) *seeder {
	return &seeder{t: t, store: store.NewMemoryEventStore()}
}

func (s *seeder) add(session, name string, at time.Time) {
	s.addFor(session, name, at, nil, nil)
}

func (s *seeder) addFor(session, name string, at time.Time, userID, anonID *string) {
	s.n++
	_, err := s.store.Append(context.Background(), models.Event{
		EventID:    fmt.Sprintf("ev-%d", s.n),
		SessionID:  session,
		UserID:     userID,
		AnonID:     anonID,
		EventName:  name,
		OccurredAt: at,
	})
	require.NoError(s.t, err)
}

func ptr(s string) *string { return &s }

type failingReader struct{}

func (failingReader) ListEvents(context.Context, []string) ([]models.Event, error) {
	return nil, errors.New("connection reset")
}

func TestFunnelEmptyStoreIsZero(t *testing.T) {
	engine := NewEngine(store.NewMemoryEventStore(), Options{})
	ctx := context.Background()

	for _, threshold := range []int{0, 1, 10, 1000} {
		rf, err := engine.RecordFunnel(ctx, threshold)
		require.NoError(t, err)
		assert.Equal(t, models.FunnelResult{StartEvent: EventRecordScreenView, EndEvent: EventRecordComplete}, rf)

		af, err := engine.AnalysisFunnel(ctx, threshold)
		require.NoError(t, err)
		assert.Zero(t, af.StartCount)
		assert.Zero(t, af.EndCount)
		assert.Zero(t, af.DropRate)
		assert.Zero(t, af.AvgDurationMinutes)
	}
}

func TestRecordFunnelSingleSession(t *testing.T) {
	s := newSeeder(t)
	s.add("S1", EventRecordScreenView, t0)
	s.add("S1", EventRecordComplete, t0.Add(5*time.Minute))

	got, err := NewEngine(s.store, Options{}).RecordFunnel(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StartCount)
	assert.Equal(t, 1, got.EndCount)
	assert.Equal(t, 0.0, got.DropRate)
	assert.Equal(t, 5.0, got.AvgDurationMinutes)
}

func TestFunnelThresholdWindow(t *testing.T) {
	s := newSeeder(t)
	// completes exactly on the boundary
	s.add("edge", EventRecordScreenView, t0)
	s.add("edge", EventRecordComplete, t0.Add(10*time.Minute+30*time.Second))
	// too late
	s.add("late", EventRecordScreenView, t0)
	s.add("late", EventRecordComplete, t0.Add(11*time.Minute))
	// completion before the start does not count
	s.add("early", EventRecordScreenView, t0.Add(time.Minute))
	s.add("early", EventRecordComplete, t0)
	// completion in another session does not count
	s.add("lonely", EventRecordScreenView, t0)
	s.add("other", EventRecordComplete, t0.Add(time.Minute))

	got, err := NewEngine(s.store, Options{}).RecordFunnel(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 4, got.StartCount)
	assert.Equal(t, 1, got.EndCount)
	assert.Equal(t, 0.75, got.DropRate)
	assert.Equal(t, 10.5, got.AvgDurationMinutes)
}

func TestAnalysisFunnelAveragesMatchedPairs(t *testing.T) {
	s := newSeeder(t)
	s.add("a", EventRecordComplete, t0)
	s.add("a", EventAnalysisView, t0.Add(2*time.Minute))
	s.add("b", EventRecordComplete, t0)
	s.add("b", EventAnalysisView, t0.Add(3*time.Minute))
	s.add("c", EventRecordComplete, t0)

	got, err := NewEngine(s.store, Options{}).AnalysisFunnel(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, got.StartCount)
	assert.Equal(t, 2, got.EndCount)
	assert.Equal(t, 0.3333, got.DropRate)
	assert.Equal(t, 2.5, got.AvgDurationMinutes)
}

func TestStepFunnel(t *testing.T) {
	s := newSeeder(t)
	for _, session := range []string{"s1", "s2", "s3"} {
		s.add(session, "A", t0)
	}
	s.add("s1", "B", t0.Add(time.Minute))

	got, err := NewEngine(s.store, Options{}).StepFunnel(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []models.StepFunnelEntry{
		{Step: "A", Label: "A", Sessions: 3, DropRate: 0},
		{Step: "B", Label: "B", Sessions: 1, DropRate: 0.6667},
	}, got)
}

func TestStepFunnelStepsAreIndependent(t *testing.T) {
	s := newSeeder(t)
	s.add("s1", EventEmojiSelected, t0)
	s.add("s1", EventEmojiSelected, t0.Add(time.Second))
	s.add("s2", EventIntensitySelected, t0)
	s.add("s3", EventIntensitySelected, t0)

	got, err := NewEngine(s.store, Options{}).StepFunnel(context.Background(), []string{
		EventRecordScreenView, EventEmojiSelected, EventIntensitySelected,
	})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "페이지 진입", got[0].Label)
	assert.Equal(t, 0, got[0].Sessions)
	assert.Equal(t, 0.0, got[0].DropRate)
	assert.Equal(t, 1, got[1].Sessions)
	assert.Equal(t, 0.0, got[1].DropRate, "previous step had no sessions")
	assert.Equal(t, 2, got[2].Sessions)
	assert.Equal(t, -1.0, got[2].DropRate)
}

func TestStepFunnelFirstStepNeverDrops(t *testing.T) {
	s := newSeeder(t)
	s.add("s1", "only", t0)

	got, err := NewEngine(s.store, Options{}).StepFunnel(context.Background(), []string{"only"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0.0, got[0].DropRate)

	empty, err := NewEngine(s.store, Options{}).StepFunnel(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRetention(t *testing.T) {
	s := newSeeder(t)
	// user returns after 3 days
	s.addFor("a1", EventAnalysisView, t0, ptr("u1"), nil)
	s.addFor("a2", EventAnalysisView, t0.AddDate(0, 0, 3), ptr("u1"), nil)
	// anon returns after 9 days
	s.addFor("b1", EventAnalysisView, t0, nil, ptr("anon-1"))
	s.addFor("b2", EventAnalysisView, t0.AddDate(0, 0, 9), nil, ptr("anon-1"))
	// one-off visitor
	s.addFor("c1", EventAnalysisView, t0, nil, ptr("anon-2"))
	// no identifier at all
	s.addFor("d1", EventAnalysisView, t0, nil, nil)
	s.addFor("d2", EventAnalysisView, t0.Add(time.Hour), nil, nil)

	engine := NewEngine(s.store, Options{})
	got, err := engine.Retention(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, EventAnalysisView, got.Event)
	assert.Equal(t, 3, got.TotalUsers)
	assert.Equal(t, 1, got.RetainedUsers)
	assert.Equal(t, 33.33, got.RetentionRatePercent)
	assert.Equal(t, 7, got.WindowDays)
}

func TestRetentionBoundaryDayIsInclusive(t *testing.T) {
	s := newSeeder(t)
	s.addFor("a1", EventAnalysisView, t0, ptr("u1"), nil)
	s.addFor("a2", EventAnalysisView, t0.AddDate(0, 0, 7).Add(10*time.Hour), ptr("u1"), nil)

	got, err := NewEngine(s.store, Options{}).Retention(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RetainedUsers)
	assert.Equal(t, 100.0, got.RetentionRatePercent)
}

func TestRetentionSameInstantIsNotRetained(t *testing.T) {
	s := newSeeder(t)
	s.addFor("a1", EventAnalysisView, t0, ptr("u1"), nil)
	s.addFor("a2", EventAnalysisView, t0, ptr("u1"), nil)

	got, err := NewEngine(s.store, Options{}).Retention(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalUsers)
	assert.Equal(t, 0, got.RetainedUsers)
}

func TestRetentionIsMonotonicInWindow(t *testing.T) {
	s := newSeeder(t)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("u%d", i)
		s.addFor(id+"-first", EventAnalysisView, t0, ptr(id), nil)
		s.addFor(id+"-again", EventAnalysisView, t0.AddDate(0, 0, i), ptr(id), nil)
	}
	engine := NewEngine(s.store, Options{})

	prev := -1
	for days := 0; days <= 12; days++ {
		got, err := engine.Retention(context.Background(), days)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.RetainedUsers, prev, "window %d", days)
		prev = got.RetainedUsers
	}
}

func TestRetentionEmptyIsZero(t *testing.T) {
	got, err := NewEngine(store.NewMemoryEventStore(), Options{}).Retention(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.RetentionResult{Event: EventAnalysisView, WindowDays: 7}, got)
}

func TestMetricsSnapshot(t *testing.T) {
	s := newSeeder(t)
	s.add("S1", EventRecordScreenView, t0)
	s.add("S1", EventRecordComplete, t0.Add(5*time.Minute))
	s.addFor("S1", EventAnalysisView, t0.Add(6*time.Minute), nil, ptr("anon-1"))

	engine := NewEngine(s.store, Options{DropThresholdMinutes: 10, RetentionDays: 7})
	snap, err := engine.Metrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, snap.DropThresholdMinutes)
	assert.Equal(t, 1, snap.Funnel.RecordFunnel.EndCount)
	assert.Equal(t, 1, snap.Funnel.AnalysisFunnel.EndCount)
	assert.Equal(t, 1.0, snap.Funnel.AnalysisFunnel.AvgDurationMinutes)
	assert.Len(t, snap.StepFunnel, len(DefaultSteps))
	assert.Equal(t, 1, snap.Retention.TotalUsers)
}

func TestMetricsEmptyStepFunnelIsArray(t *testing.T) {
	snap, err := NewEngine(store.NewMemoryEventStore(), Options{Steps: []string{}}).MetricsWith(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.DropThresholdMinutes)
	assert.Equal(t, 3, snap.Retention.WindowDays)
	assert.NotNil(t, snap.StepFunnel)
}

type countingReader struct {
	store.EventReader
	mu    sync.Mutex
	calls int
}

func (c *countingReader) ListEvents(ctx context.Context, names []string) ([]models.Event, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.EventReader.ListEvents(ctx, names)
}

func TestMetricsReadsEventsOnce(t *testing.T) {
	s := newSeeder(t)
	s.add("S1", EventRecordScreenView, t0)
	s.add("S1", EventEmojiSelected, t0.Add(time.Minute))
	s.add("S1", EventRecordComplete, t0.Add(3*time.Minute))
	s.addFor("S1", EventAnalysisView, t0.Add(4*time.Minute), ptr("7"), nil)
	s.addFor("S2", EventAnalysisView, t0.Add(48*time.Hour), ptr("7"), nil)

	reader := &countingReader{EventReader: s.store}
	snap, err := NewEngine(reader, Options{DropThresholdMinutes: 10, RetentionDays: 7}).Metrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, 1, snap.Funnel.RecordFunnel.EndCount)
	assert.Equal(t, 3.0, snap.Funnel.RecordFunnel.AvgDurationMinutes)
	assert.Equal(t, 1, snap.StepFunnel[1].Sessions)
	assert.Equal(t, 1, snap.Retention.RetainedUsers)
}

func TestStoreErrorsPropagate(t *testing.T) {
	engine := NewEngine(failingReader{}, Options{})
	ctx := context.Background()

	_, err := engine.RecordFunnel(ctx, 10)
	assert.Error(t, err)
	_, err = engine.StepFunnel(ctx, DefaultSteps)
	assert.Error(t, err)
	_, err = engine.Retention(ctx, 7)
	assert.Error(t, err)
	_, err = engine.Metrics(ctx)
	assert.ErrorContains(t, err, "connection reset")
}
