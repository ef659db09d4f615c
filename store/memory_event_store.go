package store

import (
	"context"
	"sort"
	"sync"

	"moodping/api/models"
)

// MemoryEventStore keeps events in process memory. Used for local runs
// (EVENT_STORE=memory) and tests.
type MemoryEventStore struct {
	mu     sync.RWMutex
	seen   map[string]struct{}
	events []models.Event
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{seen: make(map[string]struct{})}
}

func (s *MemoryEventStore) Append(_ context.Context, ev models.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[ev.EventID]; ok {
		return false, nil
	}
	s.seen[ev.EventID] = struct{}{}
	ev.ID = int64(len(s.events) + 1)
	s.events = append(s.events, ev)
	return true, nil
}

func (s *MemoryEventStore) ListEvents(_ context.Context, names []string) ([]models.Event, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	s.mu.RLock()
	var out []models.Event
	for _, ev := range s.events {
		if _, ok := want[ev.EventName]; ok {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

func (s *MemoryEventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
