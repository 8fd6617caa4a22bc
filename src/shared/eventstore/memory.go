package eventstore

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryItem struct {
	event    Event
	expiryNS int64
}

// MemoryStore is the in-process fallback used when no Redis URL is
// configured. A janitor goroutine sweeps expired entries.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
}

// NewMemoryStore creates a store and starts its janitor; the janitor stops
// when ctx is canceled.
func NewMemoryStore(ctx context.Context, ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{items: make(map[string]memoryItem), ttl: ttl}
	go s.janitor(ctx, time.Minute)
	return s
}

func (s *MemoryStore) Put(_ context.Context, ev Event) error {
	if ev.EventID == "" {
		return errors.New("eventstore: event ID is empty")
	}
	s.mu.Lock()
	s.items[ev.EventID] = memoryItem{
		event:    ev,
		expiryNS: time.Now().Add(s.ttl).UnixNano(),
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, eventID string) (Event, bool) {
	s.mu.RLock()
	item, ok := s.items[eventID]
	s.mu.RUnlock()
	if !ok || time.Now().UnixNano() > item.expiryNS {
		return Event{}, false
	}
	return item.event, true
}

func (s *MemoryStore) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UnixNano()
			s.mu.Lock()
			for id, item := range s.items {
				if now > item.expiryNS {
					delete(s.items, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
