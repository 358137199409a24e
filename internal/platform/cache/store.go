package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/esports-fantasy/internal/platform/resilience"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process TTL map. A zero ttl keeps entries until deleted.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	flight  resilience.SingleFlight
	now     func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && s.expired(current) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len counts live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// GetOrLoad returns the cached value or loads and caches it. Concurrent loads of one key share a call.
func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	value, _, err := s.load(ctx, key, func(ctx context.Context) (any, bool, error) {
		v, err := loader(ctx)
		return v, true, err
	})
	return value, err
}

// GetOrLoadFound is GetOrLoad for lookups that may miss. Only found values are cached.
func (s *Store) GetOrLoadFound(ctx context.Context, key string, loader func(context.Context) (any, bool, error)) (any, bool, error) {
	if loader == nil {
		return nil, false, fmt.Errorf("loader is required")
	}
	return s.load(ctx, key, loader)
}

type loadResult struct {
	value any
	found bool
}

func (s *Store) load(ctx context.Context, key string, loader func(context.Context) (any, bool, error)) (any, bool, error) {
	if key == "" {
		return loader(ctx)
	}
	if value, ok := s.Get(ctx, key); ok {
		return value, true, nil
	}

	shared, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return loadResult{value: cached, found: true}, nil
		}

		loaded, found, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		if found {
			s.Set(ctx, key, loaded)
		}
		return loadResult{value: loaded, found: found}, nil
	})
	if err != nil {
		return nil, false, err
	}

	result, _ := shared.(loadResult)
	return result.value, result.found, nil
}

func (s *Store) expired(e entry) bool {
	return s.ttl > 0 && !e.expiresAt.After(s.now())
}
