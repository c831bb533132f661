package upstream

import (
	"sync"
	"time"

	"weft/service"
)

// KeyFunc extracts a sticky-routing affinity key from a request (e.g.
// a header value). An empty key disables stickiness for that request.
type KeyFunc func(req *service.Request) string

type stickyEntry struct {
	target   string
	expireAt time.Time
}

// StickyStrategy routes requests sharing the same affinity key to the
// same target, falling back to another strategy on cache miss or when
// the previously chosen target is no longer available, matching the
// teacher's StickyStrategy (cache + fallback) but keyed by an arbitrary
// KeyFunc rather than a fixed {user, api_key, session} enum.
type StickyStrategy struct {
	keyFn    KeyFunc
	fallback Strategy
	ttl      time.Duration

	mu    sync.Mutex
	cache map[string]stickyEntry
}

// NewStickyStrategy returns a sticky Strategy. Entries expire after
// ttl; a zero ttl means entries never expire.
func NewStickyStrategy(keyFn KeyFunc, fallback Strategy, ttl time.Duration) *StickyStrategy {
	return &StickyStrategy{keyFn: keyFn, fallback: fallback, ttl: ttl, cache: make(map[string]stickyEntry)}
}

// Select implements Strategy.
func (s *StickyStrategy) Select(req *service.Request, available []Target) (Target, error) {
	if len(available) == 0 {
		return Target{}, errNoTargets(s.Name())
	}

	key := s.keyFn(req)
	if key == "" {
		return s.fallback.Select(req, available)
	}

	s.mu.Lock()
	entry, found := s.cache[key]
	if found && s.ttl > 0 && time.Now().After(entry.expireAt) {
		delete(s.cache, key)
		found = false
	}
	s.mu.Unlock()

	if found {
		for _, t := range available {
			if t.Name == entry.target {
				return t, nil
			}
		}
	}

	chosen, err := s.fallback.Select(req, available)
	if err != nil {
		return Target{}, err
	}

	s.mu.Lock()
	e := stickyEntry{target: chosen.Name}
	if s.ttl > 0 {
		e.expireAt = time.Now().Add(s.ttl)
	}
	s.cache[key] = e
	s.mu.Unlock()

	return chosen, nil
}

func (s *StickyStrategy) Name() string { return "sticky" }

func (s *StickyStrategy) Reset() {
	s.mu.Lock()
	s.cache = make(map[string]stickyEntry)
	s.mu.Unlock()
	s.fallback.Reset()
}
