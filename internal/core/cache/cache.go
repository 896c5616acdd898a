package cache

import (
	"sync"
	"time"
)

// Named caches. Writes that materially change ticket or statistics
// state evict Tickets and TicketStatistics wholesale; comment-only
// mutations evict Tickets alone.
const (
	Tickets             = "tickets"
	Users               = "users"
	Equipment           = "equipment"
	TicketStatistics    = "ticketStatistics"
	UserStatistics      = "userStatistics"
	EquipmentStatistics = "equipmentStatistics"
	ActivityLogs        = "activityLogs"
)

// TTLPair holds the development and production TTLs for one named cache.
type TTLPair struct {
	Dev  time.Duration
	Prod time.Duration
}

// DefaultTTLs returns the TTL table: statistics caches live longer than
// per-entity caches.
func DefaultTTLs() map[string]TTLPair {
	return BuildTTLs(
		TTLPair{Dev: 5 * time.Minute, Prod: 15 * time.Minute},
		TTLPair{Dev: 10 * time.Minute, Prod: 30 * time.Minute},
	)
}

// BuildTTLs maps the entity and statistics TTL profiles onto the full
// set of named caches.
func BuildTTLs(entity, stats TTLPair) map[string]TTLPair {
	return map[string]TTLPair{
		Tickets:             entity,
		Users:               entity,
		Equipment:           entity,
		ActivityLogs:        entity,
		TicketStatistics:    stats,
		UserStatistics:      stats,
		EquipmentStatistics: stats,
	}
}

// Config configures the store. The active TTL for each cache is chosen
// once at construction from the dev/prod pair, never per call.
type Config struct {
	Production bool
	TTLs       map[string]TTLPair

	// Clock overrides time.Now; used by tests to force expiry.
	Clock func() time.Time
}

type entry struct {
	value      any
	insertedAt time.Time
}

// Store is an in-process set of named, TTL-bounded caches. It never
// owns canonical data; an empty or expired entry is a miss, never an
// error. Safe for concurrent use.
type Store struct {
	mu     sync.Mutex
	caches map[string]map[string]entry
	ttls   map[string]time.Duration
	clock  func() time.Time
}

// New builds a store from the config, resolving each cache's TTL from
// the dev/prod pair.
func New(cfg Config) *Store {
	ttls := cfg.TTLs
	if ttls == nil {
		ttls = DefaultTTLs()
	}
	active := make(map[string]time.Duration, len(ttls))
	for name, pair := range ttls {
		if cfg.Production {
			active[name] = pair.Prod
		} else {
			active[name] = pair.Dev
		}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		caches: make(map[string]map[string]entry),
		ttls:   active,
		clock:  clock,
	}
}

// Get returns the cached value for key, or a miss. An entry older than
// its cache's TTL is evicted and reported as a miss.
func (s *Store) Get(cacheName, key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[cacheName]
	if !ok {
		return nil, false
	}
	e, ok := c[key]
	if !ok {
		return nil, false
	}
	if s.clock().Sub(e.insertedAt) > s.ttlFor(cacheName) {
		delete(c, key)
		return nil, false
	}
	return e.value, true
}

// Put stores a value under the named cache, resetting its age.
func (s *Store) Put(cacheName, key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[cacheName]
	if !ok {
		c = make(map[string]entry)
		s.caches[cacheName] = c
	}
	c[key] = entry{value: value, insertedAt: s.clock()}
}

// EvictAll drops every entry in each named cache. Evicting an empty or
// unknown cache is a no-op; concurrent evictions are idempotent.
func (s *Store) EvictAll(cacheNames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range cacheNames {
		delete(s.caches, name)
	}
}

// Len returns the number of live entries in a named cache, counting
// expired-but-unevicted entries. Intended for tests and diagnostics.
func (s *Store) Len(cacheName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.caches[cacheName])
}

func (s *Store) ttlFor(cacheName string) time.Duration {
	if ttl, ok := s.ttls[cacheName]; ok {
		return ttl
	}
	// Unlisted caches get the shorter entity TTL.
	if ttl, ok := s.ttls[Tickets]; ok {
		return ttl
	}
	return 5 * time.Minute
}
