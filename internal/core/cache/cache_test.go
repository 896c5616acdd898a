package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
)

func TestStore_GetPut(t *testing.T) {
	store := cache.New(cache.Config{})

	t.Run("miss on empty cache", func(t *testing.T) {
		_, ok := store.Get(cache.Tickets, "id:1")
		assert.False(t, ok)
	})

	t.Run("hit after put", func(t *testing.T) {
		store.Put(cache.Tickets, "id:1", "ticket-1")

		value, ok := store.Get(cache.Tickets, "id:1")
		require.True(t, ok)
		assert.Equal(t, "ticket-1", value)
	})

	t.Run("caches are namespaced", func(t *testing.T) {
		store.Put(cache.Tickets, "shared-key", "a")
		store.Put(cache.TicketStatistics, "shared-key", "b")

		value, ok := store.Get(cache.TicketStatistics, "shared-key")
		require.True(t, ok)
		assert.Equal(t, "b", value)
	})
}

func TestStore_TTLExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	store := cache.New(cache.Config{Clock: func() time.Time { return clock() }})
	store.Put(cache.Tickets, "id:7", "ticket-7")
	store.Put(cache.TicketStatistics, "snapshot", "stats")

	t.Run("fresh entries hit", func(t *testing.T) {
		_, ok := store.Get(cache.Tickets, "id:7")
		assert.True(t, ok)
	})

	t.Run("entity entry expires after 5 minutes in dev", func(t *testing.T) {
		now = now.Add(5*time.Minute + time.Second)

		_, ok := store.Get(cache.Tickets, "id:7")
		assert.False(t, ok)

		// Statistics caches use the longer TTL and are still fresh.
		_, ok = store.Get(cache.TicketStatistics, "snapshot")
		assert.True(t, ok)
	})

	t.Run("expired entry is evicted, not just hidden", func(t *testing.T) {
		assert.Equal(t, 0, store.Len(cache.Tickets))
	})

	t.Run("statistics entry expires after 10 minutes in dev", func(t *testing.T) {
		now = now.Add(5 * time.Minute)

		_, ok := store.Get(cache.TicketStatistics, "snapshot")
		assert.False(t, ok)
	})
}

func TestStore_ProductionTTLs(t *testing.T) {
	now := time.Now()
	store := cache.New(cache.Config{
		Production: true,
		Clock:      func() time.Time { return now },
	})

	store.Put(cache.Tickets, "id:1", "ticket")
	store.Put(cache.TicketStatistics, "snapshot", "stats")

	// Past the dev TTLs but inside the prod ones.
	now = now.Add(12 * time.Minute)
	_, ok := store.Get(cache.Tickets, "id:1")
	assert.True(t, ok)
	_, ok = store.Get(cache.TicketStatistics, "snapshot")
	assert.True(t, ok)

	now = now.Add(10 * time.Minute) // 22m: tickets expired, stats fresh
	_, ok = store.Get(cache.Tickets, "id:1")
	assert.False(t, ok)
	_, ok = store.Get(cache.TicketStatistics, "snapshot")
	assert.True(t, ok)

	now = now.Add(10 * time.Minute) // 32m: stats expired too
	_, ok = store.Get(cache.TicketStatistics, "snapshot")
	assert.False(t, ok)
}

func TestBuildTTLs(t *testing.T) {
	entity := cache.TTLPair{Dev: time.Minute, Prod: 2 * time.Minute}
	stats := cache.TTLPair{Dev: 3 * time.Minute, Prod: 4 * time.Minute}

	ttls := cache.BuildTTLs(entity, stats)

	assert.Equal(t, entity, ttls[cache.Tickets])
	assert.Equal(t, entity, ttls[cache.Users])
	assert.Equal(t, entity, ttls[cache.Equipment])
	assert.Equal(t, entity, ttls[cache.ActivityLogs])
	assert.Equal(t, stats, ttls[cache.TicketStatistics])
	assert.Equal(t, stats, ttls[cache.UserStatistics])
	assert.Equal(t, stats, ttls[cache.EquipmentStatistics])

	// The default table is the same shape with the stock profiles.
	defaults := cache.DefaultTTLs()
	require.Len(t, defaults, len(ttls))
	assert.Equal(t, cache.TTLPair{Dev: 5 * time.Minute, Prod: 15 * time.Minute}, defaults[cache.Tickets])
	assert.Equal(t, cache.TTLPair{Dev: 10 * time.Minute, Prod: 30 * time.Minute}, defaults[cache.TicketStatistics])
}

func TestStore_ConfiguredTTLs(t *testing.T) {
	now := time.Now()
	store := cache.New(cache.Config{
		TTLs: cache.BuildTTLs(
			cache.TTLPair{Dev: time.Minute, Prod: time.Hour},
			cache.TTLPair{Dev: 2 * time.Minute, Prod: 2 * time.Hour},
		),
		Clock: func() time.Time { return now },
	})

	store.Put(cache.Tickets, "id:1", "ticket")
	store.Put(cache.TicketStatistics, "snapshot", "stats")

	now = now.Add(90 * time.Second)
	_, ok := store.Get(cache.Tickets, "id:1")
	assert.False(t, ok)
	_, ok = store.Get(cache.TicketStatistics, "snapshot")
	assert.True(t, ok)
}

func TestStore_EvictAll(t *testing.T) {
	store := cache.New(cache.Config{})

	store.Put(cache.Tickets, "id:1", "a")
	store.Put(cache.Tickets, "status:OPEN", "b")
	store.Put(cache.TicketStatistics, "snapshot", "c")
	store.Put(cache.Users, "id:9", "d")

	store.EvictAll(cache.Tickets, cache.TicketStatistics)

	_, ok := store.Get(cache.Tickets, "id:1")
	assert.False(t, ok)
	_, ok = store.Get(cache.Tickets, "status:OPEN")
	assert.False(t, ok)
	_, ok = store.Get(cache.TicketStatistics, "snapshot")
	assert.False(t, ok)

	// Unrelated caches survive.
	_, ok = store.Get(cache.Users, "id:9")
	assert.True(t, ok)

	// Evicting an already-empty cache is fine.
	store.EvictAll(cache.Tickets)
	store.EvictAll("no-such-cache")
}

func TestStore_ConcurrentAccess(t *testing.T) {
	store := cache.New(cache.Config{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("id:%d", j%10)
				store.Put(cache.Tickets, key, n)
				store.Get(cache.Tickets, key)
				if j%25 == 0 {
					store.EvictAll(cache.Tickets, cache.TicketStatistics)
				}
			}
		}(i)
	}
	wg.Wait()
}
