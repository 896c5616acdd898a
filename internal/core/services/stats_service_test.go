package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func stubCounts(repo *mocks.MockTicketRepository) {
	repo.On("Count", mock.Anything).Return(int64(100), nil).Once()
	repo.On("CountByStatus", mock.Anything, domain.StatusOpen).Return(int64(40), nil).Once()
	repo.On("CountByStatus", mock.Anything, domain.StatusInProgress).Return(int64(25), nil).Once()
	repo.On("CountByStatus", mock.Anything, domain.StatusResolved).Return(int64(20), nil).Once()
	repo.On("CountByStatus", mock.Anything, domain.StatusClosed).Return(int64(15), nil).Once()
	repo.On("CountUnassigned", mock.Anything).Return(int64(10), nil).Once()
	repo.On("CountEscalated", mock.Anything).Return(int64(5), nil).Once()
}

func TestStatsService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("aggregates all counters", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		stubCounts(ticketRepo)

		svc := services.NewStatsService(ticketRepo, cache.New(cache.Config{}))

		stats, err := svc.Snapshot(ctx)

		require.NoError(t, err)
		assert.Equal(t, &domain.TicketStatistics{
			TotalTickets:      100,
			OpenTickets:       40,
			InProgressTickets: 25,
			ResolvedTickets:   20,
			ClosedTickets:     15,
			UnassignedTickets: 10,
			EscalatedTickets:  5,
		}, stats)

		ticketRepo.AssertExpectations(t)
	})

	t.Run("second read is served from the cache", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		stubCounts(ticketRepo)

		svc := services.NewStatsService(ticketRepo, cache.New(cache.Config{}))

		first, err := svc.Snapshot(ctx)
		require.NoError(t, err)

		second, err := svc.Snapshot(ctx)
		require.NoError(t, err)
		assert.Same(t, first, second)

		ticketRepo.AssertExpectations(t)
	})

	t.Run("eviction forces a recount", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		store := cache.New(cache.Config{})
		stubCounts(ticketRepo)

		svc := services.NewStatsService(ticketRepo, store)

		_, err := svc.Snapshot(ctx)
		require.NoError(t, err)

		store.EvictAll(cache.TicketStatistics)
		stubCounts(ticketRepo)

		_, err = svc.Snapshot(ctx)
		require.NoError(t, err)

		ticketRepo.AssertExpectations(t)
	})

	t.Run("fails fast on the first counter error", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		store := cache.New(cache.Config{})

		ticketRepo.On("Count", mock.Anything).Return(int64(100), nil)
		ticketRepo.On("CountByStatus", mock.Anything, domain.StatusOpen).
			Return(int64(0), errors.New("store down"))

		svc := services.NewStatsService(ticketRepo, store)

		_, err := svc.Snapshot(ctx)

		require.Error(t, err)
		ticketRepo.AssertNotCalled(t, "CountByStatus", mock.Anything, domain.StatusInProgress)
		ticketRepo.AssertNotCalled(t, "CountUnassigned", mock.Anything)

		// No partial snapshot may be cached.
		assert.Equal(t, 0, store.Len(cache.TicketStatistics))
	})
}
