package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/mocks"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
	"github.com/lorrc/helpdesk-backend/internal/core/services"
)

func TestBulkService_StatusUpdate(t *testing.T) {
	t.Run("updates every existing ticket and evicts once", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		store := cache.New(cache.Config{})
		seedCaches(store)

		found := []*domain.Ticket{
			{ID: 1, Status: domain.StatusOpen},
			{ID: 2, Status: domain.StatusInProgress},
		}
		// Ticket 3 does not exist and is skipped without error.
		ticketRepo.On("FindAllByID", mock.Anything, []int64{1, 2, 3}).Return(found, nil)

		var saved []*domain.Ticket
		ticketRepo.On("SaveAll", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).([]*domain.Ticket) }).
			Return(nil)

		svc := services.NewBulkService(ticketRepo, store, 2, 8, nil)
		defer svc.Shutdown()

		handle, err := svc.SubmitStatusUpdate([]int64{1, 2, 3}, domain.StatusResolved)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, handle.Wait(ctx))

		require.Len(t, saved, 2)
		for _, ticket := range saved {
			assert.Equal(t, domain.StatusResolved, ticket.Status)
			assert.NotNil(t, ticket.ResolvedAt)
			assert.NotNil(t, ticket.UpdatedAt)
		}

		_, ok := store.Get(cache.Tickets, "id:42")
		assert.False(t, ok)
		_, ok = store.Get(cache.TicketStatistics, "snapshot")
		assert.False(t, ok)
	})

	t.Run("rejects an unknown status at submission", func(t *testing.T) {
		svc := services.NewBulkService(new(mocks.MockTicketRepository), cache.New(cache.Config{}), 1, 1, nil)
		defer svc.Shutdown()

		_, err := svc.SubmitStatusUpdate([]int64{1}, domain.TicketStatus("ARCHIVED"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	})

	t.Run("empty batch saves nothing but still completes", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).Return([]*domain.Ticket{}, nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 1, 4, nil)
		defer svc.Shutdown()

		handle, err := svc.SubmitStatusUpdate([]int64{7, 8}, domain.StatusClosed)
		require.NoError(t, err)
		require.NoError(t, handle.Wait(context.Background()))

		ticketRepo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
	})

	t.Run("save failure surfaces through the handle", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).
			Return([]*domain.Ticket{{ID: 1}}, nil)
		ticketRepo.On("SaveAll", mock.Anything, mock.Anything).
			Return(errors.New("store down"))

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 1, 4, nil)
		defer svc.Shutdown()

		handle, err := svc.SubmitStatusUpdate([]int64{1}, domain.StatusClosed)
		require.NoError(t, err)

		err = handle.Wait(context.Background())
		require.Error(t, err)
		assert.Equal(t, err, handle.Err())
	})
}

func TestBulkService_Assign(t *testing.T) {
	t.Run("assigns every existing ticket", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		assignee := &domain.UserRef{ID: uuid.New(), Username: "tech"}

		found := []*domain.Ticket{{ID: 1}, {ID: 2}}
		ticketRepo.On("FindAllByID", mock.Anything, []int64{1, 2}).Return(found, nil)

		var saved []*domain.Ticket
		ticketRepo.On("SaveAll", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = args.Get(1).([]*domain.Ticket) }).
			Return(nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 2, 8, nil)
		defer svc.Shutdown()

		handle, err := svc.SubmitAssign([]int64{1, 2}, assignee)
		require.NoError(t, err)
		require.NoError(t, handle.Wait(context.Background()))

		require.Len(t, saved, 2)
		for _, ticket := range saved {
			assert.Equal(t, assignee, ticket.AssignedTo)
		}
	})
}

func TestBulkService_Backpressure(t *testing.T) {
	t.Run("full queue rejects instead of blocking", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)

		// The single worker parks on the first batch until released,
		// so later submissions pile up in the one-slot queue.
		release := make(chan struct{})
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return([]*domain.Ticket{}, nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 1, 1, nil)

		first, err := svc.SubmitStatusUpdate([]int64{1}, domain.StatusClosed)
		require.NoError(t, err)

		// Give the worker a moment to pick up the first batch, then
		// fill the queue slot.
		var second ports.BulkHandle
		require.Eventually(t, func() bool {
			h, err := svc.SubmitStatusUpdate([]int64{2}, domain.StatusClosed)
			if err != nil {
				return false
			}
			second = h
			return true
		}, time.Second, 5*time.Millisecond)

		_, err = svc.SubmitStatusUpdate([]int64{3}, domain.StatusClosed)
		assert.ErrorIs(t, err, apperrors.ErrBulkQueueFull)

		close(release)
		require.NoError(t, first.Wait(context.Background()))
		require.NoError(t, second.Wait(context.Background()))
		svc.Shutdown()
	})

	t.Run("submission after shutdown is rejected", func(t *testing.T) {
		svc := services.NewBulkService(new(mocks.MockTicketRepository), cache.New(cache.Config{}), 1, 1, nil)
		svc.Shutdown()

		_, err := svc.SubmitStatusUpdate([]int64{1}, domain.StatusClosed)

		assert.ErrorIs(t, err, apperrors.ErrRunnerClosed)
	})

	t.Run("shutdown drains queued batches", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).Return([]*domain.Ticket{}, nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 2, 16, nil)

		var handles []ports.BulkHandle
		for i := 0; i < 8; i++ {
			h, err := svc.SubmitStatusUpdate([]int64{int64(i)}, domain.StatusClosed)
			require.NoError(t, err)
			handles = append(handles, h)
		}

		svc.Shutdown()

		for _, h := range handles {
			select {
			case <-h.Done():
				assert.NoError(t, h.Err())
			default:
				t.Fatal("batch not finished after Shutdown")
			}
		}
	})
}

func TestBulkHandle_Err(t *testing.T) {
	t.Run("nil before completion", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		release := make(chan struct{})
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return([]*domain.Ticket{}, nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 1, 4, nil)

		handle, err := svc.SubmitStatusUpdate([]int64{1}, domain.StatusClosed)
		require.NoError(t, err)
		assert.NoError(t, handle.Err())

		close(release)
		require.NoError(t, handle.Wait(context.Background()))
		svc.Shutdown()
	})

	t.Run("wait honors context cancellation", func(t *testing.T) {
		ticketRepo := new(mocks.MockTicketRepository)
		release := make(chan struct{})
		ticketRepo.On("FindAllByID", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { <-release }).
			Return([]*domain.Ticket{}, nil)

		svc := services.NewBulkService(ticketRepo, cache.New(cache.Config{}), 1, 4, nil)

		handle, err := svc.SubmitStatusUpdate([]int64{1}, domain.StatusClosed)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, handle.Wait(ctx), context.DeadlineExceeded)

		close(release)
		svc.Shutdown()
	})
}
