package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// bulkHandle tracks one submitted batch. err is written exactly once,
// before done is closed.
type bulkHandle struct {
	done chan struct{}
	err  error
}

func newBulkHandle() *bulkHandle {
	return &bulkHandle{done: make(chan struct{})}
}

func (h *bulkHandle) Done() <-chan struct{} { return h.done }

func (h *bulkHandle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

func (h *bulkHandle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.err
	}
}

func (h *bulkHandle) complete(err error) {
	h.err = err
	close(h.done)
}

type bulkTask struct {
	handle *bulkHandle
	apply  func(ctx context.Context) error
}

// BulkService runs multi-ticket mutations on a fixed pool of workers
// fed from a bounded queue. Submission never blocks: a full queue is
// rejected with ErrBulkQueueFull and the caller decides whether to
// retry. Each batch evicts the write-affected caches exactly once,
// after its last save.
type BulkService struct {
	tickets ports.TicketRepository
	cache   *cache.Store
	logger  *slog.Logger

	queue chan bulkTask
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

var _ ports.BulkService = (*BulkService)(nil)

// NewBulkService starts workers goroutines draining a queue of
// queueSize pending batches.
func NewBulkService(tickets ports.TicketRepository, cacheStore *cache.Store, workers, queueSize int, logger *slog.Logger) *BulkService {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &BulkService{
		tickets: tickets,
		cache:   cacheStore,
		logger:  logger,
		queue:   make(chan bulkTask, queueSize),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// SubmitStatusUpdate enqueues a batch that moves every existing ticket
// in ids to newStatus. Unknown ids are skipped silently.
func (s *BulkService) SubmitStatusUpdate(ids []int64, newStatus domain.TicketStatus) (ports.BulkHandle, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}

	batch := append([]int64(nil), ids...)
	return s.submit(func(ctx context.Context) error {
		return s.applyBatch(ctx, batch, func(ticket *domain.Ticket, now time.Time) {
			ticket.Status = newStatus
			if newStatus == domain.StatusResolved || newStatus == domain.StatusClosed {
				resolvedAt := now
				ticket.ResolvedAt = &resolvedAt
			}
		})
	})
}

// SubmitAssign enqueues a batch that assigns every existing ticket in
// ids to assignee. Unknown ids are skipped silently.
func (s *BulkService) SubmitAssign(ids []int64, assignee *domain.UserRef) (ports.BulkHandle, error) {
	batch := append([]int64(nil), ids...)
	return s.submit(func(ctx context.Context) error {
		return s.applyBatch(ctx, batch, func(ticket *domain.Ticket, _ time.Time) {
			ticket.AssignedTo = assignee
		})
	})
}

// Shutdown stops accepting new batches and blocks until every queued
// batch has run.
func (s *BulkService) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *BulkService) submit(apply func(ctx context.Context) error) (ports.BulkHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, apperrors.ErrRunnerClosed
	}

	handle := newBulkHandle()
	select {
	case s.queue <- bulkTask{handle: handle, apply: apply}:
		return handle, nil
	default:
		return nil, apperrors.ErrBulkQueueFull
	}
}

func (s *BulkService) worker() {
	defer s.wg.Done()

	// Batches outlive the submitting request, so they run on a
	// background context.
	ctx := context.Background()
	for task := range s.queue {
		err := task.apply(ctx)
		if err != nil {
			s.logger.Error("bulk batch failed", "error", err)
		}
		task.handle.complete(err)
	}
}

func (s *BulkService) applyBatch(ctx context.Context, ids []int64, mutate func(*domain.Ticket, time.Time)) error {
	tickets, err := s.tickets.FindAllByID(ctx, ids)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, ticket := range tickets {
		mutate(ticket, now)
		ticket.Touch(now)
	}

	if len(tickets) > 0 {
		if err := s.tickets.SaveAll(ctx, tickets); err != nil {
			return err
		}
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)
	return nil
}
