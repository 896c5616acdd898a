package services

import (
	"context"
	"fmt"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// QueryService serves ticket reads through the cache layer. Each
// operation derives its key from its name and arguments; a miss falls
// through to the store and repopulates the cache. Store errors
// propagate unmodified and nothing is cached for them.
//
// Filtered pagination is served straight from the store: its key space
// is unbounded, so caching it would only accumulate dead entries.
type QueryService struct {
	tickets  ports.TicketRepository
	comments ports.CommentRepository
	cache    *cache.Store
}

var _ ports.QueryService = (*QueryService)(nil)

// NewQueryService creates a new query service.
func NewQueryService(tickets ports.TicketRepository, comments ports.CommentRepository, cacheStore *cache.Store) ports.QueryService {
	return &QueryService{tickets: tickets, comments: comments, cache: cacheStore}
}

func (s *QueryService) GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	key := fmt.Sprintf("id:%d", ticketID)
	if v, ok := s.cache.Get(cache.Tickets, key); ok {
		return v.(*domain.Ticket), nil
	}

	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(cache.Tickets, key, ticket)
	return ticket, nil
}

func (s *QueryService) ListTickets(ctx context.Context, filter ports.TicketFilter) (*ports.TicketPage, error) {
	return s.tickets.FindWithFilters(ctx, filter)
}

func (s *QueryService) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]*domain.Ticket, error) {
	return s.cachedList(fmt.Sprintf("status:%s", status), func() ([]*domain.Ticket, error) {
		return s.tickets.ListByStatus(ctx, status)
	})
}

func (s *QueryService) ListByPriority(ctx context.Context, priority domain.TicketPriority) ([]*domain.Ticket, error) {
	return s.cachedList(fmt.Sprintf("priority:%s", priority), func() ([]*domain.Ticket, error) {
		return s.tickets.ListByPriority(ctx, priority)
	})
}

func (s *QueryService) ListByCategory(ctx context.Context, category domain.TicketCategory) ([]*domain.Ticket, error) {
	return s.cachedList(fmt.Sprintf("category:%s", category), func() ([]*domain.Ticket, error) {
		return s.tickets.ListByCategory(ctx, category)
	})
}

func (s *QueryService) ListUnassigned(ctx context.Context) ([]*domain.Ticket, error) {
	return s.cachedList("unassigned", func() ([]*domain.Ticket, error) {
		return s.tickets.ListUnassigned(ctx)
	})
}

func (s *QueryService) ListOpen(ctx context.Context) ([]*domain.Ticket, error) {
	return s.cachedList("open", func() ([]*domain.Ticket, error) {
		return s.tickets.ListOpen(ctx)
	})
}

// ListOverdue is never cached: its result depends on the current
// instant, so a cached page could report a ticket on time after its due
// date has passed.
func (s *QueryService) ListOverdue(ctx context.Context) ([]*domain.Ticket, error) {
	return s.tickets.ListOverdue(ctx, time.Now().UTC())
}

func (s *QueryService) ListEscalated(ctx context.Context) ([]*domain.Ticket, error) {
	return s.cachedList("escalated", func() ([]*domain.Ticket, error) {
		return s.tickets.ListEscalated(ctx)
	})
}

func (s *QueryService) ListCriticalOpen(ctx context.Context) ([]*domain.Ticket, error) {
	return s.cachedList("critical-open", func() ([]*domain.Ticket, error) {
		return s.tickets.ListCriticalOpen(ctx)
	})
}

// GetComments lives in the tickets cache, which is why comment-only
// mutations evict it.
func (s *QueryService) GetComments(ctx context.Context, ticketID int64) ([]*domain.Comment, error) {
	key := fmt.Sprintf("comments:%d", ticketID)
	if v, ok := s.cache.Get(cache.Tickets, key); ok {
		return v.([]*domain.Comment), nil
	}

	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(cache.Tickets, key, comments)
	return comments, nil
}

func (s *QueryService) cachedList(key string, load func() ([]*domain.Ticket, error)) ([]*domain.Ticket, error) {
	if v, ok := s.cache.Get(cache.Tickets, key); ok {
		return v.([]*domain.Ticket), nil
	}

	tickets, err := load()
	if err != nil {
		return nil, err
	}
	s.cache.Put(cache.Tickets, key, tickets)
	return tickets, nil
}
