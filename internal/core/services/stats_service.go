package services

import (
	"context"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

const statsSnapshotKey = "snapshot"

// StatsService computes the aggregate ticket counters, read-through the
// ticketStatistics cache. The counts are issued as independent store
// queries, so a snapshot taken during concurrent writes may mix states;
// it is a dashboard figure, not a ledger.
type StatsService struct {
	tickets ports.TicketRepository
	cache   *cache.Store
}

var _ ports.StatisticsService = (*StatsService)(nil)

// NewStatsService creates a new statistics service.
func NewStatsService(tickets ports.TicketRepository, cacheStore *cache.Store) ports.StatisticsService {
	return &StatsService{tickets: tickets, cache: cacheStore}
}

// Snapshot returns the current counters, failing fast on the first
// count that errors. Nothing is cached on failure.
func (s *StatsService) Snapshot(ctx context.Context) (*domain.TicketStatistics, error) {
	if v, ok := s.cache.Get(cache.TicketStatistics, statsSnapshotKey); ok {
		return v.(*domain.TicketStatistics), nil
	}

	stats := &domain.TicketStatistics{}
	var err error

	if stats.TotalTickets, err = s.tickets.Count(ctx); err != nil {
		return nil, err
	}
	if stats.OpenTickets, err = s.tickets.CountByStatus(ctx, domain.StatusOpen); err != nil {
		return nil, err
	}
	if stats.InProgressTickets, err = s.tickets.CountByStatus(ctx, domain.StatusInProgress); err != nil {
		return nil, err
	}
	if stats.ResolvedTickets, err = s.tickets.CountByStatus(ctx, domain.StatusResolved); err != nil {
		return nil, err
	}
	if stats.ClosedTickets, err = s.tickets.CountByStatus(ctx, domain.StatusClosed); err != nil {
		return nil, err
	}
	if stats.UnassignedTickets, err = s.tickets.CountUnassigned(ctx); err != nil {
		return nil, err
	}
	if stats.EscalatedTickets, err = s.tickets.CountEscalated(ctx); err != nil {
		return nil, err
	}

	s.cache.Put(cache.TicketStatistics, statsSnapshotKey, stats)
	return stats, nil
}
