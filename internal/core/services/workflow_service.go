package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/cache"
	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// WorkflowService implements ticket mutations and the derived audit
// trail. It is the sole writer of ticket and comment state.
//
// Within one operation the ticket record is persisted before any audit
// comment it generates, and both before the cache eviction. Concurrent
// writers to the same ticket race; the last store write wins.
type WorkflowService struct {
	tickets     ports.TicketRepository
	comments    ports.CommentRepository
	cache       *cache.Store
	notifier    ports.Notifier
	broadcaster ports.EventBroadcaster
}

var _ ports.WorkflowService = (*WorkflowService)(nil)

// NewWorkflowService creates a new workflow service.
func NewWorkflowService(
	tickets ports.TicketRepository,
	comments ports.CommentRepository,
	cacheStore *cache.Store,
	notifier ports.Notifier,
	broadcaster ports.EventBroadcaster,
) ports.WorkflowService {
	return &WorkflowService{
		tickets:     tickets,
		comments:    comments,
		cache:       cacheStore,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// Create persists a new ticket with defaults applied and an initial
// SYSTEM comment authored by the creator.
func (s *WorkflowService) Create(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	if params.Creator == nil {
		return nil, apperrors.ErrCreatorRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, apperrors.ErrTitleRequired
	}

	now := time.Now().UTC()

	ticket := &domain.Ticket{
		Title:          strings.TrimSpace(params.Title),
		Description:    params.Description,
		Priority:       params.Priority,
		Status:         params.Status,
		Category:       params.Category,
		CreatedBy:      *params.Creator,
		AssignedTo:     params.AssignedTo,
		CreatedAt:      now,
		DueDate:        params.DueDate,
		EquipmentID:    params.EquipmentID,
		EstimatedHours: params.EstimatedHours,
	}

	if ticket.Priority == "" {
		ticket.Priority = domain.PriorityMedium
	}
	if !ticket.Priority.IsValid() {
		return nil, apperrors.ErrInvalidPriority
	}
	if ticket.Status == "" {
		ticket.Status = domain.StatusOpen
	}
	if !ticket.Status.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}
	if ticket.DueDate == nil {
		due := now.Add(ticket.Priority.DueOffset())
		ticket.DueDate = &due
	}

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	auditErr := s.appendAudit(ctx, saved.ID, params.Creator, "Ticket created", domain.CommentSystem)

	// The ticket is durable either way; readers must not see a stale
	// cache entry.
	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	if auditErr != nil {
		return saved, apperrors.NewPartialAuditError(saved.ID, auditErr)
	}

	s.publish(domain.Event{Type: domain.EventTicketCreated, TicketID: saved.ID, Payload: saved})
	if saved.AssignedTo != nil {
		s.notifyAsync(ports.NotificationParams{
			Recipient: *saved.AssignedTo,
			Subject:   fmt.Sprintf("Ticket #%d assigned to you", saved.ID),
			Message:   fmt.Sprintf("You have been assigned the new ticket '%s'.", saved.Title),
			TicketID:  saved.ID,
		})
	}
	return saved, nil
}

// Update persists the full record, diffing it against the stored one on
// status, priority and assignee, and appends one audit comment per
// changed field.
func (s *WorkflowService) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket == nil || ticket.ID == 0 {
		return nil, apperrors.ErrTicketNotFound
	}

	old, err := s.tickets.FindByID(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	ticket.Touch(time.Now().UTC())

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	var auditErr error
	if old.Status != saved.Status {
		body := fmt.Sprintf("Status changed from %s to %s",
			old.Status.DisplayName(), saved.Status.DisplayName())
		auditErr = s.appendAudit(ctx, saved.ID, saved.AssignedTo, body, domain.CommentStatusChange)
	}
	if auditErr == nil && old.Priority != saved.Priority {
		body := fmt.Sprintf("Priority changed from %s to %s",
			old.Priority.DisplayName(), saved.Priority.DisplayName())
		auditErr = s.appendAudit(ctx, saved.ID, saved.AssignedTo, body, domain.CommentPriorityChange)
	}
	if auditErr == nil && assigneeChanged(old.AssignedTo, saved.AssignedTo) {
		body := assignmentAuditBody(old.AssignedTo, saved.AssignedTo)
		auditErr = s.appendAudit(ctx, saved.ID, saved.AssignedTo, body, domain.CommentAssignmentChange)
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	if auditErr != nil {
		return saved, apperrors.NewPartialAuditError(saved.ID, auditErr)
	}

	s.publish(domain.Event{Type: domain.EventTicketUpdated, TicketID: saved.ID, Payload: saved})
	return saved, nil
}

// Assign sets the assignee and refreshes updatedAt. It writes no audit
// comment; assignment history is recorded by the Update diff path only.
func (s *WorkflowService) Assign(ctx context.Context, ticketID int64, assignee *domain.UserRef) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.AssignedTo = assignee
	ticket.Touch(time.Now().UTC())

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	s.publish(domain.Event{Type: domain.EventTicketUpdated, TicketID: saved.ID, Payload: saved})
	if assignee != nil {
		s.notifyAsync(ports.NotificationParams{
			Recipient: *assignee,
			Subject:   fmt.Sprintf("Ticket #%d assigned to you", saved.ID),
			Message:   fmt.Sprintf("You have been assigned the ticket '%s'.", saved.Title),
			TicketID:  saved.ID,
		})
	}
	return saved, nil
}

// ChangeStatus sets the status, stamping resolvedAt when the ticket
// enters RESOLVED or CLOSED. A non-blank comment is recorded as a
// STATUS_CHANGE entry authored by the current assignee.
func (s *WorkflowService) ChangeStatus(ctx context.Context, ticketID int64, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if !newStatus.IsValid() {
		return nil, apperrors.ErrInvalidStatus
	}

	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ticket.Status = newStatus
	ticket.Touch(now)
	if newStatus == domain.StatusResolved || newStatus == domain.StatusClosed {
		ticket.ResolvedAt = &now
	}

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	var auditErr error
	if strings.TrimSpace(comment) != "" {
		auditErr = s.appendAudit(ctx, saved.ID, saved.AssignedTo, comment, domain.CommentStatusChange)
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	if auditErr != nil {
		return saved, apperrors.NewPartialAuditError(saved.ID, auditErr)
	}

	s.publish(domain.Event{Type: domain.EventStatusChanged, TicketID: saved.ID, Payload: saved})
	return saved, nil
}

// Escalate marks the ticket escalated with the given reason. Repeated
// escalations overwrite the reason; last write wins.
func (s *WorkflowService) Escalate(ctx context.Context, ticketID int64, reason string) (*domain.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.IsEscalated = true
	ticket.EscalationReason = reason
	ticket.Touch(time.Now().UTC())

	saved, err := s.tickets.Save(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	s.publish(domain.Event{Type: domain.EventTicketEscalated, TicketID: saved.ID, Payload: saved})
	if saved.AssignedTo != nil {
		s.notifyAsync(ports.NotificationParams{
			Recipient: *saved.AssignedTo,
			Subject:   fmt.Sprintf("Ticket #%d escalated", saved.ID),
			Message:   fmt.Sprintf("Ticket '%s' was escalated: %s", saved.Title, reason),
			TicketID:  saved.ID,
		})
	}
	return saved, nil
}

// AddComment appends a USER comment. Only the tickets cache is evicted;
// a comment does not change statistics.
func (s *WorkflowService) AddComment(ctx context.Context, ticketID int64, author *domain.UserRef, text string, isInternal bool) (*domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrCommentRequired
	}

	if _, err := s.tickets.FindByID(ctx, ticketID); err != nil {
		return nil, err
	}

	comment, err := s.comments.Save(ctx, &domain.Comment{
		TicketID:   ticketID,
		Author:     author,
		Body:       text,
		IsInternal: isInternal,
		Type:       domain.CommentUser,
	})
	if err != nil {
		return nil, err
	}

	s.cache.EvictAll(cache.Tickets)

	s.publish(domain.Event{Type: domain.EventCommentAdded, TicketID: ticketID, Payload: comment})
	return comment, nil
}

// Delete removes the ticket's comments first, then the ticket itself.
func (s *WorkflowService) Delete(ctx context.Context, ticketID int64) error {
	if _, err := s.tickets.FindByID(ctx, ticketID); err != nil {
		return err
	}

	if err := s.comments.DeleteByTicket(ctx, ticketID); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, ticketID); err != nil {
		return err
	}

	s.cache.EvictAll(cache.Tickets, cache.TicketStatistics)

	s.publish(domain.Event{Type: domain.EventTicketDeleted, TicketID: ticketID})
	return nil
}

func (s *WorkflowService) appendAudit(ctx context.Context, ticketID int64, author *domain.UserRef, body string, commentType domain.CommentType) error {
	_, err := s.comments.Save(ctx, &domain.Comment{
		TicketID:   ticketID,
		Author:     author,
		Body:       body,
		IsInternal: true,
		Type:       commentType,
	})
	return err
}

func (s *WorkflowService) publish(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	go func() {
		_ = s.broadcaster.Broadcast(event)
	}()
}

func (s *WorkflowService) notifyAsync(params ports.NotificationParams) {
	if s.notifier == nil {
		return
	}
	// Background context: the HTTP request may be done by the time the
	// notification goes out.
	go s.notifier.Notify(context.Background(), params)
}

func assigneeChanged(old, new *domain.UserRef) bool {
	switch {
	case old == nil && new == nil:
		return false
	case old == nil || new == nil:
		return true
	default:
		return old.ID != new.ID
	}
}

func assignmentAuditBody(old, new *domain.UserRef) string {
	switch {
	case new == nil:
		return fmt.Sprintf("Ticket unassigned (was %s)", old.DisplayName())
	case old == nil:
		return fmt.Sprintf("Ticket assigned to %s", new.DisplayName())
	default:
		return fmt.Sprintf("Ticket reassigned from %s to %s", old.DisplayName(), new.DisplayName())
	}
}
