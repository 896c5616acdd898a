package ports

import (
	"context"
	"time"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

// CreateTicketParams defines the input for creating a new ticket.
// Creator is required; Priority, Status and DueDate get defaults when
// unset.
type CreateTicketParams struct {
	Title          string
	Description    string
	Priority       domain.TicketPriority
	Status         domain.TicketStatus
	Category       domain.TicketCategory
	Creator        *domain.UserRef
	AssignedTo     *domain.UserRef
	DueDate        *time.Time
	EquipmentID    *int64
	EstimatedHours *int32
}

// WorkflowService is the single writer of ticket and comment state. It
// enforces mutation invariants, derives the audit trail, and evicts the
// affected caches after every successful mutation.
type WorkflowService interface {
	Create(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	// Update persists the full record and appends one audit comment
	// per changed field among status, priority and assignee.
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	// Assign sets the assignee without writing an audit comment;
	// assignment history is recorded by Update only.
	Assign(ctx context.Context, ticketID int64, assignee *domain.UserRef) (*domain.Ticket, error)
	ChangeStatus(ctx context.Context, ticketID int64, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error)
	Escalate(ctx context.Context, ticketID int64, reason string) (*domain.Ticket, error)
	AddComment(ctx context.Context, ticketID int64, author *domain.UserRef, text string, isInternal bool) (*domain.Comment, error)
	// Delete removes the ticket's comments first, then the ticket.
	Delete(ctx context.Context, ticketID int64) error
}

// QueryService serves reads through the cache layer. A cache miss falls
// through to the store and populates the cache; store errors propagate
// unmodified.
type QueryService interface {
	GetTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	ListTickets(ctx context.Context, filter TicketFilter) (*TicketPage, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus) ([]*domain.Ticket, error)
	ListByPriority(ctx context.Context, priority domain.TicketPriority) ([]*domain.Ticket, error)
	ListByCategory(ctx context.Context, category domain.TicketCategory) ([]*domain.Ticket, error)
	ListUnassigned(ctx context.Context) ([]*domain.Ticket, error)
	ListOpen(ctx context.Context) ([]*domain.Ticket, error)
	ListOverdue(ctx context.Context) ([]*domain.Ticket, error)
	ListEscalated(ctx context.Context) ([]*domain.Ticket, error)
	ListCriticalOpen(ctx context.Context) ([]*domain.Ticket, error)
	GetComments(ctx context.Context, ticketID int64) ([]*domain.Comment, error)
}

// StatisticsService computes the aggregate snapshot, read-through the
// ticketStatistics cache.
type StatisticsService interface {
	Snapshot(ctx context.Context) (*domain.TicketStatistics, error)
}

// BulkHandle represents the eventual completion (or failure) of one
// submitted batch.
type BulkHandle interface {
	// Done is closed when the batch has finished, successfully or not.
	Done() <-chan struct{}
	// Err returns the batch failure after Done is closed, nil on
	// success.
	Err() error
	// Wait blocks until the batch finishes or the context is done.
	Wait(ctx context.Context) error
}

// BulkService runs multi-ticket mutations on a bounded worker pool.
// Submission does not block; ids that resolve to no ticket are skipped
// silently, and caches are evicted once per batch.
type BulkService interface {
	SubmitStatusUpdate(ids []int64, newStatus domain.TicketStatus) (BulkHandle, error)
	SubmitAssign(ids []int64, assignee *domain.UserRef) (BulkHandle, error)
	// Shutdown stops accepting work and waits for in-flight batches.
	Shutdown()
}

// AuthService verifies local credentials and yields the caller's user
// reference. Directory (LDAP) verification is an external collaborator;
// this is the fallback path only.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*domain.UserRef, error)
}

// NotificationParams defines the input for sending a notification.
type NotificationParams struct {
	Recipient domain.UserRef
	Subject   string
	Message   string
	TicketID  int64
}

// Notifier sends asynchronous notifications; failures are logged, never
// surfaced to the mutation path.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}

// EventBroadcaster fans ticket lifecycle events out to subscribers.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
