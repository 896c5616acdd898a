package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
)

// TicketFilter carries the optional constraints for a filtered ticket
// query. A nil field means "do not constrain on this field"; supplied
// filters combine with AND semantics. Search matches case-insensitively
// against title, description and category.
type TicketFilter struct {
	Search      *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    *domain.TicketCategory
	CreatedBy   *uuid.UUID
	AssignedTo  *uuid.UUID
	EquipmentID *int64

	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// TicketPage is one page of a filtered ticket query.
type TicketPage struct {
	Tickets    []*domain.Ticket
	TotalCount int64
	Page       int
	Size       int
}

// TicketRepository is the durable store for tickets. Implementations
// return domain errors for missing rows (ErrTicketNotFound) and
// propagate I/O failures unmodified.
type TicketRepository interface {
	// Save persists the ticket, inserting when ID is zero and
	// updating otherwise, and returns the stored record.
	Save(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	FindByID(ctx context.Context, id int64) (*domain.Ticket, error)
	// FindAllByID returns the tickets that exist for the given ids;
	// unknown ids are omitted without error.
	FindAllByID(ctx context.Context, ids []int64) ([]*domain.Ticket, error)
	SaveAll(ctx context.Context, tickets []*domain.Ticket) error
	Delete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error)
	CountByPriority(ctx context.Context, priority domain.TicketPriority) (int64, error)
	CountByCategory(ctx context.Context, category domain.TicketCategory) (int64, error)
	CountByCreatedBy(ctx context.Context, userID uuid.UUID) (int64, error)
	CountByAssignedTo(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnassigned(ctx context.Context) (int64, error)
	CountEscalated(ctx context.Context) (int64, error)

	FindWithFilters(ctx context.Context, filter TicketFilter) (*TicketPage, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus) ([]*domain.Ticket, error)
	ListByPriority(ctx context.Context, priority domain.TicketPriority) ([]*domain.Ticket, error)
	ListByCategory(ctx context.Context, category domain.TicketCategory) ([]*domain.Ticket, error)
	ListUnassigned(ctx context.Context) ([]*domain.Ticket, error)
	// ListOpen returns tickets whose status is not RESOLVED, CLOSED
	// or CANCELLED.
	ListOpen(ctx context.Context) ([]*domain.Ticket, error)
	// ListOverdue returns non-terminal tickets whose due date is
	// before the given instant.
	ListOverdue(ctx context.Context, now time.Time) ([]*domain.Ticket, error)
	ListEscalated(ctx context.Context) ([]*domain.Ticket, error)
	ListCriticalOpen(ctx context.Context) ([]*domain.Ticket, error)
}

// CommentRepository is the append-only audit store for ticket comments.
type CommentRepository interface {
	Save(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	// ListByTicket returns a ticket's comments ordered by createdAt
	// ascending.
	ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Comment, error)
	DeleteByTicket(ctx context.Context, ticketID int64) error
}

// DirectoryRepository resolves opaque user references. It is the
// engine-side view of the identity collaborator; the engine never
// authenticates, it only records the references it is given.
type DirectoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.UserRef, error)
	FindByUsername(ctx context.Context, username string) (*domain.UserRef, error)
	// FindCredentials returns the user reference and stored password
	// hash for the local fallback login path.
	FindCredentials(ctx context.Context, username string) (*domain.UserRef, string, error)
}
