package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
	StatusCancelled  TicketStatus = "CANCELLED"
)

// DisplayName returns the human-readable form used in audit comments.
func (s TicketStatus) DisplayName() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// IsValid reports whether the status is a known value.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the status exempts a ticket from overdue
// tracking and the open-ticket listings.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed || s == StatusCancelled
}

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "LOW"
	PriorityMedium   TicketPriority = "MEDIUM"
	PriorityHigh     TicketPriority = "HIGH"
	PriorityCritical TicketPriority = "CRITICAL"
)

// DisplayName returns the human-readable form used in audit comments.
func (p TicketPriority) DisplayName() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	default:
		return string(p)
	}
}

// IsValid reports whether the priority is a known value.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// DueOffset returns how long after creation a ticket of this priority is due.
func (p TicketPriority) DueOffset() time.Duration {
	switch p {
	case PriorityCritical:
		return 4 * time.Hour
	case PriorityHigh:
		return 24 * time.Hour
	case PriorityLow:
		return 7 * 24 * time.Hour
	default: // MEDIUM
		return 3 * 24 * time.Hour
	}
}

// TicketCategory classifies the reported problem.
type TicketCategory string

const (
	CategoryHardware TicketCategory = "HARDWARE"
	CategorySoftware TicketCategory = "SOFTWARE"
	CategoryNetwork  TicketCategory = "NETWORK"
	CategoryAccess   TicketCategory = "ACCESS"
	CategoryOther    TicketCategory = "OTHER"
)

// IsValid reports whether the category is a known value.
func (c TicketCategory) IsValid() bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategoryAccess, CategoryOther:
		return true
	}
	return false
}

// Ticket is the core domain entity.
type Ticket struct {
	ID                   int64
	Title                string
	Description          string
	Priority             TicketPriority
	Status               TicketStatus
	Category             TicketCategory
	CreatedBy            UserRef
	AssignedTo           *UserRef
	CreatedAt            time.Time
	UpdatedAt            *time.Time
	ResolvedAt           *time.Time
	DueDate              *time.Time
	Resolution           string
	EstimatedHours       *int32
	ActualHours          *int32
	CustomerSatisfaction *int32
	EquipmentID          *int64
	IsEscalated          bool
	EscalationReason     string
}

// IsAssignedTo reports whether the ticket is assigned to the given user.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedTo != nil && t.AssignedTo.ID == userID
}

// IsOverdue reports whether the ticket has passed its due date without
// reaching a terminal status.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status.IsTerminal() {
		return false
	}
	return t.DueDate.Before(now)
}

// Touch refreshes the ticket's updatedAt timestamp.
func (t *Ticket) Touch(now time.Time) {
	t.UpdatedAt = &now
}
