package domain

import (
	"time"

	"github.com/google/uuid"
)

// CommentType distinguishes user comments from system-generated audit
// entries.
type CommentType string

const (
	CommentSystem           CommentType = "SYSTEM"
	CommentStatusChange     CommentType = "STATUS_CHANGE"
	CommentPriorityChange   CommentType = "PRIORITY_CHANGE"
	CommentAssignmentChange CommentType = "ASSIGNMENT_CHANGE"
	CommentUser             CommentType = "USER"
)

// Comment is an append-only note attached to a ticket. System-generated
// entries form the audit trail for field changes; Author is nil for
// entries with no attributable user (e.g. status changes on unassigned
// tickets).
type Comment struct {
	ID         uuid.UUID
	TicketID   int64
	Author     *UserRef
	Body       string
	IsInternal bool
	Type       CommentType
	CreatedAt  time.Time
}
