package domain

// EventType identifies a ticket lifecycle event pushed to subscribers.
type EventType string

const (
	EventTicketCreated   EventType = "ticket.created"
	EventTicketUpdated   EventType = "ticket.updated"
	EventStatusChanged   EventType = "ticket.status_changed"
	EventTicketEscalated EventType = "ticket.escalated"
	EventCommentAdded    EventType = "ticket.comment_added"
	EventTicketDeleted   EventType = "ticket.deleted"
)

// Event is a real-time notification about a ticket change.
type Event struct {
	Type     EventType `json:"type"`
	TicketID int64     `json:"ticketId"`
	Payload  any       `json:"payload,omitempty"`
}
