package domain

// TicketStatistics is an immutable snapshot of aggregate ticket counts,
// recomputed from the store on cache miss.
type TicketStatistics struct {
	TotalTickets      int64 `json:"totalTickets"`
	OpenTickets       int64 `json:"openTickets"`
	InProgressTickets int64 `json:"inProgressTickets"`
	ResolvedTickets   int64 `json:"resolvedTickets"`
	ClosedTickets     int64 `json:"closedTickets"`
	UnassignedTickets int64 `json:"unassignedTickets"`
	EscalatedTickets  int64 `json:"escalatedTickets"`
}
