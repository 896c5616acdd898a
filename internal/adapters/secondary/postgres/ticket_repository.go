package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// ticketColumns is the select list shared by every ticket query. The
// creator join is inner (a ticket always has one); the assignee join is
// left.
const ticketColumns = `
t.id, t.title, t.description, t.priority, t.status, t.category,
t.created_by, cu.username, cu.full_name,
t.assigned_to, au.username, au.full_name,
t.created_at, t.updated_at, t.resolved_at, t.due_date,
t.resolution, t.estimated_hours, t.actual_hours, t.customer_satisfaction,
t.equipment_id, t.is_escalated, t.escalation_reason`

const ticketFrom = `
FROM tickets t
JOIN users cu ON t.created_by = cu.id
LEFT JOIN users au ON t.assigned_to = au.id`

// openStatuses matches tickets still being worked.
const openStatuses = `('OPEN', 'IN_PROGRESS')`

// TicketRepository handles database operations for tickets.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket       domain.Ticket
		assignedTo   pgtype.UUID
		auUsername   pgtype.Text
		auFullName   pgtype.Text
		updatedAt    pgtype.Timestamptz
		resolvedAt   pgtype.Timestamptz
		dueDate      pgtype.Timestamptz
		estimated    pgtype.Int4
		actual       pgtype.Int4
		satisfaction pgtype.Int4
		equipmentID  pgtype.Int8
	)

	err := row.Scan(
		&ticket.ID, &ticket.Title, &ticket.Description, &ticket.Priority, &ticket.Status, &ticket.Category,
		&ticket.CreatedBy.ID, &ticket.CreatedBy.Username, &ticket.CreatedBy.FullName,
		&assignedTo, &auUsername, &auFullName,
		&ticket.CreatedAt, &updatedAt, &resolvedAt, &dueDate,
		&ticket.Resolution, &estimated, &actual, &satisfaction,
		&equipmentID, &ticket.IsEscalated, &ticket.EscalationReason,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		ticket.AssignedTo = &domain.UserRef{
			ID:       assignedTo.Bytes,
			Username: auUsername.String,
			FullName: auFullName.String,
		}
	}
	if updatedAt.Valid {
		ticket.UpdatedAt = &updatedAt.Time
	}
	if resolvedAt.Valid {
		ticket.ResolvedAt = &resolvedAt.Time
	}
	if dueDate.Valid {
		ticket.DueDate = &dueDate.Time
	}
	if estimated.Valid {
		ticket.EstimatedHours = &estimated.Int32
	}
	if actual.Valid {
		ticket.ActualHours = &actual.Int32
	}
	if satisfaction.Valid {
		ticket.CustomerSatisfaction = &satisfaction.Int32
	}
	if equipmentID.Valid {
		ticket.EquipmentID = &equipmentID.Int64
	}

	return &ticket, nil
}

func (r *TicketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func assigneeParam(assignee *domain.UserRef) pgtype.UUID {
	if assignee == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: assignee.ID, Valid: true}
}

// Save inserts the ticket when its ID is zero and updates it otherwise,
// returning the stored record with both user references resolved.
func (r *TicketRepository) Save(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket.ID == 0 {
		return r.insert(ctx, ticket)
	}
	return r.update(ctx, ticket)
}

func (r *TicketRepository) insert(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
INSERT INTO tickets (
    title, description, priority, status, category,
    created_by, assigned_to, created_at, due_date,
    resolution, estimated_hours, actual_hours, customer_satisfaction,
    equipment_id, is_escalated, escalation_reason
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id`

	var id int64
	err := r.pool.QueryRow(ctx, query,
		ticket.Title, ticket.Description, ticket.Priority, ticket.Status, ticket.Category,
		pgtype.UUID{Bytes: ticket.CreatedBy.ID, Valid: true}, assigneeParam(ticket.AssignedTo),
		ticket.CreatedAt, ticket.DueDate,
		ticket.Resolution, ticket.EstimatedHours, ticket.ActualHours, ticket.CustomerSatisfaction,
		ticket.EquipmentID, ticket.IsEscalated, ticket.EscalationReason,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

const updateTicketSQL = `
UPDATE tickets SET
    title = $2, description = $3, priority = $4, status = $5, category = $6,
    assigned_to = $7, updated_at = $8, resolved_at = $9, due_date = $10,
    resolution = $11, estimated_hours = $12, actual_hours = $13,
    customer_satisfaction = $14, equipment_id = $15,
    is_escalated = $16, escalation_reason = $17
WHERE id = $1`

func updateTicketArgs(ticket *domain.Ticket) []any {
	return []any{
		ticket.ID,
		ticket.Title, ticket.Description, ticket.Priority, ticket.Status, ticket.Category,
		assigneeParam(ticket.AssignedTo), ticket.UpdatedAt, ticket.ResolvedAt, ticket.DueDate,
		ticket.Resolution, ticket.EstimatedHours, ticket.ActualHours,
		ticket.CustomerSatisfaction, ticket.EquipmentID,
		ticket.IsEscalated, ticket.EscalationReason,
	}
}

func (r *TicketRepository) update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	tag, err := r.pool.Exec(ctx, updateTicketSQL, updateTicketArgs(ticket)...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, apperrors.ErrTicketNotFound
	}

	return r.FindByID(ctx, ticket.ID)
}

func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.id = $1"

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// FindAllByID returns the tickets that exist for the given ids; unknown
// ids are simply absent from the result.
func (r *TicketRepository) FindAllByID(ctx context.Context, ids []int64) ([]*domain.Ticket, error) {
	if len(ids) == 0 {
		return []*domain.Ticket{}, nil
	}
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.id = ANY($1)\nORDER BY t.id"
	return r.queryTickets(ctx, query, ids)
}

// SaveAll updates the given tickets in one transaction.
func (r *TicketRepository) SaveAll(ctx context.Context, tickets []*domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, ticket := range tickets {
		batch.Queue(updateTicketSQL, updateTicketArgs(ticket)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range tickets {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *TicketRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) count(ctx context.Context, query string, args ...any) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *TicketRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets`)
}

func (r *TicketRepository) CountByStatus(ctx context.Context, status domain.TicketStatus) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE status = $1`, status)
}

func (r *TicketRepository) CountByPriority(ctx context.Context, priority domain.TicketPriority) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE priority = $1`, priority)
}

func (r *TicketRepository) CountByCategory(ctx context.Context, category domain.TicketCategory) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE category = $1`, category)
}

func (r *TicketRepository) CountByCreatedBy(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE created_by = $1`, pgtype.UUID{Bytes: userID, Valid: true})
}

func (r *TicketRepository) CountByAssignedTo(ctx context.Context, userID uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE assigned_to = $1`, pgtype.UUID{Bytes: userID, Valid: true})
}

func (r *TicketRepository) CountUnassigned(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE assigned_to IS NULL`)
}

func (r *TicketRepository) CountEscalated(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM tickets WHERE is_escalated`)
}

// sortColumns whitelists the columns FindWithFilters may order by.
var sortColumns = map[string]string{
	"createdAt": "t.created_at",
	"updatedAt": "t.updated_at",
	"dueDate":   "t.due_date",
	"priority":  "t.priority",
	"status":    "t.status",
	"id":        "t.id",
}

// FindWithFilters runs a paginated query combining the supplied filters
// with AND semantics.
func (r *TicketRepository) FindWithFilters(ctx context.Context, filter ports.TicketFilter) (*ports.TicketPage, error) {
	conditions := []string{"TRUE"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		p := arg("%" + strings.TrimSpace(*filter.Search) + "%")
		conditions = append(conditions, fmt.Sprintf(
			"(t.title ILIKE %[1]s OR t.description ILIKE %[1]s OR t.category ILIKE %[1]s)", p))
	}
	if filter.Status != nil {
		conditions = append(conditions, "t.status = "+arg(*filter.Status))
	}
	if filter.Priority != nil {
		conditions = append(conditions, "t.priority = "+arg(*filter.Priority))
	}
	if filter.Category != nil {
		conditions = append(conditions, "t.category = "+arg(*filter.Category))
	}
	if filter.CreatedBy != nil {
		conditions = append(conditions, "t.created_by = "+arg(pgtype.UUID{Bytes: *filter.CreatedBy, Valid: true}))
	}
	if filter.AssignedTo != nil {
		conditions = append(conditions, "t.assigned_to = "+arg(pgtype.UUID{Bytes: *filter.AssignedTo, Valid: true}))
	}
	if filter.EquipmentID != nil {
		conditions = append(conditions, "t.equipment_id = "+arg(*filter.EquipmentID))
	}

	where := "\nWHERE " + strings.Join(conditions, " AND ")

	total, err := r.count(ctx, "SELECT COUNT(*) FROM tickets t"+where, args...)
	if err != nil {
		return nil, err
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = "t.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortDir, "asc") {
		direction = "ASC"
	}

	size := filter.Size
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}

	query := "SELECT" + ticketColumns + ticketFrom + where +
		fmt.Sprintf("\nORDER BY %s %s, t.id DESC", orderBy, direction) +
		fmt.Sprintf("\nLIMIT %s OFFSET %s", arg(size), arg(page*size))

	tickets, err := r.queryTickets(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	return &ports.TicketPage{
		Tickets:    tickets,
		TotalCount: total,
		Page:       page,
		Size:       size,
	}, nil
}

func (r *TicketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.status = $1\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query, status)
}

func (r *TicketRepository) ListByPriority(ctx context.Context, priority domain.TicketPriority) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.priority = $1\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query, priority)
}

func (r *TicketRepository) ListByCategory(ctx context.Context, category domain.TicketCategory) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.category = $1\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query, category)
}

func (r *TicketRepository) ListUnassigned(ctx context.Context) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.assigned_to IS NULL\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query)
}

func (r *TicketRepository) ListOpen(ctx context.Context) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.status IN " + openStatuses + "\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query)
}

func (r *TicketRepository) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom +
		"\nWHERE t.due_date < $1 AND t.status IN " + openStatuses +
		"\nORDER BY t.due_date"
	return r.queryTickets(ctx, query, now)
}

func (r *TicketRepository) ListEscalated(ctx context.Context) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom + "\nWHERE t.is_escalated\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query)
}

func (r *TicketRepository) ListCriticalOpen(ctx context.Context) ([]*domain.Ticket, error) {
	query := "SELECT" + ticketColumns + ticketFrom +
		"\nWHERE t.priority = 'CRITICAL' AND t.status IN " + openStatuses +
		"\nORDER BY t.created_at DESC"
	return r.queryTickets(ctx, query)
}
