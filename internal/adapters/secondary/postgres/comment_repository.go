package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// CommentRepository handles database operations for ticket comments.
type CommentRepository struct {
	pool *pgxpool.Pool
}

var _ ports.CommentRepository = (*CommentRepository)(nil)

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(pool *pgxpool.Pool) ports.CommentRepository {
	return &CommentRepository{pool: pool}
}

// Save persists a new comment and returns the stored record.
func (r *CommentRepository) Save(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	const query = `
INSERT INTO ticket_comments (ticket_id, author_id, body, is_internal, type)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`

	var authorID pgtype.UUID
	if comment.Author != nil {
		authorID = pgtype.UUID{Bytes: comment.Author.ID, Valid: true}
	}

	stored := *comment
	err := r.pool.QueryRow(ctx, query,
		comment.TicketID, authorID, comment.Body, comment.IsInternal, comment.Type,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByTicket returns a ticket's comments ordered by creation time.
func (r *CommentRepository) ListByTicket(ctx context.Context, ticketID int64) ([]*domain.Comment, error) {
	const query = `
SELECT c.id, c.ticket_id, c.author_id, u.username, u.full_name,
       c.body, c.is_internal, c.type, c.created_at
FROM ticket_comments c
LEFT JOIN users u ON c.author_id = u.id
WHERE c.ticket_id = $1
ORDER BY c.created_at, c.id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*domain.Comment, 0)
	for rows.Next() {
		var (
			comment  domain.Comment
			authorID pgtype.UUID
			username pgtype.Text
			fullName pgtype.Text
		)
		err := rows.Scan(
			&comment.ID, &comment.TicketID, &authorID, &username, &fullName,
			&comment.Body, &comment.IsInternal, &comment.Type, &comment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if authorID.Valid {
			comment.Author = &domain.UserRef{
				ID:       authorID.Bytes,
				Username: username.String,
				FullName: fullName.String,
			}
		}
		comments = append(comments, &comment)
	}
	return comments, rows.Err()
}

// DeleteByTicket removes every comment attached to the ticket.
func (r *CommentRepository) DeleteByTicket(ctx context.Context, ticketID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ticket_comments WHERE ticket_id = $1`, ticketID)
	return err
}
