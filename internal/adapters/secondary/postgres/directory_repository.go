package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/helpdesk-backend/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-backend/internal/core/ports"
)

// DirectoryRepository resolves user references from the users table.
type DirectoryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DirectoryRepository = (*DirectoryRepository)(nil)

// NewDirectoryRepository creates a new directory repository.
func NewDirectoryRepository(pool *pgxpool.Pool) ports.DirectoryRepository {
	return &DirectoryRepository{pool: pool}
}

func (r *DirectoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UserRef, error) {
	const query = `SELECT id, username, full_name FROM users WHERE id = $1`

	var user domain.UserRef
	err := r.pool.QueryRow(ctx, query, pgtype.UUID{Bytes: id, Valid: true}).
		Scan(&user.ID, &user.Username, &user.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *DirectoryRepository) FindByUsername(ctx context.Context, username string) (*domain.UserRef, error) {
	const query = `SELECT id, username, full_name FROM users WHERE username = $1`

	var user domain.UserRef
	err := r.pool.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.FullName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindCredentials returns the user reference and stored bcrypt hash for
// the local login path.
func (r *DirectoryRepository) FindCredentials(ctx context.Context, username string) (*domain.UserRef, string, error) {
	const query = `SELECT id, username, full_name, password_hash FROM users WHERE username = $1`

	var (
		user domain.UserRef
		hash string
	)
	err := r.pool.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.FullName, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperrors.ErrUserNotFound
		}
		return nil, "", err
	}
	return &user, hash, nil
}

// CreateUser inserts a directory entry. Used by integration tests and
// seed tooling.
func (r *DirectoryRepository) CreateUser(ctx context.Context, username, fullName, passwordHash string) (*domain.UserRef, error) {
	const query = `
INSERT INTO users (username, full_name, password_hash)
VALUES ($1, $2, $3)
RETURNING id`

	user := domain.UserRef{Username: username, FullName: fullName}
	if err := r.pool.QueryRow(ctx, query, username, fullName, passwordHash).Scan(&user.ID); err != nil {
		return nil, err
	}
	return &user, nil
}
