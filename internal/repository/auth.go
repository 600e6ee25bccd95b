// Package repository provides PostgreSQL persistence for users, identities,
// declared fields, provider responses and confirmations.
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// PostgresAuthRepository implements user account operations using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
func NewPostgresAuthRepository(db *sqlx.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db}
}

// UserExists checks whether a user with the specified login exists in the database.
func (s *PostgresAuthRepository) UserExists(ctx context.Context, login string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(
		ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`,
		login,
	).Scan(&exists)
	return exists, err
}

// RegisterUser inserts a new user with the given login and returns the stored row.
// A duplicate login yields sentinel.ErrConflict.
func (s *PostgresAuthRepository) RegisterUser(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := s.DB.GetContext(
		ctx,
		&u,
		`INSERT INTO users (login) VALUES ($1) RETURNING id, login, created_at`,
		login,
	)
	if err != nil {
		return models.User{}, translate("RegisterUser", err)
	}
	return u, nil
}

// FindUserByLogin returns the user with the given login or sentinel.ErrNotFound.
func (s *PostgresAuthRepository) FindUserByLogin(ctx context.Context, login string) (models.User, error) {
	var u models.User
	err := s.DB.GetContext(ctx, &u, `SELECT id, login, created_at FROM users WHERE login = $1`, login)
	if err != nil {
		return models.User{}, translate("FindUserByLogin", err)
	}
	return u, nil
}

// FindUserByID returns the user with the given id or sentinel.ErrNotFound.
func (s *PostgresAuthRepository) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := s.DB.GetContext(ctx, &u, `SELECT id, login, created_at FROM users WHERE id = $1`, id)
	if err != nil {
		return models.User{}, translate("FindUserByID", err)
	}
	return u, nil
}
