package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// PostgresConfirmationRepository appends confirmation records.
type PostgresConfirmationRepository struct {
	DB *sqlx.DB
}

// NewPostgresConfirmationRepository creates a PostgresConfirmationRepository using db.
func NewPostgresConfirmationRepository(db *sqlx.DB) *PostgresConfirmationRepository {
	return &PostgresConfirmationRepository{DB: db}
}

// Create appends c and sets its id and creation time.
func (r *PostgresConfirmationRepository) Create(ctx context.Context, c *models.Confirmation) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO confirmations (request_id, reason)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, c.RequestID, c.Reason).Scan(&c.ID, &c.CreatedAt)
	return translate("CreateConfirmation", err)
}
