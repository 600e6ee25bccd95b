package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// PostgresResponseRepository stores provider responses, one per identity.
type PostgresResponseRepository struct {
	DB *sqlx.DB
}

// NewPostgresResponseRepository creates a PostgresResponseRepository using db.
func NewPostgresResponseRepository(db *sqlx.DB) *PostgresResponseRepository {
	return &PostgresResponseRepository{DB: db}
}

// Save inserts resp or replaces the response already recorded for the same
// identity, then sets the stored id and creation time.
func (r *PostgresResponseRepository) Save(ctx context.Context, resp *models.IdentityResponse) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO identity_responses (identity_id, provider, status, confirmed_values)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity_id) DO UPDATE
		SET provider = EXCLUDED.provider,
		    status = EXCLUDED.status,
		    confirmed_values = EXCLUDED.confirmed_values,
		    created_at = NOW()
		RETURNING id, created_at
	`, resp.IdentityID, resp.Provider, resp.Status, resp.Values).Scan(&resp.ID, &resp.CreatedAt)
	return translate("SaveIdentityResponse", err)
}
