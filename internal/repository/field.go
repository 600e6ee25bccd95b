package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GophIdentity/internal/models"
)

// PostgresFieldRepository reads the field dictionary.
type PostgresFieldRepository struct {
	DB *sqlx.DB
}

// NewPostgresFieldRepository creates a PostgresFieldRepository using db.
func NewPostgresFieldRepository(db *sqlx.DB) *PostgresFieldRepository {
	return &PostgresFieldRepository{DB: db}
}

// List returns all dictionary fields ordered by id.
func (r *PostgresFieldRepository) List(ctx context.Context) ([]models.Field, error) {
	fields := []models.Field{}
	if err := r.DB.SelectContext(ctx, &fields, `SELECT id, name, kind FROM fields ORDER BY id`); err != nil {
		return nil, translate("ListFields", err)
	}
	return fields, nil
}

// PostgresIdentityFieldRepository stores declared fields.
type PostgresIdentityFieldRepository struct {
	DB *sqlx.DB
}

// NewPostgresIdentityFieldRepository creates a PostgresIdentityFieldRepository using db.
func NewPostgresIdentityFieldRepository(db *sqlx.DB) *PostgresIdentityFieldRepository {
	return &PostgresIdentityFieldRepository{DB: db}
}

// Create inserts field and sets its generated id.
func (r *PostgresIdentityFieldRepository) Create(ctx context.Context, field *models.DeclaredField) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO identity_fields (identity_id, field_id, declared_value)
		VALUES ($1, $2, $3)
		RETURNING id
	`, field.IdentityID, field.FieldID, field.DeclaredValue).Scan(&field.ID)
	return translate("CreateIdentityField", err)
}
