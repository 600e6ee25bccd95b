package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/atinyakov/GophIdentity/internal/models"
	"github.com/atinyakov/GophIdentity/internal/sentinel"
)

// Attribute names an identity column that lookups may filter on.
type Attribute string

const (
	// AttrRequestID filters by the request identifier.
	AttrRequestID Attribute = "request_id"
	// AttrEmail filters by e-mail, case-insensitively.
	AttrEmail Attribute = "email"
	// AttrSessionID filters by the session identifier.
	AttrSessionID Attribute = "session_id"
)

// ErrUnknownAttribute is returned for lookups on a column outside the allow list.
var ErrUnknownAttribute = errors.New("unknown identity attribute")

func (a Attribute) condition() (string, error) {
	switch a {
	case AttrRequestID, AttrSessionID:
		return string(a) + " = $1", nil
	case AttrEmail:
		return "LOWER(email) = LOWER($1)", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, string(a))
	}
}

const identityColumns = `id, request_id, user_id, session_id, email, url_confirm, provider, created_at, updated_at`

// PostgresIdentityRepository stores identities in PostgreSQL.
type PostgresIdentityRepository struct {
	// DB is the database handle for executing queries.
	DB *sqlx.DB
}

// NewPostgresIdentityRepository creates a PostgresIdentityRepository using db.
func NewPostgresIdentityRepository(db *sqlx.DB) *PostgresIdentityRepository {
	return &PostgresIdentityRepository{DB: db}
}

// Create inserts identity and fills in its generated id and timestamps.
// A duplicate request id yields sentinel.ErrConflict.
func (r *PostgresIdentityRepository) Create(ctx context.Context, identity *models.Identity) error {
	err := r.DB.QueryRowxContext(ctx, `
		INSERT INTO identities (request_id, user_id, session_id, email, url_confirm, provider)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`,
		identity.RequestID,
		identity.UserID,
		identity.SessionID,
		identity.Email,
		identity.URLConfirm,
		identity.Provider,
	).Scan(&identity.ID, &identity.CreatedAt, &identity.UpdatedAt)
	return translate("CreateIdentity", err)
}

// FindOneBy returns the most recent identity whose attr equals value,
// or sentinel.ErrNotFound.
func (r *PostgresIdentityRepository) FindOneBy(ctx context.Context, attr Attribute, value string) (*models.Identity, error) {
	cond, err := attr.condition()
	if err != nil {
		return nil, err
	}
	var identity models.Identity
	query := `SELECT ` + identityColumns + ` FROM identities WHERE ` + cond + ` ORDER BY id DESC LIMIT 1`
	if err := r.DB.GetContext(ctx, &identity, query, value); err != nil {
		return nil, translate("FindIdentity", err)
	}
	return &identity, nil
}

// FindByWithFields returns the identity matching attr together with its
// declared fields in insertion order.
func (r *PostgresIdentityRepository) FindByWithFields(ctx context.Context, attr Attribute, value string) (*models.Identity, error) {
	identity, err := r.FindOneBy(ctx, attr, value)
	if err != nil {
		return nil, err
	}
	fields := []models.DeclaredField{}
	err = r.DB.SelectContext(ctx, &fields, `
		SELECT id, identity_id, field_id, declared_value
		FROM identity_fields
		WHERE identity_id = $1
		ORDER BY id
	`, identity.ID)
	if err != nil {
		return nil, translate("FindIdentityFields", err)
	}
	identity.Fields = fields
	return identity, nil
}

// FindByWithResponse returns the identity matching attr together with the
// provider response, if one was recorded. Response is nil otherwise.
func (r *PostgresIdentityRepository) FindByWithResponse(ctx context.Context, attr Attribute, value string) (*models.Identity, error) {
	identity, err := r.FindOneBy(ctx, attr, value)
	if err != nil {
		return nil, err
	}
	var resp models.IdentityResponse
	err = r.DB.GetContext(ctx, &resp, `
		SELECT id, identity_id, provider, status, confirmed_values, created_at
		FROM identity_responses
		WHERE identity_id = $1
	`, identity.ID)
	if err != nil {
		err = translate("FindIdentityResponse", err)
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity, nil
		}
		return nil, err
	}
	identity.Response = &resp
	return identity, nil
}
