// Package models defines the core data structures for users, identities,
// declared fields, provider responses and confirmations.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// User represents an account that owns identities.
type User struct {
	// ID is the unique identifier for the user.
	ID int64 `db:"id" json:"id"`
	// Login is the name chosen by the user; it is the CN of the client certificate.
	Login string `db:"login" json:"login"`
	// CreatedAt is the account creation time.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Identity is a registered identity declaration.
type Identity struct {
	// ID is the surrogate key of the identity row.
	ID int64 `db:"id" json:"id"`
	// RequestID is the caller-chosen identifier, unique per registration.
	RequestID string `db:"request_id" json:"request_id"`
	// UserID references the owning user.
	UserID int64 `db:"user_id" json:"user_id"`
	// SessionID is the 40 character token returned at registration.
	SessionID string `db:"session_id" json:"session_id"`
	// Email is the address the provider response is looked up by.
	Email string `db:"email" json:"email"`
	// URLConfirm is where the caller is sent after confirmation.
	URLConfirm string `db:"url_confirm" json:"url_confirm"`
	// Provider names the provider chosen for confirmation.
	Provider string `db:"provider" json:"provider"`
	// CreatedAt is the registration time.
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	// UpdatedAt is the time of the last write to the row.
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Fields holds the declared fields when loaded with FindByWithFields.
	Fields []DeclaredField `db:"-" json:"fields,omitempty"`
	// Response holds the provider response when loaded with FindByWithResponse.
	Response *IdentityResponse `db:"-" json:"response,omitempty"`
}

// DeclaredField is a single value the user declared at registration.
type DeclaredField struct {
	ID            int64  `db:"id" json:"id"`
	IdentityID    int64  `db:"identity_id" json:"identity_id"`
	FieldID       int64  `db:"field_id" json:"field_id"`
	DeclaredValue string `db:"declared_value" json:"declared_value"`
}

// FieldKind selects how a field is compared during confirmation.
type FieldKind string

const (
	// FieldKindExact compares normalized values for equality (dates, numbers, e-mail).
	FieldKindExact FieldKind = "exact"
	// FieldKindText compares free text with a fuzzy similarity score (names, addresses).
	FieldKindText FieldKind = "text"
)

// Field is an entry of the field dictionary.
type Field struct {
	ID   int64     `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
	Kind FieldKind `db:"kind" json:"kind"`
}

// FieldValue is a field name and value pair as sent by clients and providers.
type FieldValue struct {
	FieldName  string `json:"fieldName"`
	FieldValue string `json:"fieldValue"`
}

// Confirmation is an append-only record of a confirmation event.
type Confirmation struct {
	ID        int64     `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	Reason    string    `db:"reason" json:"reason"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ConfirmationReasonVerify is the reason recorded by identity confirmation.
const ConfirmationReasonVerify = "verify"

// IdentityResponse is the authoritative record a provider posted for an identity.
type IdentityResponse struct {
	ID         int64           `db:"id" json:"id"`
	IdentityID int64           `db:"identity_id" json:"identity_id"`
	Provider   string          `db:"provider" json:"provider"`
	Status     string          `db:"status" json:"status"`
	Values     ConfirmedValues `db:"confirmed_values" json:"values"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// ConfirmedValues maps field names to provider-confirmed values.
// It is stored as a JSONB column.
type ConfirmedValues map[string]string

// Value implements driver.Valuer.
func (v ConfirmedValues) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner.
func (v *ConfirmedValues) Scan(src any) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = ConfirmedValues{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return errors.New("confirmed values: unsupported column type")
	}
	out := ConfirmedValues{}
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*v = out
	return nil
}
