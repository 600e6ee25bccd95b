package client

import (
	"fmt"
	"time"
)

// Account is returned by account registration: the new user id and a client
// certificate signed by the server CA.
type Account struct {
	UserID int64  `json:"user_id"`
	Cert   string `json:"cert"`
	Key    string `json:"key"`
}

// Receipt is kept locally for every identity registered through the client.
// The checksum is needed later to read the confirmation without a session.
type Receipt struct {
	RequestID string    `json:"request_id"`
	CheckSum  string    `json:"check_sum"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Message)
}
