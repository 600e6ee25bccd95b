// Package session issues session identifiers and tokens and tracks the
// authenticated user of a request.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// IDLength is the length of identifiers returned by GenerateID.
const IDLength = 40

// GenerateID returns a random 40 character URL-safe identifier.
// 30 bytes = 240 bits of entropy.
func GenerateID() (string, error) {
	const size = 30

	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
