// Package checksum derives the access token that is issued for a request
// identifier at registration and verified later without a session.
package checksum

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// MaxRequestIDLength is the longest request identifier Verify accepts.
const MaxRequestIDLength = 255

var (
	// ErrEmptySecret is returned by New when no secret is configured.
	ErrEmptySecret = errors.New("checksum: secret is empty")
	// ErrSecretTooLong is returned by New when the secret exceeds the BLAKE2b key size.
	ErrSecretTooLong = errors.New("checksum: secret exceeds 64 bytes")
)

// Calculator computes keyed BLAKE2b-256 checksums of request identifiers.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	key []byte
}

// New returns a Calculator keyed with secret.
func New(secret string) (*Calculator, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) > blake2b.Size {
		return nil, ErrSecretTooLong
	}
	return &Calculator{key: []byte(secret)}, nil
}

// Calculate returns the hex-encoded checksum of requestID.
func (c *Calculator) Calculate(requestID string) string {
	// The key length is validated in New, so New256 cannot fail here.
	h, _ := blake2b.New256(c.key)
	h.Write([]byte(requestID))
	return hex.EncodeToString(h.Sum(nil))
}

// Verify reports whether supplied is the checksum of requestID.
// The comparison runs in constant time. Empty or oversized identifiers
// never verify.
func (c *Calculator) Verify(requestID, supplied string) bool {
	if requestID == "" || len(requestID) > MaxRequestIDLength {
		return false
	}
	expected := c.Calculate(requestID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1
}
