package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// refreshTokenBytes of entropy encode to the 64 hex characters stored on a session.
const refreshTokenBytes = 32

// NewRefreshToken returns an opaque session refresh token.
func NewRefreshToken() (string, error) {
	return fromReader(rand.Reader)
}

func fromReader(r io.Reader) (string, error) {
	var buf [refreshTokenBytes]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return "", fmt.Errorf("read refresh token entropy: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
