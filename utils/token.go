package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TemporaryTokenTTL bounds email verification and password reset links.
const TemporaryTokenTTL = 20 * time.Minute

type TemporaryToken struct {
	Unhashed string
	Hashed   string
	Expiry   time.Time
}

// GenerateTemporaryToken returns a random token for an emailed link. Only the
// hash is stored.
func GenerateTemporaryToken(now time.Time) (TemporaryToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return TemporaryToken{}, fmt.Errorf("generating token: %w", err)
	}
	unhashed := hex.EncodeToString(buf)
	return TemporaryToken{
		Unhashed: unhashed,
		Hashed:   HashToken(unhashed),
		Expiry:   now.Add(TemporaryTokenTTL),
	}, nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
