package upstream

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// serviceToken builds and signs a short-lived HS256 JWT identifying the board
// to the system of record.  The claims carry the venue so the remote side can
// scope the request.
func serviceToken(secret, subject, venueID string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":   subject,
		"venue": venueID,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}
