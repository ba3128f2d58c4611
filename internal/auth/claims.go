package auth

import "time"

// Claims represents the claims stored in a PASETO access token.
// These are encrypted in v4.local tokens, so they're not readable without
// the key.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
