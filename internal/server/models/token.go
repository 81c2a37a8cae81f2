package models

import "time"

// TokenType distinguishes short-lived access tokens from persisted refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Token is a persisted token record. Only the SHA-256 hash of the signed
// string is stored.
type Token struct {
	ID          string
	TokenHash   string
	UserID      string
	Type        TokenType
	ExpiresAt   time.Time
	Blacklisted bool
	CreatedAt   time.Time
}

// IssuedToken is a signed token handed to a client.
type IssuedToken struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// AuthTokens is the access/refresh pair returned after login, registration
// and rotation.
type AuthTokens struct {
	Access  IssuedToken `json:"access"`
	Refresh IssuedToken `json:"refresh"`
}
