// Package auth holds the stateless building blocks of authentication: JWT
// signing and parsing, password hashing, token fingerprints and the
// role-to-rights table.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/todoapi/internal/common"
	"github.com/dmitrijs2005/todoapi/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the JWT claims: sub, iat, exp, jti plus the token type.
type Claims struct {
	jwt.RegisteredClaims
	Type models.TokenType `json:"type"`
}

// GenerateToken signs an HS256 token for userID that expires at expiresAt.
// Every token carries a random jti, so two tokens minted for the same user
// within the same second still differ.
func GenerateToken(userID string, expiresAt time.Time, typ models.TokenType, secretKey []byte) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Type: typ,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies signature and expiry of tokenString.
// It returns common.ErrTokenExpired for expired tokens and
// common.ErrInvalidToken for everything else that fails.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
