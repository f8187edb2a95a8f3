// Package auth issues and verifies the bearer tokens handed out on login and
// registration.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/messagely/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated username next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// GenerateToken signs an HS256 token for username. A zero validity issues a
// token without an exp claim, which never expires.
func GenerateToken(username string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
		Username: username,
	}
	if validityDuration != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(validityDuration))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUsernameFromToken verifies tokenString and returns its username claim.
// Expired tokens yield common.ErrTokenExpired; any other failure yields
// common.ErrInvalidToken.
func GetUsernameFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.Username == "" {
		return "", common.ErrInvalidToken
	}

	return claims.Username, nil
}
