package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer est la valeur "iss" des tokens de session
const TokenIssuer = "event-checkin-backend"

const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken enveloppe tout échec de validation
var ErrInvalidToken = errors.New("token invalide")

// Claims représente les revendications JWT d'un manager
type Claims struct {
	ManagerID string `json:"manager_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateToken signe un token HS256 pour un manager ; ttl <= 0 vaut 24h
func GenerateToken(managerID string, email string, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := time.Now()
	claims := &Claims{
		ManagerID: managerID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   managerID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("erreur lors de la signature du token: %w", err)
	}
	return signed, nil
}

// ValidateToken vérifie signature, émetteur et dates puis retourne les revendications.
// Toute erreur enveloppe ErrInvalidToken.
func ValidateToken(tokenString string, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ManagerID == "" || claims.Subject != claims.ManagerID {
		return nil, fmt.Errorf("%w: manager absent", ErrInvalidToken)
	}
	return claims, nil
}
