package jwtutil

import (
	"time"

	"ledger-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

var (
	signingKey      []byte
	expirationHours int
)

// BusinessClaims represents the JWT claims carrying the authenticated business (tenant)
type BusinessClaims struct {
	BusinessID   uint   `json:"business_id"`
	BusinessCode string `json:"business_code"`
	jwt.RegisteredClaims
}

// Initialize configures the JWT utility from application configuration
func Initialize(cfg *config.JWTConfig) {
	signingKey = []byte(cfg.SigningKey)
	expirationHours = cfg.ExpirationHours
	if expirationHours <= 0 {
		expirationHours = 24
	}
}

// GenerateToken creates a signed JWT for the given business
func GenerateToken(businessID uint, businessCode string) (string, error) {
	now := time.Now()
	claims := &BusinessClaims{
		BusinessID:   businessID,
		BusinessCode: businessCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   businessCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expirationHours) * time.Hour)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*BusinessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &BusinessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*BusinessClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
