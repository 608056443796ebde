package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures token issuing and validation
type JWTConfig struct {
	SecretKey string
	Issuer    string
	Audience  string
	TTL       time.Duration
}

// Claims are the JWT claims carried by payment-system tokens
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 tokens
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a token manager
func NewJWTManager(config JWTConfig) (*JWTManager, error) {
	if config.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if config.TTL == 0 {
		config.TTL = 15 * time.Minute
	}
	return &JWTManager{config: config}, nil
}

// Issue creates a signed token for the given user
func (m *JWTManager) Issue(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Validate parses and verifies a token, returning its claims
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}

	return claims, nil
}
