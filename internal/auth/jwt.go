// internal/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-tracker/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller. ID is opaque and owns expenses.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secretKey []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{
		secretKey: []byte(cfg.JWTSecret),
		expiresIn: cfg.SessionTTL,
		now:       time.Now,
	}
}

// ExpiresIn is the lifetime of issued tokens.
func (s *TokenService) ExpiresIn() time.Duration {
	return s.expiresIn
}

func (s *TokenService) GenerateToken(p Principal) (string, error) {
	if strings.TrimSpace(p.ID) == "" {
		return "", errors.New("principal id is empty")
	}
	now := s.now()
	expTime := now.Add(s.expiresIn)
	c := claims{
		Name:  p.Name,
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tokenStr, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	slog.Info("session issued", "user_id", p.ID, "expires_at", expTime.UTC().Format(time.RFC3339))
	return tokenStr, nil
}

func (s *TokenService) ParseToken(tokenStr string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || strings.TrimSpace(c.Subject) == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	slog.Debug("session parsed", "user_id", c.Subject)
	return Principal{ID: c.Subject, Name: c.Name, Email: c.Email}, nil
}
