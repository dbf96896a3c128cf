package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("authentication is not configured")
)

const DefaultTokenTTL = 24 * time.Hour

// Service issues and checks HS256 bearer tokens. API keys exchanged for
// tokens are checked against a bcrypt hash, never stored in clear.
type Service struct {
	jwtSecret  []byte
	apiKeyHash []byte
	now        func() time.Time
}

// NewService returns a token service. An empty secret disables
// authentication; an empty key hash disables key exchange.
func NewService(jwtSecret, apiKeyHash string) *Service {
	return &Service{
		jwtSecret:  []byte(jwtSecret),
		apiKeyHash: []byte(apiKeyHash),
		now:        time.Now,
	}
}

// Enabled reports whether requests must carry a token.
func (s *Service) Enabled() bool {
	return len(s.jwtSecret) > 0
}

// Exchange trades an API key for a token naming subject.
func (s *Service) Exchange(subject, apiKey string) (string, error) {
	if !s.Enabled() || len(s.apiKeyHash) == 0 {
		return "", ErrDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.apiKeyHash, []byte(apiKey)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(subject, DefaultTokenTTL)
}

func (s *Service) ValidateToken(tokenString string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", errors.New("invalid token subject")
	}

	return subject, nil
}

func (s *Service) IssueToken(subject string, ttl time.Duration) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// HashKey returns the bcrypt hash to configure for an API key.
func HashKey(apiKey string) (string, error) {
	if len(apiKey) < 16 {
		return "", errors.New("api key must be at least 16 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 12)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}
