package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	// ClaimRole carries the caller's role in issued tokens.
	ClaimRole = "role"
	// RoleAdmin grants access to the /admin group.
	RoleAdmin = "admin"
)

var (
	// ErrInvalidCredentials is returned when the API key does not match the configured hash.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured means no signing secret or key hash is set.
	ErrNotConfigured = errors.New("admin tokens are not configured")
)

// Service exchanges the admin API key for short-lived HS256 tokens.
type Service struct {
	secret  []byte
	keyHash []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewService builds a token issuer. apiKeyHash is a bcrypt hash of the admin API key.
func NewService(secret, apiKeyHash string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		secret:  []byte(secret),
		keyHash: []byte(apiKeyHash),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Token is an issued admin access token.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Issue validates the API key and signs an admin token.
func (s *Service) Issue(apiKey string) (Token, error) {
	if len(s.secret) == 0 || len(s.keyHash) == 0 {
		return Token{}, ErrNotConfigured
	}
	if apiKey == "" || bcrypt.CompareHashAndPassword(s.keyHash, []byte(apiKey)) != nil {
		return Token{}, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":     RoleAdmin,
		ClaimRole: RoleAdmin,
		"iat":     now.Unix(),
		"exp":     now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// HashAPIKey produces the value expected in ADMIN_API_KEY_HASH.
func HashAPIKey(apiKey string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
