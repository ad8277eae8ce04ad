// Package auth issues and verifies session tokens and password digests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/cryptox"
	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the fixed session lifetime.
const DefaultTokenValidity = 24 * time.Hour

// Claims is the token payload: userId, email, iat and exp (seconds).
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// UserFinder resolves a token subject back to a stored user.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// TokenService issues HS256 session tokens and turns them back into users.
// Every verification failure collapses into common.ErrInvalidToken.
type TokenService struct {
	signingKey []byte
	validity   time.Duration
	users      UserFinder
	logger     logging.Logger
	now        func() time.Time
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService derives the signing key from the root secret.
func NewTokenService(secret []byte, users UserFinder, logger logging.Logger, opts ...TokenOption) (*TokenService, error) {
	key, err := cryptox.DeriveKey(secret, cryptox.PurposeTokenSigning)
	if err != nil {
		return nil, fmt.Errorf("token signing key: %w", err)
	}

	s := &TokenService{
		signingKey: key,
		validity:   DefaultTokenValidity,
		users:      users,
		logger:     logger.With("module", "tokens"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateToken returns "<header>.<payload>.<signature>" for user, valid from
// now until now+validity.
func (s *TokenService) CreateToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyToken checks shape, signature and expiry (exp at or before now is
// expired) and returns the payload. It never panics and never tells the
// caller which check failed.
func (s *TokenService) VerifyToken(tokenString string) (*Claims, error) {
	if strings.Count(tokenString, ".") != 2 {
		return nil, common.ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// Authenticate verifies tokenString and loads its user. Tokens of deleted
// accounts are rejected. Lookup errors are logged and reported as false.
func (s *TokenService) Authenticate(ctx context.Context, tokenString string) (*models.User, bool) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, false
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "user lookup failed", "user_id", claims.UserID, "error", err)
		}
		return nil, false
	}
	return user, true
}

// GetUserFromToken authenticates the bearer token of r.
func (s *TokenService) GetUserFromToken(r *http.Request) (*models.User, bool) {
	tokenString, ok := ExtractBearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if !ok {
		return nil, false
	}
	return s.Authenticate(r.Context(), tokenString)
}

// ExtractBearerToken returns the token from an "Authorization: Bearer <token>"
// value. The prefix is matched literally.
func ExtractBearerToken(header string) (string, bool) {
	token, found := strings.CutPrefix(header, common.BearerPrefix)
	if !found || token == "" {
		return "", false
	}
	return token, true
}
