// Package services contains server-side business logic. This file implements
// UserService: signup and login on top of the password hasher and token
// service.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/repomanager"
)

const minPasswordLength = 8

// Hasher is the password digest contract UserService needs.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, stored string) bool
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	CreateToken(user *models.User) (string, error)
}

// Session is what a successful signup or login hands back.
type Session struct {
	Token string
	User  *models.User
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	tokens      TokenIssuer
	logger      logging.Logger

	// dummyHash is verified against when the email is unknown, so both
	// failure paths cost one Argon2 run.
	dummyHash string
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h Hasher, t TokenIssuer, l logging.Logger) (*UserService, error) {
	dummy, err := h.Hash("farmkeeper-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      h,
		tokens:      t,
		logger:      l.With("module", "users"),
		dummyHash:   dummy,
	}, nil
}

// Signup creates an account and logs it in. A taken email returns
// common.ErrorAlreadyExists.
func (s *UserService) Signup(ctx context.Context, email, name, password string) (*Session, error) {
	email = normalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: digest,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		s.logger.Error(ctx, "create user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.session(user)
}

// Login checks the password and issues a token. Unknown email and wrong
// password are indistinguishable: both return common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	return s.session(user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.CreateToken(user)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
