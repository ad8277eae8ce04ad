// Package access answers whether a user may act on a farm, and with which role.
package access

import (
	"context"
	"errors"
	"slices"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/memberships"
)

// Service wraps the membership repository. Every read fails closed: a lookup
// error is logged and treated as "no access".
type Service struct {
	members memberships.Repository
	logger  logging.Logger
}

func NewService(members memberships.Repository, logger logging.Logger) *Service {
	return &Service{members: members, logger: logger.With("module", "access")}
}

// HasFarmAccess is true iff a membership exists for exactly (userID, farmID).
func (s *Service) HasFarmAccess(ctx context.Context, userID, farmID string) bool {
	_, ok := s.GetUserFarmRole(ctx, userID, farmID)
	return ok
}

// GetUserFarmRole returns the role userID holds on farmID.
func (s *Service) GetUserFarmRole(ctx context.Context, userID, farmID string) (models.Role, bool) {
	if userID == "" || farmID == "" {
		return "", false
	}

	m, err := s.members.Find(ctx, farmID, userID)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "membership lookup failed", "farm_id", farmID, "user_id", userID, "error", err)
		}
		return "", false
	}
	return m.Role, true
}

// GrantFarmAccess gives userID the role on farmID, replacing any previous
// role. An empty role means models.DefaultRole.
func (s *Service) GrantFarmAccess(ctx context.Context, farmID, userID string, role models.Role) error {
	return Grant(ctx, s.members, farmID, userID, role)
}

// RequireRole returns nil when userID holds one of roles on farmID, or any
// membership at all when roles is empty. Otherwise it returns
// common.ErrAccessDenied.
func (s *Service) RequireRole(ctx context.Context, userID, farmID string, roles ...models.Role) error {
	role, ok := s.GetUserFarmRole(ctx, userID, farmID)
	if !ok {
		return common.ErrAccessDenied
	}
	if len(roles) > 0 && !slices.Contains(roles, role) {
		return common.ErrAccessDenied
	}
	return nil
}

// Grant upserts a membership through repo. It is exported so transactional
// callers can grant with a repository bound to their *sql.Tx.
func Grant(ctx context.Context, repo memberships.Repository, farmID, userID string, role models.Role) error {
	if farmID == "" || userID == "" {
		return common.ErrorValidation
	}
	if role == "" {
		role = models.DefaultRole
	}
	return repo.Upsert(ctx, &models.Membership{FarmID: farmID, UserID: userID, Role: role})
}
