package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/dbx"
	"github.com/dmitrijs2005/farmkeeper/internal/logging"
	"github.com/dmitrijs2005/farmkeeper/internal/server/access"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/repomanager"
)

// grantingRoles may add or change members of a farm.
var grantingRoles = []models.Role{models.RoleOwner, models.RoleManager, models.RoleAdmin}

// FarmService owns the farm lifecycle pieces that touch access control.
type FarmService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *access.Service
	logger      logging.Logger
}

func NewFarmService(db *sql.DB, m repomanager.RepositoryManager, a *access.Service, l logging.Logger) *FarmService {
	return &FarmService{db: db, repomanager: m, access: a, logger: l.With("module", "farms")}
}

// CreateFarm inserts the farm and the owner's membership in one transaction,
// so a farm never exists without an owner.
func (s *FarmService) CreateFarm(ctx context.Context, ownerID, name string) (*models.Farm, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: farm name is required", common.ErrorValidation)
	}

	var farm *models.Farm
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		farm, err = s.repomanager.Farms(tx).Create(ctx, &models.Farm{Name: name, OwnerID: ownerID})
		if err != nil {
			return fmt.Errorf("error creating farm: %w", err)
		}
		if err := access.Grant(ctx, s.repomanager.Memberships(tx), farm.ID, ownerID, models.RoleOwner); err != nil {
			return fmt.Errorf("error granting owner: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "create farm failed", "owner_id", ownerID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "farm created", "farm_id", farm.ID, "owner_id", ownerID)
	return farm, nil
}

// Grant lets actorID give userID a role on farmID. The actor must be an
// owner, manager or admin of that farm, and only an owner may hand out the
// owner role.
func (s *FarmService) Grant(ctx context.Context, actorID, farmID, userID string, role models.Role) error {
	if err := s.access.RequireRole(ctx, actorID, farmID, grantingRoles...); err != nil {
		return err
	}
	if role == models.RoleOwner {
		if err := s.access.RequireRole(ctx, actorID, farmID, models.RoleOwner); err != nil {
			return err
		}
	}

	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "user lookup failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	if err := s.access.GrantFarmAccess(ctx, farmID, userID, role); err != nil {
		s.logger.Error(ctx, "grant failed", "farm_id", farmID, "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "farm access granted", "farm_id", farmID, "user_id", userID, "role", role, "by", actorID)
	return nil
}
