// Package memberships stores the (farm, user) -> role mapping behind farm
// access control.
package memberships

import (
	"context"

	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
)

type Repository interface {
	// Find returns the membership for exactly (farmID, userID) or
	// common.ErrorNotFound.
	Find(ctx context.Context, farmID, userID string) (*models.Membership, error)

	// Upsert creates the membership or replaces the role of the existing one.
	Upsert(ctx context.Context, m *models.Membership) error
}
