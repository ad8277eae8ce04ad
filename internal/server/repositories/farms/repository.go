// Package farms stores the farm (tenant) rows themselves. Farm CRUD beyond
// creation belongs to the domain handlers.
package farms

import (
	"context"

	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, farm *models.Farm) (*models.Farm, error)
	GetByID(ctx context.Context, id string) (*models.Farm, error)
}
