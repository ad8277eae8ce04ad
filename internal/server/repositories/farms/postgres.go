package farms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/dbx"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, farm *models.Farm) (*models.Farm, error) {
	query := `
		INSERT INTO farms (name, owner_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowContext(ctx, query, farm.Name, farm.OwnerID).Scan(&farm.ID, &farm.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return farm, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Farm, error) {
	query := `
		SELECT id, name, owner_id, created_at
		FROM farms
		WHERE id = $1
	`
	farm := &models.Farm{}
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&farm.ID, &farm.Name, &farm.OwnerID, &farm.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return farm, nil
}
