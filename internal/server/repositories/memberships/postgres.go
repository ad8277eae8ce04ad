package memberships

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

func (r *PostgresRepository) Find(ctx context.Context, farmID, userID string) (*models.Membership, error) {
	query := `
		SELECT farm_id, user_id, role, created_at, updated_at
		FROM farm_members
		WHERE farm_id = $1 AND user_id = $2
	`
	m := &models.Membership{}
	err := r.db.QueryRowContext(ctx, query, farmID, userID).
		Scan(&m.FarmID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO farm_members (farm_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (farm_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, m.FarmID, m.UserID, string(m.Role)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
