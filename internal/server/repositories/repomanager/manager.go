package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/farmkeeper/internal/dbx"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/farms"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/memberships"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either a *sql.DB or a *sql.Tx,
// so the same code path works inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Farms(db dbx.DBTX) farms.Repository
	Memberships(db dbx.DBTX) memberships.Repository
}
