package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/farmkeeper/internal/common"
	"github.com/dmitrijs2005/farmkeeper/internal/dbx"
	"github.com/dmitrijs2005/farmkeeper/internal/server/models"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/farms"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/memberships"
	"github.com/dmitrijs2005/farmkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	byID      map[string]*models.User
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, taken := f.byEmail[u.Email]; taken {
		return nil, common.ErrorAlreadyExists
	}
	u.ID = "u-" + u.Email
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeFarmsRepo struct {
	createErr error
	created   []*models.Farm
}

func (f *fakeFarmsRepo) Create(_ context.Context, farm *models.Farm) (*models.Farm, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	farm.ID = "f-" + farm.Name
	f.created = append(f.created, farm)
	return farm, nil
}

func (f *fakeFarmsRepo) GetByID(_ context.Context, id string) (*models.Farm, error) {
	for _, farm := range f.created {
		if farm.ID == id {
			return farm, nil
		}
	}
	return nil, common.ErrorNotFound
}

type memberKey struct{ farm, user string }

type fakeMembersRepo struct {
	rows      map[memberKey]models.Role
	upsertErr error
}

func newFakeMembersRepo() *fakeMembersRepo {
	return &fakeMembersRepo{rows: map[memberKey]models.Role{}}
}

func (f *fakeMembersRepo) Find(_ context.Context, farmID, userID string) (*models.Membership, error) {
	role, ok := f.rows[memberKey{farmID, userID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Membership{FarmID: farmID, UserID: userID, Role: role}, nil
}

func (f *fakeMembersRepo) Upsert(_ context.Context, m *models.Membership) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[memberKey{m.FarmID, m.UserID}] = m.Role
	return nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	f *fakeFarmsRepo
	m *fakeMembersRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo(), f: &fakeFarmsRepo{}, m: newFakeMembersRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository              { return m.u }
func (m *fakeRepoManager) Farms(dbx.DBTX) farms.Repository              { return m.f }
func (m *fakeRepoManager) Memberships(dbx.DBTX) memberships.Repository  { return m.m }
