package tenantdb

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenant"
)

var fixedNow = time.Date(2024, 5, 10, 14, 30, 0, 0, time.UTC)

type staticPools struct {
	pool *tenant.Pool
}

func (s staticPools) PoolFor(*models.Tenant) (*tenant.Pool, error) {
	return s.pool, nil
}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pool := tenant.NewPool(tenant.Descriptor{TenantID: 1}, "", func(tenant.Descriptor, string) (*sqlx.DB, error) {
		return sqlx.NewDb(db, "sqlmock"), nil
	})
	repo := NewRepository(staticPools{pool: pool}, 5*time.Second)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock
}

func testTenant() *models.Tenant {
	return &models.Tenant{ID: 7, Name: "Transportes Serra"}
}
