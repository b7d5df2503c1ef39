package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDatabaseStore(t *testing.T) (*DatabaseStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewDatabaseStore(db), mock
}

func TestDatabaseStoreGetTenantByNumber(t *testing.T) {
	store, mock := newMockDatabaseStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "whatsapp_number", "ativo", "db_host", "db_port", "db_path", "db_user", "db_password", "db_version"}).
		AddRow(3, "Transportes A", "whatsapp:+5547999990000", true, "10.0.0.5", 3050, "/data/A.FDB", "", "", "2.5")
	mock.ExpectQuery(`SELECT \* FROM "clientes" WHERE ativo = .* AND LOWER\(whatsapp_number\) IN`).
		WillReturnRows(rows)

	tenant, err := store.GetTenantByNumber(context.Background(), "WHATSAPP:+5547999990000")
	require.NoError(t, err)
	assert.Equal(t, int64(3), tenant.ID)
	assert.Equal(t, "10.0.0.5", tenant.DBHost)
	require.NotNil(t, tenant.DBPort)
	assert.Equal(t, 3050, *tenant.DBPort)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabaseStoreGetTenantByNumberNotFound(t *testing.T) {
	store, mock := newMockDatabaseStore(t)

	mock.ExpectQuery(`SELECT \* FROM "clientes"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetTenantByNumber(context.Background(), "+5500000000000")
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
