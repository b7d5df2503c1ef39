package tenantdb

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deliveryColumns = []string{"NUMERO", "M_DATA", "M_DATA_HORA", "CLIENTE_NOME", "CLIENTE_CNPJ", "MOTORISTA_NOME", "MOTORISTA_DOC", "PLACA", "VALOR_TOTAL"}

func TestByReference(t *testing.T) {
	repo, mock := newMockRepository(t)

	planned := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT FIRST 1 m.NOMOVTRA AS NUMERO, .* FROM TABMOVTRA m LEFT JOIN TABCLI c ON c.NOCLI = m.NOCLI LEFT JOIN TABCLI mot ON mot.NOCLI = m.NOMOT WHERE m.NOMOVTRA = \?`).
		WithArgs(12345).
		WillReturnRows(sqlmock.NewRows(deliveryColumns).
			AddRow(12345, planned, nil, "Mercado Central", "11222333000181", "JOAO DA SILVA", "123.456.789-01", "ABC1D23", 1530.5))

	d, err := repo.ByReference(context.Background(), testTenant(), 12345, "12345678901")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), d.Number)
	assert.Equal(t, "JOAO DA SILVA", d.DriverName.String)
	assert.InDelta(t, 1530.5, d.TotalValue.Float64, 0.001)
	got, ok := d.DeliveryDate()
	require.True(t, ok)
	assert.Equal(t, planned, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestByReferenceNotAuthorized(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABMOVTRA m`).
		WillReturnRows(sqlmock.NewRows(deliveryColumns).
			AddRow(12345, nil, nil, nil, nil, "OUTRO", "99999999999", nil, nil))

	_, err := repo.ByReference(context.Background(), testTenant(), 12345, "12345678901")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestByReferenceNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABMOVTRA m`).WillReturnRows(sqlmock.NewRows(deliveryColumns))

	_, err := repo.ByReference(context.Background(), testTenant(), 1, "12345678901")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDriverMatches(t *testing.T) {
	assert.True(t, DriverMatches("12345678901", "123.456.789-01"))
	assert.True(t, DriverMatches("11222333000181", "11.222.333/0001-81"))
	assert.True(t, DriverMatches("12345678901", "000.123.456.789-01"))
	assert.False(t, DriverMatches("", "12345678901"))
	assert.False(t, DriverMatches("12345678901", "12345678902"))
	assert.False(t, DriverMatches("11222333000181", "12345678901"))
}

func TestDriverDocument(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT FIRST 1 mot.CGCCLI AS CPF FROM TABMOVTRA m JOIN TABCLI mot ON mot.NOCLI = m.NOMOT WHERE m.NOMOVTRA = \?`).
		WithArgs(77).
		WillReturnRows(sqlmock.NewRows([]string{"CPF"}).AddRow("12345678901 "))
	mock.ExpectQuery(`FROM TABMOVTRA m`).
		WithArgs(78).
		WillReturnRows(sqlmock.NewRows([]string{"CPF"}))

	doc, err := repo.DriverDocument(context.Background(), testTenant(), 77)
	require.NoError(t, err)
	assert.Equal(t, "12345678901", doc)

	_, err = repo.DriverDocument(context.Background(), testTenant(), 78)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestByAccessKey(t *testing.T) {
	repo, mock := newMockRepository(t)
	key := "42240112345678000195570010000012341123456787"

	mock.ExpectQuery(`SELECT FIRST 1 NOMOVTRA FROM TABCTRC WHERE CHAVECTE = \?`).
		WithArgs(key).
		WillReturnRows(sqlmock.NewRows([]string{"NOMOVTRA"}).AddRow(555))
	mock.ExpectQuery(`FROM TABCTRC`).
		WillReturnRows(sqlmock.NewRows([]string{"NOMOVTRA"}))

	ref, err := repo.ByAccessKey(context.Background(), testTenant(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(555), ref)

	_, err = repo.ByAccessKey(context.Background(), testTenant(), key)
	assert.ErrorIs(t, err, ErrNotFound)
}
