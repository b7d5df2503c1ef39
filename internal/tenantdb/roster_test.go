package tenantdb

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

const driverPhone = "whatsapp:+5547996077564"

func TestStatusByPhoneRegistered(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT FIRST 1 T.CGCCLI FROM TABCLI_CONT C JOIN TABCLI T ON T.NOCLI = C.NOCLI WHERE .* C.DDD IN \(\?,\?\)`).
		WithArgs("47", "047", "96077564", "996077564", "%96077564", "%996077564").
		WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}).AddRow("123.456.789-01"))

	st, err := repo.StatusByPhone(context.Background(), testTenant(), driverPhone)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatus{Kind: models.Registered, Identity: "12345678901"}, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusByPhonePending(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABCLI_CONT C`).WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}))
	mock.ExpectQuery(`SELECT FIRST 1 CPF FROM TABPRECAD_PESSOA`).
		WithArgs("%96077564", "%996077564").
		WillReturnRows(sqlmock.NewRows([]string{"CPF"}).AddRow("98765432100"))
	mock.ExpectQuery(`SELECT FIRST 1 T.CGCCLI FROM TABCLI T WHERE`).
		WithArgs("98765432100").
		WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}))

	st, err := repo.StatusByPhone(context.Background(), testTenant(), driverPhone)
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatus{Kind: models.Pending, Identity: "98765432100"}, st)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusByPhonePendingAlreadyInRoster(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABCLI_CONT C`).WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}))
	mock.ExpectQuery(`FROM TABPRECAD_PESSOA`).
		WillReturnRows(sqlmock.NewRows([]string{"CPF"}).AddRow("987.654.321-00"))
	mock.ExpectQuery(`FROM TABCLI T WHERE`).
		WithArgs("98765432100").
		WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}).AddRow("98765432100"))

	st, err := repo.StatusByPhone(context.Background(), testTenant(), driverPhone)
	require.NoError(t, err)
	assert.Equal(t, models.Registered, st.Kind)
	assert.Equal(t, "98765432100", st.Identity)
}

func TestStatusByPhoneUnregistered(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABCLI_CONT C`).WillReturnRows(sqlmock.NewRows([]string{"CGCCLI"}))
	mock.ExpectQuery(`FROM TABPRECAD_PESSOA`).WillReturnRows(sqlmock.NewRows([]string{"CPF"}))

	st, err := repo.StatusByPhone(context.Background(), testTenant(), driverPhone)
	require.NoError(t, err)
	assert.Equal(t, models.Unregistered, st.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusByPhoneForeignNumberSkipsLookup(t *testing.T) {
	repo, mock := newMockRepository(t)

	st, err := repo.StatusByPhone(context.Background(), testTenant(), "whatsapp:+14155238886")
	require.NoError(t, err)
	assert.Equal(t, models.Unregistered, st.Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusByPhoneError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM TABCLI_CONT C`).WillReturnError(errors.New("connection lost"))

	_, err := repo.StatusByPhone(context.Background(), testTenant(), driverPhone)
	assert.Error(t, err)
}
