package tenantdb

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

func TestSubmitPerson(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO TABPRECAD_PESSOA (NOME,DATANASC,UFEMISSOR,CPF,UFEXPEDICAO,TELEFONE,LINK,DATAREG,DATAALT) VALUES (?,?,?,?,?,?,?,?,?)")).
		WithArgs("JOAO DA SILVA", "1990-12-31", "SC", "123.456.789-01", "SC", "47996077564", "/tmp/uploads/cnh.jpg", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SubmitPerson(context.Background(), testTenant(), models.RegistrationRecord{
		"nome":     "JOAO DA SILVA",
		"DATANASC": "31/12/1990",
		"uf":       "SC",
		"CPF":      "123.456.789-01",
		"TELEFONE": "47996077564",
		"IGNORED":  "x",
	}, "/tmp/uploads/cnh.jpg")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPersonKeepsNonStandardDates(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO TABPRECAD_PESSOA (NOME,CNH_DATAVCTO,DATAREG,DATAALT)")).
		WithArgs("ANA", "1/2/30", fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SubmitPerson(context.Background(), testTenant(), models.RegistrationRecord{
		"NOME":         "ANA",
		"CNH_DATAVCTO": "1/2/30",
	}, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPersonFallsBackToMinimalColumns(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO TABPRECAD_PESSOA \(NOME,RG,CPF,TELEFONE,LINK,DATAREG,DATAALT\)`).
		WillReturnError(errors.New("Column unknown DATAALT"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO TABPRECAD_PESSOA (NOME,CPF,TELEFONE,LINK) VALUES (?,?,?,?)")).
		WithArgs("MARIA", "98765432100", "47988887777", "/tmp/a.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SubmitPerson(context.Background(), testTenant(), models.RegistrationRecord{
		"NOME":     "MARIA",
		"RG":       "1234567",
		"CPF":      "98765432100",
		"TELEFONE": "47988887777",
	}, "/tmp/a.pdf")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitPersonReportsFallbackFailure(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO TABPRECAD_PESSOA`).WillReturnError(errors.New("table unknown"))
	mock.ExpectExec(`INSERT INTO TABPRECAD_PESSOA`).WillReturnError(errors.New("table unknown"))

	err := repo.SubmitPerson(context.Background(), testTenant(), models.RegistrationRecord{"NOME": "X"}, "")
	assert.Error(t, err)
}

func TestSubmitPersonWithoutData(t *testing.T) {
	repo, mock := newMockRepository(t)

	err := repo.SubmitPerson(context.Background(), testTenant(), models.RegistrationRecord{"FOO": "bar"}, "")
	assert.ErrorIs(t, err, ErrNoData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitVehicle(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO TABPRECAD_VEICULO (DATAREG,PLACA,RENAVAN,ANOMODELO,LOCALIDADE,DATA_LANC,LINK) VALUES (?,?,?,?,?,?,?)")).
		WithArgs(fixedNow, "ABC1D23", "00123456789", 2020, "JOINVILLE SC", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "/tmp/uploads/crlv.pdf").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SubmitVehicle(context.Background(), testTenant(), models.RegistrationRecord{
		"Placa":     "ABC1D23",
		"renavam":   "00123456789",
		"ANOMODELO": "2020/2021",
		"LOCAL":     "JOINVILLE SC",
		"DATA":      "5/3/24",
		"COR":       "  ",
		"EIXOS":     "dois",
		"UNKNOWN":   "x",
	}, "/tmp/uploads/crlv.pdf")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitVehicleTruncatesText(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO TABPRECAD_VEICULO (DATAREG,PLACA)")).
		WithArgs(fixedNow, "ABC1D23XYZ").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.SubmitVehicle(context.Background(), testTenant(), models.RegistrationRecord{"PLACA": "ABC1D23XYZ999"}, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitVehicleWithoutData(t *testing.T) {
	repo, _ := newMockRepository(t)

	err := repo.SubmitVehicle(context.Background(), testTenant(), models.RegistrationRecord{"EIXOS": "n/a"}, "")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseLooseDate(t *testing.T) {
	d, ok := parseLooseDate("emitido em 07-11-2023")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 11, 7, 0, 0, 0, 0, time.Local), d)

	_, ok = parseLooseDate("31/13/2023")
	assert.False(t, ok)
}
