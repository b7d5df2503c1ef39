package tenantdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

func TestActiveMenu(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT FIRST 1 ID, TITULO FROM MENUS WHERE ATIVO = \? AND CLIENTE_ID = \? ORDER BY ID`).
		WithArgs(1, 7).
		WillReturnRows(sqlmock.NewRows([]string{"ID", "TITULO"}).AddRow(3, "Atendimento Serra   "))

	menu, err := repo.ActiveMenu(context.Background(), testTenant())
	require.NoError(t, err)
	assert.Equal(t, &models.Menu{ID: 3, Title: "Atendimento Serra"}, menu)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveMenuNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM MENUS`).WillReturnRows(sqlmock.NewRows([]string{"ID", "TITULO"}))

	_, err := repo.ActiveMenu(context.Background(), testTenant())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOptionsAt(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"ID", "CHAVE", "TEXTO", "PROXIMA_CHAVE", "ORDEM"}).
		AddRow(10, "1", "Detalhes da entrega", "AWAIT_ENTREGA", 1).
		AddRow(11, "2 ", "Financeiro", "financeiro", 2).
		AddRow(12, "9", "Sem destino", nil, nil)
	mock.ExpectQuery(`SELECT ID, OPCAO AS CHAVE, TEXTO, PROXIMA_CHAVE, ORDEM FROM MENU_OPCOES WHERE CHAVE_PAI = \? AND MENU_ID = \? ORDER BY ORDEM, ID`).
		WithArgs("root", 3).
		WillReturnRows(rows)

	opts, err := repo.OptionsAt(context.Background(), testTenant(), 3, "root")
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.Equal(t, models.MenuOption{ID: 11, Key: "2", Label: "Financeiro", NextKey: "financeiro", Order: 2}, opts[1])
	assert.Equal(t, "", opts[2].NextKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}
