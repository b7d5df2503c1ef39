package tenantdb

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

func TestAppendConversation(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO CONVERSAS \(CLIENTE_ID,USER_NUMBER,MENSAGEM,RESPOSTA,DATA_HORA,LINK\) VALUES \(\?,\?,\?,\?,CURRENT_TIMESTAMP,\?\)`).
		WithArgs(7, "+5547996077564", "1", "📋 Menu", nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendConversation(context.Background(), testTenant(), models.ConversationEntry{
		TenantID: 7,
		Sender:   driverPhone,
		Inbound:  "1",
		Outbound: "📋 Menu",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendConversationTruncates(t *testing.T) {
	repo, mock := newMockRepository(t)

	long := strings.Repeat("á", 1200)
	mock.ExpectExec(`INSERT INTO CONVERSAS`).
		WithArgs(7, "+5547996077564", strings.Repeat("á", 1000), "ok", "/tmp/uploads/tw-1a2b3c4d.jpg").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendConversation(context.Background(), testTenant(), models.ConversationEntry{
		Sender:    driverPhone,
		Inbound:   long,
		Outbound:  "ok",
		MediaLink: "/tmp/uploads/tw-1a2b3c4d.jpg",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
