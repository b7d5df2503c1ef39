package tenantdb

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// AppendConversation stores one exchange in CONVERSAS, cut to the column sizes
func (r *Repository) AppendConversation(ctx context.Context, t *models.Tenant, e models.ConversationEntry) error {
	var link interface{}
	if e.MediaLink != "" {
		link = utils.Truncate(e.MediaLink, 500)
	}

	query, args, err := toSQL(sq.Insert("CONVERSAS").
		Columns("CLIENTE_ID", "USER_NUMBER", "MENSAGEM", "RESPOSTA", "DATA_HORA", "LINK").
		Values(
			t.ID,
			utils.Truncate(utils.StripWhatsAppPrefix(e.Sender), 32),
			utils.Truncate(e.Inbound, 1000),
			utils.Truncate(e.Outbound, 2000),
			sq.Expr("CURRENT_TIMESTAMP"),
			link,
		))
	if err != nil {
		return err
	}

	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to log conversation: %w", err)
	}
	return nil
}
