package tenantdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

type menuRow struct {
	ID    int64          `db:"ID"`
	Title sql.NullString `db:"TITULO"`
}

type optionRow struct {
	ID      int64          `db:"ID"`
	Key     sql.NullString `db:"CHAVE"`
	Label   sql.NullString `db:"TEXTO"`
	NextKey sql.NullString `db:"PROXIMA_CHAVE"`
	Order   sql.NullInt64  `db:"ORDEM"`
}

// ActiveMenu returns the first active menu of a tenant, or ErrNotFound
func (r *Repository) ActiveMenu(ctx context.Context, t *models.Tenant) (*models.Menu, error) {
	query, args, err := toSQL(sq.Select("ID", "TITULO").
		Options("FIRST 1").
		From("MENUS").
		Where(sq.Eq{"CLIENTE_ID": t.ID, "ATIVO": 1}).
		OrderBy("ID"))
	if err != nil {
		return nil, err
	}

	var row menuRow
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load menu of tenant %d: %w", t.ID, err)
	}
	return &models.Menu{ID: row.ID, Title: trim(row.Title.String)}, nil
}

// OptionsAt lists the options under a node, ordered by ORDEM then ID
func (r *Repository) OptionsAt(ctx context.Context, t *models.Tenant, menuID int64, nodeKey string) ([]models.MenuOption, error) {
	query, args, err := toSQL(sq.Select("ID", "OPCAO AS CHAVE", "TEXTO", "PROXIMA_CHAVE", "ORDEM").
		From("MENU_OPCOES").
		Where(sq.Eq{"MENU_ID": menuID, "CHAVE_PAI": nodeKey}).
		OrderBy("ORDEM", "ID"))
	if err != nil {
		return nil, err
	}

	var rows []optionRow
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load options %d/%s: %w", menuID, nodeKey, err)
	}

	options := make([]models.MenuOption, 0, len(rows))
	for _, row := range rows {
		options = append(options, models.MenuOption{
			ID:      row.ID,
			Key:     trim(row.Key.String),
			Label:   trim(row.Label.String),
			NextKey: trim(row.NextKey.String),
			Order:   int(row.Order.Int64),
		})
	}
	return options, nil
}
