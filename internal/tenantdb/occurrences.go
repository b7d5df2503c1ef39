package tenantdb

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// InsertOccurrence appends a note to a delivery's occurrence log under the next
// free NOITEM
func (r *Repository) InsertOccurrence(ctx context.Context, t *models.Tenant, ref int64, note, user string) (models.Occurrence, error) {
	nextQuery, nextArgs, err := toSQL(sq.Select("COALESCE(MAX(NOITEM), 0) + 1").
		From("TABMOVTRA_OCO").
		Where(sq.Eq{"NOMOVTRA": ref}))
	if err != nil {
		return models.Occurrence{}, err
	}

	occ := models.Occurrence{Nomovtra: ref}
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var item int64
		if err := tx.QueryRowxContext(ctx, nextQuery, nextArgs...).Scan(&item); err != nil {
			return err
		}
		if item <= 0 {
			item = 1
		}

		insertQuery, insertArgs, err := toSQL(sq.Insert("TABMOVTRA_OCO").
			Columns("NOMOVTRA", "NOITEM", "DATA", "HORA", "OBS", "USUARIO").
			Values(ref, item,
				sq.Expr("CAST('NOW' AS DATE)"),
				sq.Expr("SUBSTRING(CAST('NOW' AS CHAR(24)) FROM 12 FOR 5)"),
				note, user).
			Suffix("RETURNING NOMOVTRA, NOITEM"))
		if err != nil {
			return err
		}

		if err := tx.QueryRowxContext(ctx, insertQuery, insertArgs...).StructScan(&occ); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return models.Occurrence{}, fmt.Errorf("failed to insert occurrence for %d: %w", ref, err)
	}
	return occ, nil
}
