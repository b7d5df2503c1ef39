package tenantdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

var activeDriver = sq.And{
	sq.Expr("(T.MOT = 'T' OR T.PROP = 'T')"),
	sq.Expr("COALESCE(T.INATIVO, 'F') <> 'T'"),
	sq.Expr("COALESCE(T.BLOQUEARMOT, 'F') <> 'T'"),
}

// StatusByPhone classifies a sender against the driver roster (TABCLI) and the
// pre-registration table. A pending CPF already present in the roster counts as
// registered.
func (r *Repository) StatusByPhone(ctx context.Context, t *models.Tenant, from string) (models.RegistrationStatus, error) {
	phone, ok := utils.ParseBrazilianPhone(from)
	if !ok {
		return models.RegistrationStatus{Kind: models.Unregistered}, nil
	}

	status := models.RegistrationStatus{Kind: models.Unregistered}
	err := r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		doc, found, err := rosterByPhone(ctx, conn, phone)
		if err != nil {
			return err
		}
		if found {
			status = models.RegistrationStatus{Kind: models.Registered, Identity: doc}
			return nil
		}

		cpf, found, err := pendingByPhone(ctx, conn, phone)
		if err != nil || !found {
			return err
		}

		if cpf != "" {
			_, found, err = rosterByDocument(ctx, conn, cpf)
			if err != nil {
				return err
			}
		}
		if cpf != "" && found {
			status = models.RegistrationStatus{Kind: models.Registered, Identity: cpf}
			return nil
		}
		status = models.RegistrationStatus{Kind: models.Pending, Identity: cpf}
		return nil
	})
	if err != nil {
		return models.RegistrationStatus{}, fmt.Errorf("failed to check phone status: %w", err)
	}
	return status, nil
}

func rosterByPhone(ctx context.Context, conn *sqlx.Conn, p utils.PhoneLookup) (string, bool, error) {
	tel := stripPunctuation("C.TELEFONE")
	return firstDocument(ctx, conn, sq.Select("T.CGCCLI").
		Options("FIRST 1").
		From("TABCLI_CONT C").
		Join("TABCLI T ON T.NOCLI = C.NOCLI").
		Where(activeDriver).
		Where(sq.Eq{"C.DDD": []string{p.DDD2, p.DDD3}}).
		Where("(C.TIPOTEL IS NULL OR UPPER(C.TIPOTEL) STARTING WITH 'CEL')").
		Where(sq.Or{
			sq.Expr(tel+" = ?", p.Last8),
			sq.Expr(tel+" = ?", p.With9),
			sq.Expr(tel+" LIKE ?", "%"+p.Last8),
			sq.Expr(tel+" LIKE ?", "%"+p.With9),
		}))
}

func pendingByPhone(ctx context.Context, conn *sqlx.Conn, p utils.PhoneLookup) (string, bool, error) {
	tel := stripPunctuation("TELEFONE")
	return firstDocument(ctx, conn, sq.Select("CPF").
		Options("FIRST 1").
		From("TABPRECAD_PESSOA").
		Where(sq.Or{
			sq.Expr(tel+" LIKE ?", "%"+p.Last8),
			sq.Expr(tel+" LIKE ?", "%"+p.With9),
		}))
}

func rosterByDocument(ctx context.Context, conn *sqlx.Conn, doc string) (string, bool, error) {
	return firstDocument(ctx, conn, sq.Select("T.CGCCLI").
		Options("FIRST 1").
		From("TABCLI T").
		Where(activeDriver).
		Where(sq.Expr(stripPunctuation("T.CGCCLI")+" = ?", doc)))
}

// firstDocument runs a single-column lookup and returns the digits of the
// document found
func firstDocument(ctx context.Context, conn *sqlx.Conn, b sq.SelectBuilder) (string, bool, error) {
	query, args, err := toSQL(b)
	if err != nil {
		return "", false, err
	}

	var doc sql.NullString
	if err := conn.QueryRowxContext(ctx, query, args...).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return utils.OnlyDigits(doc.String), true, nil
}
