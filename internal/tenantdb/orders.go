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

// ByReference loads a delivery and checks the caller is its driver.
// It returns ErrNotFound or ErrNotAuthorized.
func (r *Repository) ByReference(ctx context.Context, t *models.Tenant, ref int64, identity string) (*models.Delivery, error) {
	query, args, err := toSQL(sq.Select(
		"m.NOMOVTRA AS NUMERO",
		"m.DATA AS M_DATA",
		"m.DATA_HORA AS M_DATA_HORA",
		"c.NOMCLI AS CLIENTE_NOME",
		"c.CGCCLI AS CLIENTE_CNPJ",
		"mot.NOMCLI AS MOTORISTA_NOME",
		"mot.CGCCLI AS MOTORISTA_DOC",
		"m.PLACACAR AS PLACA",
		"(SELECT SUM(nf.VLRTOTAL) FROM TABMOVTRA_NF nf WHERE nf.NOMOVTRA = m.NOMOVTRA) AS VALOR_TOTAL",
	).
		Options("FIRST 1").
		From("TABMOVTRA m").
		LeftJoin("TABCLI c ON c.NOCLI = m.NOCLI").
		LeftJoin("TABCLI mot ON mot.NOCLI = m.NOMOT").
		Where(sq.Eq{"m.NOMOVTRA": ref}))
	if err != nil {
		return nil, err
	}

	var d models.Delivery
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &d, query, args...)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load delivery %d: %w", ref, err)
	}

	if !DriverMatches(identity, d.DriverDocument.String) {
		return nil, ErrNotAuthorized
	}
	return &d, nil
}

// DriverMatches reports whether the caller's CPF/CNPJ owns the stored driver
// document. A CPF also matches a CNPJ ending in it.
func DriverMatches(caller, stored string) bool {
	prov := utils.OnlyDigits(caller)
	doc := utils.OnlyDigits(stored)
	switch {
	case len(prov) == 11 && len(doc) == 11:
		return prov == doc
	case len(prov) == 14 && len(doc) == 14:
		return prov == doc
	case len(prov) == 11 && len(doc) == 14:
		return doc[len(doc)-11:] == prov
	}
	return false
}

// DriverDocument returns the CPF/CNPJ of the driver linked to a delivery,
// or ErrNotFound when the delivery or its driver is missing
func (r *Repository) DriverDocument(ctx context.Context, t *models.Tenant, ref int64) (string, error) {
	query, args, err := toSQL(sq.Select("mot.CGCCLI AS CPF").
		Options("FIRST 1").
		From("TABMOVTRA m").
		Join("TABCLI mot ON mot.NOCLI = m.NOMOT").
		Where(sq.Eq{"m.NOMOVTRA": ref}))
	if err != nil {
		return "", err
	}

	var doc sql.NullString
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.QueryRowxContext(ctx, query, args...).Scan(&doc)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load driver of delivery %d: %w", ref, err)
	}
	if trim(doc.String) == "" {
		return "", ErrNotFound
	}
	return trim(doc.String), nil
}

// ByAccessKey resolves the delivery linked to a CT-e key
func (r *Repository) ByAccessKey(ctx context.Context, t *models.Tenant, key string) (int64, error) {
	query, args, err := toSQL(sq.Select("NOMOVTRA").
		Options("FIRST 1").
		From("TABCTRC").
		Where(sq.Eq{"CHAVECTE": key}))
	if err != nil {
		return 0, err
	}

	var ref sql.NullInt64
	err = r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		return conn.QueryRowxContext(ctx, query, args...).Scan(&ref)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to resolve CT-e key: %w", err)
	}
	if !ref.Valid || ref.Int64 == 0 {
		return 0, ErrNotFound
	}
	return ref.Int64, nil
}
