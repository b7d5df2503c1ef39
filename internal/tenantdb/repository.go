// Package tenantdb runs the queries the bot needs against a tenant's Firebird database.
package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenant"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotAuthorized = errors.New("not authorized")
	ErrNoData        = errors.New("no valid data to insert")
)

// Pools hands out the pool of a tenant
type Pools interface {
	PoolFor(t *models.Tenant) (*tenant.Pool, error)
}

// Repository is the gateway to tenant databases
type Repository struct {
	pools   Pools
	timeout time.Duration
	now     func() time.Time
}

// NewRepository creates a repository; every statement is bounded by timeout
func NewRepository(pools Pools, timeout time.Duration) *Repository {
	return &Repository{
		pools:   pools,
		timeout: timeout,
		now:     time.Now,
	}
}

// withConn acquires a connection of the tenant, runs fn and releases it
func (r *Repository) withConn(ctx context.Context, t *models.Tenant, fn func(ctx context.Context, conn *sqlx.Conn) error) error {
	pool, err := r.pools.PoolFor(t)
	if err != nil {
		return err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Warn().Err(err).Int64("tenant_id", t.ID).Msg("⚠️ Failed to release tenant connection")
		}
	}()

	return fn(ctx, conn)
}

func toSQL(b sq.Sqlizer) (string, []interface{}, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("failed to build query: %w", err)
	}
	return query, args, nil
}

// stripPunctuation wraps col in the REPLACE chain that drops "-", " ", "(", ")" and "."
func stripPunctuation(col string) string {
	expr := col
	for _, ch := range []string{"-", " ", "(", ")", "."} {
		expr = fmt.Sprintf("REPLACE(%s,'%s','')", expr, ch)
	}
	return expr
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
