package tenant

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/nakagami/firebirdsql"
	"github.com/rs/zerolog/log"
)

// DriverName is the database/sql driver used for tenant databases
const DriverName = "firebirdsql"

// Opener opens a database handle for a descriptor
type Opener func(d Descriptor, charset string) (*sqlx.DB, error)

// OpenFirebird is the production Opener
func OpenFirebird(d Descriptor, charset string) (*sqlx.DB, error) {
	return sqlx.Open(DriverName, d.DSN(charset))
}

// Pool is the connection pool of one tenant database
type Pool struct {
	desc    Descriptor
	charset string
	open    Opener

	mu     sync.Mutex
	db     *sqlx.DB
	active Descriptor
}

// NewPool creates a lazily opened pool; a nil opener means OpenFirebird
func NewPool(d Descriptor, charset string, open Opener) *Pool {
	if open == nil {
		open = OpenFirebird
	}
	return &Pool{desc: d, charset: charset, open: open}
}

// TenantID returns the owning tenant
func (p *Pool) TenantID() int64 {
	return p.desc.TenantID
}

// Descriptor returns the descriptor the pool is currently connected with
func (p *Pool) Descriptor() Descriptor {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		return p.active
	}
	return p.desc
}

// Acquire hands out a dedicated connection; release it with Close
func (p *Pool) Acquire(ctx context.Context) (*sqlx.Conn, error) {
	db, err := p.handle(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for tenant %d: %w", p.desc.TenantID, err)
	}
	return conn, nil
}

// Ping checks the tenant database is reachable
func (p *Pool) Ping(ctx context.Context) error {
	db, err := p.handle(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close releases every pooled connection
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// handle opens the pool on first use. An authentication failure is retried
// once with SYSDBA/masterkey.
func (p *Pool) handle(ctx context.Context) (*sqlx.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.connect(ctx, p.desc)
	if err == nil {
		p.db, p.active = db, p.desc
		return db, nil
	}
	if !isAuthError(err) || p.desc.UsesDefaultCredentials() {
		return nil, err
	}

	fallback := p.desc.WithCredentials(DefaultUser, DefaultPassword)
	log.Warn().
		Int64("tenant_id", p.desc.TenantID).
		Str("host", p.desc.Host).
		Str("database", p.desc.Database).
		Msg("⚠️ Tenant attach retry with SYSDBA/masterkey")

	db, err = p.connect(ctx, fallback)
	if err != nil {
		return nil, err
	}
	p.db, p.active = db, fallback
	return db, nil
}

func (p *Pool) connect(ctx context.Context, d Descriptor) (*sqlx.DB, error) {
	db, err := p.open(d, p.charset)
	if err != nil {
		return nil, fmt.Errorf("failed to open tenant %d database: %w", d.TenantID, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to attach tenant %d database: %w", d.TenantID, err)
	}

	log.Info().
		Int64("tenant_id", d.TenantID).
		Str("host", d.Host).
		Int("port", d.Port).
		Str("database", d.Database).
		Str("user", d.User).
		Str("version", d.Version).
		Msg("✅ Tenant database attached")
	return db, nil
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "335544472") ||
		strings.Contains(msg, "user name and password are not defined")
}
