package tenant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/storage"
)

// Resolver maps bot numbers to tenants and memoizes their connection settings
type Resolver struct {
	store   storage.Store
	charset string
	open    Opener

	mu          sync.RWMutex
	descriptors map[int64]Descriptor
	pools       map[int64]*Pool
}

// NewResolver creates a resolver over the tenant directory
func NewResolver(store storage.Store, charset string) *Resolver {
	return &Resolver{
		store:       store,
		charset:     charset,
		open:        OpenFirebird,
		descriptors: make(map[int64]Descriptor),
		pools:       make(map[int64]*Pool),
	}
}

// WithOpener swaps how tenant databases are opened
func (r *Resolver) WithOpener(open Opener) *Resolver {
	r.open = open
	return r
}

// ResolveByReceivingNumber finds the active tenant owning a bot number.
// It returns storage.ErrTenantNotFound when none does.
func (r *Resolver) ResolveByReceivingNumber(ctx context.Context, number string) (*models.Tenant, error) {
	t, err := r.store.GetTenantByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, storage.ErrTenantNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve tenant for %s: %w", number, err)
	}
	return t, nil
}

// Tenant fetches a tenant by id
func (r *Resolver) Tenant(ctx context.Context, id int64) (*models.Tenant, error) {
	return r.store.GetTenant(ctx, id)
}

// ConnectionFor derives the descriptor of a tenant once per process.
// Configuration errors are returned every time and never cached.
func (r *Resolver) ConnectionFor(t *models.Tenant) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.descriptors[t.ID]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}

	d, err := Derive(t)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Msg("❌ Tenant connection misconfigured")
		return Descriptor{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.descriptors[t.ID]; ok {
		return existing, nil
	}
	r.descriptors[t.ID] = d
	log.Info().Str("descriptor", d.String()).Str("charset", r.charset).Msg("🔌 Tenant connection derived")
	return d, nil
}

// PoolFor returns the shared pool of a tenant
func (r *Resolver) PoolFor(t *models.Tenant) (*Pool, error) {
	r.mu.RLock()
	p, ok := r.pools[t.ID]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	d, err := r.ConnectionFor(t)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pools[t.ID]; ok {
		return p, nil
	}
	p = NewPool(d, r.charset, r.open)
	r.pools[t.ID] = p
	return p, nil
}

// Pools lists the pools created so far, ordered by tenant
func (r *Resolver) Pools() []*Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID() < out[j].TenantID() })
	return out
}

// CachedTenants is the number of tenants with a derived descriptor
func (r *Resolver) CachedTenants() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.descriptors)
}

// Close shuts every pool down
func (r *Resolver) Close() {
	for _, p := range r.Pools() {
		if err := p.Close(); err != nil {
			log.Warn().Err(err).Int64("tenant_id", p.TenantID()).Msg("⚠️ Failed to close tenant pool")
		}
	}
}
