package storage

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// MemoryStore holds the tenant directory in memory, for tests and local runs
type MemoryStore struct {
	tenants map[int64]*models.Tenant
	mu      sync.RWMutex
	counter int64
}

// NewMemoryStore creates a new in-memory directory
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[int64]*models.Tenant),
	}
}

type tenantsFile struct {
	Tenants []*models.Tenant `yaml:"tenants"`
}

// LoadTenantsFile seeds the store from a YAML file with a top-level "tenants" list
func (m *MemoryStore) LoadTenantsFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var f tenantsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("failed to parse tenants file %s: %w", path, err)
	}

	for _, t := range f.Tenants {
		if err := m.SaveTenant(context.Background(), t); err != nil {
			return 0, err
		}
	}
	return len(f.Tenants), nil
}

func (m *MemoryStore) GetTenantByNumber(_ context.Context, number string) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var match *models.Tenant
	for _, t := range m.tenants {
		if !t.Active || !sameNumber(t.WhatsAppNumber, number) {
			continue
		}
		if match == nil || t.ID < match.ID {
			match = t
		}
	}
	if match == nil {
		return nil, ErrTenantNotFound
	}
	c := *match
	return &c, nil
}

func (m *MemoryStore) GetTenant(_ context.Context, id int64) (*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, exists := m.tenants[id]
	if !exists {
		return nil, ErrTenantNotFound
	}
	c := *t
	return &c, nil
}

func (m *MemoryStore) ListTenants(_ context.Context) ([]*models.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Tenant, 0, len(m.tenants))
	for _, t := range m.tenants {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveTenant(_ context.Context, tenant *models.Tenant) error {
	if tenant == nil {
		return fmt.Errorf("tenant is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if tenant.ID == 0 {
		m.counter++
		tenant.ID = m.counter
	} else if tenant.ID > m.counter {
		m.counter = tenant.ID
	}

	now := time.Now()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	c := *tenant
	m.tenants[tenant.ID] = &c
	return nil
}
