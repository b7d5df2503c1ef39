package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

// DatabaseStore reads the tenant directory from the master PostgreSQL database
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a directory backed by gorm
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) GetTenantByNumber(ctx context.Context, number string) (*models.Tenant, error) {
	var variants []string
	for _, v := range numberVariants(number) {
		variants = append(variants, strings.ToLower(v))
	}

	var tenant models.Tenant
	err := d.db.WithContext(ctx).
		Where("ativo = ?", true).
		Where("LOWER(whatsapp_number) IN ?", variants).
		Order("id").
		First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to look up tenant by number: %w", err)
	}
	return &tenant, nil
}

func (d *DatabaseStore) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := d.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant %d: %w", id, err)
	}
	return &tenant, nil
}

func (d *DatabaseStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	var tenants []*models.Tenant
	if err := d.db.WithContext(ctx).Where("ativo = ?", true).Order("id").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return tenants, nil
}

func (d *DatabaseStore) SaveTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := d.db.WithContext(ctx).Save(tenant).Error; err != nil {
		return fmt.Errorf("failed to save tenant: %w", err)
	}
	return nil
}
