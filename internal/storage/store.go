package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// ErrTenantNotFound is returned when no active tenant owns a number
var ErrTenantNotFound = errors.New("tenant not found")

// Store defines the master directory of tenants
type Store interface {
	GetTenantByNumber(ctx context.Context, number string) (*models.Tenant, error)
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
	SaveTenant(ctx context.Context, tenant *models.Tenant) error
}

// numberVariants lists the spellings a bot number may have been saved with
func numberVariants(number string) []string {
	bare := utils.StripWhatsAppPrefix(number)
	return []string{bare, "whatsapp:" + bare}
}

// sameNumber compares two stored numbers ignoring the whatsapp: prefix and case
func sameNumber(a, b string) bool {
	return strings.EqualFold(utils.StripWhatsAppPrefix(a), utils.StripWhatsAppPrefix(b))
}
