package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
)

// MenuRepository reads the tenant-configured menu tree
type MenuRepository interface {
	ActiveMenu(ctx context.Context, t *models.Tenant) (*models.Menu, error)
	OptionsAt(ctx context.Context, t *models.Tenant, menuID int64, nodeKey string) ([]models.MenuOption, error)
}

// MenuService is the menu tree accessor used by the conversation engine
type MenuService struct {
	repo MenuRepository
}

func NewMenuService(repo MenuRepository) *MenuService {
	return &MenuService{repo: repo}
}

// LoadRootMenu returns the active menu header, or ErrMenuNotConfigured
func (m *MenuService) LoadRootMenu(ctx context.Context, t *models.Tenant) (*models.Menu, error) {
	menu, err := m.repo.ActiveMenu(ctx, t)
	if err != nil {
		if errors.Is(err, tenantdb.ErrNotFound) {
			return nil, ErrMenuNotConfigured
		}
		return nil, err
	}
	return menu, nil
}

// OptionsFor lists the options under a node, ordered for display
func (m *MenuService) OptionsFor(ctx context.Context, t *models.Tenant, menuID int64, nodeKey string) ([]models.MenuOption, error) {
	return m.repo.OptionsAt(ctx, t, menuID, nodeKey)
}

// MenuText renders the root menu of a tenant, falling back to the static menu
// when anything is missing
func (m *MenuService) MenuText(ctx context.Context, t *models.Tenant) string {
	if t == nil {
		return StaticMenu()
	}
	menu, err := m.LoadRootMenu(ctx, t)
	if err != nil {
		log.Warn().Err(err).Int64("tenant_id", t.ID).Msg("⚠️ Root menu unavailable - using static menu")
		return StaticMenu()
	}
	opts, err := m.OptionsFor(ctx, t, menu.ID, models.RootKey)
	if err != nil || len(opts) == 0 {
		log.Warn().Err(err).Int64("tenant_id", t.ID).Int64("menu_id", menu.ID).Msg("⚠️ Root options unavailable - using static menu")
		return StaticMenu()
	}
	return RenderMenu(menu.Title, opts)
}

// FindOption picks the option whose key equals the typed choice
func FindOption(opts []models.MenuOption, choice string) (models.MenuOption, bool) {
	choice = strings.TrimSpace(choice)
	for _, o := range opts {
		if o.Key == choice {
			return o, true
		}
	}
	return models.MenuOption{}, false
}
