package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/services"
	"github.com/siserv-tech/driverbot-backend/internal/storage"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
)

// TenantLookup finds the tenant behind a bot number
type TenantLookup interface {
	ResolveByReceivingNumber(ctx context.Context, number string) (*models.Tenant, error)
}

// RegistrationSubmitter stores driver and vehicle pre-registrations
type RegistrationSubmitter interface {
	SubmitPerson(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
	SubmitVehicle(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
}

// RegistrationHandler serves the pre-registration endpoints used by
// external document pipelines
type RegistrationHandler struct {
	tenants TenantLookup
	regs    RegistrationSubmitter
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(tenants TenantLookup, regs RegistrationSubmitter) *RegistrationHandler {
	return &RegistrationHandler{tenants: tenants, regs: regs}
}

// RegistrationRequest carries column values keyed by column name or alias
type RegistrationRequest struct {
	To    string            `json:"to"`
	Dados map[string]string `json:"dados"`
	Link  string            `json:"link"`
}

// Person handles POST /precadastro
func (h *RegistrationHandler) Person(c *fiber.Ctx) error {
	return h.submit(c, "person", h.regs.SubmitPerson)
}

// Vehicle handles POST /cadastroveiculo
func (h *RegistrationHandler) Vehicle(c *fiber.Ctx) error {
	return h.submit(c, "vehicle", h.regs.SubmitVehicle)
}

type submitFunc func(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error

func (h *RegistrationHandler) submit(c *fiber.Ctx, kind string, submit submitFunc) error {
	var req RegistrationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	t, status, err := resolveTenant(c, h.tenants, req.To)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	rec := make(models.RegistrationRecord, len(req.Dados))
	for k, v := range req.Dados {
		rec[strings.ToUpper(strings.TrimSpace(k))] = v
	}

	if err := submit(c.UserContext(), t, rec, strings.TrimSpace(req.Link)); err != nil {
		var subErr *services.SubmissionError
		if errors.As(err, &subErr) && (subErr.Err == nil || errors.Is(err, tenantdb.ErrNoData)) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": subErr.Detail})
		}
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("kind", kind).Msg("❌ Pre-registration failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save registration"})
	}

	log.Info().Int64("tenant_id", t.ID).Str("kind", kind).Int("fields", len(rec)).Msg("✅ Pre-registration saved")
	return c.JSON(fiber.Map{"status": "salvo"})
}

// resolveTenant finds the tenant from the x-whatsapp-number header, falling
// back to the number given in the body
func resolveTenant(c *fiber.Ctx, tenants TenantLookup, fallback string) (*models.Tenant, int, error) {
	number := strings.TrimSpace(c.Get("x-whatsapp-number"))
	if number == "" {
		number = strings.TrimSpace(fallback)
	}
	if number == "" {
		return nil, fiber.StatusBadRequest, fmt.Errorf("x-whatsapp-number ausente")
	}

	t, err := tenants.ResolveByReceivingNumber(c.UserContext(), number)
	if err != nil {
		if errors.Is(err, storage.ErrTenantNotFound) {
			return nil, fiber.StatusNotFound, fmt.Errorf("cliente nao encontrado")
		}
		log.Error().Err(err).Str("number", number).Msg("❌ Tenant lookup failed")
		return nil, fiber.StatusInternalServerError, fmt.Errorf("internal error")
	}
	return t, 0, nil
}
