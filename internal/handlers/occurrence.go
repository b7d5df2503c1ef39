package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
)

// OccurrenceRecorder inserts delivery occurrences
type OccurrenceRecorder interface {
	InsertOccurrence(ctx context.Context, t *models.Tenant, ref int64, note, user string) (models.Occurrence, error)
}

// OccurrenceHandler serves POST /ocorrencia
type OccurrenceHandler struct {
	tenants TenantLookup
	occ     OccurrenceRecorder
}

// NewOccurrenceHandler creates a new occurrence handler
func NewOccurrenceHandler(tenants TenantLookup, occ OccurrenceRecorder) *OccurrenceHandler {
	return &OccurrenceHandler{tenants: tenants, occ: occ}
}

// OccurrenceRequest is the body of POST /ocorrencia
type OccurrenceRequest struct {
	ToBiz    string `json:"toBiz"`
	Nomovtra int64  `json:"nomovtra"`
	Texto    string `json:"texto"`
	CPF      string `json:"cpf"`
}

// Create registers one occurrence for an order
func (h *OccurrenceHandler) Create(c *fiber.Ctx) error {
	var req OccurrenceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	t, status, err := resolveTenant(c, h.tenants, req.ToBiz)
	if err != nil {
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	if req.Nomovtra <= 0 || strings.TrimSpace(req.Texto) == "" || strings.TrimSpace(req.CPF) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Campos obrigatórios: nomovtra, texto, cpf",
		})
	}

	occ, err := h.occ.InsertOccurrence(c.UserContext(), t, req.Nomovtra, strings.TrimSpace(req.Texto), strings.TrimSpace(req.CPF))
	if err != nil {
		if errors.Is(err, tenantdb.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Entrega não encontrada"})
		}
		log.Error().Err(err).Int64("tenant_id", t.ID).Int64("nomovtra", req.Nomovtra).Msg("❌ Failed to register occurrence")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Erro ao registrar ocorrência",
		})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"nomovtra": occ.Nomovtra,
		"noitem":   occ.Item,
	})
}
