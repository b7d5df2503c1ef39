package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/services"
)

// maxMedia bounds the MediaUrlN fields read from one webhook
const maxMedia = 10

// MessageDispatcher schedules inbound messages for the conversation engine
type MessageDispatcher interface {
	Submit(evt *models.InboundEvent) bool
	Simulate(ctx context.Context, evt *models.InboundEvent) (*services.Outcome, error)
}

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	dispatcher MessageDispatcher
	now        func() time.Time
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(dispatcher MessageDispatcher) *WhatsAppHandler {
	return &WhatsAppHandler{dispatcher: dispatcher, now: time.Now}
}

// TwilioWebhookPayload represents incoming WhatsApp message from Twilio.
// MediaUrlN/MediaContentTypeN are read separately.
type TwilioWebhookPayload struct {
	MessageSid    string `form:"MessageSid"`
	AccountSid    string `form:"AccountSid"`
	From          string `form:"From"` // whatsapp:+5547...
	To            string `form:"To"`   // bot number
	Body          string `form:"Body"`
	NumMedia      string `form:"NumMedia"`
	MessageStatus string `form:"MessageStatus"`
}

// HandleWebhook acknowledges the delivery at once and hands the message to
// the dispatcher
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Warn().Err(err).Msg("⚠️ Invalid webhook payload")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	evt := h.inboundEvent(c, payload)
	if evt.From == "" || (strings.TrimSpace(evt.Text) == "" && !evt.HasAttachments()) {
		// status callbacks and empty messages
		return c.SendStatus(fiber.StatusNoContent)
	}

	log.Info().
		Str("from", evt.From).
		Str("to", evt.To).
		Str("message_id", evt.MessageID).
		Int("media", len(evt.Attachments)).
		Msg("📱 WhatsApp message received")

	h.dispatcher.Submit(evt)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *WhatsAppHandler) inboundEvent(c *fiber.Ctx, p TwilioWebhookPayload) *models.InboundEvent {
	evt := &models.InboundEvent{
		MessageID:  p.MessageSid,
		From:       strings.TrimSpace(p.From),
		To:         strings.TrimSpace(p.To),
		Text:       p.Body,
		ReceivedAt: h.now(),
	}

	n, _ := strconv.Atoi(strings.TrimSpace(p.NumMedia))
	if n > maxMedia {
		n = maxMedia
	}
	for i := 0; i < n; i++ {
		url := strings.TrimSpace(c.FormValue(fmt.Sprintf("MediaUrl%d", i)))
		if url == "" {
			continue
		}
		evt.Attachments = append(evt.Attachments, models.Attachment{
			URL:         url,
			ContentType: strings.TrimSpace(c.FormValue(fmt.Sprintf("MediaContentType%d", i))),
		})
	}
	return evt
}

// TestWebhookPayload drives the engine without Twilio (development only)
type TestWebhookPayload struct {
	From    string              `json:"from"`
	To      string              `json:"to"`
	Message string              `json:"message"`
	Media   []models.Attachment `json:"media"`
}

// HandleTestWebhook runs a message through the engine and returns the
// replies instead of sending them
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}
	if payload.From == "" || payload.To == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "from and to are required",
		})
	}

	log.Info().Str("from", payload.From).Str("to", payload.To).Msg("🧪 Test webhook received")

	out, err := h.dispatcher.Simulate(c.UserContext(), &models.InboundEvent{
		From:        payload.From,
		To:          payload.To,
		Text:        payload.Message,
		Attachments: payload.Media,
		ReceivedAt:  h.now(),
	})
	if err != nil {
		log.Error().Err(err).Str("from", payload.From).Msg("❌ Test message failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	resp := fiber.Map{
		"success": true,
		"replies": out.Replies,
	}
	if out.Tenant != nil {
		resp["tenant_id"] = out.Tenant.ID
	}
	return c.JSON(resp)
}
