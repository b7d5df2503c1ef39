package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/documents"
	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/tenantdb"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

const cardSeparator = "\n────────\n"

// handleAsk processes input for a fixed ask-state
func (w *WhatsAppService) handleAsk(ctx context.Context, t *models.Tenant, sess *models.Session, st models.FixedState, in input, out *Outcome) error {
	switch st {
	case models.StateAwaitEntrega:
		w.askDelivery(ctx, t, sess, in, out)
	case models.StateAwaitOco:
		w.askOccurrenceOrder(sess, in, out)
	case models.StateAwaitOcoMotivo:
		w.askOccurrenceReason(ctx, t, sess, in, out)
	case models.StateAwaitCTeMedia:
		w.askCTe(ctx, t, sess, in, out)
	case models.StateAwaitBaixa:
		w.askBaixa(sess, in, out)
	case models.StateAwaitIDMedia:
		w.collect(ctx, t, sess, personCollection, in, out)
	case models.StateAwaitVehicle:
		w.collect(ctx, t, sess, vehicleCollection, in, out)
	default:
		prompt, ok := AskPrompt(st)
		if !ok {
			prompt = "Envie as informações solicitadas corretamente."
		}
		out.reply(prompt)
	}
	return nil
}

// orderRef reads the typed order number, ok is false when there are no digits
func orderRef(in input) (int64, string, bool) {
	digits := utils.OnlyDigits(in.raw)
	if digits == "" {
		return 0, "", false
	}
	ref, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || ref <= 0 {
		return 0, digits, false
	}
	return ref, digits, true
}

func (w *WhatsAppService) askDelivery(ctx context.Context, t *models.Tenant, sess *models.Session, in input, out *Outcome) {
	ref, digits, ok := orderRef(in)
	if !ok {
		out.reply(msgDigitsOnly)
		return
	}

	sess.Reset()
	d, err := w.Orders.ByReference(ctx, t, ref, sess.Context.CPF)
	switch {
	case err == nil:
		out.reply(FormatDelivery(d, digits))
	case errors.Is(err, tenantdb.ErrNotAuthorized):
		out.reply(msgNotResponsible)
	case errors.Is(err, tenantdb.ErrNotFound):
		out.reply(fmt.Sprintf(msgDeliveryNotFound, digits))
	default:
		log.Error().Err(err).Int64("tenant_id", t.ID).Int64("nomovtra", ref).Msg("❌ Delivery lookup failed")
		out.reply(msgDeliveryLookupError)
	}
}

func (w *WhatsAppService) askOccurrenceOrder(sess *models.Session, in input, out *Outcome) {
	ref, _, ok := orderRef(in)
	if !ok {
		out.reply(msgDigitsOnly)
		return
	}
	sess.Context.Nomovtra = ref
	sess.State = models.StateAwaitOcoMotivo
	prompt, _ := AskPrompt(models.StateAwaitOcoMotivo)
	out.reply(prompt)
}

func (w *WhatsAppService) askOccurrenceReason(ctx context.Context, t *models.Tenant, sess *models.Session, in input, out *Outcome) {
	if in.raw == "" {
		out.reply(msgReasonRequired)
		return
	}

	ref := sess.Context.Nomovtra
	user := sess.Context.CPF
	if user == "" {
		user = "BOT"
	}
	sess.Reset()

	if ref == 0 {
		log.Error().Int64("tenant_id", t.ID).Str("from", sess.Key).Msg("❌ Occurrence reason without order reference")
		out.reply(msgOccurrenceFailed)
		return
	}

	if _, err := w.Orders.DriverDocument(ctx, t, ref); err != nil {
		if errors.Is(err, tenantdb.ErrNotFound) {
			out.reply(fmt.Sprintf(msgOccurrenceNoDriver, ref))
			return
		}
		log.Warn().Err(err).Int64("tenant_id", t.ID).Int64("nomovtra", ref).Msg("⚠️ Driver check failed - inserting occurrence anyway")
	}

	occ, err := w.Occurrences.InsertOccurrence(ctx, t, ref, in.raw, user)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Int64("nomovtra", ref).Msg("❌ Failed to register occurrence")
		out.reply(msgOccurrenceFailed)
		return
	}
	log.Info().Int64("tenant_id", t.ID).Int64("nomovtra", occ.Nomovtra).Int64("noitem", occ.Item).Msg("✅ Occurrence registered")
	out.reply(msgOccurrenceSaved)
}

func (w *WhatsAppService) askCTe(ctx context.Context, t *models.Tenant, sess *models.Session, in input, out *Outcome) {
	var key string
	if in.evt.HasAttachments() {
		for _, a := range in.evt.Attachments {
			if !SupportedMedia(a.ContentType) {
				out.reply(fmt.Sprintf(msgUnsupportedMedia, "documento do CT-e"))
				continue
			}
			ext, err := w.extract(ctx, a, "cte")
			if err != nil {
				log.Error().Err(err).Int64("tenant_id", t.ID).Str("content_type", a.ContentType).Msg("❌ Failed to process CT-e media")
				continue
			}
			if key = utils.OnlyDigits(ext.Key); len(key) != 44 {
				key = utils.ExtractAccessKey(ext.Text)
			}
			if key != "" {
				break
			}
		}
	} else if in.raw != "" {
		key = utils.ExtractAccessKey(in.raw)
	}

	if key == "" {
		out.reply(msgCTeKeyMissing)
		return
	}
	if !utils.ValidAccessKey(key) {
		out.reply(msgCTeBadCheckDigit)
		return
	}
	if parsed, ok := utils.ParseAccessKey(key); !ok || parsed.Model != utils.ModelCTe {
		out.reply(msgCTeWrongModel)
		return
	}

	ref, err := w.Orders.ByAccessKey(ctx, t, key)
	if err != nil {
		if errors.Is(err, tenantdb.ErrNotFound) {
			out.reply(msgCTeNotLinked)
			return
		}
		log.Error().Err(err).Int64("tenant_id", t.ID).Msg("❌ CT-e key lookup failed")
		out.reply(msgCTeLookupError)
		return
	}

	d, err := w.Orders.ByReference(ctx, t, ref, sess.Context.CPF)
	switch {
	case err == nil:
		sess.Context.Nomovtra = ref
		sess.State = models.StateAwaitBaixa
		out.reply(FormatDelivery(d, strconv.FormatInt(ref, 10)) + msgCTeConfirmQuestion)
	case errors.Is(err, tenantdb.ErrNotAuthorized):
		out.reply(msgNotResponsible)
	case errors.Is(err, tenantdb.ErrNotFound):
		out.reply(msgCTeDeliveryNotFound)
	default:
		log.Error().Err(err).Int64("tenant_id", t.ID).Int64("nomovtra", ref).Msg("❌ CT-e delivery lookup failed")
		out.reply(msgCTeLookupError)
	}
}

func (w *WhatsAppService) askBaixa(sess *models.Session, in input, out *Outcome) {
	answer := strings.ToLower(in.text)
	ref := sess.Context.Nomovtra
	sess.Reset()
	switch answer {
	case "sim", "s", "yes", "y":
		log.Info().Str("from", sess.Key).Int64("nomovtra", ref).Msg("✅ Delivery completion confirmed")
		out.reply(msgBaixaDone)
	default:
		out.reply(msgBaixaCancelled)
	}
}

// collection describes one "send documents, correct, confirm" flow
type collection struct {
	schema     *documents.Schema
	intent     string
	mediaLabel string
	noCard     string
	noImage    string
	noText     string
	hint       string
	saveFailed string
	vehicle    bool
	text       func(c *models.SessionContext) *string
	paths      func(c *models.SessionContext) *[]string
}

var personCollection = collection{
	schema:     documents.PersonSchema,
	intent:     "pessoa",
	mediaLabel: "identidade/CNH",
	noCard:     "❗ Ainda não há cartão para corrigir. Envie a foto da CNH primeiro.",
	noImage:    "❗ Ainda não recebi nenhuma imagem. Envie a foto da identidade/CNH primeiro.",
	noText:     "⚠️ Não consegui extrair os dados. Tente novamente com foto de frente, bem enquadrada, em boa iluminação. Se preferir, envie em PDF.",
	hint:       "📸 Envie a foto (frente/verso) da identidade/CNH. Quando terminar, digite *CONFIRMAR*.",
	saveFailed: "Erro ao salvar cadastro.",
	text:       func(c *models.SessionContext) *string { return &c.IDText },
	paths:      func(c *models.SessionContext) *[]string { return &c.IDPaths },
}

var vehicleCollection = collection{
	schema:     documents.VehicleSchema,
	intent:     "veiculo",
	mediaLabel: "documento do veículo",
	noCard:     "❗ Ainda não há cartão para corrigir. Envie o documento do veículo primeiro.",
	noImage:    "❗ Ainda não recebi nenhuma imagem. Envie o documento do veículo primeiro.",
	noText:     "⚠️ Não consegui extrair os dados. Tente novamente com imagem legível ou envie em PDF.",
	hint:       "📄 Envie a foto ou PDF do documento do veículo. Quando terminar, digite *CONFIRMAR*.",
	saveFailed: "Erro ao salvar cadastro de veículo.",
	vehicle:    true,
	text:       func(c *models.SessionContext) *string { return &c.VehicleText },
	paths:      func(c *models.SessionContext) *[]string { return &c.VehiclePaths },
}

func (w *WhatsAppService) collect(ctx context.Context, t *models.Tenant, sess *models.Session, c collection, in input, out *Outcome) {
	card := c.text(&sess.Context)
	paths := c.paths(&sess.Context)

	switch {
	case in.cmd == "CAMPOS":
		out.reply(documents.HelpText(c.schema))

	case strings.HasPrefix(in.cmd, "CORRIGIR"):
		if *card == "" {
			out.reply(c.noCard)
			return
		}
		patches := documents.ParseCorrections(in.raw, c.schema)
		if len(patches) == 0 {
			out.reply(documents.HelpText(c.schema))
			return
		}
		*card = documents.Apply(*card, patches, c.schema)
		out.reply(msgCorrectionsApplied + documents.Preview(*card, c.schema))

	case in.cmd == "CONFIRMAR":
		w.confirm(ctx, t, sess, c, out)

	case in.evt.HasAttachments():
		w.accumulate(ctx, t, card, paths, c, in, out)

	default:
		out.reply(c.hint)
	}
}

func (w *WhatsAppService) confirm(ctx context.Context, t *models.Tenant, sess *models.Session, c collection, out *Outcome) {
	card := *c.text(&sess.Context)
	if card == "" {
		out.reply(c.noImage)
		return
	}

	rec := documents.ToRecord(card, c.schema)
	submit := w.Registrations.SubmitVehicle
	if !c.vehicle {
		submit = w.Registrations.SubmitPerson
		if phone := utils.LocalPhone(sess.Key); phone != "" {
			rec["TELEFONE"] = phone
		}
	}
	var link string
	if p := *c.paths(&sess.Context); len(p) > 0 {
		link = p[0]
	}

	if err := submit(ctx, t, rec, link); err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("schema", c.schema.Name).Msg("❌ Failed to save registration")
		var subErr *SubmissionError
		if errors.As(err, &subErr) && subErr.Detail != "" {
			out.reply("⚠️ " + subErr.Detail)
		} else {
			out.reply("⚠️ " + c.saveFailed)
		}
		return
	}

	log.Info().Int64("tenant_id", t.ID).Str("schema", c.schema.Name).Int("fields", len(rec)).Msg("✅ Registration saved")
	sess.Reset()
	out.reply(msgRegistrationDone)
}

// accumulate extracts every attachment into the card. A failing file is
// reported and skipped.
func (w *WhatsAppService) accumulate(ctx context.Context, t *models.Tenant, card *string, paths *[]string, c collection, in input, out *Outcome) {
	attempted := 0
	for _, a := range in.evt.Attachments {
		if !SupportedMedia(a.ContentType) {
			out.reply(fmt.Sprintf(msgUnsupportedMedia, c.mediaLabel))
			continue
		}
		attempted++

		ext, err := w.extract(ctx, a, c.intent)
		if err != nil {
			log.Error().Err(err).Int64("tenant_id", t.ID).Str("content_type", a.ContentType).Msg("❌ Failed to process document media")
			out.reply(msgFileFailed)
			continue
		}
		if text := strings.TrimSpace(ext.Text); text != "" {
			if *card == "" {
				*card = text
			} else {
				*card = *card + cardSeparator + text
			}
		}
		if ext.StorageRef != "" {
			*paths = append(*paths, ext.StorageRef)
		}
	}
	if attempted == 0 {
		return
	}

	if *card == "" {
		out.reply(c.noText)
		return
	}
	out.reply(documents.Preview(*card, c.schema))
}

// extract downloads one attachment and hands it to the extractor
func (w *WhatsAppService) extract(ctx context.Context, a models.Attachment, intent string) (*models.Extraction, error) {
	media, err := w.Media.Fetch(ctx, a.URL)
	if err != nil {
		return nil, err
	}
	if media.ContentType == "" || media.ContentType == "application/octet-stream" {
		media.ContentType = a.ContentType
	}
	return w.Extractor.Extract(ctx, media, intent)
}

// SupportedMedia accepts images and PDFs
func SupportedMedia(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return strings.HasPrefix(ct, "image/") || strings.Contains(ct, "application/pdf")
}
