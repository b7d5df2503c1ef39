package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/storage"
	"github.com/siserv-tech/driverbot-backend/internal/tenant"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// TenantDirectory resolves the tenant behind a bot number
type TenantDirectory interface {
	ResolveByReceivingNumber(ctx context.Context, number string) (*models.Tenant, error)
	Tenant(ctx context.Context, id int64) (*models.Tenant, error)
	ConnectionFor(t *models.Tenant) (tenant.Descriptor, error)
}

// Roster classifies a sender phone against the tenant's drivers
type Roster interface {
	StatusByPhone(ctx context.Context, t *models.Tenant, from string) (models.RegistrationStatus, error)
}

// Orders looks up deliveries
type Orders interface {
	ByReference(ctx context.Context, t *models.Tenant, ref int64, identity string) (*models.Delivery, error)
	DriverDocument(ctx context.Context, t *models.Tenant, ref int64) (string, error)
	ByAccessKey(ctx context.Context, t *models.Tenant, key string) (int64, error)
}

// Occurrences records delivery occurrences
type Occurrences interface {
	InsertOccurrence(ctx context.Context, t *models.Tenant, ref int64, note, user string) (models.Occurrence, error)
}

// Registrations submits driver and vehicle pre-registrations
type Registrations interface {
	SubmitPerson(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
	SubmitVehicle(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error
}

// Extractor reads text (and fiscal keys) out of a document file
type Extractor interface {
	Extract(ctx context.Context, media *models.Media, intent string) (*models.Extraction, error)
}

// MediaFetcher downloads an inbound attachment
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*models.Media, error)
}

// Deps are the collaborators of the conversation engine
type Deps struct {
	Tenants       TenantDirectory
	Sessions      *SessionStore
	Menus         *MenuService
	Roster        Roster
	Orders        Orders
	Occurrences   Occurrences
	Registrations Registrations
	Extractor     Extractor
	Media         MediaFetcher
	SupportPhone  string
}

// Outcome is what handling one inbound message produced
type Outcome struct {
	Replies   []string
	Tenant    *models.Tenant
	MediaLink string
}

func (o *Outcome) reply(body string) {
	o.Replies = append(o.Replies, body)
}

// Text joins the replies for the conversation log
func (o *Outcome) Text() string {
	return strings.Join(o.Replies, "\n\n")
}

// WhatsAppService is the conversation state machine. Callers must serialise
// calls for the same sender.
type WhatsAppService struct {
	Deps
}

// NewWhatsAppService creates the engine
func NewWhatsAppService(deps Deps) *WhatsAppService {
	return &WhatsAppService{Deps: deps}
}

// input is an inbound message prepared for matching
type input struct {
	evt  *models.InboundEvent
	raw  string // trimmed, case and accents kept
	cmd  string // accent-free upper case, for command words
	text string // accent-free, case kept
}

func newInput(evt *models.InboundEvent) input {
	raw := strings.TrimSpace(evt.Text)
	return input{
		evt:  evt,
		raw:  raw,
		cmd:  utils.CommandKey(raw),
		text: utils.Normalize(raw),
	}
}

func (in input) isMenuCommand() bool {
	return utils.IsCommand(in.cmd, "MENU", "INICIO", "START", "HOME")
}

// Handle runs one inbound message through the state machine
func (w *WhatsAppService) Handle(ctx context.Context, evt *models.InboundEvent) (*Outcome, error) {
	in := newInput(evt)
	out := &Outcome{}
	if evt.HasAttachments() {
		out.MediaLink = evt.Attachments[0].URL
	}

	sess, ok := w.Sessions.Get(evt.From)
	if !ok {
		sess = &models.Session{Key: evt.From}
	}

	t, err := w.tenantFor(ctx, sess, evt.To)
	if err != nil {
		var cfgErr *tenant.ConfigError
		switch {
		case errors.Is(err, ErrTenantNotFound):
			log.Warn().Str("to", evt.To).Str("from", evt.From).Msg("⚠️ No tenant for receiving number")
			out.reply(msgTenantNotConfigured)
			return out, nil
		case errors.As(err, &cfgErr):
			out.reply(msgTenantMisconfigured)
			return out, nil
		}
		return nil, err
	}
	out.Tenant = t

	if sess.MenuID == 0 {
		menu, err := w.Menus.LoadRootMenu(ctx, t)
		if err != nil {
			if errors.Is(err, ErrMenuNotConfigured) {
				log.Error().Int64("tenant_id", t.ID).Msg("❌ Tenant has no active menu")
				out.reply(msgMenuNotConfigured)
				return out, nil
			}
			log.Error().Err(err).Int64("tenant_id", t.ID).Msg("❌ Failed to load menu")
			out.reply(msgMenuUnavailable)
			return out, nil
		}
		sess.MenuID = menu.ID
		sess.MenuTitle = menu.Title
		sess.State = models.RootState(t.ID)
	}
	if sess.State == nil {
		sess.State = models.RootState(t.ID)
	}
	defer w.Sessions.Set(sess)

	status, err := w.Roster.StatusByPhone(ctx, t, evt.From)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("from", evt.From).Msg("❌ Registration status lookup failed")
		out.reply(msgStatusUnavailable)
		return out, nil
	}

	switch status.Kind {
	case models.Pending:
		sess.Context.CPF = ""
		out.reply(msgPendingRegistration)
		return out, nil
	case models.Unregistered:
		sess.Context.CPF = ""
		return out, w.handleUnregistered(ctx, t, sess, in, out)
	}
	if status.Identity != "" {
		sess.Context.CPF = status.Identity
	}

	if in.isMenuCommand() && !(isCollecting(sess.State) && evt.HasAttachments()) {
		sess.Reset()
	}

	if st, ok := sess.State.(models.FixedState); ok && st != models.StateIdle {
		return out, w.handleAsk(ctx, t, sess, st, in, out)
	}
	return out, w.navigate(ctx, t, sess, in, out)
}

// tenantFor returns the tenant cached on the session, resolving it from the
// receiving number on first contact
func (w *WhatsAppService) tenantFor(ctx context.Context, sess *models.Session, to string) (*models.Tenant, error) {
	var t *models.Tenant
	if sess.TenantID != 0 {
		cached, err := w.Tenants.Tenant(ctx, sess.TenantID)
		if err == nil {
			t = cached
		} else if !errors.Is(err, storage.ErrTenantNotFound) {
			return nil, err
		}
	}
	if t == nil {
		resolved, err := w.Tenants.ResolveByReceivingNumber(ctx, to)
		if err != nil {
			if errors.Is(err, storage.ErrTenantNotFound) {
				return nil, ErrTenantNotFound
			}
			return nil, err
		}
		t = resolved
		if sess.TenantID != t.ID {
			sess.TenantID = t.ID
			sess.MenuID = 0
			log.Info().Str("to", to).Int64("tenant_id", t.ID).Msg("📱 Sender mapped to tenant")
		}
	}

	if _, err := w.Tenants.ConnectionFor(t); err != nil {
		return nil, err
	}
	return t, nil
}

func isCollecting(st models.ConversationState) bool {
	fs, ok := st.(models.FixedState)
	return ok && fs.IsMediaCollection()
}

// handleUnregistered offers the onboarding menu to senders missing from the roster
func (w *WhatsAppService) handleUnregistered(ctx context.Context, t *models.Tenant, sess *models.Session, in input, out *Outcome) error {
	collecting := sess.State == models.StateAwaitIDMedia || sess.State == models.StateAwaitVehicle

	if in.isMenuCommand() && !(collecting && in.evt.HasAttachments()) {
		sess.Reset()
		out.reply(FallbackMenu())
		return nil
	}
	if collecting {
		return w.handleAsk(ctx, t, sess, sess.State.(models.FixedState), in, out)
	}

	switch in.raw {
	case "1":
		w.enter(sess, models.StateAwaitIDMedia, out)
	case "2":
		w.enter(sess, models.StateAwaitVehicle, out)
	case "0":
		sess.Reset()
		out.reply(fmt.Sprintf(msgSupportContact, w.SupportPhone))
	default:
		out.reply(FallbackMenu())
	}
	return nil
}

// enter moves the session into an ask-state and sends its prompt. Document
// collection starts from an empty card.
func (w *WhatsAppService) enter(sess *models.Session, st models.FixedState, out *Outcome) {
	sess.State = st
	switch st {
	case models.StateAwaitIDMedia:
		sess.Context.IDText, sess.Context.IDPaths = "", nil
	case models.StateAwaitVehicle:
		sess.Context.VehicleText, sess.Context.VehiclePaths = "", nil
	}
	prompt, _ := AskPrompt(st)
	out.reply(prompt)
}

// navigate walks the tenant menu tree
func (w *WhatsAppService) navigate(ctx context.Context, t *models.Tenant, sess *models.Session, in input, out *Outcome) error {
	current := sess.State.Key()
	if sess.State == models.StateIdle {
		sess.State = models.RootState(t.ID)
		current = models.RootKey
	}

	opts, err := w.Menus.OptionsFor(ctx, t, sess.MenuID, current)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("node", current).Msg("❌ Failed to load menu options")
		out.reply(msgMenuUnavailable)
		return nil
	}

	if len(opts) == 0 {
		out.reply(fmt.Sprintf(msgNoOptions, current, sess.MenuID, current))
		return nil
	}

	if utils.IsOnlyDigits(in.raw) {
		if opt, ok := FindOption(opts, in.raw); ok {
			return w.follow(ctx, t, sess, opt, opts, out)
		}
	}

	out.reply(RenderMenu(sess.MenuTitle, opts))
	return nil
}

// follow applies a chosen option: a further menu node, an ask-state, or a
// node that only acknowledges
func (w *WhatsAppService) follow(ctx context.Context, t *models.Tenant, sess *models.Session, opt models.MenuOption, siblings []models.MenuOption, out *Outcome) error {
	if opt.NextKey == "" {
		log.Warn().Int64("tenant_id", t.ID).Int64("menu_id", sess.MenuID).Str("option", opt.Key).Msg("⚠️ Menu option without PROXIMA_CHAVE")
		out.reply(msgOptionWithoutTarget + "\n\n" + RenderMenu(sess.MenuTitle, siblings))
		return nil
	}

	next := models.ParseState(t.ID, opt.NextKey)
	if st, ok := next.(models.FixedState); ok && st != models.StateIdle {
		w.enter(sess, st, out)
		return nil
	}

	sess.State = next
	if next == models.StateIdle {
		sess.State = models.RootState(t.ID)
	}
	nextOpts, err := w.Menus.OptionsFor(ctx, t, sess.MenuID, sess.State.Key())
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("node", sess.State.Key()).Msg("❌ Failed to load menu options")
		out.reply(msgMenuUnavailable)
		return nil
	}
	if len(nextOpts) > 0 {
		out.reply(RenderMenu(sess.MenuTitle, nextOpts))
		return nil
	}
	out.reply(msgSendInformation)
	return nil
}

// HandleCommand serves the fast-path words MENU, SAIR and CANCELAR: the
// conversation restarts and the menu the sender is entitled to is sent
func (w *WhatsAppService) HandleCommand(ctx context.Context, evt *models.InboundEvent) *Outcome {
	out := &Outcome{}

	if sess, ok := w.Sessions.Get(evt.From); ok && sess.Authenticated() {
		sess.Reset()
		w.Sessions.Set(sess)
	} else {
		w.Sessions.Clear(evt.From)
	}

	t, err := w.Tenants.ResolveByReceivingNumber(ctx, evt.To)
	if err != nil {
		log.Warn().Err(err).Str("to", evt.To).Msg("⚠️ Fast path without tenant - using static menu")
		t = nil
	}
	out.Tenant = t

	text, pending := w.commandMenu(ctx, t, evt.From)
	if pending || utils.IsCommand(evt.Text, "MENU") {
		out.reply(text)
	} else {
		out.reply(msgCancelled + "\n\n" + text)
	}
	return out
}

// commandMenu picks the menu a fast-path command answers with. The roster
// gate applies here too: pending senders only get the approval notice and
// unregistered ones the onboarding menu.
func (w *WhatsAppService) commandMenu(ctx context.Context, t *models.Tenant, from string) (text string, pending bool) {
	if t == nil {
		return StaticMenu(), false
	}
	status, err := w.Roster.StatusByPhone(ctx, t, from)
	if err != nil {
		log.Error().Err(err).Int64("tenant_id", t.ID).Str("from", from).Msg("❌ Registration status lookup failed - using static menu")
		return StaticMenu(), false
	}
	switch status.Kind {
	case models.Pending:
		return msgPendingRegistration, true
	case models.Unregistered:
		return FallbackMenu(), false
	}
	return w.Menus.MenuText(ctx, t), false
}

// IsFastCommand reports whether the message is a fast-path command word
func IsFastCommand(evt *models.InboundEvent) bool {
	return !evt.HasAttachments() && utils.IsCommand(evt.Text, "MENU", "SAIR", "CANCELAR")
}
