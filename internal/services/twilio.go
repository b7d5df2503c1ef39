package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const msgBareAck = "✅ Pronto! Envie as informações solicitadas."

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// messageCreator is the slice of the Twilio REST API the sink uses
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioService is the reply sink: it cleans up outbound text, splits it
// into channel-sized parts and sends each part over WhatsApp
type TwilioService struct {
	api       messageCreator
	from      string
	maxLength int
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(accountSID, authToken, from string, maxLength int) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return newTwilioService(client.Api, from, maxLength), nil
}

func newTwilioService(api messageCreator, from string, maxLength int) *TwilioService {
	if maxLength <= 0 {
		maxLength = 1500
	}
	return &TwilioService{api: api, from: from, maxLength: maxLength}
}

// Send delivers body to the recipient, falling back to the configured sender
// when from is empty. It reports false when there was nothing to send.
func (t *TwilioService) Send(ctx context.Context, to, from, body string) (bool, error) {
	body = Sanitize(body)
	if body == "" {
		log.Debug().Str("to", to).Msg("⚠️  Skipping empty reply")
		return false, nil
	}

	to = channelAddress(to)
	if from = channelAddress(from); from == "" {
		from = channelAddress(t.from)
	}
	if to == "" || from == "" {
		return false, fmt.Errorf("invalid WhatsApp address (to=%q from=%q)", to, from)
	}

	for i, part := range Split(body, t.maxLength) {
		if err := ctx.Err(); err != nil {
			return i > 0, err
		}

		params := &twilioApi.CreateMessageParams{}
		params.SetFrom(from)
		params.SetTo(to)
		params.SetBody(part)

		resp, err := t.api.CreateMessage(params)
		if err != nil {
			log.Error().Err(err).Str("to", to).Int("part", i+1).Msg("❌ Failed to send WhatsApp message")
			return i > 0, fmt.Errorf("failed to send WhatsApp message: %w", err)
		}
		if resp != nil && resp.ErrorCode != nil && *resp.ErrorCode != 0 {
			msg := ""
			if resp.ErrorMessage != nil {
				msg = *resp.ErrorMessage
			}
			return i > 0, fmt.Errorf("twilio error %d: %s", *resp.ErrorCode, msg)
		}

		sid := ""
		if resp != nil && resp.Sid != nil {
			sid = *resp.Sid
		}
		log.Info().Str("to", to).Str("sid", sid).Int("part", i+1).Msg("📤 WhatsApp message sent")
	}
	return true, nil
}

// Sanitize collapses runs of blanks, trims every line and replaces a bare
// "OK" with an actionable prompt
func Sanitize(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
	}
	out := strings.TrimSpace(strings.Join(lines, "\n"))
	if isBareAck(out) {
		return msgBareAck
	}
	return out
}

// isBareAck reports whether body is just "ok" wrapped in punctuation,
// symbols, emoji or spacing
func isBareAck(body string) bool {
	core := strings.TrimFunc(body, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.EqualFold(core, "ok")
}

// Split breaks body into parts of at most maxLen runes, preferring line
// breaks and then word boundaries
func Split(body string, maxLen int) []string {
	if body == "" {
		return nil
	}
	if maxLen <= 0 || len([]rune(body)) <= maxLen {
		return []string{body}
	}

	var parts []string
	var current []rune
	flush := func() {
		if s := strings.TrimSpace(string(current)); s != "" {
			parts = append(parts, s)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		for _, piece := range splitLine(line, maxLen) {
			r := []rune(piece)
			need := len(r)
			if len(current) > 0 {
				need++
			}
			if len(current)+need > maxLen {
				flush()
			}
			if len(current) > 0 {
				current = append(current, '\n')
			}
			current = append(current, r...)
		}
	}
	flush()
	return parts
}

// splitLine cuts a single line longer than maxLen at the last space that fits,
// or hard-cuts a word longer than maxLen
func splitLine(line string, maxLen int) []string {
	r := []rune(line)
	if len(r) <= maxLen {
		return []string{line}
	}

	var out []string
	for len(r) > maxLen {
		cut := maxLen
		for i := maxLen; i > 0; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		out = append(out, strings.TrimSpace(string(r[:cut])))
		r = []rune(strings.TrimLeft(string(r[cut:]), " "))
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}

// channelAddress normalises a number to the whatsapp:+<digits> form
func channelAddress(addr string) string {
	bare := utils.StripWhatsAppPrefix(addr)
	if bare == "" {
		return ""
	}
	if !strings.HasPrefix(bare, "+") {
		bare = "+" + bare
	}
	return utils.WhatsAppAddress(bare)
}
