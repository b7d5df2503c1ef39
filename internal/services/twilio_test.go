package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeMessageAPI struct {
	params []*twilioApi.CreateMessageParams
	err    error
}

func (f *fakeMessageAPI) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM0001"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses blanks", "Olá   \t motorista", "Olá motorista"},
		{"trims lines", "  linha 1  \r\n   linha 2 ", "linha 1\nlinha 2"},
		{"keeps blank lines inside", "a\n\nb", "a\n\nb"},
		{"bare ok", "OK", msgBareAck},
		{"bare ok with punctuation", " ok!! ", msgBareAck},
		{"ok with question mark", "Ok?", msgBareAck},
		{"ok with comma", "ok,", msgBareAck},
		{"bold ok", "*OK*", msgBareAck},
		{"ok with emoji", "ok 👍", msgBareAck},
		{"ok across lines", "ok\n.", msgBareAck},
		{"ok inside sentence", "ok, recebido", "ok, recebido"},
		{"word starting with ok", "okay", "okay"},
		{"empty", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSplitShortBody(t *testing.T) {
	assert.Equal(t, []string{"curto"}, Split("curto", 1500))
	assert.Nil(t, Split("", 1500))
}

func TestSplitOnLines(t *testing.T) {
	body := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8) + "\n" + strings.Repeat("c", 8)

	parts := Split(body, 20)

	assert.Equal(t, []string{"aaaaaaaa\nbbbbbbbb", "cccccccc"}, parts)
}

func TestSplitLongLineAtWords(t *testing.T) {
	body := "um dois tres quatro cinco seis sete oito"

	parts := Split(body, 15)

	for _, p := range parts {
		assert.LessOrEqual(t, len([]rune(p)), 15)
	}
	assert.Equal(t, body, strings.Join(parts, " "))
}

func TestSplitHardCutsLongWord(t *testing.T) {
	parts := Split(strings.Repeat("x", 25), 10)

	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, parts)
}

func TestSendSkipsEmptyBody(t *testing.T) {
	api := &fakeMessageAPI{}
	svc := newTwilioService(api, "whatsapp:+14155238886", 1500)

	sent, err := svc.Send(context.Background(), "whatsapp:+5547996077564", "", "   ")

	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, api.params)
}

func TestSendNormalisesAddresses(t *testing.T) {
	api := &fakeMessageAPI{}
	svc := newTwilioService(api, "whatsapp:+14155238886", 1500)

	sent, err := svc.Send(context.Background(), "5547996077564", "", "OK")

	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, api.params, 1)
	assert.Equal(t, "whatsapp:+5547996077564", *api.params[0].To)
	assert.Equal(t, "whatsapp:+14155238886", *api.params[0].From)
	assert.Equal(t, msgBareAck, *api.params[0].Body)
}

func TestSendUsesInboundNumberAsSender(t *testing.T) {
	api := &fakeMessageAPI{}
	svc := newTwilioService(api, "whatsapp:+14155238886", 1500)

	_, err := svc.Send(context.Background(), "whatsapp:+5547996077564", "whatsapp:+554733330000", "Olá")

	require.NoError(t, err)
	assert.Equal(t, "whatsapp:+554733330000", *api.params[0].From)
}

func TestSendSplitsLongReplies(t *testing.T) {
	api := &fakeMessageAPI{}
	svc := newTwilioService(api, "whatsapp:+14155238886", 100)

	body := strings.Repeat("linha de teste\n", 20)
	sent, err := svc.Send(context.Background(), "whatsapp:+5547996077564", "", body)

	require.NoError(t, err)
	assert.True(t, sent)
	assert.Greater(t, len(api.params), 1)
	for _, p := range api.params {
		assert.LessOrEqual(t, len([]rune(*p.Body)), 100)
	}
}

func TestSendReportsAPIError(t *testing.T) {
	api := &fakeMessageAPI{err: errors.New("status 401")}
	svc := newTwilioService(api, "whatsapp:+14155238886", 1500)

	sent, err := svc.Send(context.Background(), "whatsapp:+5547996077564", "", "Olá")

	assert.Error(t, err)
	assert.False(t, sent)
}

func TestNewTwilioServiceRequiresCredentials(t *testing.T) {
	_, err := NewTwilioService("", "token", "whatsapp:+14155238886", 1500)
	assert.Error(t, err)
}
