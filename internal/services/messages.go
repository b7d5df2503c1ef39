package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

const (
	msgTenantNotConfigured = "⚠️ Número do atendente não configurado. Contate o suporte."
	msgTenantMisconfigured = "⚠️ Conexão do cliente não configurada. Contate o suporte."
	msgMenuNotConfigured   = "⚠️ Menu não configurado para este cliente. Cadastre MENUS e MENU_OPCOES."
	msgStatusUnavailable   = "⚠️ Não foi possível verificar seu cadastro agora. Tente novamente em instantes."
	msgMenuUnavailable     = "⚠️ Não foi possível carregar o menu agora. Tente novamente em instantes."
	msgPendingRegistration = "Esse numero de telefone esta em pre-cadastro, aguarde aprovacao"
	msgSupportContact      = "Entre em contato com esse número para ter suporte : %s"
	msgNoOptions           = "⚠️ Não há opções configuradas para a tela '%s'. Cadastre MENU_OPCOES (MENU_ID=%d, CHAVE_PAI='%s')."
	msgOptionWithoutTarget = "⚠️ Esta opção ainda não foi configurada."
	msgSendInformation     = "Ok! Envie as informações solicitadas."
	msgInternalError       = "⚠️ Erro interno no servidor. Tente novamente em instantes."
	msgCancelled           = "🚫 Operação cancelada. Digite *MENU* para opções."

	msgDigitsOnly          = "❗ Digite apenas números (ex.: 12345)."
	msgNotResponsible      = "❌ Você não é o motorista responsável por esta entrega."
	msgDeliveryNotFound    = "❌ Entrega %s não encontrada para este CPF/CNPJ."
	msgDeliveryLookupError = "⚠️ Erro ao consultar entrega. Tente novamente em instantes."

	msgReasonRequired      = "❗ Informe o motivo da ocorrência (texto obrigatório)."
	msgOccurrenceNoDriver  = "❌ Entrega %d não encontrada ou sem motorista vinculada."
	msgOccurrenceSaved     = "✅ Ocorrência registrada com sucesso."
	msgOccurrenceFailed    = "⚠️ Falha ao registrar ocorrência. Tente novamente mais tarde."

	msgCTeKeyMissing       = "⚠️ Não consegui extrair a *chave de 44 dígitos* do CT-e. Envie novamente."
	msgCTeBadCheckDigit    = "❌ Chave inválida (DV incorreto)."
	msgCTeWrongModel       = "❗ Esta chave não é de CT-e."
	msgCTeNotLinked        = "❌ CT-e não encontrado ou sem pedido vinculado."
	msgCTeDeliveryNotFound = "❌ Entrega não encontrada para esta chave."
	msgCTeLookupError      = "⚠️ Erro ao consultar CT-e. Tente novamente em instantes."
	msgCTeConfirmQuestion  = "\n\nDeseja dar baixa nesta entrega? Responda *sim* ou *não*."
	msgBaixaDone           = "✅ Baixa registrada com sucesso."
	msgBaixaCancelled      = "Operação cancelada."

	msgUnsupportedMedia    = "⚠️ Envie apenas *imagem* (JPG/PNG) ou *PDF* do %s."
	msgFileFailed          = "⚠️ Não consegui processar este arquivo. Verifique nitidez/iluminação ou envie em PDF."
	msgCorrectionsApplied  = "✅ Correções aplicadas.\n\n"
	msgRegistrationDone    = "✅ Cadastro concluído com sucesso."
)

var askPrompts = map[models.FixedState]string{
	models.StateAwaitEntrega:   "🧾 Informe o *número da entrega* (apenas números).",
	models.StateAwaitOco:       "Para qual pedido deseja fazer a ocorrência? Digite o número do pedido",
	models.StateAwaitOcoMotivo: "Qual o motivo da ocorrência? (digite um texto curto).",
	models.StateAwaitCTeMedia:  "📦 *Baixa de entrega*\nEnvie a *imagem* ou *PDF* do CT-e, ou cole a *chave de 44 dígitos* do CT-e.\nPara retornar ao menu, digite *menu*.",
	models.StateAwaitIDMedia:   "🪪 *Cadastro de motorista*\nEnvie a foto da *frente* e/ou *verso* da identidade/CNH. Quando terminar, digite *CONFIRMAR*. Para cancelar, *CANCELAR*.",
	models.StateAwaitVehicle:   "🚚 *Cadastro de veículo*\nEnvie a foto ou PDF do *documento do veículo*. Quando terminar, digite *CONFIRMAR*. Para cancelar, *CANCELAR*.",
	models.StateAwaitBaixa:     "❓ Deseja confirmar a baixa? Responda *sim* para confirmar ou *não* para cancelar.",
}

// AskPrompt returns the fixed prompt of an ask-state
func AskPrompt(st models.FixedState) (string, bool) {
	p, ok := askPrompts[st]
	return p, ok
}

// RenderMenu lists the options of a node under the menu title
func RenderMenu(title string, opts []models.MenuOption) string {
	lines := make([]string, 0, len(opts)+3)
	if t := strings.TrimSpace(title); t != "" {
		lines = append(lines, "📋 "+t)
	} else {
		lines = append(lines, "📋 Escolha uma opção digitando o número:")
	}
	for _, o := range opts {
		if o.Key != "" && o.Label != "" {
			lines = append(lines, o.Key+" - "+o.Label)
		}
	}
	lines = append(lines, "", "⚠️ Para retornar ao menu digite 'menu'")
	return strings.Join(lines, "\n")
}

// FallbackMenu is offered to senders missing from the roster
func FallbackMenu() string {
	return strings.Join([]string{
		"⚠️ Número não cadastrado.",
		"1 - Cadastrar motorista",
		"2 - Cadastrar veículo",
		"0 - Falar com suporte",
	}, "\n")
}

// StaticMenu is sent by the fast path when the tenant menu cannot be loaded
func StaticMenu() string {
	return strings.Join([]string{
		"📋 Escolha uma opção digitando o número:",
		"1 Detalhes da entrega",
		"2 Registrar ocorrência",
		"3 Enviar CT-e",
		"4 Enviar doc. motorista",
		"5 Enviar doc. veículo",
	}, "\n")
}

// FormatDelivery renders the delivery card; typed is shown when the record
// carries no number
func FormatDelivery(d *models.Delivery, typed string) string {
	number := typed
	if d.Number != 0 {
		number = strconv.FormatInt(d.Number, 10)
	}
	if number == "" {
		number = "-"
	}

	lines := []string{fmt.Sprintf("📦 *Entrega %s*", number)}
	if v := strings.TrimSpace(d.DriverName.String); v != "" {
		lines = append(lines, "🧑‍✈️ Motorista: "+v)
	}
	if v := strings.TrimSpace(d.Plate.String); v != "" {
		lines = append(lines, "🚚 Placa: "+v)
	}
	if d.TotalValue.Valid && d.TotalValue.Float64 != 0 {
		lines = append(lines, "💰 Valor: "+FormatBRL(d.TotalValue.Float64))
	}
	if t, ok := d.PlannedDate(); ok {
		lines = append(lines, "📅 Prev. Coleta: "+t.Format("02/01/2006"))
	}
	if d.DateTime.Valid {
		lines = append(lines, "📅 Prev. Entrega: "+d.DateTime.Time.Format("02/01/2006 15:04"))
	}
	return strings.Join(lines, "\n")
}

// FormatBRL writes an amount as Brazilian currency, e.g. R$ 1.530,50
func FormatBRL(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), cents%100)
}
