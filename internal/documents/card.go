package documents

import (
	"regexp"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/models"
)

var cardLine = regexp.MustCompile(`^([^:]+):\s*(.+)$`)

// ToRecord maps "Label: value" lines of a card onto registration columns.
// When a label repeats (several photos), the last value wins.
func ToRecord(card string, s *Schema) models.RegistrationRecord {
	rec := make(models.RegistrationRecord)
	for _, line := range strings.Split(card, "\n") {
		m := cardLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		f, ok := s.Field(m[1])
		if !ok || f.Column == "" {
			continue
		}
		if v := strings.TrimSpace(m[2]); v != "" {
			rec[f.Column] = v
		}
	}
	return rec
}

// HelpText lists the CORRIGIR syntax and the accepted field names
func HelpText(s *Schema) string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.helpName())
	}

	lines := []string{
		"✏️ *Corrigir campos do cartão*",
		"Envie:  *CORRIGIR* campo=valor ; campo2=valor2",
		"Exemplos:",
	}
	lines = append(lines, s.Examples...)
	lines = append(lines, "", "Campos aceitos:", strings.Join(names, ", "))
	return strings.Join(lines, "\n")
}

// Preview wraps the accumulated card with the confirm/correct instructions
func Preview(card string, s *Schema) string {
	if card == "" {
		card = "(vazio)"
	}
	return "🧾 *Prévia dos dados extraídos:*\n" + card +
		"\n\nSe precisar, envie mais fotos. Quando terminar, digite *CONFIRMAR*.\n" +
		"Para editar campos incorretos, use: *CORRIGIR* campo=valor ; campo2=valor2\n" +
		s.Sample + "\n" +
		"Digite *CAMPOS* para ver a lista."
}
