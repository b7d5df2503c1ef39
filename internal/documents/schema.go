// Package documents turns the text cards produced by document extraction into
// registration records, and applies the corrections drivers type in chat.
package documents

import (
	"regexp"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// Kind selects how a corrected value is normalised before it is written
type Kind int

const (
	KindText Kind = iota
	KindCPF
	KindDate
	KindCNHRegister
)

// Field is one labelled line of a card
type Field struct {
	Label   string   // as written on the card, e.g. "Data de nascimento"
	Aliases []string // accepted names in CORRIGIR, compared without accents
	Column  string   // registration record key; empty when the field is not persisted
	Section string   // heading the line is inserted under when missing
	Kind    Kind
	Hint    string // name shown in the help list, defaults to the lowercase label
}

func (f Field) helpName() string {
	if f.Hint != "" {
		return f.Hint
	}
	return strings.ToLower(f.Label)
}

// Schema describes one document type
type Schema struct {
	Name     string
	Fields   []Field
	Examples []string // CORRIGIR examples shown in the help text
	Sample   string   // single example shown under the preview
}

// Field returns the field with the given card label
func (s *Schema) Field(label string) (Field, bool) {
	key := labelKey(label)
	for _, f := range s.Fields {
		if labelKey(f.Label) == key {
			return f, true
		}
	}
	return Field{}, false
}

var spaces = regexp.MustCompile(`\s+`)

// labelKey is the accent-free, upper-case, single-spaced form used to compare labels
func labelKey(s string) string {
	return spaces.ReplaceAllString(utils.CommandKey(s), " ")
}

const (
	sectionIdentity = "📇 Identificação"
	sectionDocument = "🆔 Documento"
	sectionValidity = "📅 Validade e emissão"
	sectionClasses  = "🚗"
	sectionIssuer   = "🏛"
)

// PersonSchema is the driver identity / CNH card
var PersonSchema = &Schema{
	Name: "pessoa",
	Fields: []Field{
		{Label: "Nome", Aliases: []string{"NOME"}, Column: "NOME", Section: sectionIdentity},
		{Label: "Data de nascimento", Aliases: []string{"NASCIMENTO", "DATA DE NASCIMENTO"}, Column: "DATANASC", Section: sectionIdentity, Kind: KindDate},
		{Label: "Local de nascimento", Aliases: []string{"LOCAL", "LOCAL DE NASCIMENTO"}, Column: "CIDADENASC", Section: sectionIdentity},
		{Label: "Nacionalidade", Aliases: []string{"NACIONALIDADE"}, Column: "NACIONALIDADE", Section: sectionIdentity},
		{Label: "Pai", Aliases: []string{"PAI"}, Column: "FIL_PAI", Section: sectionIdentity},
		{Label: "Mãe", Aliases: []string{"MAE"}, Column: "FIL_MAE", Section: sectionIdentity},
		{Label: "Registro", Aliases: []string{"REGISTRO", "RG"}, Column: "RG", Section: sectionDocument, Hint: "registro (RG)"},
		{Label: "CPF", Aliases: []string{"CPF"}, Column: "CPF", Section: sectionDocument, Kind: KindCPF},
		{Label: "Categoria Habilitação", Aliases: []string{"CATEGORIA", "CATEGORIA HABILITACAO"}, Column: "CNH_CAT", Section: sectionDocument},
		{Label: "Número de registro CNH", Aliases: []string{"CNH", "NUMERO DE REGISTRO CNH"}, Column: "CNH_REGISTRO", Section: sectionDocument, Kind: KindCNHRegister},
		{Label: "Data da 1ª habilitação", Aliases: []string{"1HAB", "PRIMEIRA HABILITACAO", "DATA DA 1ª HABILITACAO"}, Column: "CNH_DATA1CNH", Section: sectionDocument, Kind: KindDate},
		{Label: "Data de emissão", Aliases: []string{"EMISSAO", "DATA DE EMISSAO"}, Column: "CNH_DATAEMISSAO", Section: sectionValidity, Kind: KindDate},
		{Label: "Validade", Aliases: []string{"VALIDADE"}, Column: "CNH_DATAVCTO", Section: sectionValidity, Kind: KindDate},
		{Label: "Categorias", Aliases: []string{"CATEGORIAS"}, Section: sectionClasses},
		{Label: "UF", Aliases: []string{"UF"}, Column: "UFEXPEDICAO", Section: sectionIssuer},
		{Label: "Local de emissão", Aliases: []string{"LOCAL DE EMISSAO", "CIDADE"}, Column: "CIDADEEXPEDICAO", Section: sectionIssuer},
		{Label: "Código", Aliases: []string{"CODIGO"}, Column: "ORGAOEMISSOR", Section: sectionIssuer},
	},
	Examples: []string{
		"• CORRIGIR nome=JOÃO DA SILVA ; cpf=12345678901 ; nascimento=31/12/1990",
		"• CORRIGIR registro=3274081",
		"• CORRIGIR categorias=ACC, A1, A, B1, B",
	},
	Sample: "Ex.: *CORRIGIR* nome=MARIA ; cpf=12345678901 ; nascimento=10/01/1985",
}

// VehicleSchema is the vehicle registration (CRLV) card
var VehicleSchema = &Schema{
	Name: "veiculo",
	Fields: []Field{
		{Label: "Placa", Aliases: []string{"PLACA"}, Column: "PLACA"},
		{Label: "Renavam", Aliases: []string{"RENAVAM"}, Column: "RENAVAN"},
		{Label: "Ano exercício", Aliases: []string{"ANO EXERCICIO"}, Column: "ANOEXERCICIO"},
		{Label: "Ano modelo", Aliases: []string{"ANO MODELO"}, Column: "ANOMODELO"},
		{Label: "Ano fabricação", Aliases: []string{"ANO FABRICACAO"}, Column: "ANOFABRICACAO"},
		{Label: "Categoria", Aliases: []string{"CATEGORIA"}, Column: "CATEGORIA"},
		{Label: "Capacidade", Aliases: []string{"CAPACIDADE"}, Column: "CAPACIDADE"},
		{Label: "Potência", Aliases: []string{"POTENCIA"}, Column: "POTENCIA"},
		{Label: "Peso bruto", Aliases: []string{"PESO BRUTO"}, Column: "PESOBRUTO"},
		{Label: "Motor", Aliases: []string{"MOTOR"}, Column: "MOTOR"},
		{Label: "CMT", Aliases: []string{"CMT"}, Column: "CMT"},
		{Label: "Eixos", Aliases: []string{"EIXOS"}, Column: "EIXOS"},
		{Label: "Lotação", Aliases: []string{"LOTACAO"}, Column: "LOTACAO"},
		{Label: "Carroceria", Aliases: []string{"CARROCERIA"}, Column: "CARROCERIA"},
		{Label: "Nome", Aliases: []string{"NOME"}, Column: "NOME"},
		{Label: "CPF/CNPJ", Aliases: []string{"CPF/CNPJ"}, Column: "CPFCNPJ"},
		{Label: "Local", Aliases: []string{"LOCAL"}, Column: "LOCALIDADE"},
		{Label: "Data", Aliases: []string{"DATA"}, Column: "DATA_LANC", Kind: KindDate},
		{Label: "Código CLA", Aliases: []string{"CODIGO CLA"}, Column: "CODIGOCLA"},
		{Label: "Cat", Aliases: []string{"CAT"}, Column: "CAT"},
		{Label: "Marca/modelo", Aliases: []string{"MARCA/MODELO"}, Column: "MARCA_MODELO"},
		{Label: "Espécie/tipo", Aliases: []string{"ESPECIE/TIPO"}, Column: "ESPECIE_TIPO"},
		{Label: "Placa anterior", Aliases: []string{"PLACA ANTERIOR"}, Column: "PLACAANTERIOR"},
		{Label: "Chassi", Aliases: []string{"CHASSI"}, Column: "CHASSI"},
		{Label: "Cor", Aliases: []string{"COR"}, Column: "COR"},
		{Label: "Combustível", Aliases: []string{"COMBUSTIVEL"}, Column: "COMBUSTIVEL"},
		{Label: "Obs", Aliases: []string{"OBS"}, Column: "OBS"},
	},
	Examples: []string{
		"• CORRIGIR placa=ABC1D23 ; renavam=123456789",
		"• CORRIGIR cor=AZUL",
	},
	Sample: "Ex.: *CORRIGIR* placa=ABC1D23 ; renavam=123456789",
}
