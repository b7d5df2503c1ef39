package tenantdb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/siserv-tech/driverbot-backend/internal/models"
	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

type personColumn struct {
	name    string
	sources []string
	isoDate bool
}

// TABPRECAD_PESSOA columns, each filled from the first non-empty source key
var personColumns = []personColumn{
	{name: "NOME", sources: []string{"NOME"}},
	{name: "CNH_DATAEMISSAO", sources: []string{"CNH_DATAEMISSAO"}, isoDate: true},
	{name: "CNH_DATA1CNH", sources: []string{"CNH_DATA1CNH"}, isoDate: true},
	{name: "CNH_DATAVCTO", sources: []string{"CNH_DATAVCTO"}, isoDate: true},
	{name: "DATANASC", sources: []string{"DATANASC"}, isoDate: true},
	{name: "CIDADENASC", sources: []string{"CIDADENASC"}},
	{name: "UFEMISSOR", sources: []string{"UFEMISSOR", "UFEXPEDICAO", "UF"}},
	{name: "ORGAOEMISSOR", sources: []string{"ORGAOEMISSOR"}},
	{name: "RG", sources: []string{"RG"}},
	{name: "CPF", sources: []string{"CPF"}},
	{name: "CNH_REGISTRO", sources: []string{"CNH_REGISTRO", "CNH_REG_11", "CNH_REG_10"}},
	{name: "CNH_CAT", sources: []string{"CNH_CAT"}},
	{name: "NACIONALIDADE", sources: []string{"NACIONALIDADE"}},
	{name: "FIL_PAI", sources: []string{"FIL_PAI"}},
	{name: "FIL_MAE", sources: []string{"FIL_MAE"}},
	{name: "CNH_PROTOCOLO", sources: []string{"CNH_PROTOCOLO"}},
	{name: "CIDADEEXPEDICAO", sources: []string{"CIDADEEXPEDICAO", "LOCAL_EMISSAO"}},
	{name: "UFEXPEDICAO", sources: []string{"UFEXPEDICAO", "UF"}},
	{name: "CNH_SEGURO", sources: []string{"CNH_SEGURO"}},
	{name: "TELEFONE", sources: []string{"TELEFONE"}},
}

// minimal subset tried when the full insert is rejected by an older schema
var personFallbackColumns = []string{"NOME", "CPF", "TELEFONE", "LINK"}

var brDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// isoDate turns DD/MM/YYYY into YYYY-MM-DD and keeps anything else
func isoDate(v string) string {
	if m := brDate.FindStringSubmatch(v); m != nil {
		return m[3] + "-" + m[2] + "-" + m[1]
	}
	return v
}

// SubmitPerson inserts a driver pre-registration
func (r *Repository) SubmitPerson(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error {
	upper := make(map[string]string, len(rec))
	for k, v := range rec {
		upper[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	var cols []string
	var vals []interface{}
	values := make(map[string]interface{})
	for _, c := range personColumns {
		for _, src := range c.sources {
			v := upper[src]
			if v == "" {
				continue
			}
			if c.isoDate {
				v = isoDate(v)
			}
			values[c.name] = v
			cols = append(cols, c.name)
			vals = append(vals, v)
			break
		}
	}
	if link != "" {
		values["LINK"] = link
		cols = append(cols, "LINK")
		vals = append(vals, link)
	}
	if len(cols) == 0 {
		return ErrNoData
	}
	now := r.now()
	cols = append(cols, "DATAREG", "DATAALT")
	vals = append(vals, now, now)

	err := r.insert(ctx, t, "TABPRECAD_PESSOA", cols, vals)
	if err == nil {
		return nil
	}
	log.Warn().Err(err).Int64("tenant_id", t.ID).Msg("⚠️ TABPRECAD_PESSOA: fallback subset")

	var minCols []string
	var minVals []interface{}
	for _, c := range personFallbackColumns {
		if v, ok := values[c]; ok {
			minCols = append(minCols, c)
			minVals = append(minVals, v)
		}
	}
	if len(minCols) == 0 {
		return fmt.Errorf("failed to save pre-registration: %w", err)
	}
	if err := r.insert(ctx, t, "TABPRECAD_PESSOA", minCols, minVals); err != nil {
		return fmt.Errorf("failed to save pre-registration: %w", err)
	}
	return nil
}

type vehicleKind int

const (
	vehicleText vehicleKind = iota
	vehicleInt
	vehicleDate
)

type vehicleColumn struct {
	name   string
	kind   vehicleKind
	maxLen int
}

// TABPRECAD_VEICULO columns in insert order
var vehicleColumns = []vehicleColumn{
	{name: "PLACA", maxLen: 10},
	{name: "RENAVAN", maxLen: 30},
	{name: "ANOEXERCICIO", kind: vehicleInt},
	{name: "ANOMODELO", kind: vehicleInt},
	{name: "ANOFABRICACAO", kind: vehicleInt},
	{name: "CATEGORIA", maxLen: 100},
	{name: "CAPACIDADE", maxLen: 50},
	{name: "POTENCIA", maxLen: 50},
	{name: "PESOBRUTO", maxLen: 50},
	{name: "MOTOR", maxLen: 50},
	{name: "CMT", maxLen: 50},
	{name: "EIXOS", kind: vehicleInt},
	{name: "LOTACAO", maxLen: 50},
	{name: "CARROCERIA", maxLen: 50},
	{name: "NOME", maxLen: 150},
	{name: "CPFCNPJ", maxLen: 20},
	{name: "LOCALIDADE", maxLen: 50},
	{name: "DATA_LANC", kind: vehicleDate},
	{name: "CODIGOCLA", maxLen: 50},
	{name: "CAT", maxLen: 50},
	{name: "MARCA_MODELO", maxLen: 50},
	{name: "ESPECIE_TIPO", maxLen: 50},
	{name: "PLACAANTERIOR", maxLen: 10},
	{name: "CHASSI", maxLen: 50},
	{name: "COR", maxLen: 50},
	{name: "COMBUSTIVEL", maxLen: 50},
	{name: "OBS", maxLen: 500},
	{name: "DATAALT", kind: vehicleDate},
	{name: "LINK", maxLen: 500},
}

// OCR and card spellings mapped onto TABPRECAD_VEICULO columns
var vehicleAliases = map[string]string{
	"placa_atual":    "PLACA",
	"placa_anterior": "PLACAANTERIOR",
	"placa_antiga":   "PLACAANTERIOR",
	"renavam":        "RENAVAN",
	"renavam_numero": "RENAVAN",
	"ano_exercicio":  "ANOEXERCICIO",
	"ano_modelo":     "ANOMODELO",
	"ano_fabricacao": "ANOFABRICACAO",
	"peso_bruto":     "PESOBRUTO",
	"proprietario":   "NOME",
	"cpf":            "CPFCNPJ",
	"cnpj":           "CPFCNPJ",
	"cpf_cnpj":       "CPFCNPJ",
	"local":          "LOCALIDADE",
	"municipio":      "LOCALIDADE",
	"data":           "DATA_LANC",
	"data_emissao":   "DATA_LANC",
	"codigo_cla":     "CODIGOCLA",
	"marca":          "MARCA_MODELO",
	"modelo":         "MARCA_MODELO",
	"marca_modelo":   "MARCA_MODELO",
	"especie":        "ESPECIE_TIPO",
	"especie_tipo":   "ESPECIE_TIPO",
	"observacoes":    "OBS",
}

var leadingDigits = regexp.MustCompile(`^\s*(\d+)`)

func leadingInt(v string) (int, bool) {
	m := leadingDigits.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

var looseDate = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})`)

// parseLooseDate reads d/m/yy style dates; two-digit years are 20yy
func parseLooseDate(v string) (time.Time, bool) {
	m := looseDate.FindStringSubmatch(v)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := m[3]
	if len(year) == 2 {
		year = "20" + year
	}
	y, _ := strconv.Atoi(year)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// vehicleColumnFor maps an incoming key to a known column
func vehicleColumnFor(key string) (vehicleColumn, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	name := strings.ToUpper(k)
	if alias, ok := vehicleAliases[k]; ok {
		name = alias
	}
	for _, c := range vehicleColumns {
		if c.name == name {
			return c, true
		}
	}
	return vehicleColumn{}, false
}

// SubmitVehicle inserts a vehicle pre-registration, coercing integers and dates
// and cutting text to the VARCHAR sizes
func (r *Repository) SubmitVehicle(ctx context.Context, t *models.Tenant, rec models.RegistrationRecord, link string) error {
	byColumn := make(map[string]string)
	for k, v := range rec {
		c, ok := vehicleColumnFor(k)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, seen := byColumn[c.name]; !seen {
			byColumn[c.name] = strings.TrimSpace(v)
		}
	}
	if link != "" {
		byColumn["LINK"] = link
	}

	cols := []string{"DATAREG"}
	vals := []interface{}{r.now()}
	for _, c := range vehicleColumns {
		v, ok := byColumn[c.name]
		if !ok {
			continue
		}
		switch c.kind {
		case vehicleInt:
			n, ok := leadingInt(v)
			if !ok {
				continue
			}
			cols, vals = append(cols, c.name), append(vals, n)
		case vehicleDate:
			d, ok := parseLooseDate(v)
			if !ok {
				continue
			}
			cols, vals = append(cols, c.name), append(vals, d)
		default:
			cols, vals = append(cols, c.name), append(vals, utils.Truncate(v, c.maxLen))
		}
	}
	if len(cols) == 1 {
		return ErrNoData
	}

	if err := r.insert(ctx, t, "TABPRECAD_VEICULO", cols, vals); err != nil {
		return fmt.Errorf("failed to save vehicle registration: %w", err)
	}
	return nil
}

func (r *Repository) insert(ctx context.Context, t *models.Tenant, table string, cols []string, vals []interface{}) error {
	query, args, err := toSQL(sq.Insert(table).Columns(cols...).Values(vals...))
	if err != nil {
		return err
	}
	log.Debug().Int64("tenant_id", t.ID).Str("table", table).Strs("columns", cols).Msg("Insert pre-registration")

	return r.withConn(ctx, t, func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
}
