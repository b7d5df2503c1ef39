package documents

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/siserv-tech/driverbot-backend/internal/utils"
)

// Patch sets the value of one card field
type Patch struct {
	Label string
	Value string
}

var (
	correctVerb = regexp.MustCompile(`(?i)^\s*corrigir\s*`)
	patchSplit  = regexp.MustCompile(`[;\n]`)
	patchPair   = regexp.MustCompile(`^([^=:]+?)\s*[:=]\s*(.+)$`)
)

// ParseCorrections reads "CORRIGIR campo=valor ; campo2=valor2" into patches.
// Names are matched against the schema aliases, first exactly and then as a
// prefix. Unknown names are skipped; a later patch for the same field wins.
func ParseCorrections(raw string, s *Schema) []Patch {
	body := strings.TrimSpace(correctVerb.ReplaceAllString(raw, ""))
	if body == "" {
		return nil
	}

	var patches []Patch
	index := make(map[string]int)
	for _, part := range patchSplit.Split(body, -1) {
		m := patchPair.FindStringSubmatch(strings.TrimSpace(part))
		if m == nil {
			continue
		}
		f, ok := s.match(m[1])
		if !ok {
			continue
		}
		value := strings.TrimSpace(m[2])
		if i, seen := index[f.Label]; seen {
			patches[i].Value = value
			continue
		}
		index[f.Label] = len(patches)
		patches = append(patches, Patch{Label: f.Label, Value: value})
	}
	return patches
}

func (s *Schema) match(name string) (Field, bool) {
	key := labelKey(name)
	if key == "" {
		return Field{}, false
	}
	for _, f := range s.Fields {
		for _, a := range f.Aliases {
			if a == key {
				return f, true
			}
		}
	}
	for _, f := range s.Fields {
		for _, a := range f.Aliases {
			if strings.HasPrefix(a, key) {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Apply writes every patch into the card. Existing "Label:" lines are
// rewritten in place; a missing line goes under its section heading, or at
// the end. Applying the same patches again leaves the card unchanged.
func Apply(card string, patches []Patch, s *Schema) string {
	for _, p := range patches {
		f, ok := s.Field(p.Label)
		if !ok {
			continue
		}
		card = setLine(card, f, NormalizeValue(f.Kind, p.Value))
	}
	return card
}

func setLine(card string, f Field, value string) string {
	line := fmt.Sprintf("%s: %s", f.Label, value)
	rx := regexp.MustCompile(`(?mi)^` + regexp.QuoteMeta(f.Label) + `:[ \t]*.*$`)
	if rx.MatchString(card) {
		return rx.ReplaceAllLiteralString(card, line)
	}
	if card == "" {
		return line
	}

	lines := strings.Split(card, "\n")
	if f.Section != "" {
		for i, l := range lines {
			if strings.HasPrefix(strings.TrimSpace(l), f.Section) {
				out := make([]string, 0, len(lines)+1)
				out = append(out, lines[:i+1]...)
				out = append(out, line)
				out = append(out, lines[i+1:]...)
				return strings.Join(out, "\n")
			}
		}
	}
	return card + "\n" + line
}

var looseDate = regexp.MustCompile(`(\d{1,2})\D(\d{1,2})\D(\d{2,4})`)

// NormalizeValue formats a typed value the way the card stores it
func NormalizeValue(k Kind, v string) string {
	v = strings.TrimSpace(v)
	switch k {
	case KindCPF:
		d := utils.OnlyDigits(v)
		if len(d) == 11 {
			return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
		}
	case KindCNHRegister:
		d := utils.OnlyDigits(v)
		if len(d) == 10 || len(d) == 11 {
			return d
		}
	case KindDate:
		if m := looseDate.FindStringSubmatch(v); m != nil {
			year := m[3]
			if len(year) == 2 {
				year = "20" + year
			}
			return padZero(m[1], 2) + "/" + padZero(m[2], 2) + "/" + padZero(year, 4)
		}
	}
	return v
}

func padZero(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}
