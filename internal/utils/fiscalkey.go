package utils

import "regexp"

// Model codes carried at positions 21-22 of a fiscal access key
const (
	ModelNFe   = "55"
	ModelCTe   = "57"
	ModelMDFe  = "58"
	ModelNFCe  = "65"
	ModelCTeOS = "67"
)

const accessKeyLength = 44

var accessKeyRun = regexp.MustCompile(`\d{44}`)

// AccessKey is a 44-digit fiscal document key split into its fields
type AccessKey struct {
	Raw       string
	UF        string
	YearMonth string
	CNPJ      string
	Model     string
	Series    string
	Number    string
	EmisType  string
	Control   string
	DV        string
}

// ExtractAccessKey finds the first 44-digit run in the digits of text
func ExtractAccessKey(text string) string {
	return accessKeyRun.FindString(OnlyDigits(text))
}

// AccessKeyDV computes the modulo-11 check digit over the first 43 digits
func AccessKeyDV(key43 string) (int, bool) {
	if len(key43) != accessKeyLength-1 || !IsOnlyDigits(key43) {
		return 0, false
	}
	weight, sum := 2, 0
	for i := len(key43) - 1; i >= 0; i-- {
		sum += int(key43[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	dv := 11 - sum%11
	if dv >= 10 {
		dv = 0
	}
	return dv, true
}

// ValidAccessKey checks length and check digit
func ValidAccessKey(key string) bool {
	k := OnlyDigits(key)
	if len(k) != accessKeyLength {
		return false
	}
	dv, ok := AccessKeyDV(k[:43])
	return ok && dv == int(k[43]-'0')
}

// ParseAccessKey splits a key into its fields; ok is false when it is not 44 digits
func ParseAccessKey(key string) (AccessKey, bool) {
	k := OnlyDigits(key)
	if len(k) != accessKeyLength {
		return AccessKey{}, false
	}
	return AccessKey{
		Raw:       k,
		UF:        k[0:2],
		YearMonth: k[2:6],
		CNPJ:      k[6:20],
		Model:     k[20:22],
		Series:    k[22:25],
		Number:    k[25:34],
		EmisType:  k[34:35],
		Control:   k[35:43],
		DV:        k[43:44],
	}, true
}
