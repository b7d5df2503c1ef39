package utils

import "strings"

// PhoneLookup holds the variants used to match a Brazilian mobile number against
// contact tables that store DDD and number separately and inconsistently
type PhoneLookup struct {
	DDD2  string // area code without leading zeros
	DDD3  string // area code padded to three digits
	Last8 string
	With9 string // nine-digit mobile form
}

// ParseBrazilianPhone derives lookup variants from a WhatsApp sender address.
// It returns false for anything that is not a +55 number with area code.
func ParseBrazilianPhone(from string) (PhoneLookup, bool) {
	digits := OnlyDigits(StripWhatsAppPrefix(from))
	if !strings.HasPrefix(digits, "55") || len(digits) < 12 {
		return PhoneLookup{}, false
	}

	ddd2 := strings.TrimLeft(digits[2:4], "0")
	ddd3 := ddd2
	for len(ddd3) < 3 {
		ddd3 = "0" + ddd3
	}

	phone := digits[4:]
	last8 := phone
	if len(last8) > 8 {
		last8 = last8[len(last8)-8:]
	}
	last9 := phone
	if len(last9) > 9 {
		last9 = last9[len(last9)-9:]
	}
	with9 := last9
	if len(last9) != 9 {
		with9 = "9" + last8
	}

	return PhoneLookup{DDD2: ddd2, DDD3: ddd3, Last8: last8, With9: with9}, true
}

// LocalPhone strips the country code from a sender address, as stored in
// registration records
func LocalPhone(from string) string {
	digits := OnlyDigits(StripWhatsAppPrefix(from))
	return strings.TrimPrefix(digits, "55")
}
