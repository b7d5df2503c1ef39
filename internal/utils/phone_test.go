package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrazilianPhone(t *testing.T) {
	tests := []struct {
		name string
		from string
		want PhoneLookup
	}{
		{
			name: "nine digit mobile",
			from: "whatsapp:+5547996077564",
			want: PhoneLookup{DDD2: "47", DDD3: "047", Last8: "96077564", With9: "996077564"},
		},
		{
			name: "eight digit legacy number",
			from: "whatsapp:+554796077564",
			want: PhoneLookup{DDD2: "47", DDD3: "047", Last8: "96077564", With9: "996077564"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseBrazilianPhone(tt.from)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBrazilianPhoneRejectsForeign(t *testing.T) {
	_, ok := ParseBrazilianPhone("whatsapp:+14155238886")
	assert.False(t, ok)

	_, ok = ParseBrazilianPhone("+55479")
	assert.False(t, ok)
}

func TestLocalPhone(t *testing.T) {
	assert.Equal(t, "47996077564", LocalPhone("whatsapp:+5547996077564"))
}
