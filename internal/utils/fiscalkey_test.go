package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cteKey = "42240112345678000195570010000012341123456787"
	nfeKey = "42240112345678000195550010000043211123456780"
)

func TestValidAccessKey(t *testing.T) {
	assert.True(t, ValidAccessKey(cteKey))
	assert.True(t, ValidAccessKey(nfeKey))
	assert.False(t, ValidAccessKey(cteKey[:43]+"0"))
	assert.False(t, ValidAccessKey(cteKey[:40]))
}

func TestExtractAccessKey(t *testing.T) {
	spaced := "Chave: 4224 0112 3456 7800 0195 5700 1000 0012 3411 2345 6787"
	assert.Equal(t, cteKey, ExtractAccessKey(spaced))
	assert.Equal(t, "", ExtractAccessKey("pedido 12345"))
}

func TestParseAccessKey(t *testing.T) {
	k, ok := ParseAccessKey(cteKey)
	require.True(t, ok)
	assert.Equal(t, "42", k.UF)
	assert.Equal(t, "12345678000195", k.CNPJ)
	assert.Equal(t, ModelCTe, k.Model)
	assert.Equal(t, "7", k.DV)

	k, ok = ParseAccessKey(nfeKey)
	require.True(t, ok)
	assert.Equal(t, ModelNFe, k.Model)

	_, ok = ParseAccessKey("123")
	assert.False(t, ok)
}
