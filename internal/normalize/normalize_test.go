package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"accents and case", "Cartão CNPJ", "cartao cnpj"},
		{"separators", "cartao-cnpj.pdf", "cartao cnpj pdf"},
		{"underscores", "RG_frente_verso.pdf", "rg frente verso pdf"},
		{"slashes", "docs/contrato\\social", "docs contrato social"},
		{"punctuation dropped", "Contrato (Social)!", "contrato social"},
		{"repeated whitespace", "  Balanço \t  Patrimonial  ", "balanco patrimonial"},
		{"only punctuation", "---...", ""},
		{"cedilla", "Certidão de Regularidade FGTS", "certidao de regularidade fgts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.in))
		})
	}
}

func TestName_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Cartão CNPJ",
		"RG_frente_verso.pdf",
		"  Ünïcödé --- Ñame ",
		"İstanbul",
		"a..b__c//d",
		"日本語 ドキュメント",
		" non breaking",
	}

	for _, in := range inputs {
		once := Name(in)
		assert.Equal(t, once, Name(once), "normalize not idempotent for %q", in)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(Name("cartao-cnpj.pdf"), Name("Cartão CNPJ")))
	assert.True(t, Contains(Name("RG"), Name("RG_frente_verso.pdf")))
	assert.False(t, Contains(Name("Contrato Social"), Name("balanco.pdf")))
	assert.False(t, Contains("", "anything"))
	assert.False(t, Contains("anything", ""))
}
