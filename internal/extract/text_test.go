package extract

import (
	"strings"
	"testing"
)

func TestVisibleText_PlainTextUnchanged(t *testing.T) {
	tests := []string{
		"CONTRATO SOCIAL da empresa",
		"capital < 100.000 e prazo > 12 meses",
		"",
	}

	for _, content := range tests {
		if got := VisibleText(content); got != content {
			t.Errorf("VisibleText(%q) = %q, want unchanged", content, got)
		}
	}
}

func TestVisibleText_StripsMarkup(t *testing.T) {
	content := `<html><head><style>p{color:red}</style></head>
<body><h1>Cartão CNPJ</h1><script>track()</script><p>Situação: <b>ATIVA</b></p></body></html>`

	got := VisibleText(content)

	if strings.Contains(got, "<") || strings.Contains(got, "track") || strings.Contains(got, "color") {
		t.Errorf("markup or script leaked into text: %q", got)
	}
	for _, want := range []string{"Cartão CNPJ", "Situação:", "ATIVA"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestExcerpt_HTMLContent(t *testing.T) {
	got := Excerpt("<div><p>Alvará   de</p><p>funcionamento</p></div>", 500)
	if got != "Alvará de funcionamento" {
		t.Errorf("unexpected excerpt: %q", got)
	}
}
