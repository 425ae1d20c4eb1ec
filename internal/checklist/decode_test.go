package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/triagem/internal/model"
)

func TestDecode_JSONDefaults(t *testing.T) {
	data := `{
		"version": "2024-05",
		"phase_mapping": {"approved": "phase-ok", "PendingBlocking": "phase-blocked"},
		"rules": [
			{"label": " Contrato Social "},
			{"label": "Cartão CNPJ", "required": true, "blocking_if_invalid": false,
			 "auto_generable": true, "registry_document": true, "action_on_violation": "generate"},
			{"label": "Procuração", "required": false, "validate_expiry": true,
			 "required_fields": ["outorgante"]}
		]
	}`

	cl, err := Decode("checklist.json", []byte(data))
	require.NoError(t, err)

	assert.Equal(t, "2024-05", cl.Version)
	assert.Equal(t, map[model.Status]string{
		model.StatusApproved:        "phase-ok",
		model.StatusPendingBlocking: "phase-blocked",
	}, cl.PhaseMapping)

	require.Len(t, cl.Rules, 3)
	assert.Equal(t, model.ChecklistRule{
		Label: "Contrato Social", Required: true, BlockingIfInvalid: true,
	}, cl.Rules[0])
	assert.Equal(t, model.ChecklistRule{
		Label: "Cartão CNPJ", Required: true, BlockingIfInvalid: false,
		AutoGenerable: true, RegistryDocument: true, ActionOnViolation: "generate",
	}, cl.Rules[1])
	assert.False(t, cl.Rules[2].Required)
	assert.True(t, cl.Rules[2].BlockingIfInvalid)
	assert.True(t, cl.Rules[2].ValidateExpiry)
	assert.Equal(t, []string{"outorgante"}, cl.Rules[2].RequiredFields)
}

func TestDecode_YAMLByExtension(t *testing.T) {
	data := `
version: y1
rules:
  - label: RG
    validate_expiry: true
  - label: Comprovante de Endereço
    required: false
`
	for _, name := range []string{"c.yaml", "C.YML", "https://example.com/c.yaml?x=1"} {
		cl, err := Decode(name, []byte(data))
		require.NoError(t, err, name)
		require.Len(t, cl.Rules, 2)
		assert.True(t, cl.Rules[0].ValidateExpiry)
		assert.False(t, cl.Rules[1].Required)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := map[string]string{
		"syntax":          `{"rules": [`,
		"no rules":        `{"version": "x"}`,
		"empty label":     `{"rules": [{"label": "  "}]}`,
		"duplicate label": `{"rules": [{"label": "RG"}, {"label": "RG"}]}`,
		"unknown status":  `{"rules": [{"label": "RG"}], "phase_mapping": {"Done": "p"}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("c.json", []byte(data))
			assert.ErrorIs(t, err, ErrMalformedChecklist)
		})
	}
}

func TestMergePhaseMapping(t *testing.T) {
	base := map[model.Status]string{
		model.StatusApproved:           "a",
		model.StatusPendingNonBlocking: "n",
	}
	merged, err := MergePhaseMapping(base, map[string]string{
		"approved":           "a2",
		"PendingNonBlocking": "",
		"pendingblocking":    "b",
	})
	require.NoError(t, err)

	assert.Equal(t, map[model.Status]string{
		model.StatusApproved:        "a2",
		model.StatusPendingBlocking: "b",
	}, merged)
	assert.Equal(t, "a", base[model.StatusApproved], "base must not be mutated")

	_, err = MergePhaseMapping(nil, map[string]string{"bogus": "x"})
	assert.Error(t, err)
}
