package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantNames []string
		wantNone  bool
		wantErr   error
	}{
		{
			name:      "plain object",
			content:   `{"matched_names": ["a.pdf", "b.pdf"], "none": false, "rationale": "r"}`,
			wantNames: []string{"a.pdf", "b.pdf"},
		},
		{
			name:      "code fence",
			content:   "```json\n{\"matched_names\": [\"a.pdf\"], \"none\": false}\n```",
			wantNames: []string{"a.pdf"},
		},
		{
			name:      "surrounding prose",
			content:   `Here you go: {"matched_names": "a.pdf"} hope it helps`,
			wantNames: []string{"a.pdf"},
		},
		{
			name:     "none sentinel",
			content:  `{"matched_names": [], "none": true}`,
			wantNone: true,
		},
		{
			name:     "null names",
			content:  `{"matched_names": null}`,
			wantNone: true,
		},
		{
			name:     "literal none string",
			content:  `{"matched_names": ["None", " "]}`,
			wantNone: true,
		},
		{
			name:    "none with names",
			content: `{"matched_names": ["a.pdf"], "none": true}`,
			wantErr: ErrMalformedAnswer,
		},
		{
			name:    "no object",
			content: "a.pdf",
			wantErr: ErrMalformedAnswer,
		},
		{
			name:    "wrong type",
			content: `{"matched_names": 42}`,
			wantErr: ErrMalformedAnswer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := ParseAnswer(tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if answer.None != tt.wantNone {
				t.Errorf("None = %v, want %v", answer.None, tt.wantNone)
			}
			if strings.Join(answer.MatchedNames, ",") != strings.Join(tt.wantNames, ",") {
				t.Errorf("MatchedNames = %v, want %v", answer.MatchedNames, tt.wantNames)
			}
		})
	}
}

func TestBuildPrompt_ListsCandidatesInOrder(t *testing.T) {
	prompt := BuildPrompt(testMatchRequest())

	if !strings.Contains(prompt, `"Contrato Social"`) {
		t.Error("Prompt missing rule label")
	}
	first := strings.Index(prompt, "estatuto.pdf")
	second := strings.Index(prompt, "rg.pdf")
	if first < 0 || second < 0 || first > second {
		t.Errorf("Candidates not listed in submission order:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Estatuto social da empresa XYZ") {
		t.Error("Prompt missing excerpt")
	}
}

func TestBuildPrompt_NoCandidates(t *testing.T) {
	prompt := BuildPrompt(MatchRequest{RuleLabel: "RG"})
	if !strings.Contains(prompt, "(no documents submitted)") {
		t.Errorf("Expected empty candidate marker:\n%s", prompt)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.Provider != "" {
		t.Errorf("Expected oracle disabled by default, got %q", config.Provider)
	}
	if config.maxTokens() != 300 {
		t.Errorf("Expected 300 max tokens, got %d", config.maxTokens())
	}
}
