package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Oracle is the semantic matching capability used when exact name
// matching finds no document for a checklist rule
type Oracle interface {
	// Name returns the provider name
	Name() string

	// Match asks which candidate documents satisfy the rule
	Match(ctx context.Context, req MatchRequest) (*MatchAnswer, error)
}

// ModelNamer is implemented by oracles that can report the model they query
type ModelNamer interface {
	ModelName() string
}

// ModelOf returns the model an oracle queries, or "" when it cannot tell
func ModelOf(o Oracle) string {
	if n, ok := o.(ModelNamer); ok {
		return n.ModelName()
	}
	return ""
}

// MatchRequest contains the input for one semantic match
type MatchRequest struct {
	// RuleLabel is the human name of the required document
	RuleLabel string

	// Candidates are the submitted document names, in submission order
	Candidates []string

	// Excerpts maps candidate name to a bounded excerpt of its parsed content
	Excerpts map[string]string
}

// MatchAnswer contains the oracle's decision
type MatchAnswer struct {
	// MatchedNames are the candidate names the oracle chose; empty when None
	MatchedNames []string `json:"matched_names"`

	// None is the explicit "no document matches" sentinel
	None bool `json:"none"`

	// Rationale is the oracle's free-text justification
	Rationale string `json:"rationale"`

	// Model is the model that produced the answer
	Model string `json:"model,omitempty"`

	// TokensUsed tracks token consumption
	TokensUsed int `json:"tokens_used,omitempty"`
}

// Config holds oracle provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout bounds one Match call
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30 * time.Second,
		MaxTokens: 300,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 300
	}
	return c.MaxTokens
}

const systemPrompt = "You match uploaded business documents to checklist requirements. " +
	"You answer only with a single JSON object and never invent document names."

// BuildPrompt constructs the matching prompt for one rule
func BuildPrompt(req MatchRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Required document: %q\n\n", req.RuleLabel)
	b.WriteString("Submitted documents (name, then the beginning of its extracted text):\n")

	if len(req.Candidates) == 0 {
		b.WriteString("(no documents submitted)\n")
	}
	for i, name := range req.Candidates {
		excerpt := req.Excerpts[name]
		if excerpt == "" {
			excerpt = "(no extracted text)"
		}
		fmt.Fprintf(&b, "%d. %q\n   %s\n", i+1, name, excerpt)
	}

	b.WriteString(`
Decide which submitted documents, if any, ARE the required document.

RULES:
1. Only use names exactly as listed above.
2. If no document is the required document, answer with "none": true and an empty list.
3. Judge by content when the file name is ambiguous.

Answer with JSON only:
{"matched_names": ["<name>"], "none": false, "rationale": "<one sentence>"}`)

	return b.String()
}
