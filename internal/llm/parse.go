package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// nameList accepts null, a single string or a list of strings
type nameList []string

func (n *nameList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*n = nil
		return nil
	}

	if strings.HasPrefix(trimmed, `"`) {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*n = nameList{single}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*n = many
	return nil
}

type rawAnswer struct {
	MatchedNames nameList `json:"matched_names"`
	None         bool     `json:"none"`
	Rationale    string   `json:"rationale"`
}

// ParseAnswer extracts a MatchAnswer from model output.
// Markdown code fences and text around the JSON object are tolerated.
func ParseAnswer(content string) (*MatchAnswer, error) {
	body, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var raw rawAnswer
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}

	var names []string
	for _, name := range raw.MatchedNames {
		name = strings.TrimSpace(name)
		if name == "" || strings.EqualFold(name, "none") {
			continue
		}
		names = append(names, name)
	}

	if raw.None && len(names) > 0 {
		return nil, fmt.Errorf("%w: none sentinel set together with %d names", ErrMalformedAnswer, len(names))
	}

	return &MatchAnswer{
		MatchedNames: names,
		None:         len(names) == 0,
		Rationale:    strings.TrimSpace(raw.Rationale),
	}, nil
}

func extractJSONObject(content string) (string, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object in response", ErrMalformedAnswer)
	}
	return text[start : end+1], nil
}
