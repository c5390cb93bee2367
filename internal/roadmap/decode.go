package roadmap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"alfredoptarigan/resume-matcher/internal/models"
)

// ExtractJSON returns the JSON object embedded in an LLM response, dropping
// markdown code fences and any prose around the outermost braces.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		if end := strings.LastIndex(s, "```"); end >= 0 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// Decode parses a generated plan. Numbers that arrive as strings ("8") and
// single keywords that arrive as a bare string are accepted.
func Decode(response string) (*models.Roadmap, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(ExtractJSON(response)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse roadmap JSON: %w", err)
	}

	var out models.Roadmap
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create roadmap decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode roadmap: %w", err)
	}

	if len(out.WeeklyPlan) == 0 {
		return nil, fmt.Errorf("roadmap has no weekly plan")
	}
	for i := range out.WeeklyPlan {
		if out.WeeklyPlan[i].WeekNumber == 0 {
			out.WeeklyPlan[i].WeekNumber = i + 1
		}
	}
	if out.TotalWeeks == 0 {
		out.TotalWeeks = len(out.WeeklyPlan)
	}
	return &out, nil
}
