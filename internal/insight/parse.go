package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tablescope/tablescope/pkg/models"
)

// parseInsights decodes a provider reply into the insight schema. Models
// often wrap JSON in markdown fences or chat filler, so it strips fences
// first and falls back to the outermost brace-delimited object.
func parseInsights(raw string) (*models.AIInsights, error) {
	text := stripFences(strings.TrimSpace(raw))

	var insights models.AIInsights
	if err := json.Unmarshal([]byte(text), &insights); err != nil {
		extracted, ok := extractObject(text)
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if err := json.Unmarshal([]byte(extracted), &insights); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	if insights.ExecutiveSummary == "" && len(insights.KeyFindings) == 0 && len(insights.Insights) == 0 {
		return nil, fmt.Errorf("%w: decoded object has no content", ErrInvalidResponse)
	}

	normalizeSeverities(&insights)
	return &insights, nil
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// drop the language tag line ("json", "JSON", or empty)
		first := strings.TrimSpace(s[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractObject returns the substring from the first '{' to the last '}'.
func extractObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// normalizeSeverities coerces unknown severity values to info rather than
// rejecting an otherwise usable reply.
func normalizeSeverities(insights *models.AIInsights) {
	for i := range insights.Insights {
		switch insights.Insights[i].Severity {
		case models.SeverityInfo, models.SeverityWarning, models.SeverityCritical:
		default:
			insights.Insights[i].Severity = models.SeverityInfo
		}
	}
}
