package conversation

import "strings"

// extractJSONObject pulls the first JSON object out of a model reply,
// tolerating code fences and prose around it. Returns "" when no
// object-shaped substring exists.
func extractJSONObject(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return cleaned[start : end+1]
}
