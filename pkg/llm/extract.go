package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON object out of raw LLM text. It tries, in
// order: a direct parse of the whole string; the first ```-fenced code
// block (with an optional leading "json" language tag) that parses; and
// finally the widest "{...}" substring that parses. It returns false if
// none of the three produce a valid JSON object.
func ExtractJSON(content string) (map[string]interface{}, bool) {
	trimmed := strings.TrimSpace(content)

	if obj, ok := tryParseObject(trimmed); ok {
		return obj, true
	}

	if strings.Contains(trimmed, "```") {
		for _, part := range strings.Split(trimmed, "```") {
			candidate := strings.TrimSpace(part)
			candidate = strings.TrimPrefix(candidate, "json")
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			if obj, ok := tryParseObject(candidate); ok {
				return obj, true
			}
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end != -1 && end > start {
		if obj, ok := tryParseObject(trimmed[start : end+1]); ok {
			return obj, true
		}
	}

	return nil, false
}

func tryParseObject(s string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
