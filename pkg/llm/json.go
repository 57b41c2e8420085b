package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches <think>...</think> blocks reasoning models prepend to answers.
var thinkTagPattern = regexp.MustCompile(`(?s)^\s*<think>.*?</think>\s*`)

// fencePattern matches a markdown code fence with an optional language tag.
var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")

// StripCodeFence returns the body of the first fenced code block in the
// response, or the trimmed response when it has no fence.
//
//	StripCodeFence("```json\n{\"a\": 1}\n```") // {"a": 1}
func StripCodeFence(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	if m := fencePattern.FindStringSubmatch(cleaned); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(cleaned)
}

// ExtractJSON extracts JSON content from an LLM response that may contain
// <think> tags, markdown code blocks, or surrounding prose. The raw text is
// scanned first so a fence marker inside a JSON string does not truncate the
// payload; the fence body is the fallback.
func ExtractJSON(response string) (string, error) {
	raw := strings.TrimSpace(thinkTagPattern.ReplaceAllString(response, ""))
	if jsonStr, ok := findJSON(raw); ok {
		return jsonStr, nil
	}
	if jsonStr, ok := findJSON(StripCodeFence(response)); ok {
		return jsonStr, nil
	}
	return "", fmt.Errorf("no valid JSON found in response")
}

func findJSON(s string) (string, bool) {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')

	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(s, '{', '}'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, true
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(s, '[', ']'); ok && json.Valid([]byte(jsonStr)) {
			return jsonStr, true
		}
	}

	if s != "" && json.Valid([]byte(s)) {
		return s, true
	}
	return "", false
}

// extractBalancedJSON finds the first balanced structure starting with openChar,
// ignoring brackets inside string literals.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case openChar:
			depth++
		case closeChar:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
