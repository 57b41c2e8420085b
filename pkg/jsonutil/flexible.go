package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// StringList decodes either a single JSON value or an array of values into a
// list of strings. Models alternate between "x_axis": "month" and
// "x_axis": ["month"] for the same instruction.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		// Not an array: treat as a single scalar.
		if v := FlexibleStringValue(data); v != "" {
			*l = StringList{v}
		} else {
			*l = nil
		}
		return nil
	}

	out := make(StringList, 0, len(items))
	for _, item := range items {
		if v := FlexibleStringValue(item); v != "" {
			out = append(out, v)
		}
	}
	*l = out
	return nil
}

// First returns the first element or "" when empty.
func (l StringList) First() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}
