package tools

import (
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func arguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	return args
}

// requireID reads a positive integer argument. JSON numbers arrive as float64.
func requireID(req mcp.CallToolRequest, key string) (int64, error) {
	switch v := arguments(req)[key].(type) {
	case float64:
		if v < 1 || v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(v), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be a number", key)
	}
}

func requireString(req mcp.CallToolRequest, key string) (string, error) {
	v, ok := arguments(req)[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return strings.TrimSpace(v), nil
}

func optionalBool(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	if v, ok := arguments(req)[key].(bool); ok {
		return v
	}
	return defaultVal
}
