package nodes

import (
	"fmt"
)

// errMissingParam reports a required parameter absent from a node's
// configuration. Fatal to the run per the engine's error policy.
func errMissingParam(node, param string) error {
	return fmt.Errorf("node %q: missing required parameter %q", node, param)
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

func boolParam(params map[string]any, key string, fallback bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

func mapParam(params map[string]any, key string) map[string]any {
	if v, ok := params[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

func sliceParam(params map[string]any, key string) []any {
	if v, ok := params[key]; ok {
		if s, ok := v.([]any); ok {
			return s
		}
	}
	return nil
}
