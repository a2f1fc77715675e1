// internal/common/logger/mask.go
package logger

import (
	"regexp"
	"strings"
)

const (
	maxLoggedValue = 500
	visiblePrefix  = 10
)

var (
	apiKeyPattern = regexp.MustCompile(`sk-[A-Za-z0-9_\-]{6,}`)
	bearerPattern = regexp.MustCompile(`Bearer\s+[A-Za-z0-9._\-]+`)
	sensitiveKeys = []string{"key", "token", "password", "secret", "authorization"}
)

// Mask hides API keys and bearer tokens and truncates long values.
func Mask(value string) string {
	if value == "" {
		return value
	}
	masked := apiKeyPattern.ReplaceAllStringFunc(value, maskToken)
	masked = bearerPattern.ReplaceAllStringFunc(masked, maskToken)
	if len(masked) > maxLoggedValue {
		masked = masked[:maxLoggedValue] + "...[truncated]"
	}
	return masked
}

func maskToken(token string) string {
	if len(token) <= visiblePrefix {
		return "***"
	}
	return token[:visiblePrefix] + "***"
}

// MaskFields returns a copy of fields with sensitive keys replaced and string values masked.
func MaskFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if isSensitiveKey(k) {
			out[k] = "***"
			continue
		}
		switch val := v.(type) {
		case string:
			out[k] = Mask(val)
		case map[string]interface{}:
			out[k] = MaskFields(val)
		default:
			out[k] = v
		}
	}
	return out
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
