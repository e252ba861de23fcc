package activity

import "strings"

const redactionMarker = "[REDACTED]"

// secretFields are replaced with the redaction marker anywhere they appear
// in a request body, including nested objects.
var secretFields = map[string]bool{
	"password": true,
	"token":    true,
	"secret":   true,
	"key":      true,
	"pin":      true,
}

// SanitizeBody returns a copy of the request body with secret fields
// redacted. The input map is not modified.
func SanitizeBody(body map[string]any) map[string]any {
	if body == nil {
		return nil
	}
	out := make(map[string]any, len(body))
	for k, v := range body {
		if secretFields[strings.ToLower(k)] {
			out[k] = redactionMarker
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = SanitizeBody(nested)
			continue
		}
		out[k] = v
	}
	return out
}
