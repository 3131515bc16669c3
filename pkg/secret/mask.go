package secret

import "strings"

const maskToken = "****"

// Mask redacts a credential, keeping only its last four characters so operators can
// tell rotated values apart. Values of four characters or fewer are fully masked.
func Mask(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

// MaskFields returns a copy of fields with the string values of the named keys masked.
func MaskFields(fields map[string]any, keys ...string) map[string]any {
	if len(fields) == 0 {
		return nil
	}

	redact := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		redact[key] = struct{}{}
	}

	out := make(map[string]any, len(fields))
	for key, value := range fields {
		if _, ok := redact[key]; ok {
			if s, isString := value.(string); isString {
				out[key] = Mask(s)
				continue
			}
		}
		out[key] = value
	}
	return out
}
