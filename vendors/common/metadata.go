package common

import "strconv"

// MetadataString retrieves a string value from equipment metadata with optional fallback keys.
// Keys are checked in order - first match wins.
func MetadataString(metadata map[string]string, keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := metadata[key]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}

// MetadataStringWithDefault retrieves a string from metadata, or returns defaultValue.
func MetadataStringWithDefault(metadata map[string]string, defaultValue string, keys ...string) string {
	if value, ok := MetadataString(metadata, keys...); ok {
		return value
	}
	return defaultValue
}

// MetadataIntWithDefault retrieves an integer from metadata, or returns defaultValue.
// Values that do not parse are skipped.
func MetadataIntWithDefault(metadata map[string]string, defaultValue int, keys ...string) int {
	for _, key := range keys {
		if valueStr, ok := metadata[key]; ok {
			if value, err := strconv.Atoi(valueStr); err == nil {
				return value
			}
		}
	}
	return defaultValue
}
