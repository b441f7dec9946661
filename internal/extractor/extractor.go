package extractor

import (
	"sort"

	"github.com/mcncl/genpost/internal/models"
)

// ValidKey is the field a response entry must set to boolean true.
const ValidKey = "valid"

// ValidKeys returns, sorted, the top-level keys of response whose value is an
// object with "valid" set to exactly true. The result is never nil.
func ValidKeys(response models.JSONObject) []string {
	keys := make([]string, 0, len(response))
	for key, value := range response {
		if isValid(value) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

func isValid(value models.JSONValue) bool {
	var flag interface{}
	switch v := value.(type) {
	case models.JSONObject:
		flag = v[ValidKey]
	case map[string]interface{}:
		flag = v[ValidKey]
	default:
		return false
	}
	b, ok := flag.(bool)
	return ok && b
}
