// Package filter removes entries flagged private from a parsed JSON document.
package filter

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/errors"
	"github.com/mcncl/genpost/internal/models"
)

// PrivateKey is the field that marks an entry as private.
const PrivateKey = "private"

// Public returns a copy of value without the entries flagged private.
//
// A top-level array keeps, in order, the elements that are objects and not
// private. A top-level object keeps the key/value pairs whose value is an
// object and not private. Any other shape is a validation error. Retained
// entries are shared with the input, never modified.
func Public(value models.JSONValue, logger *zap.Logger) (models.JSONValue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch v := value.(type) {
	case models.JSONArray:
		filtered := filterArray(v)
		logger.Info("loaded list",
			zap.Int("items", len(v)),
			zap.Int("remaining", len(filtered)),
		)
		return filtered, nil
	case models.JSONObject:
		filtered := filterObject(v)
		logger.Info("loaded map",
			zap.Int("keys", len(v)),
			zap.Int("remaining", len(filtered)),
		)
		return filtered, nil
	default:
		shape := models.ShapeOf(value)
		logger.Error("unsupported top-level JSON type", zap.String("shape", string(shape)))
		return nil, errors.NewValidationError(
			fmt.Sprintf("unsupported top-level JSON type: %s (expected list or object)", shape),
			errors.ErrUnsupportedShape,
		)
	}
}

// IsPrivate reports whether obj carries "private": true. Only the boolean
// true counts; strings, numbers and null do not.
func IsPrivate(obj models.JSONObject) bool {
	flag, ok := obj[PrivateKey].(bool)
	return ok && flag
}

func filterArray(items models.JSONArray) models.JSONArray {
	filtered := make(models.JSONArray, 0, len(items))
	for _, item := range items {
		obj, ok := item.(models.JSONObject)
		if !ok || IsPrivate(obj) {
			continue
		}
		filtered = append(filtered, obj)
	}
	return filtered
}

func filterObject(entries models.JSONObject) models.JSONObject {
	filtered := make(models.JSONObject, len(entries))
	for key, value := range entries {
		obj, ok := value.(models.JSONObject)
		if !ok || IsPrivate(obj) {
			continue
		}
		filtered[key] = obj
	}
	return filtered
}
