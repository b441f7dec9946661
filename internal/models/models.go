package models

import "encoding/json"

// JSONValue is a generic type to represent any JSON value.
// This can be a string, number, boolean, null, object, or array.
type JSONValue interface{}

// JSONObject represents a JSON object, which is a map of strings to JSONValues.
type JSONObject map[string]JSONValue

// JSONArray represents a JSON array, which is a slice of JSONValues.
type JSONArray []JSONValue

// Shape names the kind of a top-level JSON value.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
	ShapeString Shape = "string"
	ShapeNumber Shape = "number"
	ShapeBool   Shape = "boolean"
	ShapeNull   Shape = "null"
	ShapeOther  Shape = "unknown"
)

// IntermediateRepresentation holds a parsed JSON document together with the
// shape of its root, so later stages do not have to re-inspect it.
type IntermediateRepresentation struct {
	Root  JSONValue
	Shape Shape
}

// ShapeOf returns the Shape of v. Values produced by the parser are
// normalized, so plain maps and slices are accepted as well for callers that
// build payloads by hand.
func ShapeOf(v JSONValue) Shape {
	switch v.(type) {
	case JSONObject, map[string]interface{}:
		return ShapeObject
	case JSONArray, []interface{}:
		return ShapeArray
	case string:
		return ShapeString
	case bool:
		return ShapeBool
	case nil:
		return ShapeNull
	case json.Number, float64, float32, int, int64, int32, uint, uint64:
		return ShapeNumber
	default:
		return ShapeOther
	}
}
