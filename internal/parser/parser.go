package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	stderrors "errors" // Standard errors package

	"go.uber.org/zap"

	"github.com/mcncl/genpost/internal/errors" // Custom errors package
	"github.com/mcncl/genpost/internal/models"
)

// StdinSource is the source name that selects standard input.
const StdinSource = "-"

// Load reads and parses the JSON document named by source. StdinSource reads
// stdin until EOF; anything else is treated as a file path. Failures are
// logged and returned as input errors.
func Load(source string, stdin io.Reader, logger *zap.Logger) (models.IntermediateRepresentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		ir  models.IntermediateRepresentation
		err error
	)
	if source == StdinSource {
		ir, err = ParseStdin(stdin)
	} else {
		ir, err = ParseFile(source)
	}
	if err != nil {
		logger.Error("failed to load JSON", zap.String("source", source), zap.Error(err))
		return models.IntermediateRepresentation{}, err
	}

	logger.Debug("loaded JSON", zap.String("source", source), zap.String("shape", string(ir.Shape)))
	return ir, nil
}

// Parse converts JSON data from an io.Reader into an IntermediateRepresentation.
// The input must be UTF-8; the decoder would otherwise replace bad bytes.
func Parse(reader io.Reader) (models.IntermediateRepresentation, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read JSON input", err)
	}
	if !utf8.Valid(data) {
		return models.IntermediateRepresentation{}, errors.NewInputError("input is not valid UTF-8", errors.ErrInvalidJSON)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber() // Ensure numbers are read as json.Number

	var rootValue models.JSONValue
	if err := decoder.Decode(&rootValue); err != nil {
		if stderrors.Is(err, io.EOF) {
			return models.IntermediateRepresentation{}, errors.NewInputError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("JSON syntax error at offset %d: %v", syntaxError.Offset, syntaxError),
				errors.ErrInvalidJSON,
			)
		}
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return models.IntermediateRepresentation{}, errors.NewInputError("unexpected end of JSON input", errors.ErrInvalidJSON)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to decode JSON", err)
	}

	// Only whitespace may follow the root value.
	if decoder.More() {
		var trailingValue interface{}
		if err := decoder.Decode(&trailingValue); err != nil {
			if !stderrors.Is(err, io.EOF) {
				return models.IntermediateRepresentation{}, errors.NewInputError("invalid trailing data after first JSON value", errors.ErrInvalidJSON)
			}
		} else {
			return models.IntermediateRepresentation{}, errors.NewInputError("multiple JSON values found at the root", errors.ErrMultipleJSON)
		}
	}

	rootValue = normalizeJSONValue(rootValue)
	return models.IntermediateRepresentation{
		Root:  rootValue,
		Shape: models.ShapeOf(rootValue),
	}, nil
}

// normalizeJSONValue converts raw JSON types into our model types
func normalizeJSONValue(val models.JSONValue) models.JSONValue {
	switch v := val.(type) {
	case map[string]interface{}:
		obj := make(models.JSONObject, len(v))
		for key, value := range v {
			obj[key] = normalizeJSONValue(value)
		}
		return obj
	case []interface{}:
		arr := make(models.JSONArray, len(v))
		for i, value := range v {
			arr[i] = normalizeJSONValue(value)
		}
		return arr
	default:
		return v // Primitives (string, json.Number, bool, nil) are returned as is
	}
}

// ParseString parses JSON from a string
func ParseString(jsonString string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(jsonString) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString))
}

// ParseStdin reads r until EOF and parses the result.
func ParseStdin(r io.Reader) (models.IntermediateRepresentation, error) {
	if r == nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("stdin is not available", errors.ErrEmptyInput)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError("failed to read from stdin", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return ParseString(string(data))
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string) (models.IntermediateRepresentation, error) {
	if strings.TrimSpace(filePath) == "" {
		return models.IntermediateRepresentation{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return models.IntermediateRepresentation{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.IsDir() {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("'%s' is a directory", filePath),
			errors.ErrInvalidFilePath,
		)
	}
	if stat.Size() == 0 {
		return models.IntermediateRepresentation{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrEmptyInput,
		)
	}

	return Parse(file)
}
