package convert

import (
	"encoding/base64"

	json "github.com/goccy/go-json"
)

// JSON encodes arbitrary values as base64url JSON: ?filter=eyJjYXQiOiJ0ZWNoIn0
// Values that marshal to JSON null serialize to "omit".
func JSON[T any]() Converter[T] {
	return jsonConverter[T]{}
}

type jsonConverter[T any] struct{}

func (jsonConverter[T]) Parse(raw string) (T, bool, error) {
	var result T
	if raw == "" {
		return result, false, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return result, false, &ParseError{Raw: raw, Type: "base64 json", Err: err}
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, false, &ParseError{Raw: raw, Type: "base64 json", Err: err}
	}
	return result, true, nil
}

func (jsonConverter[T]) Serialize(value T) (string, bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", false, err
	}
	if string(data) == "null" {
		return "", false, nil
	}
	return base64.RawURLEncoding.EncodeToString(data), true, nil
}
