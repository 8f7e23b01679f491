package convert

import "strings"

// DefaultSeparator joins array items in the query string.
const DefaultSeparator = ","

// Array builds a converter for []T using DefaultSeparator.
func Array[T any](item Converter[T]) Converter[[]T] {
	return ArrayWith(item, DefaultSeparator)
}

// ArrayWith builds a converter for []T joining items with separator.
// Items that parse to no value become the zero value of T; an empty slice
// serializes to "omit".
func ArrayWith[T any](item Converter[T], separator string) Converter[[]T] {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &arrayConverter[T]{item: item, sep: separator}
}

type arrayConverter[T any] struct {
	item Converter[T]
	sep  string
}

func (c *arrayConverter[T]) Parse(raw string) ([]T, bool, error) {
	if raw == "" {
		return nil, false, nil
	}
	parts := strings.Split(raw, c.sep)
	out := make([]T, len(parts))
	for i, part := range parts {
		v, _, err := c.item.Parse(part)
		if err != nil {
			return nil, false, err
		}
		out[i] = v
	}
	return out, true, nil
}

func (c *arrayConverter[T]) Serialize(value []T) (string, bool, error) {
	if len(value) == 0 {
		return "", false, nil
	}
	parts := make([]string, len(value))
	for i, v := range value {
		s, _, err := c.item.Serialize(v)
		if err != nil {
			return "", false, err
		}
		parts[i] = s
	}
	return strings.Join(parts, c.sep), true, nil
}
