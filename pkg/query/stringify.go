package query

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/urlsync/pkg/convert"
)

// Params is a loosely typed parameter set. Supported values are strings,
// booleans, integer and float kinds, fmt.Stringer, and slices or arrays of
// those. A nil value (or an empty slice) removes the key.
type Params map[string]any

// Options controls Stringify and StringifyURL.
type Options struct {
	// Sort orders the resulting pairs by key.
	Sort bool

	// Separator joins slice items (default ",").
	Separator string

	// KeepEmptyString writes empty strings as "key=" instead of removing the key.
	KeepEmptyString bool
}

// Stringify renders params as a query string without a leading "?".
// Keys are applied in sorted order so new keys land deterministically.
func Stringify(params Params, opts Options) string {
	return merge(params, opts, "")
}

// StringifyURL merges params into the query component of rawURL. The fragment
// and path are preserved verbatim; the "?" is dropped when the resulting query
// is empty.
func StringifyURL(rawURL string, params Params, opts Options) string {
	path, search, fragment := splitURL(rawURL)
	search = merge(params, opts, search)
	if search != "" {
		return path + "?" + search + fragment
	}
	return path + fragment
}

// splitURL cuts rawURL at the first '#' and then at the first '?' before it.
func splitURL(rawURL string) (path, search, fragment string) {
	rest := rawURL
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		fragment = rest[i:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		search = rest[i:]
		rest = rest[:i]
	}
	return rest, search, fragment
}

func merge(params Params, opts Options, search string) string {
	separator := opts.Separator
	if separator == "" {
		separator = convert.DefaultSeparator
	}

	q := Parse(search)

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := formatParam(params[key], separator)
		if !ok || (!opts.KeepEmptyString && value == "") {
			q.Delete(key)
			continue
		}
		q.Set(key, value)
	}

	if opts.Sort {
		q.Sort()
	}
	return q.Encode()
}

// formatParam renders one parameter value. ok is false for nil and empty slices.
func formatParam(value any, separator string) (string, bool) {
	if value == nil {
		return "", false
	}

	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		if v.Len() == 0 {
			return "", false
		}
		parts := make([]string, v.Len())
		for i := 0; i < v.Len(); i++ {
			item := v.Index(i).Interface()
			if item == nil {
				continue
			}
			parts[i] = formatScalar(item)
		}
		return strings.Join(parts, separator), true
	}
	return formatScalar(value), true
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return convert.FormatNumber(v)
	case float32:
		return convert.FormatNumber(float64(v))
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return convert.FormatNumber(rv.Float())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return fmt.Sprintf("%v", value)
}
