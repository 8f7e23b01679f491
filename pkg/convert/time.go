package convert

import "time"

// Time converts time.Time using layout (time.RFC3339 when empty). The zero
// time serializes to "omit".
func Time(layout string) Converter[time.Time] {
	if layout == "" {
		layout = time.RFC3339
	}
	return timeConverter{layout: layout}
}

type timeConverter struct {
	layout string
}

func (c timeConverter) Parse(raw string) (time.Time, bool, error) {
	if raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(c.layout, raw)
	if err != nil {
		return time.Time{}, false, &ParseError{Raw: raw, Type: "time", Err: err}
	}
	return t, true, nil
}

func (c timeConverter) Serialize(value time.Time) (string, bool, error) {
	if value.IsZero() {
		return "", false, nil
	}
	return value.Format(c.layout), true, nil
}
