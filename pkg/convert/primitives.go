package convert

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// String is the identity converter. The empty string is treated as absent in
// both directions.
var String Converter[string] = stringConverter{}

type stringConverter struct{}

func (stringConverter) Parse(raw string) (string, bool, error) {
	return raw, raw != "", nil
}

func (stringConverter) Serialize(value string) (string, bool, error) {
	return value, value != "", nil
}

// Number converts float64 values the way browser code coerces query values:
// surrounding whitespace is ignored, "Infinity" and 0x/0o/0b literals are
// accepted, anything else that is not a decimal literal fails to parse.
var Number Converter[float64] = numberConverter{}

type numberConverter struct{}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func (numberConverter) Parse(raw string) (float64, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := parseNumber(raw)
	if err != nil {
		return 0, false, &ParseError{Raw: raw, Type: "number", Err: err}
	}
	return v, true, nil
}

func (numberConverter) Serialize(value float64) (string, bool, error) {
	return FormatNumber(value), true, nil
}

// errNaN is reported for strings that do not denote a number.
var errNaN = strconv.ErrSyntax

func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return 0, nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, errNaN
			}
			return float64(u), nil
		}
	}

	if !decimalLiteral.MatchString(s) {
		return 0, errNaN
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range still yields ±Inf, matching the numeric-string grammar.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return v, nil
		}
		return 0, errNaN
	}
	return v, nil
}

// FormatNumber renders v in shortest round-trip form. Exponent notation is
// used only below 1e-6 and from 1e21 up, written as 1e+21 or 1e-7.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	abs := math.Abs(v)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(v, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		if digits == "" {
			digits = "0"
		}
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Int converts base-10 integers. It is stricter than Number: fractions,
// exponents and whitespace fail to parse.
var Int Converter[int] = intConverter{}

type intConverter struct{}

func (intConverter) Parse(raw string) (int, bool, error) {
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, &ParseError{Raw: raw, Type: "integer", Err: err}
	}
	return v, true, nil
}

func (intConverter) Serialize(value int) (string, bool, error) {
	return strconv.Itoa(value), true, nil
}

// Boolean parses "true" as true and any other non-empty string as false.
var Boolean Converter[bool] = booleanConverter{}

type booleanConverter struct{}

func (booleanConverter) Parse(raw string) (bool, bool, error) {
	if raw == "" {
		return false, false, nil
	}
	return raw == "true", true, nil
}

func (booleanConverter) Serialize(value bool) (string, bool, error) {
	return strconv.FormatBool(value), true, nil
}
