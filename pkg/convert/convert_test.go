package convert

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestStringConverter(t *testing.T) {
	if v, ok, err := String.Parse("abc"); v != "abc" || !ok || err != nil {
		t.Errorf("Parse(abc): got (%q, %v, %v)", v, ok, err)
	}
	if _, ok, _ := String.Parse(""); ok {
		t.Error("Parse(\"\") should report no value")
	}
	if _, ok, _ := String.Serialize(""); ok {
		t.Error("Serialize(\"\") should omit")
	}
}

func TestNumberParse(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantOK  bool
		wantErr bool
	}{
		{raw: "5", want: 5, wantOK: true},
		{raw: "-1.5", want: -1.5, wantOK: true},
		{raw: " 42 ", want: 42, wantOK: true},
		{raw: "1e3", want: 1000, wantOK: true},
		{raw: ".5", want: 0.5, wantOK: true},
		{raw: "0x10", want: 16, wantOK: true},
		{raw: "0b101", want: 5, wantOK: true},
		{raw: "Infinity", want: math.Inf(1), wantOK: true},
		{raw: "  ", want: 0, wantOK: true},
		{raw: "", wantOK: false},
		{raw: "abc", wantErr: true},
		{raw: "1,2", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "inf", wantErr: true},
		{raw: "0xZZ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok, err := Number.Parse(tt.raw)
			if tt.wantErr {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("Parse(%q): got err %v, want *ParseError", tt.raw, err)
				}
				if pe.Raw != tt.raw {
					t.Errorf("ParseError.Raw: got %q, want %q", pe.Raw, tt.raw)
				}
				if !errors.Is(err, ErrParse) {
					t.Error("ParseError should match ErrParse")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error %v", tt.raw, err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Parse(%q): got (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{5, "5"},
		{-1.5, "-1.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{0.000001, "0.000001"},
		{123456789012, "123456789012"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIntConverter(t *testing.T) {
	if v, ok, err := Int.Parse("12"); v != 12 || !ok || err != nil {
		t.Errorf("Parse(12): got (%v, %v, %v)", v, ok, err)
	}
	if _, _, err := Int.Parse("1.5"); err == nil {
		t.Error("Parse(1.5) should fail")
	}
	if s, _, _ := Int.Serialize(-3); s != "-3" {
		t.Errorf("Serialize(-3): got %q", s)
	}
}

func TestBooleanConverter(t *testing.T) {
	tests := []struct {
		raw    string
		want   bool
		wantOK bool
	}{
		{"true", true, true},
		{"false", false, true},
		{"yes", false, true},
		{"", false, false},
	}
	for _, tt := range tests {
		got, ok, err := Boolean.Parse(tt.raw)
		if err != nil || got != tt.want || ok != tt.wantOK {
			t.Errorf("Parse(%q): got (%v, %v, %v)", tt.raw, got, ok, err)
		}
	}
	if s, _, _ := Boolean.Serialize(true); s != "true" {
		t.Errorf("Serialize(true): got %q", s)
	}
}

func TestArrayConverter(t *testing.T) {
	nums := Array(Number)

	s, ok, err := nums.Serialize([]float64{1, 2, 3})
	if err != nil || !ok || s != "1,2,3" {
		t.Errorf("Serialize([1 2 3]): got (%q, %v, %v), want 1,2,3", s, ok, err)
	}

	v, ok, err := nums.Parse("1,2,3")
	if err != nil || !ok || !reflect.DeepEqual(v, []float64{1, 2, 3}) {
		t.Errorf("Parse(1,2,3): got (%v, %v, %v)", v, ok, err)
	}

	if _, ok, _ := nums.Serialize(nil); ok {
		t.Error("empty array should serialize to omit")
	}
	if _, ok, _ := nums.Parse(""); ok {
		t.Error("empty raw should parse to no value")
	}
	if _, _, err := nums.Parse("1,x"); err == nil {
		t.Error("bad item should fail the whole parse")
	}

	piped := ArrayWith(String, "|")
	s, _, _ = piped.Serialize([]string{"a", "b,c"})
	if s != "a|b,c" {
		t.Errorf("custom separator: got %q", s)
	}
	v2, _, _ := piped.Parse("a||b")
	if !reflect.DeepEqual(v2, []string{"a", "", "b"}) {
		t.Errorf("empty item should become zero value: got %#v", v2)
	}
}

func TestOneOfConverter(t *testing.T) {
	sort := OneOf(String, "x", "y")

	if v, ok, err := sort.Parse("x"); v != "x" || !ok || err != nil {
		t.Errorf("Parse(x): got (%q, %v, %v)", v, ok, err)
	}

	_, _, err := sort.Parse("z")
	var me *MembershipError
	if !errors.As(err, &me) {
		t.Fatalf("Parse(z): got %v, want *MembershipError", err)
	}
	if me.Value != "z" {
		t.Errorf("MembershipError.Value: got %v, want z", me.Value)
	}
	if !reflect.DeepEqual(me.Allowed, []any{"x", "y"}) {
		t.Errorf("MembershipError.Allowed: got %v", me.Allowed)
	}
	if !strings.Contains(err.Error(), "z is not found in [x, y]") {
		t.Errorf("message: got %q", err.Error())
	}
	if !errors.Is(err, ErrMembership) {
		t.Error("membership error should match ErrMembership")
	}

	if _, _, err := sort.Serialize("q"); !errors.As(err, &me) {
		t.Errorf("Serialize(q): got %v, want *MembershipError", err)
	}
	if s, ok, err := sort.Serialize("y"); s != "y" || !ok || err != nil {
		t.Errorf("Serialize(y): got (%q, %v, %v)", s, ok, err)
	}
}

func TestOneOfNumber(t *testing.T) {
	sizes := OneOf(Number, 10, 20, 50)

	if v, _, err := sizes.Parse("20"); v != 20 || err != nil {
		t.Errorf("Parse(20): got (%v, %v)", v, err)
	}
	if _, _, err := sizes.Parse("30"); err == nil {
		t.Error("Parse(30) should fail")
	}
	if _, _, err := sizes.Serialize(30); err == nil {
		t.Error("Serialize(30) should fail")
	}
}

func TestJSONConverter(t *testing.T) {
	type filter struct {
		Cat  string `json:"cat"`
		Page int    `json:"page"`
	}
	c := JSON[filter]()

	s, ok, err := c.Serialize(filter{Cat: "tech", Page: 2})
	if err != nil || !ok {
		t.Fatalf("Serialize: got (%q, %v, %v)", s, ok, err)
	}
	got, ok, err := c.Parse(s)
	if err != nil || !ok || got != (filter{Cat: "tech", Page: 2}) {
		t.Errorf("Parse(Serialize(v)): got (%v, %v, %v)", got, ok, err)
	}
	if _, _, err := c.Parse("%%%"); err == nil {
		t.Error("invalid base64 should fail")
	}

	ptr := JSON[*filter]()
	if _, ok, _ := ptr.Serialize(nil); ok {
		t.Error("nil pointer should serialize to omit")
	}
}

func TestTimeConverter(t *testing.T) {
	c := Time("")
	at := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	s, ok, _ := c.Serialize(at)
	if !ok || s != "2024-05-01T12:30:00Z" {
		t.Errorf("Serialize: got %q", s)
	}
	got, ok, err := c.Parse(s)
	if err != nil || !ok || !got.Equal(at) {
		t.Errorf("Parse: got (%v, %v, %v)", got, ok, err)
	}
	if _, ok, _ := c.Serialize(time.Time{}); ok {
		t.Error("zero time should serialize to omit")
	}
	if _, _, err := c.Parse("yesterday"); err == nil {
		t.Error("bad time should fail")
	}
}

func TestFuncs(t *testing.T) {
	upper := New(
		func(raw string) (string, bool, error) { return strings.ToLower(raw), raw != "", nil },
		func(v string) (string, bool, error) { return strings.ToUpper(v), v != "", nil },
	)
	if s, _, _ := upper.Serialize("ab"); s != "AB" {
		t.Errorf("Serialize: got %q", s)
	}
	if v, _, _ := upper.Parse("AB"); v != "ab" {
		t.Errorf("Parse: got %q", v)
	}
}
