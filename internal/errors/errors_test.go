package errors

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "parse error",
			code:    CodeParse,
			wantMsg: "Query parameter could not be parsed",
			wantCat: CategoryParse,
		},
		{
			name:    "required error",
			code:    CodeRequiredMissing,
			wantMsg: "Required query parameter missing",
			wantCat: CategoryRequired,
		},
		{
			name:    "membership error",
			code:    CodeMembership,
			wantMsg: "Value is not one of the allowed values",
			wantCat: CategoryMembership,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryConfig, "file %q not found", "schema.yaml")
	if err.Message != `file "schema.yaml" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `file "schema.yaml" not found`)
	}
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
}

func TestSyncError_Error(t *testing.T) {
	err := New(CodeValidation)
	if got, want := err.Error(), "E102: Invalid query parameter update"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err.WithKey("page")
	if got, want := err.Error(), `E102: Invalid query parameter update (field "page")`; got != want {
		t.Errorf("Error() with key = %q, want %q", got, want)
	}

	bare := &SyncError{Message: "test error"}
	if bare.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "test error")
	}
}

func TestSyncError_Wrap(t *testing.T) {
	inner := &testError{msg: "NaN"}
	outer := New(CodeParse).WithKey("n").Wrap(inner)

	if outer.Unwrap() != inner {
		t.Error("Unwrap() should return wrapped error")
	}
	if !strings.HasSuffix(outer.Error(), ": NaN") {
		t.Errorf("Error() = %q, want cause suffix", outer.Error())
	}
}

func TestSyncError_Is(t *testing.T) {
	err := New(CodeMembership).WithKey("sort")
	if !stderrors.Is(err, Sentinel(CodeMembership)) {
		t.Error("Is should match by code")
	}
	if stderrors.Is(err, Sentinel(CodeParse)) {
		t.Error("Is should not match a different code")
	}
	if stderrors.Is(err, &SyncError{}) {
		t.Error("Is should not match an empty code")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeParse) != nil {
		t.Error("FromError(nil, ...) should return nil")
	}

	se := New(CodeParse)
	if FromError(se, CodeValidation) != se {
		t.Error("FromError should return SyncError as-is")
	}

	stdErr := &testError{msg: "test error"}
	result := FromError(stdErr, CodeConfigInvalid)
	if result.Wrapped != stdErr {
		t.Error("Standard error should be wrapped")
	}
	if result.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", result.Category, CategoryConfig)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}

func TestFormat(t *testing.T) {
	noColor(t)

	out := New(CodeValidation).WithKey("page").WithSuggestion("Drop the field").Format()

	for _, want := range []string{"ERROR E102: Invalid query parameter update", "field: page", "Hint: Drop the field", "Learn more: https://urlsync.dev/docs/errors/E102"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	raw := New(CodeParse).WithKey("n").Wrap(&testError{msg: "NaN"}).FormatJSON()

	var got map[string]string
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("FormatJSON produced invalid JSON: %v", err)
	}
	if got["code"] != CodeParse || got["key"] != "n" || got["cause"] != "NaN" {
		t.Errorf("FormatJSON = %v", got)
	}
}

func TestFprintError(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	FprintError(&buf, &testError{msg: "plain"})
	if !strings.Contains(buf.String(), "ERROR: plain") {
		t.Errorf("plain error output = %q", buf.String())
	}

	buf.Reset()
	FprintError(&buf, New(CodeRelayClosed))
	if !strings.Contains(buf.String(), "E110") {
		t.Errorf("coded error output = %q", buf.String())
	}
}

func TestGetAllCodes(t *testing.T) {
	codes := GetAllCodes()
	if len(codes) == 0 {
		t.Fatal("no codes registered")
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
	for _, code := range codes {
		tmpl, ok := GetTemplate(code)
		if !ok || tmpl.Message == "" {
			t.Errorf("code %s has no template message", code)
		}
	}
}

func noColor(t *testing.T) {
	t.Helper()
	DisableColors()
	t.Cleanup(func() { colorEnabled = true })
}
