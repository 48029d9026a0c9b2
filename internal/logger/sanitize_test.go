package logger

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		maxLength int
		want      string
	}{
		{name: "empty", input: "", maxLength: 10, want: ""},
		{name: "plain", input: "/v1/users", maxLength: 100, want: "/v1/users"},
		{name: "newline injection", input: "/v1/users\n{\"level\":\"error\"}", maxLength: 100, want: "/v1/users{\"level\":\"error\"}"},
		{name: "invalid utf8", input: "/v1/\xffusers", maxLength: 100, want: "/v1/users"},
		{name: "truncated", input: "abcdefghij", maxLength: 4, want: "abcd..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.maxLength); got != tt.want {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.maxLength, got, tt.want)
			}
		})
	}
}

func TestSanitizeHeaderValue(t *testing.T) {
	t.Parallel()

	long := "http://" + strings.Repeat("a", 400) + ".example"
	got := SanitizeHeaderValue(long)
	if len(got) != MaxHeaderValueLength+3 {
		t.Errorf("Expected truncated origin of length %d, got %d", MaxHeaderValueLength+3, len(got))
	}
	if SanitizeHeaderValue("http://localhost:3000\r\n") != "http://localhost:3000" {
		t.Errorf("Expected CR/LF to be removed")
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("Expected empty string for nil error")
	}
	if got := SanitizeError(errors.New("bind: address already in use")); got != "bind: address already in use" {
		t.Errorf("Unexpected sanitized error %q", got)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "console", ""} {
		l, err := New(format, true)
		if err != nil {
			t.Fatalf("New(%q) error = %v", format, err)
		}
		if l == nil {
			t.Fatalf("New(%q) returned nil logger", format)
		}
	}
	if _, err := New("xml", false); err == nil {
		t.Error("Expected error for unknown format")
	}
}
