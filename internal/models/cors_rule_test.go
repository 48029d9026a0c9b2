package models

import (
	"slices"
	"testing"
)

func TestDefaultCorsRule(t *testing.T) {
	t.Parallel()

	rule := DefaultCorsRule()

	if rule.PathPattern != "/v1/**" {
		t.Errorf("Expected PathPattern '/v1/**', got '%s'", rule.PathPattern)
	}
	if !slices.Equal(rule.AllowedOrigins, []string{"http://localhost:3000"}) {
		t.Errorf("Expected single localhost:3000 origin, got %v", rule.AllowedOrigins)
	}
	if !slices.Equal(rule.AllowedHeaders, []string{"*"}) {
		t.Errorf("Expected wildcard headers, got %v", rule.AllowedHeaders)
	}
	wantMethods := []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	if !slices.Equal(rule.AllowedMethods, wantMethods) {
		t.Errorf("Expected methods %v, got %v", wantMethods, rule.AllowedMethods)
	}
	if !rule.AllowCredentials {
		t.Error("Expected AllowCredentials to be true")
	}
	if rule.MaxAge != DefaultCorsMaxAge {
		t.Errorf("Expected MaxAge %d, got %d", DefaultCorsMaxAge, rule.MaxAge)
	}
}

func TestDefaultCorsRuleIsIndependent(t *testing.T) {
	t.Parallel()

	first := DefaultCorsRule()
	first.AllowedMethods[0] = "TRACE"

	second := DefaultCorsRule()
	if second.AllowedMethods[0] != "GET" {
		t.Errorf("Mutating one default rule leaked into another: %v", second.AllowedMethods)
	}
	if DefaultCorsMethods[0] != "GET" {
		t.Errorf("Mutating a default rule leaked into DefaultCorsMethods: %v", DefaultCorsMethods)
	}
}

func TestCorsRuleClone(t *testing.T) {
	t.Parallel()

	rule := DefaultCorsRule()
	clone := rule.Clone()
	clone.AllowedOrigins[0] = "https://evil.example"
	clone.AllowedHeaders = append(clone.AllowedHeaders, "X-Extra")

	if rule.AllowedOrigins[0] != DefaultCorsOrigin {
		t.Errorf("Clone shares origins with original: %v", rule.AllowedOrigins)
	}
	if len(rule.AllowedHeaders) != 1 {
		t.Errorf("Clone shares headers with original: %v", rule.AllowedHeaders)
	}
}

func TestCorsRuleAllows(t *testing.T) {
	t.Parallel()

	rule := DefaultCorsRule()

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{name: "configured origin", origin: "http://localhost:3000", want: true},
		{name: "different port", origin: "http://localhost:3001", want: false},
		{name: "different scheme", origin: "https://localhost:3000", want: false},
		{name: "empty origin", origin: "", want: false},
		{name: "upper-case host", origin: "http://LOCALHOST:3000", want: true},
		{name: "upper-case scheme", origin: "HTTP://localhost:3000", want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := rule.AllowsOrigin(tt.origin); got != tt.want {
				t.Errorf("AllowsOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}

	if !rule.AllowsMethod("PATCH") {
		t.Error("Expected PATCH to be allowed")
	}
	if rule.AllowsMethod("TRACE") {
		t.Error("Expected TRACE to be rejected")
	}
	if !rule.AllowsAnyHeader() {
		t.Error("Expected wildcard headers")
	}

	wildcard := rule.Clone()
	wildcard.AllowedOrigins = []string{"*"}
	if !wildcard.AllowsOrigin("https://anything.example") {
		t.Error("Expected wildcard origin to allow any origin")
	}
}
