package models

import (
	"net/http"
	"slices"
	"strings"
)

const (
	// DefaultCorsPathPattern is the path pattern the CORS rule applies to.
	DefaultCorsPathPattern = "/v1/**"
	// DefaultCorsOrigin is the single origin allowed out of the box (local frontend dev server).
	DefaultCorsOrigin = "http://localhost:3000"
	// DefaultCorsMaxAge is how long browsers may cache a preflight result, in seconds.
	DefaultCorsMaxAge = 1800
	// WildcardHeader allows any request header.
	WildcardHeader = "*"
	// WildcardOrigin allows any origin. It cannot be combined with credentials.
	WildcardOrigin = "*"
)

// DefaultCorsMethods is the method set granted to allowed origins.
var DefaultCorsMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
}

// CorsRule describes the single cross-origin policy registered at startup.
// It is built once and must not be mutated afterwards; use Clone for a
// private copy.
type CorsRule struct {
	PathPattern      string   `json:"path_pattern" yaml:"path_pattern" validate:"required,path_pattern"`
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins" validate:"required,min=1,dive,cors_origin"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers" validate:"required,min=1,dive,header_name"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods" validate:"required,min=1,dive,http_method"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `json:"max_age" yaml:"max_age" validate:"gte=0"`
}

// DefaultCorsRule returns the built-in rule: /v1/** from http://localhost:3000,
// any header, the full REST method set, credentials allowed.
func DefaultCorsRule() CorsRule {
	return CorsRule{
		PathPattern:      DefaultCorsPathPattern,
		AllowedOrigins:   []string{DefaultCorsOrigin},
		AllowedHeaders:   []string{WildcardHeader},
		AllowedMethods:   slices.Clone(DefaultCorsMethods),
		AllowCredentials: true,
		MaxAge:           DefaultCorsMaxAge,
	}
}

// Clone returns a deep copy of the rule.
func (r CorsRule) Clone() CorsRule {
	r.AllowedOrigins = slices.Clone(r.AllowedOrigins)
	r.AllowedHeaders = slices.Clone(r.AllowedHeaders)
	r.AllowedMethods = slices.Clone(r.AllowedMethods)
	return r
}

// AllowsAnyOrigin reports whether the wildcard origin is configured.
func (r CorsRule) AllowsAnyOrigin() bool {
	return slices.Contains(r.AllowedOrigins, WildcardOrigin)
}

// AllowsAnyHeader reports whether the wildcard header is configured.
func (r CorsRule) AllowsAnyHeader() bool {
	return slices.Contains(r.AllowedHeaders, WildcardHeader)
}

// AllowsOrigin reports whether origin is granted by the rule. Origins are
// compared case-insensitively, as rs/cors compares them.
func (r CorsRule) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if r.AllowsAnyOrigin() {
		return true
	}
	return slices.ContainsFunc(r.AllowedOrigins, func(allowed string) bool {
		return strings.EqualFold(allowed, origin)
	})
}

// AllowsMethod reports whether method is in the allowed method set.
func (r CorsRule) AllowsMethod(method string) bool {
	return slices.Contains(r.AllowedMethods, method)
}
