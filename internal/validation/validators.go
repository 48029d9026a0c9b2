package validation

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/benvon/corsgate/internal/models"
	"github.com/benvon/corsgate/internal/pathpattern"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// ErrInvalidCorsRule wraps every CORS rule validation failure.
	ErrInvalidCorsRule = errors.New("invalid cors rule")
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

func init() {
	Validate = validator.New()

	// These should never fail in normal operation
	if err := Validate.RegisterValidation("path_pattern", validatePathPattern); err != nil {
		panic(fmt.Sprintf("failed to register path_pattern validator: %v", err))
	}
	if err := Validate.RegisterValidation("cors_origin", validateCorsOrigin); err != nil {
		panic(fmt.Sprintf("failed to register cors_origin validator: %v", err))
	}
	if err := Validate.RegisterValidation("header_name", validateHeaderName); err != nil {
		panic(fmt.Sprintf("failed to register header_name validator: %v", err))
	}
	if err := Validate.RegisterValidation("http_method", validateHTTPMethod); err != nil {
		panic(fmt.Sprintf("failed to register http_method validator: %v", err))
	}
	Validate.RegisterStructValidation(validateCorsRuleStruct, models.CorsRule{})
}

// ValidateCorsRule checks a rule before it is registered. Every problem found
// is reported; the returned error wraps ErrInvalidCorsRule.
func ValidateCorsRule(rule models.CorsRule) error {
	err := Validate.Struct(rule)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidCorsRule, err)
	}

	problems := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %w", ErrInvalidCorsRule, errors.Join(problems...))
}

func describeFieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Errorf("%s must not be empty", fe.Field())
	case "gte":
		return fmt.Errorf("%s must not be negative (got %v)", fe.Field(), fe.Value())
	case "path_pattern":
		return fmt.Errorf("%s %q is not a valid path pattern", fe.Field(), fe.Value())
	case "cors_origin":
		return fmt.Errorf("%s %q is not a valid origin (want scheme://host[:port] or '*')", fe.Field(), fe.Value())
	case "header_name":
		return fmt.Errorf("%s %q is not a valid header name", fe.Field(), fe.Value())
	case "http_method":
		return fmt.Errorf("%s %q is not a known HTTP method", fe.Field(), fe.Value())
	case "wildcard_credentials":
		return fmt.Errorf("%s cannot contain '*' when credentials are allowed", fe.Field())
	default:
		return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// validatePathPattern validates that a string compiles as a path pattern
func validatePathPattern(fl validator.FieldLevel) bool {
	_, err := pathpattern.Compile(fl.Field().String())
	return err == nil
}

// validateCorsOrigin accepts "*" or a bare http(s) origin
func validateCorsOrigin(fl validator.FieldLevel) bool {
	return IsOrigin(fl.Field().String())
}

func validateHeaderName(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == models.WildcardHeader || isToken(value)
}

func validateHTTPMethod(fl validator.FieldLevel) bool {
	_, ok := knownMethods[fl.Field().String()]
	return ok
}

// validateCorsRuleStruct rejects the wildcard origin combined with credentials.
func validateCorsRuleStruct(sl validator.StructLevel) {
	rule, ok := sl.Current().Interface().(models.CorsRule)
	if !ok {
		return
	}
	if rule.AllowCredentials && rule.AllowsAnyOrigin() {
		sl.ReportError(rule.AllowedOrigins, "AllowedOrigins", "allowed_origins", "wildcard_credentials", "")
	}
}

// IsOrigin reports whether value is "*" or a scheme://host[:port] origin with
// no path, query or fragment.
func IsOrigin(value string) bool {
	if value == models.WildcardOrigin {
		return true
	}
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" || u.User != nil {
		return false
	}
	return u.Path == "" && u.RawQuery == "" && u.Fragment == "" && !strings.HasSuffix(value, "/")
}

// isToken reports whether s is an RFC 9110 token.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			continue
		}
		if !strings.ContainsRune("!#$%&'*+-.^_`|~", r) {
			return false
		}
	}
	return true
}

// SanitizeText trims whitespace and removes control characters from operator input
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
