package middleware

import (
	"fmt"
	"net/http"
	"strings"

	logpkg "github.com/benvon/corsgate/internal/logger"
	"github.com/benvon/corsgate/internal/models"
	"github.com/benvon/corsgate/internal/pathpattern"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const headerAllowOrigin = "Access-Control-Allow-Origin"
const headerAllowMethods = "Access-Control-Allow-Methods"

// CORS registers rule on the request pipeline. Requests whose path matches
// rule.PathPattern are handled by rs/cors; all other requests pass through
// without CORS headers. Preflights for matching paths are answered with 204
// and never reach next.
//
// rs/cors only echoes the requested method on preflights. Whenever it grants
// an origin, the full allowed-method list is written instead.
func CORS(rule models.CorsRule, logger *zap.Logger, debug bool) (func(http.Handler) http.Handler, error) {
	pattern, err := pathpattern.Compile(rule.PathPattern)
	if err != nil {
		return nil, fmt.Errorf("compile cors path pattern: %w", err)
	}
	if len(rule.AllowedMethods) == 0 {
		return nil, fmt.Errorf("cors rule for %s has no allowed methods", rule.PathPattern)
	}

	// Private copy; the caller's slices are not retained.
	rule = rule.Clone()

	opts := cors.Options{
		AllowedOrigins:       rule.AllowedOrigins,
		AllowedMethods:       rule.AllowedMethods,
		AllowedHeaders:       rule.AllowedHeaders,
		AllowCredentials:     rule.AllowCredentials,
		MaxAge:               rule.MaxAge,
		OptionsSuccessStatus: http.StatusNoContent,
		Debug:                debug,
	}
	if debug {
		opts.Logger = zap.NewStdLog(logger.Named("cors"))
	}
	c := cors.New(opts)
	allowMethods := strings.Join(rule.AllowedMethods, ", ")

	logger.Info("cors_rule_registered",
		zap.String("path_pattern", pattern.String()),
		zap.Strings("allowed_origins", rule.AllowedOrigins),
		zap.Strings("allowed_headers", rule.AllowedHeaders),
		zap.String("allowed_methods", allowMethods),
		zap.Bool("allow_credentials", rule.AllowCredentials),
		zap.Int("max_age", rule.MaxAge),
	)

	return func(next http.Handler) http.Handler {
		policy := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !pattern.Match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")
			if origin != "" && !rule.AllowsOrigin(origin) {
				logger.Debug("cors_origin_rejected",
					zap.String("origin", logpkg.SanitizeHeaderValue(origin)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
			}

			cw := &corsResponseWriter{ResponseWriter: w, allowMethods: allowMethods}
			policy.ServeHTTP(cw, r)
			if !cw.wroteHeader {
				// Handler returned without writing; net/http sends the
				// implicit 200 after this, so headers can still change.
				cw.decorate()
			}
		})
	}, nil
}

// corsResponseWriter replaces Access-Control-Allow-Methods with the full
// method list on responses where an origin was granted.
type corsResponseWriter struct {
	http.ResponseWriter
	allowMethods string
	wroteHeader  bool
}

func (cw *corsResponseWriter) decorate() {
	h := cw.Header()
	if h.Get(headerAllowOrigin) != "" {
		h.Set(headerAllowMethods, cw.allowMethods)
	}
}

func (cw *corsResponseWriter) WriteHeader(code int) {
	if !cw.wroteHeader {
		cw.wroteHeader = true
		cw.decorate()
	}
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *corsResponseWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (cw *corsResponseWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
