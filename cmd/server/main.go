package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/corsgate/internal/config"
	"github.com/benvon/corsgate/internal/handlers"
	"github.com/benvon/corsgate/internal/logger"
	"github.com/benvon/corsgate/internal/middleware"
	"github.com/benvon/corsgate/internal/server"
	"github.com/benvon/corsgate/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging (including CORS decisions)")
	flag.Parse()

	// No logger yet, so configuration errors go through the standard log.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	cfg.ServerDebugMode = cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.New(cfg.LogFormat, cfg.ServerDebugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	rule := cfg.CorsRule()
	zapLogger.Info("starting_server",
		zap.String("version", handlers.Version),
		zap.Bool("debug_mode", cfg.ServerDebugMode),
		zap.String("addr", cfg.Addr()),
		zap.String("cors_path_pattern", rule.PathPattern),
		zap.Strings("cors_allowed_origins", rule.AllowedOrigins),
		zap.String("cors_policy_file", cfg.CORSPolicyFile),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := server.Options{}

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, handlers.Version, cfg.OTELEndpoint, true)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				opts.Tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	if cfg.RedisURL != "" {
		redisLimiter, err := middleware.NewRedisRateLimiter(ctx, cfg.RedisURL)
		if err != nil {
			fatal(zapLogger, "failed_to_connect_to_redis", err)
		}
		defer func() {
			if err := redisLimiter.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		opts.Redis = redisLimiter
		zapLogger.Info("connected_to_redis")
	}

	srv, err := server.New(cfg, zapLogger, opts)
	if err != nil {
		fatal(zapLogger, "invalid_server_configuration", err)
	}

	if err := srv.Run(ctx); err != nil {
		fatal(zapLogger, "server_failed", err)
	}
}

// fatal logs and exits non-zero. Deferred cleanups are skipped, as with
// log.Fatal, so the logger is flushed explicitly.
func fatal(l *zap.Logger, msg string, err error) {
	l.Error(msg, zap.Error(err))
	_ = logger.Sync(l)
	os.Exit(1)
}
