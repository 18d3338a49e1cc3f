// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/opentrusty/contenthub/internal/config"
	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/identity"
	"github.com/opentrusty/contenthub/internal/imagegen"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/observability/metrics"
	"github.com/opentrusty/contenthub/internal/observability/tracing"
	"github.com/opentrusty/contenthub/internal/session"
	"github.com/opentrusty/contenthub/internal/store/memory"
	"github.com/opentrusty/contenthub/internal/store/postgres"
	"github.com/opentrusty/contenthub/internal/store/seed"
	transportHTTP "github.com/opentrusty/contenthub/internal/transport/http"
	"github.com/opentrusty/contenthub/internal/workflow"
)

// limiterSweepInterval is how often idle rate limit buckets are dropped
const limiterSweepInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		MaxValueLen: cfg.Observability.LogMaxValueLen,
		OTELEnabled: cfg.Observability.OTELEnabled,
	})
	slog.Info("starting contenthub", logger.String("store", cfg.Store.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// stores groups the repositories of the selected driver
type stores struct {
	domains     content.DomainRepository
	guides      content.BrandGuideRepository
	briefs      content.BriefRepository
	users       identity.UserRepository
	sessions    session.Repository
	provisioner seed.Provisioner
	close       func()
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		st := memory.New()
		slog.WarnContext(ctx, "using in-memory store; data is lost on restart")
		return &stores{
			domains:     st.Domains(),
			guides:      st.BrandGuides(),
			briefs:      st.Briefs(),
			users:       st.Users(),
			sessions:    st.Sessions(),
			provisioner: st,
			close:       func() {},
		}, nil
	}

	db, err := postgres.New(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "connected to database")

	return &stores{
		domains:     postgres.NewDomainRepository(db),
		guides:      postgres.NewBrandGuideRepository(db),
		briefs:      postgres.NewBriefRepository(db),
		users:       postgres.NewUserRepository(db),
		sessions:    postgres.NewSessionRepository(db),
		provisioner: postgres.NewProvisioner(db),
		close:       db.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	traceProvider, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := traceProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", logger.Error(err))
		}
	}()

	meter := metrics.New(metrics.Config{Enabled: cfg.Observability.MetricsEnabled}, cfg.Observability.ServiceName)
	recorder, err := metrics.NewContentRecorder(meter)
	if err != nil {
		return fmt.Errorf("failed to initialize content metrics: %w", err)
	}
	var httpMetrics *metrics.HTTPMetrics
	if cfg.Observability.MetricsEnabled {
		httpMetrics = metrics.NewHTTPMetrics()
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.Store.SeedFile != "" {
		f, err := seed.Load(cfg.Store.SeedFile)
		if err != nil {
			return err
		}
		n, err := seed.Apply(ctx, st.provisioner, f)
		if err != nil {
			return fmt.Errorf("failed to apply seed file: %w", err)
		}
		slog.InfoContext(ctx, "applied seed file", logger.String("path", cfg.Store.SeedFile), logger.RowsAffected(int64(n)))
	}

	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	identityService := identity.NewService(
		st.users,
		passwordHasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	sessionService := session.NewService(st.sessions, session.Config{
		Lifetime:    cfg.Session.Lifetime,
		IdleTimeout: cfg.Session.IdleTimeout,
	})

	workflowClient := workflow.NewClient(workflow.Config{
		NewBriefURL:   cfg.Workflow.NewBriefURL,
		PublishURL:    cfg.Workflow.PublishURL,
		ScheduleURL:   cfg.Workflow.ScheduleURL,
		SigningSecret: cfg.Workflow.SigningSecret,
		Timeout:       cfg.Workflow.Timeout,
	})
	imageClient := imagegen.NewClient(imagegen.Config{
		URL:     cfg.ImageGen.URL,
		APIKey:  cfg.ImageGen.APIKey,
		Timeout: cfg.ImageGen.Timeout,
	})

	contentService := content.NewService(
		st.domains,
		st.guides,
		st.briefs,
		workflowClient,
		imageClient,
		auditLogger,
		recorder,
	)

	bootstrapService := identity.NewBootstrapService(identityService)
	if err := bootstrapService.Bootstrap(ctx, identity.BootstrapConfig{
		Email:    cfg.Bootstrap.Email,
		Password: cfg.Bootstrap.Password,
		ClientID: cfg.Bootstrap.ClientID,
		Role:     cfg.Bootstrap.Role,
	}); err != nil {
		return err
	}

	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	loginLimiter := transportHTTP.NewLoginLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	go rateLimiter.Run(ctx, limiterSweepInterval)
	go loginLimiter.Run(ctx, limiterSweepInterval)

	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		contentService,
		auditLogger,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: cfg.Session.SameSite(),
			MaxAge:         cfg.Session.Lifetime,
		},
		loginLimiter,
	)

	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		RateLimiter:       rateLimiter,
		Metrics:           httpMetrics,
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		RequestTimeout:    cfg.Server.RequestTimeout,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go cleanupSessions(ctx, sessionService, cfg.Session.CleanupEvery)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// cleanupSessions removes expired sessions every interval until ctx ends
func cleanupSessions(ctx context.Context, sessions *session.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.CleanupExpired(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "removed expired sessions", logger.RowsAffected(n))
			}
		}
	}
}
