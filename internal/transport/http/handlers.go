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

// @title ContentHub API
// @version 1.0
// @description Multi-tenant content operations dashboard backend
// @BasePath /api
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name contenthub_session

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/identity"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/observability/metrics"
	"github.com/opentrusty/contenthub/internal/session"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	sessionService  *session.Service
	contentService  *content.Service
	auditLogger     audit.Logger
	sessionConfig   SessionConfig
	loginLimiter    *RateLimiter
	now             func() time.Time
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
	MaxAge         time.Duration
}

// RouterConfig holds the cross-cutting router settings
type RouterConfig struct {
	RateLimiter    *RateLimiter
	Metrics        *metrics.HTTPMetrics
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	AllowedOrigins []string
	// TrustProxyHeaders rewrites RemoteAddr from the proxy headers
	TrustProxyHeaders bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	contentService *content.Service,
	auditLogger audit.Logger,
	sessionConfig SessionConfig,
	loginLimiter *RateLimiter,
) *Handler {
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Handler{
		identityService: identityService,
		sessionService:  sessionService,
		contentService:  contentService,
		auditLogger:     auditLogger,
		sessionConfig:   sessionConfig,
		loginLimiter:    loginLimiter,
		now:             time.Now,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		r.Group(func(r chi.Router) {
			if cfg.MaxBodyBytes > 0 {
				r.Use(BodyLimitMiddleware(cfg.MaxBodyBytes))
			}

			r.Post("/auth/login", h.Login)
			r.Post("/auth/logout", h.Logout)

			r.Group(func(r chi.Router) {
				r.Use(h.AuthMiddleware)

				r.Get("/auth/me", h.GetCurrentUser)

				r.Get("/client/{clientId}", h.GetClientData)
				r.Get("/domains", h.ListDomains)
				r.Get("/brand-guides", h.ListBrandGuides)
				r.Patch("/brand-guide/domain/{domainId}", h.UpdateBrandGuide)
				r.Post("/brand-guide/{id}/image", h.SaveBrandGuideImage)

				r.Get("/briefs", h.ListBriefs)
				r.Post("/briefs", h.CreateBrief)
				r.Route("/brief/{id}", func(r chi.Router) {
					r.Use(requireBriefID)
					r.Get("/", h.GetBrief)
					r.Patch("/", h.UpdateBrief)
					r.Delete("/", h.DeleteBrief)
					r.Post("/publish", h.PublishBrief)
					r.Post("/schedule", h.ScheduleBrief)
					r.Post("/hero-image", h.GenerateHeroImage)
					r.Post("/hero-image/edit", h.EditHeroImage)
				})
			})
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" example:"editor@example.com"`
	Password string `json:"password" example:"secret123"`
}

// userView is the public form of a dashboard user
type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ClientID string `json:"clientId"`
}

func newUserView(u *identity.User) userView {
	return userView{ID: u.ID, Email: u.Email, Role: u.Role, ClientID: u.ClientID}
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and create a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 429 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.loginLimiter != nil && !h.loginLimiter.Allow(getIPAddress(r)) {
		respondError(w, http.StatusTooManyRequests, "too many login attempts, please try again later")
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "login", err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, identity.ErrAccountLocked) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeServiceError(w, r, "login", err)
		return
	}

	sess, err := h.sessionService.Create(r.Context(), user.ClientID, user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setSessionCookie(w, sess.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    newUserView(user),
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Destroy the current session
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := h.getSessionFromCookie(r)
	if sessionID == "" {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	sess, err := h.sessionService.Get(r.Context(), sessionID)
	if err == nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLogout,
			TenantID:  sess.ClientID,
			ActorID:   sess.UserID,
			Resource:  audit.ResourceSession,
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
		})
	}
	if err := h.sessionService.Destroy(r.Context(), sessionID); err != nil {
		slog.ErrorContext(r.Context(), "failed to destroy session", logger.Error(err))
	}

	h.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// GetCurrentUser returns the current authenticated user
// @Summary Get Current User
// @Description Retrieve details of the currently logged-in user
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/me [get]
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.identityService.GetUser(r.Context(), GetUserID(r.Context()))
	if err != nil {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": newUserView(user)})
}

// Helper functions
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   int(h.sessionConfig.MaxAge.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
