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

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/tenant"
)

// tenantHeaders are never accepted as a tenant boundary
var tenantHeaders = []string{"X-Tenant-ID", "X-Client-ID"}

// LoggingMiddleware logs the start and end of each HTTP request
func LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			slog.DebugContext(r.Context(), "http_request_start",
				logger.RequestID(middleware.GetReqID(r.Context())),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				slog.InfoContext(r.Context(), "http_request_end",
					logger.RequestID(middleware.GetReqID(r.Context())),
					logger.Method(r.Method),
					logger.Path(r.URL.Path),
					logger.RemoteAddr(getIPAddress(r)),
					logger.UserAgent(r.UserAgent()),
					logger.StatusCode(ww.Status()),
					logger.Duration(time.Since(start).Milliseconds()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// BodyLimitMiddleware caps request bodies at max bytes. Handlers see a
// *http.MaxBytesError when decoding an oversized body.
func BodyLimitMiddleware(max int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > max {
				respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware resolves the session cookie into the verified caller.
// The tenant is taken from the session only.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := h.getSessionFromCookie(r)
		if sessionID == "" {
			respondError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		sess, err := h.sessionService.Get(r.Context(), sessionID)
		if err != nil {
			h.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		for _, header := range tenantHeaders {
			if r.Header.Get(header) == "" {
				continue
			}
			slog.WarnContext(r.Context(), "tenant header rejected on authenticated route",
				logger.ClientID(sess.ClientID),
				logger.UserID(sess.UserID),
				logger.String("header", header),
			)
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeTenantHeaderRejected,
				TenantID:  sess.ClientID,
				ActorID:   sess.UserID,
				Resource:  r.URL.Path,
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
				Metadata:  map[string]any{"header": header},
			})
			respondError(w, http.StatusBadRequest, header+" header is not allowed; the client is derived from the session")
			return
		}

		if err := h.sessionService.Refresh(r.Context(), sess); err != nil {
			slog.ErrorContext(r.Context(), "failed to refresh session", logger.Error(err))
		}

		ctx := tenant.WithPrincipal(r.Context(), tenant.Caller{ClientID: sess.ClientID, UserID: sess.UserID})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
