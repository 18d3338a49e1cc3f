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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Event types
const (
	TypeLoginSuccess         = "login_success"
	TypeLoginFailed          = "login_failed"
	TypeLogout               = "logout"
	TypeUserLocked           = "user_locked"
	TypeUserCreated          = "user_created"
	TypeTenantHeaderRejected = "tenant_header_rejected"
	TypeBriefCreated         = "brief_created"
	TypeBriefUpdated         = "brief_updated"
	TypeBriefDeleted         = "brief_deleted"
	TypeBriefPublished       = "brief_published"
	TypeBriefScheduled       = "brief_scheduled"
	TypeHeroImageGenerated   = "hero_image_generated"
	TypeBrandGuideUpdated    = "brand_guide_updated"
	TypeBrandGuideImageSaved = "brand_guide_image_saved"
	TypeDomainInferred       = "domain_inferred"
	TypeCollaboratorFailed   = "collaborator_failed"
)

// Resources
const (
	ResourceSession    = "session"
	ResourceBrief      = "content_brief"
	ResourceBrandGuide = "brand_guide"
)

// Metadata keys
const (
	AttrReason       = "reason"
	AttrAttempts     = "attempts"
	AttrEmail        = "email"
	AttrDomainID     = "domain_id"
	AttrStatus       = "status"
	AttrScheduledAt  = "scheduled_at"
	AttrCollaborator = "collaborator"
	AttrFields       = "fields"
	AttrMimeType     = "mime_type"
	AttrSizeBytes    = "size_bytes"
)

// ActorSystem marks events not triggered by an authenticated user
const ActorSystem = "system"

// Event represents an auditable action
type Event struct {
	Type      string
	TenantID  string
	ActorID   string
	Resource  string
	Metadata  map[string]any
	Timestamp time.Time
	IPAddress string
	UserAgent string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger backed by the default slog logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// NewSlogLoggerWith creates an audit logger writing to l
func NewSlogLoggerWith(l *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.String("resource", event.Resource),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}

	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	attrs = append(attrs, slog.String("component", "audit"))

	lg := l.logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.InfoContext(ctx, "AUDIT_EVENT", attrs...)
}

// NopLogger discards all events
type NopLogger struct{}

// Log implements Logger
func (NopLogger) Log(context.Context, Event) {}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "authorization", "hash", "credential", "image_data"}
	for _, s := range secrets {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
