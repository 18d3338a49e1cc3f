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

// Package workflow hands content briefs to the workflow-automation webhooks
// that draft, publish and schedule them.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/observability/tracing"
)

// tokenTTL bounds how long a signed webhook request stays valid
const tokenTTL = 5 * time.Minute

var _ content.Workflow = (*Client)(nil)

// ErrNotConfigured is returned when a required webhook URL is missing
var ErrNotConfigured = errors.New("workflow webhook not configured")

// Config holds the webhook endpoints
type Config struct {
	NewBriefURL   string
	PublishURL    string
	ScheduleURL   string
	SigningSecret string
	Timeout       time.Duration
}

// Claims identify the tenant and brief a webhook call acts on
type Claims struct {
	ClientID string `json:"client_id"`
	BriefID  string `json:"brief_id"`
	jwt.RegisteredClaims
}

// BriefPayload is sent to the new-brief webhook
type BriefPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Brief       string `json:"brief"`
	Domain      string `json:"domain"`
	ContentType string `json:"contentType"`
	ClientID    string `json:"clientId"`
}

// PublishPayload is the brief snapshot sent to the publish and schedule webhooks
type PublishPayload struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	HeroImageURL      string `json:"heroImageUrl,omitempty"`
	HeroImageData     string `json:"heroImageData,omitempty"`
	HeroImageMimeType string `json:"heroImageMimeType,omitempty"`
	Domain            string `json:"domain"`
	ContentType       string `json:"contentType"`
	ClientID          string `json:"clientId"`
	ScheduledAt       string `json:"scheduledAt,omitempty"`
}

// SubmittedBrief is the optional body of a new-brief webhook response
type SubmittedBrief struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Client calls the workflow webhooks over HTTP
type Client struct {
	http   *resty.Client
	cfg    Config
	secret []byte
	now    func() time.Time
}

// NewClient creates a workflow client. Retries are disabled so a failed
// call is reported once and never replayed.
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		cfg:    cfg,
		secret: []byte(cfg.SigningSecret),
		now:    time.Now,
	}
}

// SubmitBrief implements content.Workflow. Without a new-brief webhook the
// brief is created with an empty body.
func (c *Client) SubmitBrief(ctx context.Context, b *content.ContentBrief) (string, error) {
	if c.cfg.NewBriefURL == "" {
		return "", nil
	}

	payload := BriefPayload{
		ID:          b.ID,
		Title:       b.Title,
		Brief:       b.Brief,
		Domain:      b.DomainID,
		ContentType: string(b.ContentType),
		ClientID:    b.ClientID,
	}

	resp, err := c.post(ctx, "submit_brief", c.cfg.NewBriefURL, b, payload)
	if err != nil {
		return "", err
	}
	return decodeSubmitted(resp.Body()), nil
}

// decodeSubmitted reads the drafted body from a new-brief response. The
// webhook may answer with the entity, a one-element list or nothing.
func decodeSubmitted(body []byte) string {
	var one SubmittedBrief
	if err := json.Unmarshal(body, &one); err == nil {
		return one.Content
	}
	var many []SubmittedBrief
	if err := json.Unmarshal(body, &many); err == nil && len(many) > 0 {
		return many[0].Content
	}
	return ""
}

// Publish implements content.Workflow
func (c *Client) Publish(ctx context.Context, b *content.ContentBrief) error {
	if c.cfg.PublishURL == "" {
		return fmt.Errorf("publish: %w", ErrNotConfigured)
	}
	_, err := c.post(ctx, "publish", c.cfg.PublishURL, b, NewPublishPayload(b, nil))
	return err
}

// Schedule implements content.Workflow
func (c *Client) Schedule(ctx context.Context, b *content.ContentBrief, at time.Time) error {
	if c.cfg.ScheduleURL == "" {
		return fmt.Errorf("schedule: %w", ErrNotConfigured)
	}
	_, err := c.post(ctx, "schedule", c.cfg.ScheduleURL, b, NewPublishPayload(b, &at))
	return err
}

// NewPublishPayload flattens a brief into the webhook snapshot. The hero
// image travels both as display URL and as raw base64 with its type.
func NewPublishPayload(b *content.ContentBrief, at *time.Time) PublishPayload {
	p := PublishPayload{
		ID:          b.ID,
		Title:       b.Title,
		Content:     b.Content,
		Domain:      b.DomainID,
		ContentType: string(b.ContentType),
		ClientID:    b.ClientID,
	}
	if b.HeroImage != nil {
		p.HeroImageURL = b.HeroImage.DisplayURL()
		p.HeroImageData = b.HeroImage.Base64()
		p.HeroImageMimeType = b.HeroImage.MimeType
	}
	switch {
	case at != nil:
		p.ScheduledAt = at.UTC().Format(time.RFC3339)
	case b.ScheduledAt != nil:
		p.ScheduledAt = b.ScheduledAt.UTC().Format(time.RFC3339)
	}
	return p
}

func (c *Client) post(ctx context.Context, operation, url string, b *content.ContentBrief, body any) (_ *resty.Response, err error) {
	ctx, end := tracing.StartCollaborator(ctx, "workflow", operation,
		tracing.AttrClientID.String(b.ClientID),
		tracing.AttrBriefID.String(b.ID),
	)
	defer func() { end(err) }()

	token, err := c.sign(b.ClientID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign webhook request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(body).
		Post(url)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}

	slog.DebugContext(ctx, "workflow webhook called",
		logger.ClientID(b.ClientID),
		logger.BriefID(b.ID),
		logger.StatusCode(resp.StatusCode()),
		logger.Duration(time.Since(start).Milliseconds()),
	)

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return resp, nil
}

// sign issues a short-lived HS256 token naming the tenant and brief
func (c *Client) sign(clientID, briefID string) (string, error) {
	now := c.now()
	claims := &Claims{
		ClientID: clientID,
		BriefID:  briefID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   "contenthub",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifyToken validates a token issued by a Client with the same secret.
// Webhook receivers written in Go can use it to check the tenant.
func VerifyToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
