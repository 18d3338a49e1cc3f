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

// Package imagegen calls the generative image service used for hero images.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/observability/tracing"
)

var _ content.ImageGenerator = (*Client)(nil)

// ErrGenerationFailed is the single error callers see for any failure
var ErrGenerationFailed = errors.New("image generation failed")

// Config holds the image service endpoint
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	StylePrompt    string `json:"stylePrompt,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

type editRequest struct {
	Image          string `json:"image"`
	Instruction    string `json:"instruction"`
	StylePrompt    string `json:"stylePrompt,omitempty"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

type imageResponse struct {
	Image string `json:"image"`
}

// Client talks to the image service
type Client struct {
	http *resty.Client
	cfg  Config
}

// NewClient creates an image service client
func NewClient(cfg Config) *Client {
	httpClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: httpClient, cfg: cfg}
}

// Generate creates an image from a prompt and returns it as a data URI
func (c *Client) Generate(ctx context.Context, prompt string, style content.ImageStyle) (string, error) {
	return c.call(ctx, "/generate", generateRequest{
		Prompt:         prompt,
		StylePrompt:    style.StylePrompt,
		ReferenceImage: style.ReferenceImage,
	})
}

// Edit modifies sourceImage according to instruction and returns a data URI
func (c *Client) Edit(ctx context.Context, sourceImage, instruction string, style content.ImageStyle) (string, error) {
	return c.call(ctx, "/edit", editRequest{
		Image:          sourceImage,
		Instruction:    instruction,
		StylePrompt:    style.StylePrompt,
		ReferenceImage: style.ReferenceImage,
	})
}

func (c *Client) call(ctx context.Context, path string, body any) (_ string, err error) {
	ctx, end := tracing.StartCollaborator(ctx, "imagegen", strings.TrimPrefix(path, "/"))
	defer func() { end(err) }()

	if c.cfg.URL == "" {
		return "", fmt.Errorf("%w: service URL not configured", ErrGenerationFailed)
	}

	var out imageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("%w: status %d", ErrGenerationFailed, resp.StatusCode())
	}
	if !strings.HasPrefix(out.Image, "data:image/") {
		return "", fmt.Errorf("%w: response carries no image", ErrGenerationFailed)
	}
	return out.Image, nil
}
