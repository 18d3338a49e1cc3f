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

package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/observability/logger"
)

// Config holds metrics configuration
type Config struct {
	Enabled bool
}

// Meter wraps OpenTelemetry meter
type Meter struct {
	meter metric.Meter
}

// New creates a new meter instance backed by the global meter provider
func New(cfg Config, serviceName string) *Meter {
	if !cfg.Enabled {
		return &Meter{meter: otel.Meter("noop")}
	}
	return &Meter{meter: otel.Meter(serviceName)}
}

// GetMeter returns the underlying meter
func (m *Meter) GetMeter() metric.Meter {
	return m.meter
}

// CreateCounter creates a new counter metric
func (m *Meter) CreateCounter(name, description string) (metric.Int64Counter, error) {
	counter, err := m.meter.Int64Counter(
		name,
		metric.WithDescription(description),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return counter, nil
}

// ContentRecorder counts content lifecycle events. It implements
// content.Recorder.
type ContentRecorder struct {
	briefsCreated        metric.Int64Counter
	transitions          metric.Int64Counter
	collaboratorFailures metric.Int64Counter
	domainsInferred      metric.Int64Counter
}

var _ content.Recorder = (*ContentRecorder)(nil)

// NewContentRecorder registers the content counters on m
func NewContentRecorder(m *Meter) (*ContentRecorder, error) {
	var r ContentRecorder
	var err error

	if r.briefsCreated, err = m.CreateCounter("contenthub.briefs.created", "Content briefs created"); err != nil {
		return nil, err
	}
	if r.transitions, err = m.CreateCounter("contenthub.briefs.transitions", "Brief lifecycle transitions by target status"); err != nil {
		return nil, err
	}
	if r.collaboratorFailures, err = m.CreateCounter("contenthub.collaborator.failures", "Failed workflow and image service calls"); err != nil {
		return nil, err
	}
	if r.domainsInferred, err = m.CreateCounter("contenthub.briefs.domain_inferred", "Brief mutations that acted on an inferred domain"); err != nil {
		return nil, err
	}

	return &r, nil
}

func (r *ContentRecorder) BriefCreated(ctx context.Context, clientID string) {
	r.briefsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("client_id", clientID)))
}

func (r *ContentRecorder) BriefTransitioned(ctx context.Context, clientID string, to content.Status) {
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_id", clientID),
		attribute.String("status", string(to)),
	))
}

func (r *ContentRecorder) CollaboratorFailed(ctx context.Context, collaborator, operation string) {
	r.collaboratorFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("collaborator", collaborator),
		attribute.String("operation", operation),
	))
	slog.DebugContext(ctx, "collaborator failure recorded",
		logger.Component(collaborator),
		logger.Operation(operation),
	)
}

func (r *ContentRecorder) DomainInferred(ctx context.Context, clientID string) {
	r.domainsInferred.Add(ctx, 1, metric.WithAttributes(attribute.String("client_id", clientID)))
}
