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

// Package tracing configures the OTLP trace pipeline and provides the span
// helpers used around brief operations and collaborator calls.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope of every span started here
const ScopeName = "github.com/opentrusty/contenthub"

// Span attribute keys shared by services and collaborator clients
const (
	AttrClientID     = attribute.Key("contenthub.client_id")
	AttrBriefID      = attribute.Key("contenthub.brief_id")
	AttrCollaborator = attribute.Key("contenthub.collaborator")
	AttrOperation    = attribute.Key("contenthub.operation")
)

// Config holds tracing configuration
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	// SamplingRate is the ratio of new root traces kept; outside (0,1] means all
	SamplingRate float64
}

// Provider owns the SDK tracer provider when tracing is enabled
type Provider struct {
	sdk *sdktrace.TracerProvider
}

// New installs the global tracer provider and W3C propagators. When
// disabled the global no-op provider stays in place.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{}, nil
	}

	// Endpoint and headers come from the standard OTEL_EXPORTER_OTLP_* variables
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SamplingRate)),
	)

	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{sdk: sdk}, nil
}

// Sampler follows the caller's sampling decision and samples new roots at rate
func Sampler(rate float64) sdktrace.Sampler {
	if rate <= 0 || rate > 1 {
		rate = 1
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// Shutdown flushes pending spans
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// Start opens a span on the global provider. The returned func ends it and
// marks it failed when given a non-nil error.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := otel.Tracer(ScopeName).Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		RecordError(span, err)
		span.End()
	}
}

// StartCollaborator opens a client span around a call to an external
// collaborator
func StartCollaborator(ctx context.Context, collaborator, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	attrs = append([]attribute.KeyValue{
		AttrCollaborator.String(collaborator),
		AttrOperation.String(operation),
	}, attrs...)
	ctx, span := otel.Tracer(ScopeName).Start(ctx, collaborator+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		RecordError(span, err)
		span.End()
	}
}

// RecordError marks span as failed with err
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
