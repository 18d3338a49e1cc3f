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

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/trace"
)

// defaultMaxValueLen caps string attribute values. Brief bodies and image
// payloads otherwise end up verbatim in log lines.
const defaultMaxValueLen = 2048

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	ServiceName string
	// OTELEnabled additionally ships records through the otelslog bridge
	OTELEnabled bool
	// MaxValueLen truncates longer string values; 0 uses the default
	MaxValueLen int
	// Output defaults to os.Stdout
	Output io.Writer
}

// ParseLevel maps a configured level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// InitLogger builds the handler chain and installs it as the slog default
func InitLogger(cfg Config) {
	slog.SetDefault(slog.New(NewHandler(cfg)))
}

// NewHandler returns the stdout handler with trace ids and payload redaction,
// fanned out to the OTel bridge when enabled
func NewHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	maxLen := cfg.MaxValueLen
	if maxLen <= 0 {
		maxLen = defaultMaxValueLen
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Value.Kind() {
			case slog.KindTime:
				if a.Key == slog.TimeKey {
					return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339))
				}
			case slog.KindString:
				return slog.String(a.Key, Scrub(a.Value.String(), maxLen))
			}
			return a
		},
	}

	var base slog.Handler
	if cfg.Format == "json" {
		base = slog.NewJSONHandler(out, opts)
	} else {
		base = slog.NewTextHandler(out, opts)
	}
	var h slog.Handler = &TraceContextHandler{Handler: base}

	if cfg.OTELEnabled {
		h = NewFanoutHandler(h, &scrubHandler{
			Handler: otelslog.NewHandler(cfg.ServiceName),
			maxLen:  maxLen,
		})
	}
	return h
}

// Scrub replaces the payload of every base64 data URI in s with its size and
// truncates the result to maxLen bytes
func Scrub(s string, maxLen int) string {
	if strings.Contains(s, "data:") {
		s = redactDataURIs(s)
	}
	if maxLen > 0 && len(s) > maxLen {
		return s[:maxLen] + fmt.Sprintf("...[%d bytes truncated]", len(s)-maxLen)
	}
	return s
}

func redactDataURIs(s string) string {
	var b strings.Builder
	for {
		start := strings.Index(s, "data:")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		marker := strings.Index(s[start:], ";base64,")
		// A media type never contains spaces; anything else is prose.
		if marker < 0 || strings.ContainsAny(s[start:start+marker], " \n\t") {
			b.WriteString(s[:start+len("data:")])
			s = s[start+len("data:"):]
			continue
		}
		payload := start + marker + len(";base64,")
		end := payload
		for end < len(s) && isBase64Char(s[end]) {
			end++
		}
		b.WriteString(s[:payload])
		fmt.Fprintf(&b, "[%d bytes redacted]", end-payload)
		s = s[end:]
	}
}

func isBase64Char(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '/' || c == '='
}

// scrubHandler applies Scrub to a handler that has no ReplaceAttr hook
type scrubHandler struct {
	slog.Handler
	maxLen int
}

func (h *scrubHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, Scrub(r.Message, h.maxLen), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		if a.Value.Kind() == slog.KindString {
			a = slog.String(a.Key, Scrub(a.Value.String(), h.maxLen))
		}
		out.AddAttrs(a)
		return true
	})
	return h.Handler.Handle(ctx, out)
}

func (h *scrubHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	scrubbed := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		if a.Value.Kind() == slog.KindString {
			a = slog.String(a.Key, Scrub(a.Value.String(), h.maxLen))
		}
		scrubbed[i] = a
	}
	return &scrubHandler{Handler: h.Handler.WithAttrs(scrubbed), maxLen: h.maxLen}
}

func (h *scrubHandler) WithGroup(name string) slog.Handler {
	return &scrubHandler{Handler: h.Handler.WithGroup(name), maxLen: h.maxLen}
}

// TraceContextHandler adds trace/span IDs to the record from context
type TraceContextHandler struct {
	slog.Handler
}

func (h *TraceContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *TraceContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceContextHandler) WithGroup(name string) slog.Handler {
	return &TraceContextHandler{Handler: h.Handler.WithGroup(name)}
}

// FanoutHandler sends each record to every enabled handler
type FanoutHandler struct {
	handlers []slog.Handler
}

func NewFanoutHandler(handlers ...slog.Handler) slog.Handler {
	return &FanoutHandler{handlers: handlers}
}

func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle gives each handler its own copy of the record. A failing handler
// does not stop the others.
func (h *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			_ = handler.Handle(ctx, r.Clone())
		}
	}
	return nil
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return NewFanoutHandler(handlers...)
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return NewFanoutHandler(handlers...)
}
