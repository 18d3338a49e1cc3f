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

package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/observability/tracing"
)

// heroPromptTemplate frames the brief body for the image collaborator
const heroPromptTemplate = "Based on the following content, create a hero image. Content: %q"

// Publish hands the brief to the publishing workflow and, once accepted,
// marks it Published. Publishing an already Published brief re-sends it.
func (s *Service) Publish(ctx context.Context, clientID, briefID string) (_ *ContentBrief, err error) {
	ctx, end := startSpan(ctx, "Publish", clientID, briefID)
	defer func() { end(err) }()

	read, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}

	if err := s.workflow.Publish(ctx, read.view); err != nil {
		return nil, s.collaboratorError(ctx, clientID, "workflow", "publish", err)
	}

	previous := read.stored.Status
	next := read.stored.Clone()
	next.Status = StatusPublished
	next.UpdatedAt = s.now().UTC()

	if err := s.briefs.Update(ctx, next); err != nil {
		return nil, wrapStoreError("publish brief", err)
	}

	s.recorder.BriefTransitioned(ctx, clientID, StatusPublished)
	logTransition(ctx, next, previous)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBriefPublished,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": briefID, audit.AttrStatus: string(previous)},
	})
	s.noteInference(ctx, clientID, read)

	return read.present(next), nil
}

// Schedule hands the brief to the scheduling workflow and, once accepted,
// marks it Scheduled at the given time. Published briefs cannot be scheduled.
func (s *Service) Schedule(ctx context.Context, clientID, briefID string, at time.Time) (_ *ContentBrief, err error) {
	ctx, end := startSpan(ctx, "Schedule", clientID, briefID)
	defer func() { end(err) }()

	if at.IsZero() {
		return nil, fmt.Errorf("%w: scheduledAt is required", ErrValidation)
	}

	read, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}
	if read.stored.Status == StatusPublished {
		return nil, fmt.Errorf("%w: brief is already published", ErrLocked)
	}

	at = at.UTC()
	if err := s.workflow.Schedule(ctx, read.view, at); err != nil {
		return nil, s.collaboratorError(ctx, clientID, "workflow", "schedule", err)
	}

	previous := read.stored.Status
	next := read.stored.Clone()
	next.Status = StatusScheduled
	next.ScheduledAt = &at
	next.UpdatedAt = s.now().UTC()

	if err := s.briefs.Update(ctx, next); err != nil {
		return nil, wrapStoreError("schedule brief", err)
	}

	s.recorder.BriefTransitioned(ctx, clientID, StatusScheduled)
	logTransition(ctx, next, previous)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBriefScheduled,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": briefID, audit.AttrScheduledAt: at.Format(time.RFC3339)},
	})
	s.noteInference(ctx, clientID, read)

	return read.present(next), nil
}

func logTransition(ctx context.Context, b *ContentBrief, from Status) {
	slog.InfoContext(ctx, "brief transitioned",
		logger.ClientID(b.ClientID),
		logger.BriefID(b.ID),
		logger.String("from_status", string(from)),
		logger.BriefStatus(string(b.Status)),
	)
}

// GenerateHeroImage asks the image collaborator for a hero image matching the
// brief and the domain's brand guide, then attaches it to the brief
func (s *Service) GenerateHeroImage(ctx context.Context, clientID, briefID string) (_ *ContentBrief, err error) {
	ctx, end := startSpan(ctx, "GenerateHeroImage", clientID, briefID)
	defer func() { end(err) }()

	read, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}

	text := read.view.Content
	if strings.TrimSpace(text) == "" {
		text = read.view.Brief
	}

	style, err := s.imageStyle(ctx, clientID, read.view.DomainID)
	if err != nil {
		return nil, err
	}

	uri, err := s.images.Generate(ctx, fmt.Sprintf(heroPromptTemplate, text), style)
	if err != nil {
		return nil, s.collaboratorError(ctx, clientID, "imagegen", "generate", err)
	}

	return s.attachHeroImage(ctx, clientID, read, uri, "generate")
}

// EditHeroImage asks the image collaborator to modify the brief's current
// hero image according to instruction
func (s *Service) EditHeroImage(ctx context.Context, clientID, briefID, instruction string) (_ *ContentBrief, err error) {
	ctx, end := startSpan(ctx, "EditHeroImage", clientID, briefID)
	defer func() { end(err) }()

	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrValidation)
	}

	read, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}
	if read.stored.HeroImage == nil {
		return nil, fmt.Errorf("%w: brief has no hero image to edit", ErrValidation)
	}

	style, err := s.imageStyle(ctx, clientID, read.view.DomainID)
	if err != nil {
		return nil, err
	}

	uri, err := s.images.Edit(ctx, read.stored.HeroImage.DisplayURL(), instruction, style)
	if err != nil {
		return nil, s.collaboratorError(ctx, clientID, "imagegen", "edit", err)
	}

	return s.attachHeroImage(ctx, clientID, read, uri, "edit")
}

func (s *Service) attachHeroImage(ctx context.Context, clientID string, read *briefRead, uri, operation string) (*ContentBrief, error) {
	img, err := ImageFromDataURI(uri, s.now())
	if err != nil {
		return nil, s.collaboratorError(ctx, clientID, "imagegen", operation, err)
	}

	next := read.stored.Clone()
	next.HeroImage = &img
	next.UpdatedAt = img.UpdatedAt

	if err := s.briefs.Update(ctx, next); err != nil {
		return nil, wrapStoreError("save hero image", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeHeroImageGenerated,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{
			"brief_id":          next.ID,
			"operation":         operation,
			audit.AttrMimeType:  img.MimeType,
			audit.AttrSizeBytes: len(img.Data),
		},
	})
	s.noteInference(ctx, clientID, read)

	return read.present(next), nil
}

// imageStyle loads the brand context of a domain; a missing guide yields an
// empty style
func (s *Service) imageStyle(ctx context.Context, clientID, domainID string) (ImageStyle, error) {
	if domainID == "" {
		return ImageStyle{}, nil
	}
	guide, err := s.guides.GetByDomain(ctx, clientID, domainID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ImageStyle{}, nil
		}
		return ImageStyle{}, fmt.Errorf("failed to load brand guide: %w", err)
	}

	style := ImageStyle{StylePrompt: guide.StylePrompt}
	if guide.StyleImage != nil {
		style.ReferenceImage = guide.StyleImage.DisplayURL()
	}
	return style, nil
}

// startSpan opens a span for a brief operation; the returned func ends it
func startSpan(ctx context.Context, op, clientID, briefID string) (context.Context, func(error)) {
	return tracing.Start(ctx, "content."+op,
		tracing.AttrClientID.String(clientID),
		tracing.AttrBriefID.String(briefID),
	)
}
