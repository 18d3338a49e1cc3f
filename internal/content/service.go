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
	"github.com/opentrusty/contenthub/internal/id"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/tenant"
)

// BriefIDLength is the length of application-minted brief ids
const BriefIDLength = 12

// maxIDAttempts bounds re-minting after an id collision
const maxIDAttempts = 3

// Workflow is the workflow-automation collaborator (new brief, publish, schedule)
type Workflow interface {
	// SubmitBrief hands a new brief to the drafting workflow and returns the
	// initial body it produced, if any
	SubmitBrief(ctx context.Context, brief *ContentBrief) (string, error)

	// Publish hands the complete brief snapshot to the publishing workflow
	Publish(ctx context.Context, brief *ContentBrief) error

	// Schedule hands the complete brief snapshot to the scheduling workflow
	Schedule(ctx context.Context, brief *ContentBrief, at time.Time) error
}

// ImageStyle is the brand context passed to the image collaborator
type ImageStyle struct {
	StylePrompt    string
	ReferenceImage string
}

// ImageGenerator is the generative image collaborator. Both calls return a
// data URI.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, style ImageStyle) (string, error)
	Edit(ctx context.Context, sourceImage, instruction string, style ImageStyle) (string, error)
}

// Recorder receives business metrics
type Recorder interface {
	BriefCreated(ctx context.Context, clientID string)
	BriefTransitioned(ctx context.Context, clientID string, to Status)
	CollaboratorFailed(ctx context.Context, collaborator, operation string)
	DomainInferred(ctx context.Context, clientID string)
}

type nopRecorder struct{}

func (nopRecorder) BriefCreated(context.Context, string)               {}
func (nopRecorder) BriefTransitioned(context.Context, string, Status)  {}
func (nopRecorder) CollaboratorFailed(context.Context, string, string) {}
func (nopRecorder) DomainInferred(context.Context, string)             {}

// Service provides tenant-scoped content business logic
type Service struct {
	domains     DomainRepository
	guides      BrandGuideRepository
	briefs      BriefRepository
	workflow    Workflow
	images      ImageGenerator
	auditLogger audit.Logger
	recorder    Recorder
	now         func() time.Time
	newID       func() (string, error)
}

// NewService creates a new content service
func NewService(
	domains DomainRepository,
	guides BrandGuideRepository,
	briefs BriefRepository,
	workflow Workflow,
	images ImageGenerator,
	auditLogger audit.Logger,
	recorder Recorder,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if auditLogger == nil {
		auditLogger = audit.NopLogger{}
	}
	return &Service{
		domains:     domains,
		guides:      guides,
		briefs:      briefs,
		workflow:    workflow,
		images:      images,
		auditLogger: auditLogger,
		recorder:    recorder,
		now:         time.Now,
		newID:       NewBriefID,
	}
}

// NewBriefID mints a brief identifier
func NewBriefID() (string, error) {
	return id.NewToken(BriefIDLength)
}

// ValidBriefID reports whether s has the shape of a brief identifier
func ValidBriefID(s string) bool {
	return id.IsToken(s, BriefIDLength)
}

// snapshot is one consistent read of a tenant's records
type snapshot struct {
	domains []*Domain
	guides  []*BrandGuide
	briefs  []*ContentBrief
}

func (s *Service) load(ctx context.Context, clientID string) (*snapshot, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}

	domains, err := s.domains.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	guides, err := s.guides.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand guides: %w", err)
	}
	briefs, err := s.briefs.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}

	return &snapshot{
		domains: ownedBy(ctx, clientID, domains, func(d *Domain) string { return d.ClientID }),
		guides:  ownedBy(ctx, clientID, guides, func(g *BrandGuide) string { return g.ClientID }),
		briefs:  ownedBy(ctx, clientID, briefs, func(b *ContentBrief) string { return b.ClientID }),
	}, nil
}

// resolve applies the read-time views: inferred brief domains and, when the
// tenant has no provisioned domains, a synthesized domain list. Reads only
// log inferences; audit records are left to mutations.
func (s *Service) resolve(ctx context.Context, clientID string, snap *snapshot) *ClientData {
	briefs := inferBriefDomains(snap.briefs, snap.domains, snap.guides)
	for _, b := range briefs {
		if b.DomainInferred {
			logInference(ctx, b)
		}
	}

	domains := snap.domains
	if len(domains) == 0 {
		domains = synthesizeDomains(clientID, snap.guides, briefs)
	}

	return &ClientData{
		Domains:     nonNil(domains),
		BrandGuides: nonNil(snap.guides),
		Briefs:      nonNil(briefs),
	}
}

// ClientData returns all domains, brand guides and briefs of a tenant
func (s *Service) ClientData(ctx context.Context, clientID string) (*ClientData, error) {
	snap, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, clientID, snap), nil
}

// ListDomains returns the tenant's domains, synthesized when none are provisioned
func (s *Service) ListDomains(ctx context.Context, clientID string) ([]*Domain, error) {
	data, err := s.ClientData(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return data.Domains, nil
}

// ListBrandGuides returns the tenant's brand guides
func (s *Service) ListBrandGuides(ctx context.Context, clientID string) ([]*BrandGuide, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}
	guides, err := s.guides.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand guides: %w", err)
	}
	return nonNil(ownedBy(ctx, clientID, guides, func(g *BrandGuide) string { return g.ClientID })), nil
}

// ListBriefs returns the tenant's briefs, newest first
func (s *Service) ListBriefs(ctx context.Context, clientID string) ([]*ContentBrief, error) {
	data, err := s.ClientData(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return data.Briefs, nil
}

// GetBrief returns one brief of the tenant, with the same domain inference
// as ListBriefs
func (s *Service) GetBrief(ctx context.Context, clientID, briefID string) (*ContentBrief, error) {
	r, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}
	return r.view, nil
}

// CreateBrief creates a new draft brief in one of the tenant's domains
func (s *Service) CreateBrief(ctx context.Context, clientID, domainID, title, briefText string) (*ContentBrief, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}

	title = strings.TrimSpace(title)
	briefText = strings.TrimSpace(briefText)
	domainID = strings.TrimSpace(domainID)

	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if briefText == "" {
		return nil, fmt.Errorf("%w: brief is required", ErrValidation)
	}
	if domainID == "" {
		return nil, fmt.Errorf("%w: domainId is required", ErrValidation)
	}

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return nil, err
	}
	domains := snap.domains
	if len(domains) == 0 {
		domains = synthesizeDomains(clientID, snap.guides, snap.briefs)
	}
	if !containsDomain(domains, domainID) {
		return nil, fmt.Errorf("%w: domain %q does not belong to this client", ErrValidation, domainID)
	}

	now := s.now().UTC()
	brief := &ContentBrief{
		DomainID:    domainID,
		ClientID:    clientID,
		Title:       title,
		Brief:       briefText,
		Status:      StatusDraft,
		ContentType: ContentTypeBlog,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if brief.ID, err = s.newID(); err != nil {
		return nil, fmt.Errorf("failed to mint brief id: %w", err)
	}

	drafted, err := s.workflow.SubmitBrief(ctx, brief)
	if err != nil {
		return nil, s.collaboratorError(ctx, clientID, "workflow", "submit_brief", err)
	}
	brief.Content = drafted

	for attempt := 1; ; attempt++ {
		err = s.briefs.Create(ctx, brief)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrConflict) || attempt == maxIDAttempts {
			return nil, fmt.Errorf("failed to create brief: %w", err)
		}
		if brief.ID, err = s.newID(); err != nil {
			return nil, fmt.Errorf("failed to mint brief id: %w", err)
		}
	}

	s.recorder.BriefCreated(ctx, clientID)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBriefCreated,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": brief.ID, audit.AttrDomainID: domainID},
	})

	return brief, nil
}

// UpdateBrief applies a partial update. Body and content type are read-only
// once a brief is scheduled or published; metadata and the hero image are not.
func (s *Service) UpdateBrief(ctx context.Context, clientID, briefID string, patch BriefPatch) (*ContentBrief, error) {
	read, err := s.readBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}
	current := read.stored

	next := current.Clone()

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		next.Title = title
	}
	if patch.Brief != nil {
		text := strings.TrimSpace(*patch.Brief)
		if text == "" {
			return nil, fmt.Errorf("%w: brief cannot be empty", ErrValidation)
		}
		next.Brief = text
	}
	if patch.ContentType != nil {
		if !patch.ContentType.Valid() {
			return nil, fmt.Errorf("%w: unknown content type %q", ErrValidation, *patch.ContentType)
		}
		if *patch.ContentType != current.ContentType && current.IsLocked() {
			return nil, fmt.Errorf("%w: content type cannot change once %s", ErrLocked, current.Status)
		}
		next.ContentType = *patch.ContentType
	}
	if patch.Content != nil {
		if *patch.Content != current.Content && current.IsLocked() {
			return nil, fmt.Errorf("%w: content cannot change once %s", ErrLocked, current.Status)
		}
		next.Content = *patch.Content
	}
	switch {
	case patch.ClearHeroImage:
		next.HeroImage = nil
	case patch.HeroImage != nil:
		img := patch.HeroImage.Clone()
		next.HeroImage = &img
	}

	next.UpdatedAt = s.now().UTC()
	if err := s.briefs.Update(ctx, next); err != nil {
		return nil, wrapStoreError("update brief", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBriefUpdated,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": briefID, audit.AttrFields: patch.Fields()},
	})
	s.noteInference(ctx, clientID, read)

	return read.present(next), nil
}

// DeleteBrief permanently removes a brief
func (s *Service) DeleteBrief(ctx context.Context, clientID, briefID string) error {
	if _, err := s.getBrief(ctx, clientID, briefID); err != nil {
		return err
	}

	if err := s.briefs.Delete(ctx, clientID, briefID); err != nil {
		return wrapStoreError("delete brief", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBriefDeleted,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": briefID},
	})

	return nil
}

// SaveBrandGuideImage attaches or replaces a guide's reference image
func (s *Service) SaveBrandGuideImage(ctx context.Context, clientID, guideID string, data []byte, mimeType string) (*BrandGuide, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}

	img, err := NewStoredImage(data, mimeType, s.now())
	if err != nil {
		return nil, err
	}

	guide, err := s.getGuide(ctx, clientID, guideID)
	if err != nil {
		return nil, err
	}

	if err := s.guides.SaveImage(ctx, clientID, guideID, img); err != nil {
		return nil, wrapStoreError("save brand guide image", err)
	}
	guide.StyleImage = &img
	guide.UpdatedAt = img.UpdatedAt

	slog.InfoContext(ctx, "brand guide image saved",
		logger.ClientID(clientID),
		logger.BrandGuideID(guideID),
		logger.String("mime_type", img.MimeType),
	)

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBrandGuideImageSaved,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrandGuide,
		Metadata: map[string]any{
			"brand_guide_id":    guideID,
			audit.AttrMimeType:  img.MimeType,
			audit.AttrSizeBytes: len(img.Data),
		},
	})

	return guide, nil
}

// UpdateBrandGuide applies a partial update to the guide of a domain
func (s *Service) UpdateBrandGuide(ctx context.Context, clientID, domainID string, patch BrandGuidePatch) (*BrandGuide, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}

	current, err := s.guides.GetByDomain(ctx, clientID, domainID)
	if err != nil {
		return nil, wrapStoreError("get brand guide", err)
	}
	if err := tenant.Authorize(clientID, current.ClientID); err != nil {
		return nil, ErrNotFound
	}

	next := current.Clone()
	if patch.StylePrompt != nil {
		next.StylePrompt = *patch.StylePrompt
	}
	if patch.ToneOfVoice != nil {
		next.ToneOfVoice = *patch.ToneOfVoice
	}
	switch {
	case patch.ClearStyleImage:
		next.StyleImage = nil
	case patch.StyleImage != nil:
		img := patch.StyleImage.Clone()
		next.StyleImage = &img
	}
	next.UpdatedAt = s.now().UTC()

	if err := s.guides.Update(ctx, next); err != nil {
		return nil, wrapStoreError("update brand guide", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeBrandGuideUpdated,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: audit.ResourceBrandGuide,
		Metadata: map[string]any{audit.AttrDomainID: domainID},
	})

	return next, nil
}

func (s *Service) getBrief(ctx context.Context, clientID, briefID string) (*ContentBrief, error) {
	if err := requireTenant(clientID); err != nil {
		return nil, err
	}
	brief, err := s.briefs.GetByID(ctx, briefID)
	if err != nil {
		return nil, wrapStoreError("get brief", err)
	}
	if err := tenant.Authorize(clientID, brief.ClientID); err != nil {
		return nil, ErrNotFound
	}
	return brief, nil
}

// briefRead pairs a stored brief with the view reads present. Writes start
// from stored so an inferred domain is never persisted.
type briefRead struct {
	stored *ContentBrief
	view   *ContentBrief
}

// present applies the read-time domain of the view to an updated record
func (r *briefRead) present(next *ContentBrief) *ContentBrief {
	if !r.view.DomainInferred || next.DomainID != "" {
		return next
	}
	c := next.Clone()
	c.DomainID = r.view.DomainID
	c.DomainInferred = true
	return c
}

// readBrief loads a brief of the tenant and, when it has no domain, infers
// one from the tenant's domains and brand guides
func (s *Service) readBrief(ctx context.Context, clientID, briefID string) (*briefRead, error) {
	stored, err := s.getBrief(ctx, clientID, briefID)
	if err != nil {
		return nil, err
	}
	r := &briefRead{stored: stored, view: stored}
	if stored.DomainID != "" {
		return r, nil
	}

	domains, err := s.domains.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	guides, err := s.guides.ListByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand guides: %w", err)
	}

	r.view = inferBriefDomains(
		[]*ContentBrief{stored},
		ownedBy(ctx, clientID, domains, func(d *Domain) string { return d.ClientID }),
		ownedBy(ctx, clientID, guides, func(g *BrandGuide) string { return g.ClientID }),
	)[0]
	if r.view.DomainInferred {
		logInference(ctx, r.view)
	}
	return r, nil
}

// noteInference records that a mutation acted on an inferred domain
func (s *Service) noteInference(ctx context.Context, clientID string, r *briefRead) {
	if !r.view.DomainInferred {
		return
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeDomainInferred,
		TenantID: clientID,
		ActorID:  audit.ActorSystem,
		Resource: audit.ResourceBrief,
		Metadata: map[string]any{"brief_id": r.view.ID, audit.AttrDomainID: r.view.DomainID},
	})
	s.recorder.DomainInferred(ctx, clientID)
}

func logInference(ctx context.Context, b *ContentBrief) {
	slog.WarnContext(ctx, "inferred missing brief domain",
		logger.ClientID(b.ClientID),
		logger.BriefID(b.ID),
		logger.DomainID(b.DomainID),
	)
}

func (s *Service) getGuide(ctx context.Context, clientID, guideID string) (*BrandGuide, error) {
	guide, err := s.guides.GetByID(ctx, guideID)
	if err != nil {
		return nil, wrapStoreError("get brand guide", err)
	}
	if err := tenant.Authorize(clientID, guide.ClientID); err != nil {
		return nil, ErrNotFound
	}
	return guide, nil
}

func (s *Service) collaboratorError(ctx context.Context, clientID, collaborator, operation string, err error) error {
	slog.ErrorContext(ctx, "collaborator call failed",
		logger.ClientID(clientID),
		logger.Component(collaborator),
		logger.Operation(operation),
		logger.Error(err),
	)
	s.recorder.CollaboratorFailed(ctx, collaborator, operation)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeCollaboratorFailed,
		TenantID: clientID,
		ActorID:  actorFrom(ctx),
		Resource: operation,
		Metadata: map[string]any{audit.AttrCollaborator: collaborator},
	})
	return fmt.Errorf("%w: %s %s: %v", ErrCollaborator, collaborator, operation, err)
}

// requireTenant rejects calls without an authenticated tenant
func requireTenant(clientID string) error {
	if clientID == "" {
		return tenant.ErrAccessDenied
	}
	return nil
}

// wrapStoreError keeps ErrNotFound visible and hides everything else
func wrapStoreError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// ownedBy drops records that do not belong to the tenant
func ownedBy[T any](ctx context.Context, clientID string, items []T, owner func(T) string) []T {
	out := items[:0:0]
	for _, it := range items {
		if err := tenant.Authorize(clientID, owner(it)); err != nil {
			slog.ErrorContext(ctx, "repository returned a record of another tenant",
				logger.ClientID(clientID),
			)
			continue
		}
		out = append(out, it)
	}
	return out
}

func containsDomain(domains []*Domain, domainID string) bool {
	for _, d := range domains {
		if d.ID == domainID {
			return true
		}
	}
	return false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// actorFrom returns the acting user recorded on ctx, if any
func actorFrom(ctx context.Context) string {
	p, ok := tenant.FromContext(ctx)
	if !ok {
		return ""
	}
	if c, ok := p.(tenant.Caller); ok {
		return c.UserID
	}
	return ""
}
