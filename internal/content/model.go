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

// Package content holds the tenant-scoped content model: domains, brand
// guides and content briefs, together with the rules that govern them.
package content

import (
	"fmt"
	"time"
)

// Status is the publishing state of a content brief
type Status string

// Brief statuses
const (
	StatusDraft     Status = "Draft"
	StatusScheduled Status = "Scheduled"
	StatusPublished Status = "Published"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	}
	return false
}

// ContentType classifies the published form of a brief
type ContentType string

// Content types
const (
	ContentTypeBlog ContentType = "Blog"
	ContentTypeNews ContentType = "News"
	ContentTypePage ContentType = "Page"
)

// Valid reports whether t is a known content type
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeBlog, ContentTypeNews, ContentTypePage:
		return true
	}
	return false
}

// ParseContentType validates a client-supplied content type
func ParseContentType(s string) (ContentType, error) {
	t := ContentType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown content type %q", ErrValidation, s)
	}
	return t, nil
}

// Domain is a publishing destination owned by a tenant
type Domain struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClientID  string    `json:"clientId"`
	CreatedAt time.Time `json:"-"`

	// Synthesized marks a domain derived from brand guides or briefs because
	// the tenant has no provisioned domains. Never persisted.
	Synthesized bool `json:"synthesized,omitempty"`
}

// BrandGuide is the style configuration of one domain
type BrandGuide struct {
	ID          string    `json:"id"`
	DomainID    string    `json:"domainId"`
	ClientID    string    `json:"clientId"`
	StylePrompt string    `json:"stylePrompt"`
	ToneOfVoice string    `json:"toneOfVoice"`
	StyleImage  *ImageRef `json:"styleImage,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ContentBrief is one piece of content from instructions to publication
type ContentBrief struct {
	ID          string      `json:"id"`
	DomainID    string      `json:"domainId"`
	ClientID    string      `json:"clientId"`
	Title       string      `json:"title"`
	Brief       string      `json:"brief"`
	Content     string      `json:"content"`
	Status      Status      `json:"status"`
	ContentType ContentType `json:"contentType"`
	ScheduledAt *time.Time  `json:"scheduledAt,omitempty"`
	HeroImage   *ImageRef   `json:"heroImage,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`

	// DomainInferred is set on read when DomainID was filled in by the
	// inference policy rather than stored. Never persisted.
	DomainInferred bool `json:"domainInferred,omitempty"`
}

// IsLocked reports whether the body and content type are read-only
func (b *ContentBrief) IsLocked() bool {
	return b.Status == StatusScheduled || b.Status == StatusPublished
}

// HeroImageURL returns the display form of the hero image, if any
func (b *ContentBrief) HeroImageURL() string {
	if b.HeroImage == nil {
		return ""
	}
	return b.HeroImage.DisplayURL()
}

// Clone returns a deep copy of the brief
func (b *ContentBrief) Clone() *ContentBrief {
	c := *b
	if b.ScheduledAt != nil {
		at := *b.ScheduledAt
		c.ScheduledAt = &at
	}
	if b.HeroImage != nil {
		img := b.HeroImage.Clone()
		c.HeroImage = &img
	}
	return &c
}

// Clone returns a deep copy of the guide
func (g *BrandGuide) Clone() *BrandGuide {
	c := *g
	if g.StyleImage != nil {
		img := g.StyleImage.Clone()
		c.StyleImage = &img
	}
	return &c
}

// BriefPatch is a partial update of a brief. Nil fields are left unchanged.
type BriefPatch struct {
	Title          *string
	Brief          *string
	Content        *string
	ContentType    *ContentType
	HeroImage      *ImageRef
	ClearHeroImage bool
}

// Fields lists the names of the fields the patch touches
func (p BriefPatch) Fields() []string {
	var f []string
	if p.Title != nil {
		f = append(f, "title")
	}
	if p.Brief != nil {
		f = append(f, "brief")
	}
	if p.Content != nil {
		f = append(f, "content")
	}
	if p.ContentType != nil {
		f = append(f, "contentType")
	}
	if p.HeroImage != nil || p.ClearHeroImage {
		f = append(f, "heroImage")
	}
	return f
}

// BrandGuidePatch is a partial update of a brand guide
type BrandGuidePatch struct {
	StylePrompt     *string
	ToneOfVoice     *string
	StyleImage      *ImageRef
	ClearStyleImage bool
}

// ClientData is everything a tenant's dashboard needs in one read
type ClientData struct {
	Domains     []*Domain       `json:"domains"`
	BrandGuides []*BrandGuide   `json:"brandGuides"`
	Briefs      []*ContentBrief `json:"briefs"`
}
