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

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/id"
)

// imageColumns holds the nullable columns of an image reference
type imageColumns struct {
	url       *string
	data      []byte
	mimeType  *string
	updatedAt *time.Time
}

func (c imageColumns) ref() *content.ImageRef {
	if c.url == nil && len(c.data) == 0 {
		return nil
	}
	img := content.ImageRef{Data: c.data}
	if c.url != nil {
		img.URL = *c.url
	}
	if c.mimeType != nil {
		img.MimeType = *c.mimeType
	}
	if c.updatedAt != nil {
		img.UpdatedAt = *c.updatedAt
	}
	return &img
}

// imageArgs flattens an optional image into column values
func imageArgs(img *content.ImageRef) (url *string, data []byte, mimeType *string, updatedAt *time.Time) {
	if img == nil {
		return nil, nil, nil, nil
	}
	if img.URL != "" {
		url = &img.URL
	}
	if img.MimeType != "" {
		mimeType = &img.MimeType
	}
	at := img.UpdatedAt
	return url, img.Data, mimeType, &at
}

// DomainRepository implements content.DomainRepository
type DomainRepository struct {
	db *DB
}

// NewDomainRepository creates a new domain repository
func NewDomainRepository(db *DB) *DomainRepository {
	return &DomainRepository{db: db}
}

// ListByClient returns the tenant's domains ordered by creation, then id
func (r *DomainRepository) ListByClient(ctx context.Context, clientID string) ([]*content.Domain, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, name, client_id, created_at
		FROM domains
		WHERE client_id = $1
		ORDER BY created_at, id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	domains := []*content.Domain{}
	for rows.Next() {
		var d content.Domain
		if err := rows.Scan(&d.ID, &d.Name, &d.ClientID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

// BrandGuideRepository implements content.BrandGuideRepository
type BrandGuideRepository struct {
	db *DB
}

// NewBrandGuideRepository creates a new brand guide repository
func NewBrandGuideRepository(db *DB) *BrandGuideRepository {
	return &BrandGuideRepository{db: db}
}

const guideColumns = `id, domain_id, client_id, style_prompt, tone_of_voice,
	style_image_url, style_image_data, style_image_mime_type, style_image_updated_at, updated_at`

func scanGuide(row pgx.Row) (*content.BrandGuide, error) {
	var g content.BrandGuide
	var img imageColumns
	err := row.Scan(
		&g.ID, &g.DomainID, &g.ClientID, &g.StylePrompt, &g.ToneOfVoice,
		&img.url, &img.data, &img.mimeType, &img.updatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan brand guide: %w", err)
	}
	g.StyleImage = img.ref()
	return &g, nil
}

// ListByClient returns the tenant's guides ordered by domain id
func (r *BrandGuideRepository) ListByClient(ctx context.Context, clientID string) ([]*content.BrandGuide, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+guideColumns+`
		FROM brand_guides
		WHERE client_id = $1
		ORDER BY domain_id, id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand guides: %w", err)
	}
	defer rows.Close()

	guides := []*content.BrandGuide{}
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// GetByID retrieves a guide by id regardless of tenant
func (r *BrandGuideRepository) GetByID(ctx context.Context, guideID string) (*content.BrandGuide, error) {
	return scanGuide(r.db.pool.QueryRow(ctx, `SELECT `+guideColumns+` FROM brand_guides WHERE id = $1`, guideID))
}

// GetByDomain retrieves the guide of a domain within a tenant
func (r *BrandGuideRepository) GetByDomain(ctx context.Context, clientID, domainID string) (*content.BrandGuide, error) {
	return scanGuide(r.db.pool.QueryRow(ctx, `
		SELECT `+guideColumns+` FROM brand_guides WHERE client_id = $1 AND domain_id = $2
	`, clientID, domainID))
}

// Update writes the text fields and the style image
func (r *BrandGuideRepository) Update(ctx context.Context, g *content.BrandGuide) error {
	url, data, mimeType, imgAt := imageArgs(g.StyleImage)
	result, err := r.db.pool.Exec(ctx, `
		UPDATE brand_guides SET
			style_prompt = $3,
			tone_of_voice = $4,
			style_image_url = $5,
			style_image_data = $6,
			style_image_mime_type = $7,
			style_image_updated_at = $8,
			updated_at = $9
		WHERE id = $1 AND client_id = $2
	`, g.ID, g.ClientID, g.StylePrompt, g.ToneOfVoice, url, data, mimeType, imgAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update brand guide: %w", err)
	}
	if result.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

// SaveImage replaces only the style image
func (r *BrandGuideRepository) SaveImage(ctx context.Context, clientID, guideID string, img content.ImageRef) error {
	url, data, mimeType, imgAt := imageArgs(&img)
	result, err := r.db.pool.Exec(ctx, `
		UPDATE brand_guides SET
			style_image_url = $3,
			style_image_data = $4,
			style_image_mime_type = $5,
			style_image_updated_at = $6,
			updated_at = $6
		WHERE id = $1 AND client_id = $2
	`, guideID, clientID, url, data, mimeType, imgAt)
	if err != nil {
		return fmt.Errorf("failed to save brand guide image: %w", err)
	}
	if result.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

// BriefRepository implements content.BriefRepository
type BriefRepository struct {
	db *DB
}

// NewBriefRepository creates a new brief repository
func NewBriefRepository(db *DB) *BriefRepository {
	return &BriefRepository{db: db}
}

const briefColumns = `id, domain_id, client_id, title, brief, content, status, content_type, scheduled_at,
	hero_image_url, hero_image_data, hero_image_mime_type, hero_image_updated_at, created_at, updated_at`

func scanBrief(row pgx.Row) (*content.ContentBrief, error) {
	var b content.ContentBrief
	var img imageColumns
	err := row.Scan(
		&b.ID, &b.DomainID, &b.ClientID, &b.Title, &b.Brief, &b.Content, &b.Status, &b.ContentType, &b.ScheduledAt,
		&img.url, &img.data, &img.mimeType, &img.updatedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, content.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan brief: %w", err)
	}
	b.HeroImage = img.ref()
	return &b, nil
}

// ListByClient returns the tenant's briefs, newest first, ties by id
func (r *BriefRepository) ListByClient(ctx context.Context, clientID string) ([]*content.ContentBrief, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT `+briefColumns+`
		FROM content_briefs
		WHERE client_id = $1
		ORDER BY created_at DESC, id
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query briefs: %w", err)
	}
	defer rows.Close()

	briefs := []*content.ContentBrief{}
	for rows.Next() {
		b, err := scanBrief(rows)
		if err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

// GetByID retrieves a brief by id regardless of tenant
func (r *BriefRepository) GetByID(ctx context.Context, briefID string) (*content.ContentBrief, error) {
	return scanBrief(r.db.pool.QueryRow(ctx, `SELECT `+briefColumns+` FROM content_briefs WHERE id = $1`, briefID))
}

// Create inserts a brief under a fresh internal row key
func (r *BriefRepository) Create(ctx context.Context, b *content.ContentBrief) error {
	url, data, mimeType, imgAt := imageArgs(b.HeroImage)
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO content_briefs (
			row_id, id, client_id, domain_id, title, brief, content, status, content_type, scheduled_at,
			hero_image_url, hero_image_data, hero_image_mime_type, hero_image_updated_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		id.NewUUIDv7(), b.ID, b.ClientID, b.DomainID, b.Title, b.Brief, b.Content, string(b.Status), string(b.ContentType), b.ScheduledAt,
		url, data, mimeType, imgAt, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return content.ErrConflict
		}
		return fmt.Errorf("failed to insert brief: %w", err)
	}
	return nil
}

// Update writes every mutable field of the brief. A single-row UPDATE keeps
// the write atomic; concurrent editors get last-write-wins.
func (r *BriefRepository) Update(ctx context.Context, b *content.ContentBrief) error {
	url, data, mimeType, imgAt := imageArgs(b.HeroImage)
	result, err := r.db.pool.Exec(ctx, `
		UPDATE content_briefs SET
			title = $3,
			brief = $4,
			content = $5,
			status = $6,
			content_type = $7,
			scheduled_at = $8,
			hero_image_url = $9,
			hero_image_data = $10,
			hero_image_mime_type = $11,
			hero_image_updated_at = $12,
			updated_at = $13
		WHERE id = $1 AND client_id = $2
	`,
		b.ID, b.ClientID, b.Title, b.Brief, b.Content, string(b.Status), string(b.ContentType), b.ScheduledAt,
		url, data, mimeType, imgAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update brief: %w", err)
	}
	if result.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

// Delete removes a brief permanently
func (r *BriefRepository) Delete(ctx context.Context, clientID, briefID string) error {
	result, err := r.db.pool.Exec(ctx, `DELETE FROM content_briefs WHERE id = $1 AND client_id = $2`, briefID, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete brief: %w", err)
	}
	if result.RowsAffected() == 0 {
		return content.ErrNotFound
	}
	return nil
}

// Provisioner writes tenant domains and their brand guides. Domains are
// never created through the API; operator tooling uses this instead.
type Provisioner struct {
	db *DB
}

// NewProvisioner creates a new provisioner
func NewProvisioner(db *DB) *Provisioner {
	return &Provisioner{db: db}
}

// ProvisionDomain creates a domain or renames an existing one
func (p *Provisioner) ProvisionDomain(ctx context.Context, d *content.Domain) error {
	_, err := p.db.pool.Exec(ctx, `
		INSERT INTO domains (row_id, id, client_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (client_id, id) DO UPDATE SET name = EXCLUDED.name
	`, id.NewUUIDv7(), d.ID, d.ClientID, d.Name)
	if err != nil {
		return fmt.Errorf("failed to provision domain: %w", err)
	}
	return nil
}

// ProvisionBrandGuide creates the guide of a domain if it has none
func (p *Provisioner) ProvisionBrandGuide(ctx context.Context, g *content.BrandGuide) error {
	_, err := p.db.pool.Exec(ctx, `
		INSERT INTO brand_guides (row_id, id, client_id, domain_id, style_prompt, tone_of_voice)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id, domain_id) DO NOTHING
	`, id.NewUUIDv7(), g.ID, g.ClientID, g.DomainID, g.StylePrompt, g.ToneOfVoice)
	if err != nil {
		return fmt.Errorf("failed to provision brand guide: %w", err)
	}
	return nil
}
