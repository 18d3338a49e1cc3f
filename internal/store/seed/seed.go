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

// Package seed loads tenant domains and brand guides from a YAML file and
// provisions them into a store. Domains are never created through the API.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/tenant"
)

// ErrInvalidSeed indicates a malformed seed file
var ErrInvalidSeed = errors.New("invalid seed file")

// Provisioner writes out-of-band records into a store
type Provisioner interface {
	ProvisionDomain(ctx context.Context, d *content.Domain) error
	ProvisionBrandGuide(ctx context.Context, g *content.BrandGuide) error
}

// File is the root of a seed document
type File struct {
	Tenants []Tenant `yaml:"tenants"`
}

// Tenant groups the domains of one client
type Tenant struct {
	ClientID string   `yaml:"clientId"`
	Domains  []Domain `yaml:"domains"`
}

// Domain is a provisioned domain with an optional brand guide
type Domain struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	BrandGuide *BrandGuide `yaml:"brandGuide"`
}

// BrandGuide is the initial style configuration of a domain
type BrandGuide struct {
	ID          string `yaml:"id"`
	StylePrompt string `yaml:"stylePrompt"`
	ToneOfVoice string `yaml:"toneOfVoice"`
}

// Load reads and validates a seed file
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a seed document
func Parse(raw []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks identifiers and required names
func (f *File) Validate() error {
	guideIDs := map[string]bool{}
	for i, t := range f.Tenants {
		if !tenant.ValidClientID(t.ClientID) {
			return fmt.Errorf("%w: tenants[%d]: invalid clientId %q", ErrInvalidSeed, i, t.ClientID)
		}
		for j, d := range t.Domains {
			if d.ID == "" || d.Name == "" {
				return fmt.Errorf("%w: %s domains[%d]: id and name are required", ErrInvalidSeed, t.ClientID, j)
			}
			if d.BrandGuide == nil {
				continue
			}
			if d.BrandGuide.ID == "" {
				return fmt.Errorf("%w: %s/%s: brandGuide.id is required", ErrInvalidSeed, t.ClientID, d.ID)
			}
			if guideIDs[d.BrandGuide.ID] {
				return fmt.Errorf("%w: duplicate brandGuide id %q", ErrInvalidSeed, d.BrandGuide.ID)
			}
			guideIDs[d.BrandGuide.ID] = true
		}
	}
	return nil
}

// Apply provisions every domain and guide in the file and returns the
// number of domains written
func Apply(ctx context.Context, p Provisioner, f *File) (int, error) {
	n := 0
	for _, t := range f.Tenants {
		for _, d := range t.Domains {
			if err := p.ProvisionDomain(ctx, &content.Domain{ID: d.ID, Name: d.Name, ClientID: t.ClientID}); err != nil {
				return n, err
			}
			n++

			if d.BrandGuide == nil {
				continue
			}
			g := &content.BrandGuide{
				ID:          d.BrandGuide.ID,
				DomainID:    d.ID,
				ClientID:    t.ClientID,
				StylePrompt: d.BrandGuide.StylePrompt,
				ToneOfVoice: d.BrandGuide.ToneOfVoice,
			}
			if err := p.ProvisionBrandGuide(ctx, g); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}
