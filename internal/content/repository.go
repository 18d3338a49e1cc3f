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

import "context"

// DomainRepository reads provisioned domains. Domains are created out of band.
type DomainRepository interface {
	// ListByClient returns the tenant's domains ordered by creation, then id
	ListByClient(ctx context.Context, clientID string) ([]*Domain, error)
}

// BrandGuideRepository defines the interface for brand guide persistence
type BrandGuideRepository interface {
	// ListByClient returns the tenant's guides ordered by domain id
	ListByClient(ctx context.Context, clientID string) ([]*BrandGuide, error)

	// GetByID retrieves a guide by id regardless of tenant; callers authorize
	GetByID(ctx context.Context, id string) (*BrandGuide, error)

	// GetByDomain retrieves the guide of a domain within a tenant
	GetByDomain(ctx context.Context, clientID, domainID string) (*BrandGuide, error)

	// Update writes the mutable text fields and the style image
	Update(ctx context.Context, guide *BrandGuide) error

	// SaveImage replaces only the style image
	SaveImage(ctx context.Context, clientID, id string, img ImageRef) error
}

// BriefRepository defines the interface for content brief persistence
type BriefRepository interface {
	// ListByClient returns the tenant's briefs, newest first, ties by id
	ListByClient(ctx context.Context, clientID string) ([]*ContentBrief, error)

	// GetByID retrieves a brief by id regardless of tenant; callers authorize
	GetByID(ctx context.Context, id string) (*ContentBrief, error)

	// Create inserts a brief; ErrConflict if the id is taken
	Create(ctx context.Context, brief *ContentBrief) error

	// Update writes every mutable field of the brief within its tenant
	Update(ctx context.Context, brief *ContentBrief) error

	// Delete removes a brief permanently
	Delete(ctx context.Context, clientID, id string) error
}
