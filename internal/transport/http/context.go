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

package http

import (
	"context"

	"github.com/opentrusty/contenthub/internal/tenant"
)

// GetTenantID returns the tenant of the verified caller, or "" when the
// request is unauthenticated. It is the only source of tenant identity.
func GetTenantID(ctx context.Context) string {
	p, ok := tenant.FromContext(ctx)
	if !ok {
		return ""
	}
	return p.TenantID()
}

// GetUserID returns the authenticated user id from context
func GetUserID(ctx context.Context) string {
	p, ok := tenant.FromContext(ctx)
	if !ok {
		return ""
	}
	if c, ok := p.(tenant.Caller); ok {
		return c.UserID
	}
	return ""
}
