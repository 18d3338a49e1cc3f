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

package tenant

import (
	"context"
	"errors"
	"regexp"
)

// ErrAccessDenied is returned when a caller's tenant does not own a resource.
// It deliberately carries no detail about the resource.
var ErrAccessDenied = errors.New("access denied")

// Tenancy Principles:
// 1. The tenant (client) id is derived from a verified session only
// 2. Path parameters and headers are never a tenant boundary
// 3. A resource owned by another tenant looks exactly like a missing one

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Principal is the verified caller of a request
type Principal interface {
	// TenantID returns the authenticated tenant (client) id
	TenantID() string
}

// Caller is the standard Principal built from a verified session
type Caller struct {
	ClientID string
	UserID   string
}

// TenantID implements Principal
func (c Caller) TenantID() string {
	return c.ClientID
}

// Authorize allows access only when the claimed tenant owns the resource.
func Authorize(claimed, actual string) error {
	if claimed == "" || claimed != actual {
		return ErrAccessDenied
	}
	return nil
}

// ValidClientID reports whether id is well-formed
func ValidClientID(id string) bool {
	return clientIDPattern.MatchString(id)
}

type principalKey struct{}

// WithPrincipal attaches the verified caller to ctx
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the verified caller attached to ctx, if any
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p == nil || p.TenantID() == "" {
		return nil, false
	}
	return p, true
}
