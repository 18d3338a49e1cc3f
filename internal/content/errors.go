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

import "errors"

// Domain errors
var (
	// ErrValidation marks malformed or missing input; the message is safe to show
	ErrValidation = errors.New("validation error")

	// ErrNotFound covers both missing resources and resources of another tenant
	ErrNotFound = errors.New("not found")

	// ErrLocked is returned when the brief lifecycle forbids a mutation
	ErrLocked = errors.New("brief is locked")

	// ErrCollaborator wraps failures of the workflow or image collaborators
	ErrCollaborator = errors.New("collaborator failure")

	// ErrConflict is returned by repositories on identifier collisions
	ErrConflict = errors.New("conflict")
)
