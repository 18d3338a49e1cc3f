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
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/tenant"
)

// errInvalidBody marks a request body that is not the expected JSON
var errInvalidBody = fmt.Errorf("%w: invalid request body", content.ErrValidation)

// decodeJSON reads a JSON body into dst. An oversized body keeps its
// *http.MaxBytesError so it maps to 413.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return maxErr
		}
		return errInvalidBody
	}
	return nil
}

// writeServiceError maps a service error to its HTTP status. action names
// the operation in collaborator failure messages, e.g. "publishing".
// Storage and other internal errors are logged and never echoed.
func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr):
		respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, content.ErrValidation):
		respondError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, content.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, content.ErrLocked):
		respondError(w, http.StatusConflict, "content and content type are locked once a brief is scheduled or published")
	case errors.Is(err, content.ErrCollaborator):
		respondError(w, http.StatusBadGateway, action+" failed, please try again")
	case errors.Is(err, tenant.ErrAccessDenied):
		respondError(w, http.StatusUnauthorized, "not authenticated")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.Operation(action),
			logger.Path(r.URL.Path),
			logger.Error(err),
			logger.ErrorType(rootErrorType(err)),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// rootErrorType names the concrete type at the bottom of a wrap chain
func rootErrorType(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return fmt.Sprintf("%T", err)
		}
		err = next
	}
}

// validationMessage strips the sentinel prefix from a validation error
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), content.ErrValidation.Error()+": ")
	if msg == content.ErrValidation.Error() {
		return "invalid request"
	}
	return msg
}
