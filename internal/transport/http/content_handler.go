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
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/tenant"
)

// requireBriefID rejects malformed brief ids before any lookup
func requireBriefID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !content.ValidBriefID(chi.URLParam(r, "id")) {
			respondError(w, http.StatusBadRequest, "invalid brief id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetClientData returns everything the dashboard shows for a client
// @Summary Get client data
// @Description Domains, brand guides and briefs of the session's client. The path id must match the session.
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} content.ClientData
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /client/{clientId} [get]
func (h *Handler) GetClientData(w http.ResponseWriter, r *http.Request) {
	claimed := chi.URLParam(r, "clientId")
	if !tenant.ValidClientID(claimed) {
		respondError(w, http.StatusBadRequest, "invalid clientId")
		return
	}

	clientID := GetTenantID(r.Context())
	if err := tenant.Authorize(claimed, clientID); err != nil {
		respondError(w, http.StatusUnauthorized, "not authorized for this client")
		return
	}

	data, err := h.contentService.ClientData(r.Context(), clientID)
	if err != nil {
		writeServiceError(w, r, "loading client data", err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

// ListDomains returns the client's domains
// @Summary List domains
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Success 200 {array} content.Domain
// @Router /domains [get]
func (h *Handler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.contentService.ListDomains(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "listing domains", err)
		return
	}
	respondJSON(w, http.StatusOK, domains)
}

// ListBrandGuides returns the client's brand guides
// @Summary List brand guides
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Success 200 {array} content.BrandGuide
// @Router /brand-guides [get]
func (h *Handler) ListBrandGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.contentService.ListBrandGuides(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "listing brand guides", err)
		return
	}
	respondJSON(w, http.StatusOK, guides)
}

// ListBriefs returns the client's briefs, newest first
// @Summary List briefs
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Success 200 {array} content.ContentBrief
// @Router /briefs [get]
func (h *Handler) ListBriefs(w http.ResponseWriter, r *http.Request) {
	briefs, err := h.contentService.ListBriefs(r.Context(), GetTenantID(r.Context()))
	if err != nil {
		writeServiceError(w, r, "listing briefs", err)
		return
	}
	respondJSON(w, http.StatusOK, briefs)
}

// CreateBriefRequest represents a new brief
type CreateBriefRequest struct {
	DomainID string `json:"domainId" example:"acme-blog"`
	Title    string `json:"title" example:"Spring launch"`
	Brief    string `json:"brief" example:"Announce the spring collection"`
}

// CreateBrief creates a draft brief
// @Summary Create brief
// @Tags Content
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateBriefRequest true "Brief"
// @Success 201 {object} content.ContentBrief
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /briefs [post]
func (h *Handler) CreateBrief(w http.ResponseWriter, r *http.Request) {
	var req CreateBriefRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "creating brief", err)
		return
	}

	brief, err := h.contentService.CreateBrief(r.Context(), GetTenantID(r.Context()), req.DomainID, req.Title, req.Brief)
	if err != nil {
		writeServiceError(w, r, "creating brief", err)
		return
	}
	respondJSON(w, http.StatusCreated, brief)
}

// GetBrief returns one brief
// @Summary Get brief
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Success 200 {object} content.ContentBrief
// @Failure 404 {object} map[string]string
// @Router /brief/{id} [get]
func (h *Handler) GetBrief(w http.ResponseWriter, r *http.Request) {
	brief, err := h.contentService.GetBrief(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "loading brief", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// UpdateBriefRequest is a partial brief update. Absent fields are left
// unchanged; an empty heroImageUrl removes the hero image.
type UpdateBriefRequest struct {
	Title             *string `json:"title"`
	Brief             *string `json:"brief"`
	Content           *string `json:"content"`
	ContentType       *string `json:"contentType"`
	HeroImageURL      *string `json:"heroImageUrl"`
	HeroImageData     *string `json:"heroImageData"`
	HeroImageMimeType string  `json:"heroImageMimeType"`
}

// UpdateBrief applies a partial update
// @Summary Update brief
// @Tags Content
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Param request body UpdateBriefRequest true "Fields to change"
// @Success 200 {object} content.ContentBrief
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /brief/{id} [patch]
func (h *Handler) UpdateBrief(w http.ResponseWriter, r *http.Request) {
	var req UpdateBriefRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "updating brief", err)
		return
	}

	patch := content.BriefPatch{
		Title:   req.Title,
		Brief:   req.Brief,
		Content: req.Content,
	}
	if req.ContentType != nil {
		ct, err := content.ParseContentType(*req.ContentType)
		if err != nil {
			writeServiceError(w, r, "updating brief", err)
			return
		}
		patch.ContentType = &ct
	}

	img, clearImage, err := parseImageInput(req.HeroImageURL, req.HeroImageData, req.HeroImageMimeType, h.now())
	if err != nil {
		writeServiceError(w, r, "updating brief", err)
		return
	}
	patch.HeroImage = img
	patch.ClearHeroImage = clearImage

	brief, err := h.contentService.UpdateBrief(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, "updating brief", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// DeleteBrief removes a brief permanently
// @Summary Delete brief
// @Tags Content
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /brief/{id} [delete]
func (h *Handler) DeleteBrief(w http.ResponseWriter, r *http.Request) {
	if err := h.contentService.DeleteBrief(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, "deleting brief", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// PublishBrief hands a brief to the publishing workflow
// @Summary Publish brief
// @Tags Lifecycle
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Success 200 {object} content.ContentBrief
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /brief/{id}/publish [post]
func (h *Handler) PublishBrief(w http.ResponseWriter, r *http.Request) {
	brief, err := h.contentService.Publish(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "publishing", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// ScheduleRequest carries the publication time
type ScheduleRequest struct {
	ScheduledAt string `json:"scheduledAt" example:"2026-11-01T09:00:00Z"`
}

// ScheduleBrief hands a brief to the scheduling workflow
// @Summary Schedule brief
// @Tags Lifecycle
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Param request body ScheduleRequest true "Publication time (RFC 3339)"
// @Success 200 {object} content.ContentBrief
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /brief/{id}/schedule [post]
func (h *Handler) ScheduleBrief(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "scheduling", err)
		return
	}

	var at time.Time
	if raw := strings.TrimSpace(req.ScheduledAt); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "scheduledAt must be an RFC 3339 timestamp")
			return
		}
		at = parsed
	}

	brief, err := h.contentService.Schedule(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), at)
	if err != nil {
		writeServiceError(w, r, "scheduling", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// GenerateHeroImage creates a hero image from the brief and brand guide
// @Summary Generate hero image
// @Tags Images
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Success 200 {object} content.ContentBrief
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /brief/{id}/hero-image [post]
func (h *Handler) GenerateHeroImage(w http.ResponseWriter, r *http.Request) {
	brief, err := h.contentService.GenerateHeroImage(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, "image generation", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// EditImageRequest carries the edit instruction
type EditImageRequest struct {
	Instruction string `json:"instruction" example:"make the sky warmer"`
}

// EditHeroImage edits the existing hero image
// @Summary Edit hero image
// @Tags Images
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brief ID"
// @Param request body EditImageRequest true "Instruction"
// @Success 200 {object} content.ContentBrief
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /brief/{id}/hero-image/edit [post]
func (h *Handler) EditHeroImage(w http.ResponseWriter, r *http.Request) {
	var req EditImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "image editing", err)
		return
	}

	brief, err := h.contentService.EditHeroImage(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), req.Instruction)
	if err != nil {
		writeServiceError(w, r, "image editing", err)
		return
	}
	respondJSON(w, http.StatusOK, brief)
}

// UpdateBrandGuideRequest is a partial brand guide update. An empty
// styleImageUrl removes the style image.
type UpdateBrandGuideRequest struct {
	StylePrompt        *string `json:"stylePrompt"`
	ToneOfVoice        *string `json:"toneOfVoice"`
	StyleImageURL      *string `json:"styleImageUrl"`
	StyleImageData     *string `json:"styleImageData"`
	StyleImageMimeType string  `json:"styleImageMimeType"`
}

// UpdateBrandGuide updates the guide of a domain
// @Summary Update brand guide
// @Tags Brand
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param domainId path string true "Domain ID"
// @Param request body UpdateBrandGuideRequest true "Fields to change"
// @Success 200 {object} content.BrandGuide
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /brand-guide/domain/{domainId} [patch]
func (h *Handler) UpdateBrandGuide(w http.ResponseWriter, r *http.Request) {
	var req UpdateBrandGuideRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "updating brand guide", err)
		return
	}

	img, clearImage, err := parseImageInput(req.StyleImageURL, req.StyleImageData, req.StyleImageMimeType, h.now())
	if err != nil {
		writeServiceError(w, r, "updating brand guide", err)
		return
	}

	patch := content.BrandGuidePatch{
		StylePrompt:     req.StylePrompt,
		ToneOfVoice:     req.ToneOfVoice,
		StyleImage:      img,
		ClearStyleImage: clearImage,
	}

	guide, err := h.contentService.UpdateBrandGuide(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "domainId"), patch)
	if err != nil {
		writeServiceError(w, r, "updating brand guide", err)
		return
	}
	respondJSON(w, http.StatusOK, guide)
}

// SaveImageRequest carries a base64 encoded reference image
type SaveImageRequest struct {
	StyleImageData     string `json:"styleImageData"`
	StyleImageMimeType string `json:"styleImageMimeType" example:"image/jpeg"`
}

// SaveBrandGuideImage stores a guide's reference image
// @Summary Save brand guide image
// @Tags Brand
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param id path string true "Brand guide ID"
// @Param request body SaveImageRequest true "Image"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /brand-guide/{id}/image [post]
func (h *Handler) SaveBrandGuideImage(w http.ResponseWriter, r *http.Request) {
	var req SaveImageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, "saving image", err)
		return
	}

	data, mimeType, err := decodeImageData(req.StyleImageData, req.StyleImageMimeType)
	if err != nil {
		writeServiceError(w, r, "saving image", err)
		return
	}

	if _, err := h.contentService.SaveBrandGuideImage(r.Context(), GetTenantID(r.Context()), chi.URLParam(r, "id"), data, mimeType); err != nil {
		writeServiceError(w, r, "saving image", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// parseImageInput turns the wire image fields into a patch. Inline data
// wins over a URL; an empty URL clears the image.
func parseImageInput(rawURL, rawData *string, mimeType string, now time.Time) (*content.ImageRef, bool, error) {
	if rawData != nil && strings.TrimSpace(*rawData) != "" {
		data, mt, err := decodeImageData(*rawData, mimeType)
		if err != nil {
			return nil, false, err
		}
		img, err := content.NewStoredImage(data, mt, now)
		if err != nil {
			return nil, false, err
		}
		return &img, false, nil
	}

	if rawURL == nil {
		return nil, false, nil
	}
	u := strings.TrimSpace(*rawURL)
	if u == "" {
		return nil, true, nil
	}
	if strings.HasPrefix(u, "data:") {
		img, err := content.ImageFromDataURI(u, now)
		if err != nil {
			return nil, false, err
		}
		return &img, false, nil
	}
	img, err := content.NewExternalImage(u, now)
	if err != nil {
		return nil, false, err
	}
	return &img, false, nil
}

// decodeImageData accepts bare base64 or a data URI. A data URI's media
// type is used when no MIME type is given.
func decodeImageData(raw, mimeType string) ([]byte, string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "data:") {
		data, mt, err := content.ParseDataURI(raw)
		if err != nil {
			return nil, "", err
		}
		if mimeType == "" {
			mimeType = mt
		}
		return data, mimeType, nil
	}
	data, err := content.DecodeBase64(raw)
	if err != nil {
		return nil, "", err
	}
	return data, mimeType, nil
}
