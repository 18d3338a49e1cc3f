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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// ImageRef references an image either by external URL or by owned bytes.
// Only the canonical form is stored; the data URI is derived on every read.
type ImageRef struct {
	URL       string
	Data      []byte
	MimeType  string
	UpdatedAt time.Time
}

// NewStoredImage validates an owned image payload. The declared type is kept
// as given so it reads back unchanged; only an empty type is sniffed from the
// bytes.
func NewStoredImage(data []byte, mimeType string, now time.Time) (ImageRef, error) {
	if len(data) == 0 {
		return ImageRef{}, fmt.Errorf("%w: image data is required", ErrValidation)
	}

	declared := mediaType(mimeType)
	if declared == "" {
		detected := mimetype.Detect(data)
		if !strings.HasPrefix(detected.String(), "image/") {
			return ImageRef{}, fmt.Errorf("%w: unable to determine image type", ErrValidation)
		}
		declared = detected.String()
	}
	if !strings.HasPrefix(strings.ToLower(declared), "image/") {
		return ImageRef{}, fmt.Errorf("%w: unsupported MIME type %q", ErrValidation, declared)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return ImageRef{
		Data:      buf,
		MimeType:  declared,
		UpdatedAt: now.UTC(),
	}, nil
}

// NewExternalImage validates an image hosted elsewhere
func NewExternalImage(raw string, now time.Time) (ImageRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ImageRef{}, fmt.Errorf("%w: image URL must be an absolute http(s) URL", ErrValidation)
	}
	return ImageRef{URL: u.String(), UpdatedAt: now.UTC()}, nil
}

// ImageFromDataURI decodes a data URI into a stored image
func ImageFromDataURI(uri string, now time.Time) (ImageRef, error) {
	data, mimeType, err := ParseDataURI(uri)
	if err != nil {
		return ImageRef{}, err
	}
	return NewStoredImage(data, mimeType, now)
}

// IsStored reports whether the image bytes are owned by this service
func (r ImageRef) IsStored() bool {
	return len(r.Data) > 0
}

// DisplayURL returns a self-contained URL suitable for an <img> tag
func (r ImageRef) DisplayURL() string {
	if r.IsStored() {
		return EncodeDataURI(r.Data, r.MimeType)
	}
	return r.URL
}

// Base64 returns the stored bytes base64 encoded, or "" for external images
func (r ImageRef) Base64() string {
	if !r.IsStored() {
		return ""
	}
	return base64.StdEncoding.EncodeToString(r.Data)
}

// Clone returns a deep copy of the reference
func (r ImageRef) Clone() ImageRef {
	c := r
	if r.Data != nil {
		c.Data = make([]byte, len(r.Data))
		copy(c.Data, r.Data)
	}
	return c
}

type imageRefJSON struct {
	URL        string    `json:"url,omitempty"`
	MimeType   string    `json:"mimeType,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
	DisplayURL string    `json:"displayUrl"`
}

// MarshalJSON emits the display form; raw bytes travel only inside displayUrl
func (r ImageRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(imageRefJSON{
		URL:        r.URL,
		MimeType:   r.MimeType,
		UpdatedAt:  r.UpdatedAt,
		DisplayURL: r.DisplayURL(),
	})
}

// EncodeDataURI builds a base64 data URI
func EncodeDataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI decodes a base64 data URI into its bytes and MIME type
func ParseDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data URI", ErrValidation)
	}

	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: malformed data URI", ErrValidation)
	}

	header, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("%w: data URI must be base64 encoded", ErrValidation)
	}

	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, "", err
	}

	return data, mediaType(header), nil
}

// DecodeBase64 accepts standard base64 with or without padding
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: image data is not valid base64", ErrValidation)
	}
	return data, nil
}

// mediaType drops parameters and surrounding space from a MIME type
func mediaType(s string) string {
	s, _, _ = strings.Cut(s, ";")
	return strings.TrimSpace(s)
}
