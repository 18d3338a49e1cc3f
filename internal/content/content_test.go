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
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00\xff\xd9")
)

var gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\x00\x00\x00\xff\xff\xff!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

// TestPurpose: Validates acceptance rules for stored images.
// Scope: Unit Test
// Security: Input validation of binary payloads
// Expected: Empty data and non-image types are rejected; a missing type is sniffed; a declared type is kept as given; data is copied.
// Test Case ID: IMG-01
func TestImage_NewStoredImage(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		data     []byte
		mime     string
		wantMIME string
		wantErr  bool
	}{
		{name: "empty", data: nil, mime: "image/gif", wantErr: true},
		{name: "declared gif", data: gifBytes, mime: "image/gif", wantMIME: "image/gif"},
		{name: "declared with params", data: gifBytes, mime: " Image/GIF; charset=binary", wantMIME: "Image/GIF"},
		{name: "jpg alias", data: jpegBytes, mime: "image/jpg", wantMIME: "image/jpg"},
		{name: "sniffed", data: gifBytes, mime: "", wantMIME: "image/gif"},
		{name: "not an image", data: []byte("hello"), mime: "text/plain", wantErr: true},
		{name: "unknown bytes no type", data: []byte("hello"), mime: "", wantErr: true},
		{name: "declaration differs from content", data: pngBytes, mime: "image/jpeg", wantMIME: "image/jpeg"},
		{name: "sniffed jpeg", data: jpegBytes, mime: "", wantMIME: "image/jpeg"},
		{name: "undetectable bytes declared image", data: []byte{0x01, 0x02, 0x03}, mime: "image/webp", wantMIME: "image/webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewStoredImage(tt.data, tt.mime, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMIME, img.MimeType)
			assert.Equal(t, now, img.UpdatedAt)
			assert.True(t, img.IsStored())
		})
	}

	src := append([]byte(nil), gifBytes...)
	img, err := NewStoredImage(src, "image/gif", now)
	require.NoError(t, err)
	src[0] = 'X'
	assert.Equal(t, byte('G'), img.Data[0])
}

// TestPurpose: Validates data URI encoding and decoding.
// Scope: Unit Test
// Security: Input validation
// Expected: Encode then parse returns the original bytes and type; malformed URIs are validation errors; unpadded base64 is accepted.
// Test Case ID: IMG-02
func TestImage_DataURI(t *testing.T) {
	uri := EncodeDataURI(gifBytes, "image/gif")
	assert.Contains(t, uri, "data:image/gif;base64,")

	data, mime, err := ParseDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, gifBytes, data)
	assert.Equal(t, "image/gif", mime)

	for _, bad := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:image/png,rawbytes",
		"data:image/png;base64,***",
	} {
		_, _, err := ParseDataURI(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}

	raw, err := DecodeBase64("aGVsbG8")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), raw)
}

// TestPurpose: Validates that stored images read back with the declared type.
// Scope: Unit Test
// Security: Data integrity of image payloads
// Expected: The display URI decodes to the original bytes and exactly the declared MIME type, including aliases and uppercase types.
// Test Case ID: IMG-04
func TestImage_RoundTripDeclaredType(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, tc := range []struct {
		data []byte
		mime string
	}{
		{jpegBytes, "image/jpg"},
		{pngBytes, "image/jpeg"},
		{pngBytes, "IMAGE/PNG"},
		{gifBytes, "image/gif"},
	} {
		img, err := NewStoredImage(tc.data, tc.mime, now)
		require.NoError(t, err, tc.mime)

		data, mime, err := ParseDataURI(img.DisplayURL())
		require.NoError(t, err, tc.mime)
		assert.Equal(t, tc.data, data)
		assert.Equal(t, tc.mime, mime)

		fromURI, err := ImageFromDataURI(img.DisplayURL(), now)
		require.NoError(t, err, tc.mime)
		assert.Equal(t, tc.mime, fromURI.MimeType)
	}
}

// TestPurpose: Validates the display form of image references.
// Scope: Unit Test
// Security: Output encoding
// Expected: Stored images render as data URIs, external ones as their URL; JSON exposes displayUrl but not raw bytes.
// Test Case ID: IMG-03
func TestImage_DisplayAndJSON(t *testing.T) {
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	ext, err := NewExternalImage("https://cdn.example.com/hero.png", now)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/hero.png", ext.DisplayURL())
	assert.Empty(t, ext.Base64())

	_, err = NewExternalImage("javascript:alert(1)", now)
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := NewStoredImage(gifBytes, "image/gif", now)
	require.NoError(t, err)

	out, err := json.Marshal(stored)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, EncodeDataURI(gifBytes, "image/gif"), decoded["displayUrl"])
	assert.Equal(t, "image/gif", decoded["mimeType"])
	assert.NotContains(t, decoded, "Data")
}

// TestPurpose: Validates the domain inference order and pseudo-domain synthesis.
// Scope: Unit Test
// Security: Data integrity of legacy records
// Expected: Provisioned domain wins over guide; guide used when no domain; nothing inferred otherwise; synthesis dedups in order.
// Test Case ID: INF-01
func TestInference(t *testing.T) {
	orphan := &ContentBrief{ID: "orphan000001", ClientID: "t1"}
	placed := &ContentBrief{ID: "placed000001", ClientID: "t1", DomainID: "beta"}
	domains := []*Domain{{ID: "d1", ClientID: "t1"}, {ID: "d0", ClientID: "t1"}}
	guides := []*BrandGuide{{ID: "g1", DomainID: "alpha", ClientID: "t1"}}

	got := inferBriefDomains([]*ContentBrief{orphan, placed}, domains, guides)
	assert.Equal(t, "d1", got[0].DomainID)
	assert.True(t, got[0].DomainInferred)
	assert.Same(t, placed, got[1])
	assert.Empty(t, orphan.DomainID, "input is not mutated")

	got = inferBriefDomains([]*ContentBrief{orphan}, nil, guides)
	assert.Equal(t, "alpha", got[0].DomainID)

	got = inferBriefDomains([]*ContentBrief{orphan}, nil, nil)
	assert.Empty(t, got[0].DomainID)
	assert.False(t, got[0].DomainInferred)

	synth := synthesizeDomains("t1", guides, []*ContentBrief{placed, orphan, {ID: "x", DomainID: "alpha"}})
	require.Len(t, synth, 2)
	assert.Equal(t, "alpha", synth[0].ID)
	assert.Equal(t, "beta", synth[1].ID)
	assert.Equal(t, "beta", synth[1].Name)
	assert.True(t, synth[1].Synthesized)
}

// TestPurpose: Validates the lock predicate and patch field reporting.
// Scope: Unit Test
// Security: Lifecycle integrity
// Expected: Only Scheduled and Published are locked; Fields lists supplied fields.
// Test Case ID: INF-02
func TestModel_LockAndPatchFields(t *testing.T) {
	assert.False(t, (&ContentBrief{Status: StatusDraft}).IsLocked())
	assert.True(t, (&ContentBrief{Status: StatusScheduled}).IsLocked())
	assert.True(t, (&ContentBrief{Status: StatusPublished}).IsLocked())

	title := "t"
	p := BriefPatch{Title: &title, ClearHeroImage: true}
	assert.Equal(t, []string{"title", "heroImage"}, p.Fields())

	ct, err := ParseContentType("News")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeNews, ct)
	_, err = ParseContentType("news")
	assert.ErrorIs(t, err, ErrValidation)
}
