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

package content_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/store/memory"
)

// fakeWorkflow records collaborator calls and fails when err is set
type fakeWorkflow struct {
	mu        sync.Mutex
	err       error
	drafted   string
	submitted []string
	published []string
	domains   map[string]string
	scheduled map[string]time.Time
}

func (f *fakeWorkflow) SubmitBrief(_ context.Context, b *content.ContentBrief) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.submitted = append(f.submitted, b.ID)
	return f.drafted, nil
}

func (f *fakeWorkflow) Publish(_ context.Context, b *content.ContentBrief) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, b.ID)
	if f.domains == nil {
		f.domains = map[string]string{}
	}
	f.domains[b.ID] = b.DomainID
	return nil
}

func (f *fakeWorkflow) Schedule(_ context.Context, b *content.ContentBrief, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.scheduled == nil {
		f.scheduled = map[string]time.Time{}
	}
	f.scheduled[b.ID] = at
	return nil
}

// fakeImages returns a fixed data URI and remembers the last request
type fakeImages struct {
	uri             string
	err             error
	lastPrompt      string
	lastSource      string
	lastInstruction string
	lastStyle       content.ImageStyle
}

func (f *fakeImages) Generate(_ context.Context, prompt string, style content.ImageStyle) (string, error) {
	f.lastPrompt, f.lastStyle = prompt, style
	return f.uri, f.err
}

func (f *fakeImages) Edit(_ context.Context, source, instruction string, style content.ImageStyle) (string, error) {
	f.lastSource, f.lastInstruction, f.lastStyle = source, instruction, style
	return f.uri, f.err
}

// recordingAudit keeps every audit event
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

var errUpstream = errors.New("upstream returned 500")

// pngBytes is a 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type fixture struct {
	store    *memory.Store
	workflow *fakeWorkflow
	images   *fakeImages
	svc      *content.Service
}

// newFixture seeds two tenants: t1 with domain d1 and its guide, t2 with d2
func newFixture() *fixture {
	st := memory.New()
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	st.AddDomain(content.Domain{ID: "d1", Name: "Acme Blog", ClientID: "t1", CreatedAt: base})
	st.AddDomain(content.Domain{ID: "d2", Name: "Globex News", ClientID: "t2", CreatedAt: base})
	st.AddBrandGuide(content.BrandGuide{ID: "g1", DomainID: "d1", ClientID: "t1", StylePrompt: "flat pastel illustration", ToneOfVoice: "friendly"})
	st.AddBrandGuide(content.BrandGuide{ID: "g2", DomainID: "d2", ClientID: "t2", StylePrompt: "photo", ToneOfVoice: "formal"})

	wf := &fakeWorkflow{}
	img := &fakeImages{uri: content.EncodeDataURI(pngBytes, "image/png")}
	svc := content.NewService(st.Domains(), st.BrandGuides(), st.Briefs(), wf, img, nil, nil)
	return &fixture{store: st, workflow: wf, images: img, svc: svc}
}

func strPtr(s string) *string { return &s }
