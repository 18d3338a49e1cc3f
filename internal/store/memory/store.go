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

// Package memory provides map-backed repositories for tests and for running
// the server without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opentrusty/contenthub/internal/content"
	"github.com/opentrusty/contenthub/internal/identity"
	"github.com/opentrusty/contenthub/internal/session"
)

// Store holds every record set behind one lock
type Store struct {
	mu          sync.RWMutex
	domains     map[string]*content.Domain // clientID/domainID -> domain
	guides      map[string]*content.BrandGuide
	briefs      map[string]*content.ContentBrief
	users       map[string]*identity.User
	credentials map[string]string // userID -> password hash
	sessions    map[string]*session.Session
}

// New creates an empty store
func New() *Store {
	return &Store{
		domains:     map[string]*content.Domain{},
		guides:      map[string]*content.BrandGuide{},
		briefs:      map[string]*content.ContentBrief{},
		users:       map[string]*identity.User{},
		credentials: map[string]string{},
		sessions:    map[string]*session.Session{},
	}
}

// Domains returns the domain repository view
func (s *Store) Domains() *DomainRepository { return &DomainRepository{s} }

// BrandGuides returns the brand guide repository view
func (s *Store) BrandGuides() *BrandGuideRepository { return &BrandGuideRepository{s} }

// Briefs returns the brief repository view
func (s *Store) Briefs() *BriefRepository { return &BriefRepository{s} }

// Users returns the user repository view
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// Sessions returns the session repository view
func (s *Store) Sessions() *SessionRepository { return &SessionRepository{s} }

// AddDomain provisions a domain. Domains are created out of band.
func (s *Store) AddDomain(d content.Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.domains[d.ClientID+"/"+d.ID] = &d
}

// AddBrandGuide provisions a brand guide
func (s *Store) AddBrandGuide(g content.BrandGuide) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guides[g.ID] = g.Clone()
}

// AddBrief inserts a brief as-is, bypassing creation rules
func (s *Store) AddBrief(b content.ContentBrief) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefs[b.ID] = b.Clone()
}

// ProvisionDomain creates a domain or renames an existing one
func (s *Store) ProvisionDomain(_ context.Context, d *content.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := d.ClientID + "/" + d.ID
	if existing, ok := s.domains[key]; ok {
		existing.Name = d.Name
		return nil
	}
	c := *d
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.domains[key] = &c
	return nil
}

// ProvisionBrandGuide creates the guide of a domain if it has none
func (s *Store) ProvisionBrandGuide(_ context.Context, g *content.BrandGuide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.guides {
		if existing.ClientID == g.ClientID && existing.DomainID == g.DomainID {
			return nil
		}
	}
	c := g.Clone()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}
	s.guides[c.ID] = c
	return nil
}

// DomainRepository implements content.DomainRepository
type DomainRepository struct{ s *Store }

func (r *DomainRepository) ListByClient(_ context.Context, clientID string) ([]*content.Domain, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*content.Domain{}
	for _, d := range r.s.domains {
		if d.ClientID == clientID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// BrandGuideRepository implements content.BrandGuideRepository
type BrandGuideRepository struct{ s *Store }

func (r *BrandGuideRepository) ListByClient(_ context.Context, clientID string) ([]*content.BrandGuide, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*content.BrandGuide{}
	for _, g := range r.s.guides {
		if g.ClientID == clientID {
			out = append(out, g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DomainID != out[j].DomainID {
			return out[i].DomainID < out[j].DomainID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *BrandGuideRepository) GetByID(_ context.Context, id string) (*content.BrandGuide, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.guides[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	return g.Clone(), nil
}

func (r *BrandGuideRepository) GetByDomain(_ context.Context, clientID, domainID string) (*content.BrandGuide, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, g := range r.s.guides {
		if g.ClientID == clientID && g.DomainID == domainID {
			return g.Clone(), nil
		}
	}
	return nil, content.ErrNotFound
}

func (r *BrandGuideRepository) Update(_ context.Context, guide *content.BrandGuide) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.guides[guide.ID]
	if !ok || cur.ClientID != guide.ClientID {
		return content.ErrNotFound
	}
	r.s.guides[guide.ID] = guide.Clone()
	return nil
}

func (r *BrandGuideRepository) SaveImage(_ context.Context, clientID, id string, img content.ImageRef) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.guides[id]
	if !ok || cur.ClientID != clientID {
		return content.ErrNotFound
	}
	c := img.Clone()
	cur.StyleImage = &c
	cur.UpdatedAt = img.UpdatedAt
	return nil
}

// BriefRepository implements content.BriefRepository
type BriefRepository struct{ s *Store }

func (r *BriefRepository) ListByClient(_ context.Context, clientID string) ([]*content.ContentBrief, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*content.ContentBrief{}
	for _, b := range r.s.briefs {
		if b.ClientID == clientID {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *BriefRepository) GetByID(_ context.Context, id string) (*content.ContentBrief, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.briefs[id]
	if !ok {
		return nil, content.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BriefRepository) Create(_ context.Context, brief *content.ContentBrief) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.briefs[brief.ID]; exists {
		return content.ErrConflict
	}
	r.s.briefs[brief.ID] = brief.Clone()
	return nil
}

func (r *BriefRepository) Update(_ context.Context, brief *content.ContentBrief) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.briefs[brief.ID]
	if !ok || cur.ClientID != brief.ClientID {
		return content.ErrNotFound
	}
	next := brief.Clone()
	next.CreatedAt = cur.CreatedAt
	next.DomainInferred = false
	r.s.briefs[brief.ID] = next
	return nil
}

func (r *BriefRepository) Delete(_ context.Context, clientID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.briefs[id]
	if !ok || cur.ClientID != clientID {
		return content.ErrNotFound
	}
	delete(r.s.briefs, id)
	return nil
}

// UserRepository implements identity.UserRepository
type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, user *identity.User, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return identity.ErrUserAlreadyExists
		}
	}
	u := *user
	r.s.users[user.ID] = &u
	r.s.credentials[user.ID] = passwordHash
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (r *UserRepository) GetCredentials(_ context.Context, userID string) (*identity.Credentials, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	hash, ok := r.s.credentials[userID]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &identity.Credentials{UserID: userID, PasswordHash: hash}, nil
}

func (r *UserRepository) UpdateLockout(_ context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return identity.ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.credentials[userID]; !ok {
		return identity.ErrUserNotFound
	}
	r.s.credentials[userID] = passwordHash
	return nil
}

// SessionRepository implements session.Repository
type SessionRepository struct{ s *Store }

func (r *SessionRepository) Create(_ context.Context, sess *session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *sess
	r.s.sessions[sess.ID] = &c
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*session.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	c := *sess
	return &c, nil
}

func (r *SessionRepository) Update(_ context.Context, sess *session.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.sessions[sess.ID]
	if !ok {
		return session.ErrSessionNotFound
	}
	cur.LastSeenAt = sess.LastSeenAt
	return nil
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.sessions[sessionID]; !ok {
		return session.ErrSessionNotFound
	}
	delete(r.s.sessions, sessionID)
	return nil
}

func (r *SessionRepository) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for sid, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, sid)
		}
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for sid, sess := range r.s.sessions {
		if !before.Before(sess.ExpiresAt) {
			delete(r.s.sessions, sid)
			n++
		}
	}
	return n, nil
}
