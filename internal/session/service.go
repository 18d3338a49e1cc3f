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

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentrusty/contenthub/internal/id"
)

// idBytes is the entropy of a session identifier
const idBytes = 32

// Config controls session lifetime
type Config struct {
	Lifetime    time.Duration
	IdleTimeout time.Duration
}

// Service manages login sessions
type Service struct {
	repo Repository
	cfg  Config
	now  func() time.Time
}

// NewService creates a new session service
func NewService(repo Repository, cfg Config) *Service {
	return &Service{repo: repo, cfg: cfg, now: time.Now}
}

// Create opens a session for an authenticated user
func (s *Service) Create(ctx context.Context, clientID, userID, ipAddress, userAgent string) (*Session, error) {
	sid, err := id.NewOpaque(idBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := s.now().UTC()
	sess := &Session{
		ID:         sid,
		ClientID:   clientID,
		UserID:     userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		ExpiresAt:  now.Add(s.cfg.Lifetime),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Get returns a live session. Expired or idle sessions are removed and
// reported as ErrSessionExpired.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, ErrSessionNotFound
	}

	sess, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	now := s.now()
	if sess.IsExpired(now) || sess.IsIdle(now, s.cfg.IdleTimeout) {
		_ = s.repo.Delete(ctx, sessionID)
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Refresh records activity on a session
func (s *Service) Refresh(ctx context.Context, sess *Session) error {
	sess.LastSeenAt = s.now().UTC()
	if err := s.repo.Update(ctx, sess); err != nil {
		return fmt.Errorf("failed to refresh session: %w", err)
	}
	return nil
}

// Destroy ends a session
func (s *Service) Destroy(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// DestroyAllForUser ends every session of a user
func (s *Service) DestroyAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to destroy sessions: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions and returns the count
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}
