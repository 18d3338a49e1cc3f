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

package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/opentrusty/contenthub/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a simple in-memory implementation of UserRepository
type MockUserRepository struct {
	mu          sync.Mutex
	users       map[string]*User
	credentials map[string]*Credentials
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:       make(map[string]*User),
		credentials: make(map[string]*Credentials),
	}
}

func (m *MockUserRepository) Create(_ context.Context, user *User, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	m.users[user.ID] = &u
	m.credentials[user.ID] = &Credentials{UserID: user.ID, PasswordHash: passwordHash}
	return nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *MockUserRepository) GetCredentials(_ context.Context, userID string) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return c, nil
}

func (m *MockUserRepository) UpdateLockout(_ context.Context, userID string, failedAttempts int, lockedUntil *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.FailedLoginAttempts = failedAttempts
	u.LockedUntil = lockedUntil
	return nil
}

func (m *MockUserRepository) UpdatePassword(_ context.Context, userID string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[userID]
	if !ok {
		return ErrUserNotFound
	}
	c.PasswordHash = passwordHash
	return nil
}

func newTestService() (*Service, *MockUserRepository) {
	repo := NewMockUserRepository()
	hasher := NewPasswordHasher(8*1024, 1, 1, 16, 32)
	return NewService(repo, hasher, audit.NopLogger{}, 3, 5*time.Minute), repo
}

// TestPurpose: Validates the user authentication flow, including success, failure, and account lockout after multiple failed attempts.
// Scope: Unit Test
// Security: Authentication mechanisms and Brute-force protection (lockout)
// Expected: Successful login for correct credentials, error for wrong credentials, and account lockout after the threshold.
// Test Case ID: IDN-01
func TestIdentity_Service_Authenticate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	password := "SecurePassword123"

	user, err := s.Provision(ctx, "acme", "Test@Example.com", RoleEditor, password)
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, "acme", user.TenantID())

	got, err := s.Authenticate(ctx, "test@example.com", password)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "acme", got.ClientID)

	_, err = s.Authenticate(ctx, "test@example.com", "WrongPassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _ = s.Authenticate(ctx, "test@example.com", "WrongPassword")
	_, err = s.Authenticate(ctx, "test@example.com", "WrongPassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "threshold attempt still reports invalid credentials")

	_, err = s.Authenticate(ctx, "test@example.com", password)
	assert.ErrorIs(t, err, ErrAccountLocked)
}

// TestPurpose: Validates that a lockout expires and that a successful login resets the failure counter.
// Scope: Unit Test
// Security: Brute-force protection (lockout window)
// Expected: Login succeeds after the lockout duration and the stored counter returns to zero.
// Test Case ID: IDN-02
func TestIdentity_Service_LockoutExpires(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	user, err := s.Provision(ctx, "acme", "ops@example.com", "", "SecurePassword123")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, user.Role)

	for i := 0; i < 3; i++ {
		_, _ = s.Authenticate(ctx, "ops@example.com", "nope-nope")
	}
	_, err = s.Authenticate(ctx, "ops@example.com", "SecurePassword123")
	require.ErrorIs(t, err, ErrAccountLocked)

	current = current.Add(6 * time.Minute)
	_, err = s.Authenticate(ctx, "ops@example.com", "SecurePassword123")
	require.NoError(t, err)

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockedUntil)
}

// TestPurpose: Validates that unknown users are reported exactly like wrong passwords.
// Scope: Unit Test
// Security: User enumeration prevention
// Expected: ErrInvalidCredentials for an unknown email.
// Test Case ID: IDN-03
func TestIdentity_Service_UnknownUser(t *testing.T) {
	s, _ := newTestService()
	_, err := s.Authenticate(context.Background(), "ghost@example.com", "whatever123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// TestPurpose: Validates provisioning input checks and email uniqueness.
// Scope: Unit Test
// Security: Data Integrity and Unique Constraint Enforcement
// Expected: Duplicate, malformed or weak input is rejected with the matching error.
// Test Case ID: IDN-04
func TestIdentity_Service_Provision_Validation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Provision(ctx, "acme", "conflict@example.com", RoleAdmin, "SecurePassword123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		clientID string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "other", "conflict@example.com", "SecurePassword123", ErrUserAlreadyExists},
		{"malformed email", "acme", "not-an-email", "SecurePassword123", ErrInvalidEmail},
		{"weak password", "acme", "new@example.com", "short", ErrWeakPassword},
		{"bad client id", "acme corp!", "new@example.com", "SecurePassword123", ErrInvalidClientID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Provision(ctx, tt.clientID, tt.email, RoleEditor, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

// TestPurpose: Validates password change requires the current password.
// Scope: Unit Test
// Security: Credential management
// Expected: Wrong old password is rejected; after a valid change only the new password authenticates.
// Test Case ID: IDN-05
func TestIdentity_Service_ChangePassword(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	user, err := s.Provision(ctx, "acme", "pw@example.com", RoleEditor, "OriginalPass1")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ChangePassword(ctx, user.ID, "wrong-pass", "ReplacementPass2"), ErrInvalidCredentials)
	require.NoError(t, s.ChangePassword(ctx, user.ID, "OriginalPass1", "ReplacementPass2"))

	_, err = s.Authenticate(ctx, "pw@example.com", "OriginalPass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "pw@example.com", "ReplacementPass2")
	assert.NoError(t, err)
}

// TestPurpose: Validates bootstrap provisioning is idempotent and can be disabled.
// Scope: Unit Test
// Security: Initial account provisioning
// Expected: First call creates the admin, a repeat call is a no-op, an empty email does nothing.
// Test Case ID: IDN-06
func TestIdentity_Bootstrap(t *testing.T) {
	s, repo := newTestService()
	b := NewBootstrapService(s)
	ctx := context.Background()

	require.NoError(t, b.Bootstrap(ctx, BootstrapConfig{}))
	assert.Empty(t, repo.users)

	cfg := BootstrapConfig{Email: "admin@acme.test", Password: "BootstrapPass1", ClientID: "acme"}
	require.NoError(t, b.Bootstrap(ctx, cfg))
	require.NoError(t, b.Bootstrap(ctx, cfg))
	assert.Len(t, repo.users, 1)

	u, err := repo.GetByEmail(ctx, "admin@acme.test")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)

	assert.Error(t, b.Bootstrap(ctx, BootstrapConfig{Email: "x@acme.test"}))
}

// TestPurpose: Validates argon2id hashes verify and reject tampered input.
// Scope: Unit Test
// Security: Password storage
// Expected: Correct password verifies, wrong password does not, malformed encodings error.
// Test Case ID: IDN-07
func TestIdentity_PasswordHasher(t *testing.T) {
	h := NewPasswordHasher(8*1024, 1, 1, 16, 32)

	hash, err := h.Hash("correct-horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$v=19$m=8192,t=1,p=1$")

	ok, err := h.Verify("correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("battery-staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = h.Verify("correct-horse", "$bcrypt$whatever")
	assert.Error(t, err)
}
