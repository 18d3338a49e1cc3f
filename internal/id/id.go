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

// Package id generates identifiers used across the service.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
)

// tokenAlphabet is the character set for application-minted tokens
const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewUUIDv7 returns a time-ordered UUID for internal row keys.
func NewUUIDv7() string {
	u, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system random source fails
		return uuid.NewString()
	}
	return u.String()
}

// NewToken returns a random lowercase alphanumeric token of length n.
func NewToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	// 252 is the largest multiple of 36 below 256; rejecting above it keeps the distribution uniform
	out := make([]byte, 0, n)
	for len(out) < n {
		for _, b := range buf {
			if b >= 252 {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
		if len(out) < n {
			if _, err := rand.Read(buf); err != nil {
				return "", fmt.Errorf("failed to read random bytes: %w", err)
			}
		}
	}

	return string(out), nil
}

// NewOpaque returns a URL-safe random string carrying size bytes of entropy.
func NewOpaque(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IsToken reports whether s is a lowercase alphanumeric token of length n.
func IsToken(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
