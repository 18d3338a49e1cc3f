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
	"errors"
	"fmt"
	"log/slog"

	"github.com/opentrusty/contenthub/internal/observability/logger"
)

// BootstrapConfig describes the operator account created on first start
type BootstrapConfig struct {
	Email    string
	Password string
	ClientID string
	Role     string
}

// BootstrapService manages the initial initialization of the system
type BootstrapService struct {
	identityService *Service
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(identityService *Service) *BootstrapService {
	return &BootstrapService{identityService: identityService}
}

// Bootstrap provisions the configured operator unless it already exists.
// An empty email disables bootstrapping.
func (s *BootstrapService) Bootstrap(ctx context.Context, cfg BootstrapConfig) error {
	if cfg.Email == "" {
		return nil
	}
	if cfg.Password == "" || cfg.ClientID == "" {
		return fmt.Errorf("bootstrap requires password and client id for %s", cfg.Email)
	}
	if cfg.Role == "" {
		cfg.Role = RoleAdmin
	}

	user, err := s.identityService.Provision(ctx, cfg.ClientID, cfg.Email, cfg.Role, cfg.Password)
	if errors.Is(err, ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to bootstrap user (client: %s): %w", cfg.ClientID, err)
	}

	slog.InfoContext(ctx, "bootstrapped initial user",
		logger.UserID(user.ID),
		logger.ClientID(user.ClientID),
	)
	return nil
}
