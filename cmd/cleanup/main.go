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

// Command cleanup removes expired sessions once and exits. It is meant to be
// run from cron when the server's own cleanup loop is disabled.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/opentrusty/contenthub/internal/config"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/session"
	"github.com/opentrusty/contenthub/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		MaxValueLen: cfg.Observability.LogMaxValueLen,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.New(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	sessions := session.NewService(postgres.NewSessionRepository(db), session.Config{
		Lifetime:    cfg.Session.Lifetime,
		IdleTimeout: cfg.Session.IdleTimeout,
	})
	n, err := sessions.CleanupExpired(ctx)
	if err != nil {
		slog.Error("failed to cleanup expired sessions", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("removed expired sessions", logger.RowsAffected(n))
}
