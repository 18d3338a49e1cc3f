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

// Command migrate applies the embedded schema migrations and, optionally,
// provisions tenants from a seed file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentrusty/contenthub/internal/config"
	"github.com/opentrusty/contenthub/internal/observability/logger"
	"github.com/opentrusty/contenthub/internal/store/postgres"
	"github.com/opentrusty/contenthub/internal/store/seed"
)

func main() {
	seedFile := flag.String("seed", "", "YAML file of tenants, domains and brand guides to provision after migrating")
	flag.Parse()

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate(ctx, cfg, *seedFile); err != nil {
		slog.Error("migration failed", logger.Error(err))
		os.Exit(1)
	}
}

func migrate(ctx context.Context, cfg *config.Config, seedFile string) error {
	db, err := postgres.New(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return err
	}
	for _, name := range applied {
		slog.InfoContext(ctx, "applied migration", logger.String("migration", name))
	}
	if len(applied) == 0 {
		slog.InfoContext(ctx, "schema is up to date")
	}

	if seedFile == "" {
		return nil
	}
	f, err := seed.Load(seedFile)
	if err != nil {
		return err
	}
	n, err := seed.Apply(ctx, postgres.NewProvisioner(db), f)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "applied seed file", logger.String("path", seedFile), logger.RowsAffected(int64(n)))
	return nil
}
