// Copyright 2025 Poiesic Systems
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


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/vecfill"
	"github.com/poiesic/vecfill/ai"
	"github.com/poiesic/vecfill/storage/postgres"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "vecfill",
		Usage:    "Backfill and query embeddings of a message table",
		Flags:    globalFlags(),
		Before:   setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "backfill",
				Usage:  "Fill in missing embeddings for one instance of a partitioned run",
				Action: backfillCommand,
				Flags: append(append([]cli.Flag{
					&cli.IntFlag{
						Name:    "instance",
						Aliases: []string{"i"},
						Usage:   "Index of this instance, from 0",
					},
					&cli.IntFlag{
						Name:    "total-instances",
						Aliases: []string{"n"},
						Usage:   "Number of instances sharing the table",
					},
					&cli.StringFlag{
						Name:  "schedule",
						Usage: "Cron spec to repeat the backfill on (runs once when empty)",
					},
				}, backfillFlags()...), retryFlags()...),
			},
			{
				Name:   "backfill-all",
				Usage:  "Run every instance of a partitioned backfill in this process",
				Action: backfillAllCommand,
				Flags: append(append([]cli.Flag{
					&cli.IntFlag{
						Name:     "total-instances",
						Aliases:  []string{"n"},
						Usage:    "Number of instances to run",
						Required: true,
					},
				}, backfillFlags()...), retryFlags()...),
			},
			{
				Name:   "query",
				Usage:  "Interactively search the table by similarity",
				Action: queryCommand,
				Flags:  retryFlags(),
			},
			{
				Name:   "seed",
				Usage:  "Load records from a YAML file into the local store",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "YAML file of records",
						Required: true,
					},
				},
			},
		},
	}
}

func globalFlags() []cli.Flag {
	pg := postgres.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set logging level (debug, info, warn, error)",
			Value:   "info",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Store holding the table (postgres, badger)",
			Value: "postgres",
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (badger store)",
			Value:   "./vecfill_db",
		},
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Embedding provider (openai, compat)",
			Value: vecfill.ProviderOpenAI,
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Embedding API base URL",
			Value:   ai.DefaultBaseURL,
			EnvVars: []string{"OPENAI_BASE_URL"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Embedding model name",
			Value: ai.DefaultModel,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout of a single embedding request",
			Value: 60 * time.Second,
		},
		&cli.StringFlag{Name: "pg-host", Usage: "PostgreSQL host", EnvVars: []string{"PGHOST"}},
		&cli.StringFlag{Name: "pg-port", Usage: "PostgreSQL port", EnvVars: []string{"PGPORT"}},
		&cli.StringFlag{Name: "pg-database", Usage: "PostgreSQL database", EnvVars: []string{"PGDATABASE"}},
		&cli.StringFlag{Name: "pg-user", Usage: "PostgreSQL user", EnvVars: []string{"PGUSER"}},
		&cli.StringFlag{Name: "pg-password", Usage: "PostgreSQL password", EnvVars: []string{"PGPASSWORD"}},
		&cli.StringFlag{Name: "pg-sslmode", Usage: "PostgreSQL sslmode", EnvVars: []string{"PGSSLMODE"}},
		&cli.StringFlag{
			Name:  "table",
			Usage: "Table holding the messages",
			Value: pg.Table,
		},
		&cli.StringFlag{
			Name:  "embedding-column",
			Usage: "Column the embeddings are written to",
			Value: pg.EmbeddingColumn,
		},
	}
}

func backfillFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Rows fetched per round",
			Value: 100,
		},
		&cli.StringFlag{
			Name:  "partition",
			Usage: "How rows are split between instances (offset, hash)",
			Value: "offset",
		},
		&cli.DurationFlag{
			Name:  "row-delay",
			Usage: "Minimum interval between rows",
			Value: 20 * time.Millisecond,
		},
		&cli.IntFlag{
			Name:  "dimensions",
			Usage: "Expected embedding length (0 learns it from the first row)",
		},
	}
}

func retryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "max-retries",
			Usage: "Retries of a rate-limited embedding request",
			Value: ai.DefaultMaxRetries,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Pause before each retry",
			Value: ai.DefaultRetryDelay,
		},
		&cli.Float64Flag{
			Name:  "retry-multiplier",
			Usage: "Growth of the retry pause (1 keeps it constant)",
			Value: 1,
		},
		&cli.DurationFlag{
			Name:  "max-retry-delay",
			Usage: "Upper bound of a growing retry pause (0 for none)",
		},
		&cli.DurationFlag{
			Name:  "pacing",
			Usage: "Pause after each successful embedding request",
			Value: ai.DefaultPacing,
		},
		&cli.Float64Flag{
			Name:  "requests-per-second",
			Usage: "Cap on embedding requests per second, retries included (0 for no cap)",
		},
	}
}

// aiConfig builds the provider configuration from the global and retry flags.
func aiConfig(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithBaseURL(c.String("base-url")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithModel(c.String("model")),
		ai.WithTimeout(c.Duration("timeout")),
	}
	if c.IsSet("max-retries") {
		opts = append(opts, ai.WithMaxRetries(c.Int("max-retries")))
	}
	if c.IsSet("retry-delay") {
		opts = append(opts, ai.WithRetryDelay(c.Duration("retry-delay")))
	}
	if c.IsSet("retry-multiplier") || c.IsSet("max-retry-delay") {
		opts = append(opts, ai.WithBackoff(c.Float64("retry-multiplier"), c.Duration("max-retry-delay")))
	}
	if c.IsSet("pacing") {
		opts = append(opts, ai.WithPacing(c.Duration("pacing")))
	}
	if c.IsSet("requests-per-second") {
		opts = append(opts, ai.WithRequestsPerSecond(c.Float64("requests-per-second")))
	}
	return ai.NewConfig(opts...)
}

func postgresConfig(c *cli.Context) *postgres.Config {
	cfg := postgres.DefaultConfig()
	cfg.Host = c.String("pg-host")
	cfg.Port = c.String("pg-port")
	cfg.Database = c.String("pg-database")
	cfg.User = c.String("pg-user")
	cfg.Password = c.String("pg-password")
	cfg.SSLMode = c.String("pg-sslmode")
	cfg.Table = c.String("table")
	cfg.EmbeddingColumn = c.String("embedding-column")
	return cfg
}

// openDatabase opens the store selected by --store with an embedding client
// configured from the flags.
func openDatabase(c *cli.Context) (*vecfill.Database, error) {
	opts := []vecfill.DatabaseOption{
		vecfill.WithAIConfig(aiConfig(c)),
		vecfill.WithProvider(c.String("provider")),
	}

	switch c.String("store") {
	case "postgres":
		return vecfill.OpenPostgres(postgresConfig(c), opts...)
	case "badger":
		return vecfill.OpenBadger(c.String("db"), opts...)
	default:
		return nil, fmt.Errorf("invalid store %q: must be one of postgres, badger", c.String("store"))
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
