// Package main is the entrypoint for the uftp-compliance service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/uftp-compliance/internal/config"
	"github.com/morezero/uftp-compliance/internal/server"
	"github.com/morezero/uftp-compliance/pkg/db"
	"github.com/morezero/uftp-compliance/pkg/policy"
)

const usage = `Usage: uftp-compliance [command]
       uftp-compliance serve              Start the compliance service (NATS, HTTP, validation API).
       uftp-compliance migrate up         Run database migrations.
       uftp-compliance migrate down       Roll back the last applied migration using its down script.
       uftp-compliance migrate status     Show migration status.
       uftp-compliance ensure-db [name]   Create database if missing (default name: uftp_test). Uses DATABASE_URL host/user.
       uftp-compliance clear [messages]   Truncate the message store and reference data, or only messages; schema is preserved.
       uftp-compliance seed [file]        Seed reference data (participants, congestion points, contracts, baselines) from a policy file.

Commands:
  serve           (default) Start the compliance service.
  migrate up      Run database migrations only.
  migrate down    Roll back last migration.
  migrate status  Show current migration status.
  ensure-db [name] Create database (e.g. uftp_test) on same host as DATABASE_URL; then run tests with that URL.
  clear [messages] Truncate stored messages and reference data ("messages" keeps reference data).
  seed [file]     Seed reference data from the given policy file, UFTP_POLICY_FILE or config/policy.yaml.

Environment: DATABASE_URL, MIGRATION_PATH, COMMS_URL, UFTP_STORE (postgres|memory), UFTP_POLICY_FILE,
UFTP_REFERENCE_SCOPE (conversation|message), HTTP_PORT (default 8080),
UFTP_EVENT_OUTCOMES (e.g. rejected,duplicate).
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUnknownCommand) {
			fmt.Fprintf(os.Stderr, "%v\n%s", err, usage)
			os.Exit(1)
		}
		log.Fatalf("uftp-compliance %v", err)
	}
}

var errUnknownCommand = errors.New("unknown command")

// run executes one command; errors carry the command name.
func run(args []string, out io.Writer) error {
	cmd := ""
	if len(args) > 0 && args[0] != "" {
		cmd = args[0]
	}
	arg := func(i int, fallback string) string {
		if len(args) > i && args[i] != "" {
			return args[i]
		}
		return fallback
	}

	var err error
	switch cmd {
	case "migrate":
		sub := arg(1, "")
		switch sub {
		case "up":
			err = runMigrateUp()
		case "status":
			err = runMigrateStatus(out)
		case "down":
			err = runMigrateDown(out)
		case "":
			return fmt.Errorf("migrate: require subcommand (up, down, status)")
		default:
			return fmt.Errorf("migrate: unknown subcommand %q (use up, down, status)", sub)
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", sub, err)
		}
		return nil
	case "clear":
		err = runClear(arg(1, ""))
	case "seed":
		err = runSeed(arg(1, ""), out)
	case "ensure-db":
		err = runEnsureDB(arg(1, "uftp_test"), out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	case "serve", "":
		cmd = "serve"
		err = server.Run()
	default:
		return fmt.Errorf("%w %q", errUnknownCommand, cmd)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	return nil
}

// withPool loads config, opens a pool against DATABASE_URL and runs fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateForDB(); err != nil {
		return err
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool)
}

func runMigrateUp() error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		migrations, err := db.LoadMigrations(cfg.MigrationPath)
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		if err := db.RunMigrations(ctx, pool, migrations); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

func runMigrateStatus(out io.Writer) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		return db.MigrationStatus(ctx, pool, cfg.MigrationPath, out)
	})
}

func runMigrateDown(out io.Writer) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		name, err := db.MigrationDown(ctx, pool, cfg.MigrationPath)
		if err != nil {
			return err
		}
		if name == "" {
			fmt.Fprintln(out, "No migrations applied; nothing to roll back.")
			return nil
		}
		fmt.Fprintf(out, "Rolled back %s.\n", name)
		return nil
	})
}

func runClear(what string) error {
	clearFn := db.ClearStore
	switch what {
	case "":
	case "messages":
		clearFn = db.ClearMessages
	default:
		return fmt.Errorf("clear: unknown target %q (use messages or nothing)", what)
	}
	return withPool(func(ctx context.Context, _ *config.Config, pool *pgxpool.Pool) error {
		if err := clearFn(ctx, pool); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		return nil
	})
}

func runEnsureDB(dbName string, out io.Writer) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	targetURL, err := db.WithDatabase(cfg.DatabaseURL, dbName)
	if err != nil {
		return err
	}
	if err := db.EnsureDatabase(context.Background(), targetURL); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %q is ready.\n", dbName)
	return nil
}

func runSeed(policyFile string, out io.Writer) error {
	return withPool(func(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) error {
		path := policyFile
		if path == "" {
			path = cfg.PolicyFile
		}
		pol, err := policy.Load(path)
		if err != nil {
			return fmt.Errorf("load policy: %w", err)
		}
		if err := db.SeedReferenceData(ctx, pool, pol.ReferenceData()); err != nil {
			return fmt.Errorf("seed reference data: %w", err)
		}
		fmt.Fprintf(out, "Seeded reference data from policy %q.\n", pol.Name())
		return nil
	})
}
