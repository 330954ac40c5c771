package db

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const clearLogPrefix = "db:clear"

var (
	messageTables   = []string{"uftp_messages"}
	referenceTables = []string{"uftp_participants", "uftp_identifiers"}
)

// ClearStore empties the message history and the reference data. The schema is kept.
func ClearStore(ctx context.Context, pool *pgxpool.Pool) error {
	return truncate(ctx, pool, append(append([]string{}, messageTables...), referenceTables...))
}

// ClearMessages empties the message history only; seeded participants and identifiers survive.
func ClearMessages(ctx context.Context, pool *pgxpool.Pool) error {
	return truncate(ctx, pool, messageTables)
}

func truncate(ctx context.Context, pool *pgxpool.Pool, tables []string) error {
	slog.Info(fmt.Sprintf("%s - Truncating %s", clearLogPrefix, strings.Join(tables, ", ")))

	if _, err := pool.Exec(ctx, truncateStatement(tables)); err != nil {
		return fmt.Errorf("%s - truncate failed: %w", clearLogPrefix, err)
	}
	return nil
}

func truncateStatement(tables []string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = pgx.Identifier{t}.Sanitize()
	}
	return "TRUNCATE TABLE " + strings.Join(quoted, ", ") + " RESTART IDENTITY"
}
