package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/morezero/uftp-compliance/pkg/history"
)

const seedLogPrefix = "db:seed"

type identifierRow struct {
	kind  string
	value string
}

// identifierRows flattens reference data into uftp_identifiers rows, skipping blanks.
func identifierRows(data history.ReferenceData) []identifierRow {
	var rows []identifierRow
	add := func(kind string, values []string) {
		for _, v := range values {
			if v != "" {
				rows = append(rows, identifierRow{kind: kind, value: v})
			}
		}
	}
	add(IdentifierCongestionPoint, data.CongestionPoints)
	add(IdentifierContract, data.ContractIDs)
	add(IdentifierBaseline, data.BaselineReferences)
	return rows
}

// SeedReferenceData upserts participants and identifiers in one transaction. Seeding the same data
// twice is a no-op; a participant's handled flag follows the latest seed.
func SeedReferenceData(ctx context.Context, pool *pgxpool.Pool, data history.ReferenceData) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s - begin: %w", seedLogPrefix, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, p := range data.Participants {
		batch.Queue(
			`INSERT INTO uftp_participants (domain, role, handled, modified)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (domain, role) DO UPDATE SET handled = EXCLUDED.handled, modified = NOW()`,
			p.Domain, string(p.Role), p.Handled)
	}
	identifiers := identifierRows(data)
	for _, row := range identifiers {
		batch.Queue(
			`INSERT INTO uftp_identifiers (kind, value) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			row.kind, row.value)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("%s - upsert reference data: %w", seedLogPrefix, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s - commit: %w", seedLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Seeded %d participants and %d identifiers",
		seedLogPrefix, len(data.Participants), len(identifiers)))
	return nil
}
