// internal/database/action.go
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/manaclash/internal/cache"
)

// InsertMatchActions writes a batch of audit records in one transaction.
// Records already stored for the same (match, version) are skipped, so a
// redelivered batch is harmless.
func InsertMatchActions(ctx context.Context, pool *pgxpool.Pool, records []cache.MatchActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO match_actions (match_id, version, actor_id, action_type, target_id, card_id, value, action_ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (match_id, version) DO NOTHING
		`
		for _, rec := range records {
			a := rec.Action
			var cardID *string
			if a.CardID != "" {
				cardID = &a.CardID
			}
			if _, err := tx.Exec(ctx, q, rec.MatchID, rec.Version, a.ActorID, a.Type, a.TargetID, cardID, a.Value, a.Timestamp); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.MatchID, rec.Version, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert match actions: %w", err)
	}
	return nil
}

// ActionWriter adapts InsertMatchActions to the historian's writer interface.
type ActionWriter struct {
	Pool *pgxpool.Pool
}

func (w ActionWriter) WriteActions(ctx context.Context, records []cache.MatchActionRecord) error {
	return InsertMatchActions(ctx, w.Pool, records)
}
