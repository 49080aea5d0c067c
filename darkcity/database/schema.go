package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veszto/darkcity/darkcity/database/models"
)

// InitializeSchema creates all required tables and indexes.
func (db *DB) InitializeSchema(ctx context.Context) error {
	start := time.Now()

	tables := []interface{}{
		(*models.Actor)(nil),
		(*models.ActorStats)(nil),
		(*models.CrimeDefinition)(nil),
		(*models.CombatLog)(nil),
		(*models.Drug)(nil),
		(*models.ActorDrug)(nil),
		(*models.Item)(nil),
		(*models.InventorySlot)(nil),
		(*models.MarketplaceListing)(nil),
		(*models.MarketplaceTransaction)(nil),
		(*models.MissionDefinition)(nil),
		(*models.ActorMission)(nil),
		(*models.Gang)(nil),
		(*models.GangMember)(nil),
	}

	for _, model := range tables {
		if _, err := db.bunDB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_inventory_actor ON inventory (actor_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_inventory_actor_item ON inventory (actor_id, item_id)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_status_expiry ON marketplace_listings (status, expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_listings_seller ON marketplace_listings (seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_combat_logs_attacker ON combat_logs (attacker_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_combat_logs_defender ON combat_logs (defender_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_actor_missions_actor ON actor_missions (actor_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actors_regen ON actors (last_energy_update, last_nerve_update, last_willpower_update, last_health_update)`,
	}

	for _, stmt := range indexes {
		if _, err := db.ExecWithLog(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	slog.Info("Database schema initialized",
		slog.String("type", "db"),
		slog.Int("tables", len(tables)),
		slog.Duration("took", time.Since(start)))
	return nil
}
