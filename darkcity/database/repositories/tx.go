package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

const defaultTxTimeout = 10 * time.Second

// withTx runs fn inside a read-committed transaction with a timeout,
// committing on success and rolling back otherwise.
func withTx(ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, defaultTxTimeout)
	defer cancel()

	tx, err := db.BeginTx(timeoutCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(timeoutCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// applyActorUpdate persists an actor with an optimistic version check.
// The in-memory version is restored when the write does not land so the
// caller can re-read and retry.
func applyActorUpdate(ctx context.Context, idb bun.IDB, actor *models.Actor) error {
	oldVersion := actor.Version
	actor.Version++
	actor.UpdatedAt = time.Now()

	res, err := idb.NewUpdate().
		Model(actor).
		WherePK().
		Where("a.version = ?", oldVersion).
		Exec(ctx)
	if err != nil {
		actor.Version = oldVersion
		return fmt.Errorf("failed to update actor: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		actor.Version = oldVersion
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		actor.Version = oldVersion
		return ErrConflict
	}
	return nil
}

// addInventory upserts quantity onto the (actor, item) slot.
func addInventory(ctx context.Context, idb bun.IDB, actorID string, itemID int64, qty int) error {
	res, err := idb.NewUpdate().
		Model((*models.InventorySlot)(nil)).
		Set("quantity = quantity + ?", qty).
		Set("updated_at = ?", time.Now()).
		Where("actor_id = ? AND item_id = ?", actorID, itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update inventory quantity: %w", err)
	}

	if affected, _ := res.RowsAffected(); affected == 0 {
		slot := models.NewInventorySlot(actorID, itemID, qty)
		if _, err := idb.NewInsert().Model(slot).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert inventory slot: %w", err)
		}
	}
	return nil
}

// removeInventory takes qty units out of the (actor, item) slot, guarding
// against underflow and against listing an equipped item.
func removeInventory(ctx context.Context, idb bun.IDB, actorID string, itemID int64, qty int) error {
	res, err := idb.NewUpdate().
		Model((*models.InventorySlot)(nil)).
		Set("quantity = quantity - ?", qty).
		Set("updated_at = ?", time.Now()).
		Where("actor_id = ? AND item_id = ? AND equipped = false AND quantity >= ?", actorID, itemID, qty).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove from inventory: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUnavailable
	}

	// Drop emptied slots so escrow exclusivity holds at the row level.
	if _, err := idb.NewDelete().
		Model((*models.InventorySlot)(nil)).
		Where("actor_id = ? AND item_id = ? AND quantity <= 0", actorID, itemID).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clean up empty slot: %w", err)
	}
	return nil
}
