package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/veszto/darkcity/darkcity/database/models"
)

type InventoryRepository interface {
	GetByActor(ctx context.Context, actorID string) ([]*models.InventorySlot, error)
	GetSlot(ctx context.Context, actorID string, itemID int64) (*models.InventorySlot, error)
	GetEquipped(ctx context.Context, actorID string) ([]*models.InventorySlot, error)
	AddItem(ctx context.Context, actorID string, itemID int64, qty int) error
	// Equip marks the slot equipped after unequipping anything else of the
	// same item type, so one weapon, one armor and one vehicle at most.
	Equip(ctx context.Context, actorID string, itemID int64, itemType models.ItemType) error
	Unequip(ctx context.Context, actorID string, itemID int64) error
	// PurchaseItem persists the buyer's balance and grants the item as one
	// atomic unit.
	PurchaseItem(ctx context.Context, actor *models.Actor, itemID int64, qty int) error
}

type inventoryRepository struct {
	db *bun.DB
}

func NewInventoryRepository(db *bun.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetByActor(ctx context.Context, actorID string) ([]*models.InventorySlot, error) {
	var slots []*models.InventorySlot
	err := r.db.NewSelect().
		Model(&slots).
		Relation("Item").
		Where("inv.actor_id = ?", actorID).
		Order("updated_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return slots, nil
}

func (r *inventoryRepository) GetSlot(ctx context.Context, actorID string, itemID int64) (*models.InventorySlot, error) {
	slot := new(models.InventorySlot)
	err := r.db.NewSelect().
		Model(slot).
		Relation("Item").
		Where("inv.actor_id = ? AND inv.item_id = ?", actorID, itemID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return slot, nil
}

func (r *inventoryRepository) GetEquipped(ctx context.Context, actorID string) ([]*models.InventorySlot, error) {
	var slots []*models.InventorySlot
	err := r.db.NewSelect().
		Model(&slots).
		Relation("Item").
		Where("inv.actor_id = ? AND inv.equipped = true", actorID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get equipped items: %w", err)
	}
	return slots, nil
}

func (r *inventoryRepository) AddItem(ctx context.Context, actorID string, itemID int64, qty int) error {
	return addInventory(ctx, r.db, actorID, itemID, qty)
}

func (r *inventoryRepository) Equip(ctx context.Context, actorID string, itemID int64, itemType models.ItemType) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		// Unequip anything else of the same type first.
		_, err := tx.NewUpdate().
			Model((*models.InventorySlot)(nil)).
			Set("equipped = false").
			Set("updated_at = ?", time.Now()).
			Where("actor_id = ? AND equipped = true", actorID).
			Where("item_id IN (SELECT id FROM items WHERE type = ?)", itemType).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to unequip same-type items: %w", err)
		}

		res, err := tx.NewUpdate().
			Model((*models.InventorySlot)(nil)).
			Set("equipped = true").
			Set("updated_at = ?", time.Now()).
			Where("actor_id = ? AND item_id = ?", actorID, itemID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to equip item: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *inventoryRepository) Unequip(ctx context.Context, actorID string, itemID int64) error {
	res, err := r.db.NewUpdate().
		Model((*models.InventorySlot)(nil)).
		Set("equipped = false").
		Set("updated_at = ?", time.Now()).
		Where("actor_id = ? AND item_id = ? AND equipped = true", actorID, itemID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unequip item: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepository) PurchaseItem(ctx context.Context, actor *models.Actor, itemID int64, qty int) error {
	return withTx(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		if err := applyActorUpdate(ctx, tx, actor); err != nil {
			return err
		}
		return addInventory(ctx, tx, actor.ID, itemID, qty)
	})
}
