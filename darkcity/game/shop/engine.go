// Package shop sells catalog items and manages the actor's inventory.
package shop

import (
	"context"
	"errors"

	"github.com/veszto/darkcity/darkcity/audit"
	"github.com/veszto/darkcity/darkcity/database/models"
	"github.com/veszto/darkcity/darkcity/database/repositories"
	"github.com/veszto/darkcity/darkcity/game"
)

type ActorStore interface {
	GetByID(ctx context.Context, id string) (*models.Actor, error)
}

type ItemStore interface {
	GetAll(ctx context.Context) ([]*models.Item, error)
	GetByID(ctx context.Context, id int64) (*models.Item, error)
}

type InventoryStore interface {
	GetByActor(ctx context.Context, actorID string) ([]*models.InventorySlot, error)
	GetSlot(ctx context.Context, actorID string, itemID int64) (*models.InventorySlot, error)
	Equip(ctx context.Context, actorID string, itemID int64, itemType models.ItemType) error
	Unequip(ctx context.Context, actorID string, itemID int64) error
	PurchaseItem(ctx context.Context, actor *models.Actor, itemID int64, qty int) error
}

type ProgressSink interface {
	RecordItem(ctx context.Context, actorID string, itemID int64, qty int64)
}

type Purchase struct {
	ItemID   int64
	Quantity int
	Total    int64
	NewCash  int64
}

type Engine struct {
	actors    ActorStore
	items     ItemStore
	inventory InventoryStore
	missions  ProgressSink
	recorder  audit.Recorder
}

func NewEngine(actors ActorStore, items ItemStore, inventory InventoryStore, missions ProgressSink, recorder audit.Recorder) *Engine {
	if recorder == nil {
		recorder = audit.NoopRecorder{}
	}
	return &Engine{
		actors:    actors,
		items:     items,
		inventory: inventory,
		missions:  missions,
		recorder:  recorder,
	}
}

func (e *Engine) Catalog(ctx context.Context) ([]*models.Item, error) {
	return e.items.GetAll(ctx)
}

func (e *Engine) Inventory(ctx context.Context, actorID string) ([]*models.InventorySlot, error) {
	return e.inventory.GetByActor(ctx, actorID)
}

// Purchase buys qty units of the item at the shop price.
func (e *Engine) Purchase(ctx context.Context, actorID string, itemID int64, qty int) (*Purchase, error) {
	if qty <= 0 {
		return nil, game.Precondition("quantity must be positive")
	}

	item, err := e.items.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, game.NotFound("item not found")
		}
		return nil, err
	}

	var purchase *Purchase
	err = game.RetryConflict(ctx, func(ctx context.Context) error {
		actor, err := e.actors.GetByID(ctx, actorID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return game.NotFound("actor not found")
			}
			return err
		}
		if actor.Level < item.RequiredLevel {
			return game.Forbidden("level %d required", item.RequiredLevel)
		}

		total := item.Price * int64(qty)
		if actor.MoneyCash < total {
			return game.Precondition("not enough cash")
		}
		actor.MoneyCash -= total

		if err := e.inventory.PurchaseItem(ctx, actor, itemID, qty); err != nil {
			return err
		}
		purchase = &Purchase{
			ItemID:   itemID,
			Quantity: qty,
			Total:    total,
			NewCash:  actor.MoneyCash,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.missions != nil {
		e.missions.RecordItem(ctx, actorID, itemID, int64(qty))
	}
	_ = e.recorder.Record(ctx, audit.Event{
		Kind:    "shop_purchase",
		ActorID: actorID,
		Details: map[string]any{"item_id": itemID, "qty": qty, "total": purchase.Total},
	})
	return purchase, nil
}

// Equip puts the item on. Only gear with a stat effect can be worn, and only
// one piece per item type.
func (e *Engine) Equip(ctx context.Context, actorID string, itemID int64) error {
	slot, err := e.inventory.GetSlot(ctx, actorID, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return game.NotFound("you do not own this item")
		}
		return err
	}

	item := slot.Item
	if item == nil {
		item, err = e.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
	}
	if item.Type == models.ItemTypeConsumable {
		return game.Precondition("consumables cannot be equipped")
	}
	if slot.Equipped {
		return game.Precondition("item is already equipped")
	}

	if err := e.inventory.Equip(ctx, actorID, itemID, item.Type); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return game.NotFound("you do not own this item")
		}
		return err
	}
	return nil
}

func (e *Engine) Unequip(ctx context.Context, actorID string, itemID int64) error {
	err := e.inventory.Unequip(ctx, actorID, itemID)
	if errors.Is(err, repositories.ErrNotFound) {
		return game.Precondition("item is not equipped")
	}
	return err
}
