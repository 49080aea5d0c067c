package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InventorySlot is the per-(actor, item) holding. An item held against an
// active marketplace listing has no slot: the listing is the escrow.
type InventorySlot struct {
	bun.BaseModel `bun:"table:inventory,alias:inv"`

	ID        string    `bun:"id,pk"`
	ActorID   string    `bun:"actor_id,notnull"`
	ItemID    int64     `bun:"item_id,notnull"`
	Quantity  int       `bun:"quantity,notnull,default:1"`
	Equipped  bool      `bun:"equipped,notnull,default:false"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`

	Item *Item `bun:"rel:belongs-to,join:item_id=id"`
}

func NewInventorySlot(actorID string, itemID int64, qty int) *InventorySlot {
	return &InventorySlot{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		ItemID:    itemID,
		Quantity:  qty,
		UpdatedAt: time.Now(),
	}
}
