package models

import "github.com/uptrace/bun"

type ItemType string

const (
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeArmor      ItemType = "armor"
	ItemTypeVehicle    ItemType = "vehicle"
	ItemTypeConsumable ItemType = "consumable"
)

// Item is a static catalog entry. EffectStat names the attribute the item
// boosts while equipped (strength, defense or agility), empty for none.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          int64    `bun:"id,pk,autoincrement"`
	Name        string   `bun:"name,notnull"`
	Description string   `bun:"description"`
	Type        ItemType `bun:"type,notnull"`

	EffectStat  string `bun:"effect_stat"`
	EffectValue int    `bun:"effect_value,notnull,default:0"`

	Price         int64 `bun:"price,notnull"`
	IsTradable    bool  `bun:"is_tradable,notnull,default:true"`
	RequiredLevel int   `bun:"required_level,notnull,default:1"`
}
